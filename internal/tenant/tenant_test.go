package tenant

import (
	"context"
	"errors"
	"testing"

	"github.com/laimu/erptracker/internal/apperr"
	"github.com/laimu/erptracker/internal/models"
	"go.uber.org/zap"
)

type fakeProfiles struct {
	profiles map[string]*models.Profile
	err      error
}

func (f *fakeProfiles) GetByID(_ context.Context, id string) (*models.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profiles[id], nil
}

type fakeOrgs struct {
	orgs  map[string]*models.Organization
	err   error
	calls int
}

func (f *fakeOrgs) GetByID(_ context.Context, id string) (*models.Organization, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.orgs[id], nil
}

func strPtr(s string) *string { return &s }

func TestRoleGating(t *testing.T) {
	tests := []struct {
		role       models.Role
		wantAdmin  bool
		wantClient bool
		wantView   View
	}{
		{models.RoleClientUser, false, true, ViewDashboard},
		{models.RoleOrgAdmin, true, false, ViewBackOffice},
		{models.RoleSuperAdmin, true, false, ViewBackOffice},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			c := &Context{State: StateReady, Profile: &models.Profile{ID: "p", Role: tt.role}}
			if c.IsAdmin() != tt.wantAdmin {
				t.Errorf("IsAdmin = %v, want %v", c.IsAdmin(), tt.wantAdmin)
			}
			if c.IsClient() != tt.wantClient {
				t.Errorf("IsClient = %v, want %v", c.IsClient(), tt.wantClient)
			}
			if c.LandingView() != tt.wantView {
				t.Errorf("LandingView = %q, want %q", c.LandingView(), tt.wantView)
			}
		})
	}

	var noProfile *Context
	if noProfile.IsAdmin() || noProfile.IsClient() {
		t.Error("nil context must be neither admin nor client")
	}
}

func TestResolveAnonymous(t *testing.T) {
	r := NewResolver(&fakeProfiles{}, &fakeOrgs{}, zap.NewNop())
	c := r.Resolve(context.Background(), "")
	if c.State != StateAnonymous {
		t.Errorf("State = %q, want anonymous", c.State)
	}
}

func TestResolveMissingProfile(t *testing.T) {
	orgs := &fakeOrgs{}
	r := NewResolver(&fakeProfiles{profiles: map[string]*models.Profile{}}, orgs, zap.NewNop())

	c := r.Resolve(context.Background(), "u1")
	if c.State != StateProfileUnresolved {
		t.Errorf("State = %q, want profile_unresolved", c.State)
	}
	if c.Profile != nil {
		t.Error("Profile should stay nil")
	}
	if orgs.calls != 0 {
		t.Error("organization must not be fetched without a profile")
	}
	if !c.Scope().Unassigned() {
		t.Error("unresolved profile must not see any tenant")
	}
}

func TestResolveProfileError(t *testing.T) {
	r := NewResolver(&fakeProfiles{err: errors.New("timeout")}, &fakeOrgs{}, zap.NewNop())
	c := r.Resolve(context.Background(), "u1")
	if c.State != StateProfileUnresolved || c.PrincipalID != "u1" {
		t.Errorf("got %+v", c)
	}
}

func TestResolveSuperAdminSkipsOrganization(t *testing.T) {
	orgs := &fakeOrgs{}
	profiles := &fakeProfiles{profiles: map[string]*models.Profile{
		"root": {ID: "root", Role: models.RoleSuperAdmin},
	}}
	c := NewResolver(profiles, orgs, zap.NewNop()).Resolve(context.Background(), "root")

	if c.State != StateReady {
		t.Errorf("State = %q", c.State)
	}
	if orgs.calls != 0 {
		t.Error("organization fetched for profile without organization")
	}
	if !c.Scope().Unscoped() {
		t.Error("super admin without organization should be unscoped")
	}
}

func TestResolveOrganizationErrorDegrades(t *testing.T) {
	profiles := &fakeProfiles{profiles: map[string]*models.Profile{
		"u1": {ID: "u1", Role: models.RoleClientUser, OrganizationID: strPtr("acme")},
	}}
	c := NewResolver(profiles, &fakeOrgs{err: errors.New("boom")}, zap.NewNop()).Resolve(context.Background(), "u1")

	if c.State != StateReady {
		t.Errorf("State = %q, want ready", c.State)
	}
	if c.Organization != nil {
		t.Error("Organization should be nil after fetch error")
	}
	if got := c.Scope().OrganizationID(); got == nil || *got != "acme" {
		t.Error("scope should still be pinned to the profile organization")
	}
}

func TestResolveReady(t *testing.T) {
	profiles := &fakeProfiles{profiles: map[string]*models.Profile{
		"u1": {ID: "u1", Role: models.RoleOrgAdmin, OrganizationID: strPtr("acme")},
	}}
	orgs := &fakeOrgs{orgs: map[string]*models.Organization{"acme": {ID: "acme", Name: "Acme"}}}
	c := NewResolver(profiles, orgs, zap.NewNop()).Resolve(context.Background(), "u1")

	if c.State != StateReady || c.Organization == nil || c.Organization.Name != "Acme" {
		t.Fatalf("got %+v", c)
	}
}

func TestScopeForOrganization(t *testing.T) {
	super := NewScope(models.Profile{ID: "root", Role: models.RoleSuperAdmin})
	narrowed, err := super.ForOrganization("acme")
	if err != nil {
		t.Fatalf("super admin narrowing: %v", err)
	}
	if narrowed.Unscoped() || *narrowed.OrganizationID() != "acme" {
		t.Error("narrowed scope should be pinned to acme")
	}

	client := NewScope(models.Profile{ID: "u", Role: models.RoleClientUser, OrganizationID: strPtr("acme")})
	if _, err := client.ForOrganization("globex"); !apperr.IsForbidden(err) {
		t.Errorf("client selecting another tenant: err = %v, want forbidden", err)
	}
	if _, err := client.ForOrganization("acme"); err != nil {
		t.Errorf("client selecting own tenant: %v", err)
	}
}

func TestScopeAllows(t *testing.T) {
	acme, globex := strPtr("acme"), strPtr("globex")

	client := NewScope(models.Profile{ID: "u", Role: models.RoleClientUser, OrganizationID: acme})
	if !client.Allows(acme) || client.Allows(globex) || client.Allows(nil) {
		t.Error("client should only see its own tenant")
	}
	if !client.AllowsShared(nil) {
		t.Error("global help content should be visible to clients")
	}

	super := NewScope(models.Profile{ID: "root", Role: models.RoleSuperAdmin})
	if !super.Allows(globex) || !super.Allows(nil) {
		t.Error("unscoped super admin should see everything")
	}

	var zero Scope
	if zero.Allows(acme) || zero.AllowsShared(nil) || zero.CanAdminister() {
		t.Error("zero scope must match nothing")
	}
}
