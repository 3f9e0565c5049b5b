package tenant

import (
	"context"

	"github.com/laimu/erptracker/internal/models"
	"go.uber.org/zap"
)

// State is where a session stands in resolution.
type State string

const (
	StateLoading   State = "loading"
	StateAnonymous State = "anonymous"
	// StateProfileUnresolved means the principal is authenticated but no
	// profile could be loaded. The session stays usable with fewer fields.
	StateProfileUnresolved State = "profile_unresolved"
	StateReady             State = "ready"
)

// View is the screen a session lands on after sign-in.
type View string

const (
	ViewDashboard  View = "DASHBOARD"
	ViewBackOffice View = "BACKOFFICE"
)

// Context is the resolved identity of one session.
type Context struct {
	State        State                `json:"state"`
	PrincipalID  string               `json:"principal_id,omitempty"`
	Profile      *models.Profile      `json:"profile"`
	Organization *models.Organization `json:"organization"`
}

func (c *Context) IsAdmin() bool {
	return c != nil && c.Profile != nil && c.Profile.Role.IsAdmin()
}

func (c *Context) IsClient() bool {
	return c != nil && c.Profile != nil && c.Profile.Role == models.RoleClientUser
}

// LandingView sends administrators to the back office and everyone else to
// the dashboard.
func (c *Context) LandingView() View {
	if c.IsAdmin() {
		return ViewBackOffice
	}
	return ViewDashboard
}

// Scope returns the data scope of the session. Without a profile it is the
// zero Scope, which matches nothing.
func (c *Context) Scope() Scope {
	if c == nil || c.Profile == nil {
		return Scope{principal: c.principal()}
	}
	return NewScope(*c.Profile)
}

func (c *Context) principal() string {
	if c == nil {
		return ""
	}
	return c.PrincipalID
}

type ProfileSource interface {
	// GetByID returns nil, nil when the profile does not exist.
	GetByID(ctx context.Context, id string) (*models.Profile, error)
}

type OrganizationSource interface {
	// GetByID returns nil, nil when the organization does not exist.
	GetByID(ctx context.Context, id string) (*models.Organization, error)
}

// Resolver loads profile and organization for a principal.
type Resolver struct {
	profiles ProfileSource
	orgs     OrganizationSource
	logger   *zap.Logger
}

func NewResolver(profiles ProfileSource, orgs OrganizationSource, logger *zap.Logger) *Resolver {
	return &Resolver{profiles: profiles, orgs: orgs, logger: logger}
}

// Resolve never fails. Fetch errors are logged and the returned Context
// keeps whatever was resolved before the failure.
func (r *Resolver) Resolve(ctx context.Context, principalID string) *Context {
	if principalID == "" {
		return &Context{State: StateAnonymous}
	}

	tc := &Context{State: StateLoading, PrincipalID: principalID}

	profile, err := r.profiles.GetByID(ctx, principalID)
	if err != nil {
		r.logger.Error("failed to fetch profile",
			zap.String("principal_id", principalID),
			zap.Error(err),
		)
		tc.State = StateProfileUnresolved
		return tc
	}
	if profile == nil {
		r.logger.Warn("no profile for principal", zap.String("principal_id", principalID))
		tc.State = StateProfileUnresolved
		return tc
	}
	tc.Profile = profile

	// Super admins are created without an organization.
	if profile.OrganizationID == nil {
		tc.State = StateReady
		return tc
	}

	org, err := r.orgs.GetByID(ctx, *profile.OrganizationID)
	switch {
	case err != nil:
		r.logger.Error("failed to fetch organization",
			zap.String("organization_id", *profile.OrganizationID),
			zap.Error(err),
		)
	case org == nil:
		r.logger.Warn("profile references missing organization",
			zap.String("organization_id", *profile.OrganizationID),
		)
	default:
		tc.Organization = org
	}

	tc.State = StateReady
	return tc
}
