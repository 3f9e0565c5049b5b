// Package tenant resolves who is signed in and which organization's data
// they may see.
package tenant

import (
	"github.com/laimu/erptracker/internal/apperr"
	"github.com/laimu/erptracker/internal/models"
)

// Scope decides which organization a request reads and writes. A super
// admin is unscoped unless narrowed with ForOrganization; every other role
// is pinned to its profile's organization. A non-super-admin without an
// organization sees nothing.
//
// The zero Scope belongs to nobody and matches nothing.
type Scope struct {
	principal string
	role      models.Role
	org       string
}

// NewScope derives the scope of profile.
func NewScope(profile models.Profile) Scope {
	s := Scope{principal: profile.ID, role: profile.Role}
	if profile.OrganizationID != nil {
		s.org = *profile.OrganizationID
	}
	return s
}

// SystemScope is unscoped. It is meant for startup tasks and tests, not for
// request handling.
func SystemScope() Scope {
	return Scope{principal: "system", role: models.RoleSuperAdmin}
}

func (s Scope) Principal() string { return s.principal }

func (s Scope) Role() models.Role { return s.role }

// Unscoped is true for a super admin that has not narrowed to a tenant.
func (s Scope) Unscoped() bool {
	return s.role == models.RoleSuperAdmin && s.org == ""
}

// Unassigned is true when the scope can see no tenant at all.
func (s Scope) Unassigned() bool {
	return !s.Unscoped() && s.org == ""
}

// OrganizationID returns the tenant filter, or nil when unscoped or
// unassigned. Check Unassigned before treating nil as "all tenants".
func (s Scope) OrganizationID() *string {
	if s.org == "" {
		return nil
	}
	org := s.org
	return &org
}

// ForOrganization narrows the scope to orgID. Only a super admin may pick an
// arbitrary tenant; other roles may only name their own.
func (s Scope) ForOrganization(orgID string) (Scope, error) {
	if orgID == "" {
		return s, nil
	}
	if s.role == models.RoleSuperAdmin {
		s.org = orgID
		return s, nil
	}
	if s.org != orgID {
		return s, apperr.Forbidden("organization %s is outside your scope", orgID)
	}
	return s, nil
}

// CanAdminister reports whether the scope may change tenant data that
// clients only read (modules, timeline, ticket status, help content).
func (s Scope) CanAdminister() bool { return s.role.IsAdmin() }

// Allows reports whether a record owned by orgID is visible. A nil orgID is
// global content.
func (s Scope) Allows(orgID *string) bool {
	if s.Unscoped() {
		return true
	}
	if orgID == nil {
		return false
	}
	return s.org != "" && *orgID == s.org
}

// AllowsShared is Allows with global (nil organization) content visible to
// everyone, which is how FAQs and tutorials behave.
func (s Scope) AllowsShared(orgID *string) bool {
	if orgID == nil {
		return s.role != ""
	}
	return s.Allows(orgID)
}
