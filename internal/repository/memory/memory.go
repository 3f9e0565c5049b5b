// Package memory keeps every repository in process memory. It backs the
// server when no database is configured and the handler and service tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/laimu/erptracker/internal/models"
	"github.com/laimu/erptracker/internal/repository"
	"github.com/laimu/erptracker/internal/tenant"
)

// Store implements all repository interfaces over one lock.
type Store struct {
	mu sync.Mutex

	organizations map[string]models.Organization
	credentials   map[string]models.Credential // by lowercase email
	profiles      map[string]models.Profile
	modules       []models.Module
	timeline      []models.TimelineEvent
	tickets       []models.Ticket
	actions       []models.ActionItem
	faqs          []models.FaqItem
	tutorials     []models.TutorialItem
	customDevs    []models.CustomDevelopment
	notifications []models.Notification
	directory     []models.DirectoryUser

	failures map[string]error
	now      func() time.Time
}

func New() *Store {
	return &Store{
		organizations: make(map[string]models.Organization),
		credentials:   make(map[string]models.Credential),
		profiles:      make(map[string]models.Profile),
		failures:      make(map[string]error),
		now:           time.Now,
	}
}

// FailOn makes every call of op return err until cleared with a nil err.
// Ops are named "<collection>.<method>", e.g. "tickets.insert".
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// must be called with mu held
func (s *Store) fail(op string) error {
	return s.failures[op]
}

// Seeding helpers, used by tests and the dev server.

func (s *Store) AddProfile(p models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
}

func (s *Store) AddNotification(n models.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
}

// --- organizations ---

type Organizations struct{ *Store }

func (s Organizations) Create(_ context.Context, org models.Organization) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("organizations.create"); err != nil {
		return nil, err
	}
	if org.ID == "" {
		org.ID = uuid.NewString()
	}
	org.CreatedAt = s.now()
	s.organizations[org.ID] = org
	return &org, nil
}

func (s Organizations) GetByID(_ context.Context, id string) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("organizations.get"); err != nil {
		return nil, err
	}
	org, ok := s.organizations[id]
	if !ok {
		return nil, nil
	}
	return &org, nil
}

func (s Organizations) List(_ context.Context) ([]models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("organizations.list"); err != nil {
		return nil, err
	}
	out := make([]models.Organization, 0, len(s.organizations))
	for _, org := range s.organizations {
		out = append(out, org)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s Organizations) Update(_ context.Context, id string, patch repository.OrganizationPatch) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("organizations.update"); err != nil {
		return nil, err
	}
	org, ok := s.organizations[id]
	if !ok {
		return nil, nil
	}
	if patch.Name != nil {
		org.Name = *patch.Name
	}
	if patch.ProjectStage != nil {
		org.ProjectStage = *patch.ProjectStage
	}
	if patch.HealthStatus != nil {
		org.HealthStatus = *patch.HealthStatus
	}
	if patch.StartDate != nil {
		org.StartDate = patch.StartDate
	}
	if patch.TargetGoLive != nil {
		org.TargetGoLive = patch.TargetGoLive
	}
	if patch.ActualGoLive != nil {
		org.ActualGoLive = patch.ActualGoLive
	}
	if patch.Branding != nil {
		org.Branding = *patch.Branding
	}
	if patch.ContactEmail != nil {
		org.ContactEmail = *patch.ContactEmail
	}
	s.organizations[id] = org
	return &org, nil
}

// --- profiles and credentials ---

type Profiles struct{ *Store }

func (s Profiles) CreatePrincipal(_ context.Context, email, passwordHash, fullName string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("profiles.create"); err != nil {
		return nil, err
	}
	key := strings.ToLower(email)
	if _, taken := s.credentials[key]; taken {
		return nil, repository.ErrDuplicate
	}
	id := uuid.NewString()
	s.credentials[key] = models.Credential{PrincipalID: id, Email: key, PasswordHash: passwordHash}
	p := models.Profile{ID: id, FullName: fullName, Role: models.RoleClientUser, CreatedAt: s.now()}
	s.profiles[id] = p
	return &p, nil
}

func (s Profiles) GetByEmail(_ context.Context, email string) (*models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("profiles.get_by_email"); err != nil {
		return nil, err
	}
	c, ok := s.credentials[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s Profiles) GetByID(_ context.Context, id string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("profiles.get"); err != nil {
		return nil, err
	}
	p, ok := s.profiles[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s Profiles) ListByScope(_ context.Context, scope tenant.Scope) ([]models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("profiles.list"); err != nil {
		return nil, err
	}
	out := make([]models.Profile, 0)
	for _, p := range s.profiles {
		if scope.Allows(p.OrganizationID) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s Profiles) Update(_ context.Context, id string, patch repository.ProfilePatch) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("profiles.update"); err != nil {
		return nil, err
	}
	p, ok := s.profiles[id]
	if !ok {
		return nil, nil
	}
	if patch.FullName != nil {
		p.FullName = *patch.FullName
	}
	if patch.Role != nil {
		p.Role = *patch.Role
	}
	switch {
	case patch.ClearOrganization:
		p.OrganizationID = nil
	case patch.OrganizationID != nil:
		org := *patch.OrganizationID
		p.OrganizationID = &org
	}
	s.profiles[id] = p
	return &p, nil
}

// --- modules ---

type Modules struct{ *Store }

func (s Modules) ListByScope(_ context.Context, scope tenant.Scope) ([]models.Module, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("modules.list"); err != nil {
		return nil, err
	}
	out := filterScope(s.modules, scope, func(m models.Module) *string { return m.OrganizationID })
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s Modules) GetByID(_ context.Context, scope tenant.Scope, id string) (*models.Module, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("modules.get"); err != nil {
		return nil, err
	}
	for _, m := range s.modules {
		if m.ID == id && scope.Allows(m.OrganizationID) {
			m.Features = slices.Clone(m.Features)
			return &m, nil
		}
	}
	return nil, nil
}

func (s Modules) Save(_ context.Context, scope tenant.Scope, module models.Module) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("modules.save"); err != nil {
		return err
	}
	if scope.Unassigned() {
		return repository.ErrOutOfScope
	}
	module.OrganizationID = writeOrg(scope, module.OrganizationID)
	module.Features = slices.Clone(module.Features)
	for i, m := range s.modules {
		if m.ID != module.ID {
			continue
		}
		if !scope.Allows(m.OrganizationID) {
			return repository.ErrOutOfScope
		}
		module.OrganizationID = m.OrganizationID
		// Features are replaced in a second step, like the database store.
		if err := s.fail("modules.save_features"); err != nil {
			module.Features = []models.Feature{}
			s.modules[i] = module
			return err
		}
		s.modules[i] = module
		return nil
	}
	if err := s.fail("modules.save_features"); err != nil {
		module.Features = []models.Feature{}
		s.modules = append(s.modules, module)
		return err
	}
	s.modules = append(s.modules, module)
	return nil
}

func (s Modules) Delete(_ context.Context, scope tenant.Scope, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("modules.delete"); err != nil {
		return false, err
	}
	var removed bool
	s.modules, removed = removeScoped(s.modules, scope, id,
		func(m models.Module) string { return m.ID },
		func(m models.Module) *string { return m.OrganizationID })
	return removed, nil
}

// --- timeline ---

type Timeline struct{ *Store }

func (s Timeline) ListByScope(_ context.Context, scope tenant.Scope) ([]models.TimelineEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("timeline.list"); err != nil {
		return nil, err
	}
	return filterScope(s.timeline, scope, func(e models.TimelineEvent) *string { return e.OrganizationID }), nil
}

func (s Timeline) GetByID(_ context.Context, scope tenant.Scope, id string) (*models.TimelineEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("timeline.get"); err != nil {
		return nil, err
	}
	for _, e := range s.timeline {
		if e.ID == id && scope.Allows(e.OrganizationID) {
			return &e, nil
		}
	}
	return nil, nil
}

func (s Timeline) Save(_ context.Context, scope tenant.Scope, event models.TimelineEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("timeline.save"); err != nil {
		return err
	}
	if scope.Unassigned() {
		return repository.ErrOutOfScope
	}
	event.OrganizationID = writeOrg(scope, event.OrganizationID)
	event.Tasks = slices.Clone(event.Tasks)
	for i, e := range s.timeline {
		if e.ID != event.ID {
			continue
		}
		if !scope.Allows(e.OrganizationID) {
			return repository.ErrOutOfScope
		}
		event.OrganizationID = e.OrganizationID
		s.timeline[i] = event
		return nil
	}
	s.timeline = append(s.timeline, event)
	return nil
}

func (s Timeline) Delete(_ context.Context, scope tenant.Scope, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("timeline.delete"); err != nil {
		return false, err
	}
	var removed bool
	s.timeline, removed = removeScoped(s.timeline, scope, id,
		func(e models.TimelineEvent) string { return e.ID },
		func(e models.TimelineEvent) *string { return e.OrganizationID })
	return removed, nil
}

// --- tickets ---

type Tickets struct{ *Store }

func (s Tickets) ListByScope(_ context.Context, scope tenant.Scope) ([]models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("tickets.list"); err != nil {
		return nil, err
	}
	out := filterScope(s.tickets, scope, func(t models.Ticket) *string { return t.OrganizationID })
	for i := range out {
		out[i].Updates = slices.Clone(out[i].Updates)
	}
	// Newest first; tickets created at the same instant come out in
	// reverse insertion order.
	slices.Reverse(out)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s Tickets) GetByID(_ context.Context, scope tenant.Scope, id string) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("tickets.get"); err != nil {
		return nil, err
	}
	for _, t := range s.tickets {
		if t.ID == id && scope.Allows(t.OrganizationID) {
			t.Updates = slices.Clone(t.Updates)
			return &t, nil
		}
	}
	return nil, nil
}

func (s Tickets) Insert(_ context.Context, t models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("tickets.insert"); err != nil {
		return err
	}
	t.Updates = slices.Clone(t.Updates)
	s.tickets = append(s.tickets, t)
	return nil
}

func (s Tickets) UpdateStatus(_ context.Context, scope tenant.Scope, id string, status models.TicketStatus, entry models.TicketUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("tickets.update_status"); err != nil {
		return false, err
	}
	i := s.ticketIndex(scope, id)
	if i < 0 {
		return false, nil
	}
	t := &s.tickets[i]
	t.Status = status
	t.UpdatedAt = entry.Date
	t.Updates = append(slices.Clone(t.Updates), entry)
	return true, nil
}

func (s Tickets) AppendUpdate(_ context.Context, scope tenant.Scope, id string, entry models.TicketUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("tickets.append_update"); err != nil {
		return false, err
	}
	i := s.ticketIndex(scope, id)
	if i < 0 {
		return false, nil
	}
	t := &s.tickets[i]
	t.UpdatedAt = entry.Date
	t.Updates = append(slices.Clone(t.Updates), entry)
	return true, nil
}

func (s Tickets) Delete(_ context.Context, scope tenant.Scope, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("tickets.delete"); err != nil {
		return false, err
	}
	var removed bool
	s.tickets, removed = removeScoped(s.tickets, scope, id,
		func(t models.Ticket) string { return t.ID },
		func(t models.Ticket) *string { return t.OrganizationID })
	return removed, nil
}

func (s Tickets) ticketIndex(scope tenant.Scope, id string) int {
	return slices.IndexFunc(s.tickets, func(t models.Ticket) bool {
		return t.ID == id && scope.Allows(t.OrganizationID)
	})
}

// --- action items ---

type Actions struct{ *Store }

func (s Actions) ListByScope(_ context.Context, scope tenant.Scope) ([]models.ActionItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("actions.list"); err != nil {
		return nil, err
	}
	return filterScope(s.actions, scope, func(a models.ActionItem) *string { return a.OrganizationID }), nil
}

func (s Actions) GetByID(_ context.Context, scope tenant.Scope, id string) (*models.ActionItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("actions.get"); err != nil {
		return nil, err
	}
	for _, a := range s.actions {
		if a.ID == id && scope.Allows(a.OrganizationID) {
			return &a, nil
		}
	}
	return nil, nil
}

func (s Actions) Insert(_ context.Context, item models.ActionItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("actions.insert"); err != nil {
		return err
	}
	s.actions = append(s.actions, item)
	return nil
}

func (s Actions) SetStatus(_ context.Context, scope tenant.Scope, id string, status models.ActionStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("actions.set_status"); err != nil {
		return false, err
	}
	for i, a := range s.actions {
		if a.ID == id && scope.Allows(a.OrganizationID) {
			s.actions[i].Status = status
			return true, nil
		}
	}
	return false, nil
}

func (s Actions) Delete(_ context.Context, scope tenant.Scope, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("actions.delete"); err != nil {
		return false, err
	}
	var removed bool
	s.actions, removed = removeScoped(s.actions, scope, id,
		func(a models.ActionItem) string { return a.ID },
		func(a models.ActionItem) *string { return a.OrganizationID })
	return removed, nil
}

// --- help content ---

type Faqs struct{ *Store }

func (s Faqs) ListByScope(_ context.Context, scope tenant.Scope) ([]models.FaqItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("faqs.list"); err != nil {
		return nil, err
	}
	out := make([]models.FaqItem, 0)
	for _, f := range s.faqs {
		if scope.AllowsShared(f.OrganizationID) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s Faqs) Insert(_ context.Context, item models.FaqItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("faqs.insert"); err != nil {
		return err
	}
	s.faqs = append(s.faqs, item)
	return nil
}

func (s Faqs) Delete(_ context.Context, scope tenant.Scope, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("faqs.delete"); err != nil {
		return false, err
	}
	var removed bool
	s.faqs, removed = removeScoped(s.faqs, scope, id,
		func(f models.FaqItem) string { return f.ID },
		func(f models.FaqItem) *string { return f.OrganizationID })
	return removed, nil
}

type Tutorials struct{ *Store }

func (s Tutorials) ListByScope(_ context.Context, scope tenant.Scope) ([]models.TutorialItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("tutorials.list"); err != nil {
		return nil, err
	}
	out := make([]models.TutorialItem, 0)
	for _, t := range s.tutorials {
		if scope.AllowsShared(t.OrganizationID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s Tutorials) Insert(_ context.Context, item models.TutorialItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("tutorials.insert"); err != nil {
		return err
	}
	s.tutorials = append(s.tutorials, item)
	return nil
}

func (s Tutorials) Delete(_ context.Context, scope tenant.Scope, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("tutorials.delete"); err != nil {
		return false, err
	}
	var removed bool
	s.tutorials, removed = removeScoped(s.tutorials, scope, id,
		func(t models.TutorialItem) string { return t.ID },
		func(t models.TutorialItem) *string { return t.OrganizationID })
	return removed, nil
}

type CustomDevelopments struct{ *Store }

func (s CustomDevelopments) ListByScope(_ context.Context, scope tenant.Scope) ([]models.CustomDevelopment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("custom_developments.list"); err != nil {
		return nil, err
	}
	return filterScope(s.customDevs, scope, func(d models.CustomDevelopment) *string { return d.OrganizationID }), nil
}

func (s CustomDevelopments) Insert(_ context.Context, dev models.CustomDevelopment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("custom_developments.insert"); err != nil {
		return err
	}
	s.customDevs = append(s.customDevs, dev)
	return nil
}

func (s CustomDevelopments) Delete(_ context.Context, scope tenant.Scope, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("custom_developments.delete"); err != nil {
		return false, err
	}
	var removed bool
	s.customDevs, removed = removeScoped(s.customDevs, scope, id,
		func(d models.CustomDevelopment) string { return d.ID },
		func(d models.CustomDevelopment) *string { return d.OrganizationID })
	return removed, nil
}

// --- user directory ---

type DirectoryUsers struct{ *Store }

func (s DirectoryUsers) ListByScope(_ context.Context, scope tenant.Scope) ([]models.DirectoryUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("users.list"); err != nil {
		return nil, err
	}
	out := filterScope(s.directory, scope, func(u models.DirectoryUser) *string { return u.OrganizationID })
	sort.SliceStable(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

func (s DirectoryUsers) GetByID(_ context.Context, scope tenant.Scope, id string) (*models.DirectoryUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("users.get"); err != nil {
		return nil, err
	}
	for _, u := range s.directory {
		if u.ID == id && scope.Allows(u.OrganizationID) {
			return &u, nil
		}
	}
	return nil, nil
}

func (s DirectoryUsers) Insert(_ context.Context, user models.DirectoryUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("users.insert"); err != nil {
		return err
	}
	s.directory = append(s.directory, user)
	return nil
}

func (s DirectoryUsers) Delete(_ context.Context, scope tenant.Scope, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("users.delete"); err != nil {
		return false, err
	}
	var removed bool
	s.directory, removed = removeScoped(s.directory, scope, id,
		func(u models.DirectoryUser) string { return u.ID },
		func(u models.DirectoryUser) *string { return u.OrganizationID })
	return removed, nil
}

// --- notifications ---

type Notifications struct{ *Store }

func (s Notifications) ListForUser(_ context.Context, userID string) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("notifications.list"); err != nil {
		return nil, err
	}
	out := make([]models.Notification, 0)
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s Notifications) MarkRead(_ context.Context, userID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("notifications.mark_read"); err != nil {
		return false, err
	}
	for i, n := range s.notifications {
		if n.ID == id && n.UserID == userID {
			s.notifications[i].IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (s Notifications) Delete(_ context.Context, userID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("notifications.delete"); err != nil {
		return false, err
	}
	i := slices.IndexFunc(s.notifications, func(n models.Notification) bool {
		return n.ID == id && n.UserID == userID
	})
	if i < 0 {
		return false, nil
	}
	s.notifications = slices.Delete(s.notifications, i, i+1)
	return true, nil
}

func filterScope[T any](items []T, scope tenant.Scope, org func(T) *string) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if scope.Allows(org(item)) {
			out = append(out, item)
		}
	}
	return out
}

func removeScoped[T any](items []T, scope tenant.Scope, id string, key func(T) string, org func(T) *string) ([]T, bool) {
	i := slices.IndexFunc(items, func(item T) bool {
		return key(item) == id && scope.Allows(org(item))
	})
	if i < 0 {
		return items, false
	}
	return slices.Delete(items, i, i+1), true
}

func writeOrg(scope tenant.Scope, requested *string) *string {
	if org := scope.OrganizationID(); org != nil {
		return org
	}
	return requested
}
