package ticket

import (
	"context"
	"sync"

	"github.com/laimu/erptracker/internal/apperr"
	"github.com/laimu/erptracker/internal/clock"
	"github.com/laimu/erptracker/internal/models"
	"github.com/laimu/erptracker/internal/portal"
	"github.com/laimu/erptracker/internal/repository"
	"github.com/laimu/erptracker/internal/tenant"
)

// Remote is the store a Board writes through.
type Remote interface {
	List(ctx context.Context) ([]models.Ticket, error)
	Insert(ctx context.Context, t models.Ticket) error
	UpdateStatus(ctx context.Context, id string, status models.TicketStatus, entry models.TicketUpdate) error
	AppendUpdate(ctx context.Context, id string, entry models.TicketUpdate) error
	Delete(ctx context.Context, id string) error
}

// BoardConfig describes the session a Board belongs to.
type BoardConfig struct {
	// Actor is recorded as requester and as author of log entries.
	Actor          string
	OrganizationID *string
	Clock          clock.Clock
	// ModuleName resolves a module id to its display name. Optional.
	ModuleName func(moduleID string) string
}

// Board is the ticket list of one session.
//
// Each mutation waits for the store and then applies exactly one change to
// the local list, so a failed write leaves nothing behind. Mutations are
// serialized: one started while another is in flight returns
// portal.ErrBusy.
type Board struct {
	remote   Remote
	cfg      BoardConfig
	tickets  *portal.Collection[models.Ticket]
	gate     portal.Gate
	confirm  portal.Confirmation
	feedback *portal.FeedbackState

	mu       sync.Mutex
	expanded string
}

func NewBoard(remote Remote, cfg BoardConfig) *Board {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	return &Board{
		remote:   remote,
		cfg:      cfg,
		tickets:  portal.NewCollection(func(t models.Ticket) string { return t.ID }),
		feedback: portal.NewFeedbackState(cfg.Clock, portal.DefaultFeedbackTTL),
	}
}

// Tickets returns the local list, newest first.
func (b *Board) Tickets() []models.Ticket { return b.tickets.Items() }

// Visible returns the tickets that pass Filter.
func (b *Board) Visible(query, moduleID string) []models.Ticket {
	return Filter(b.tickets.Items(), query, moduleID)
}

func (b *Board) Feedback() (portal.Feedback, bool) { return b.feedback.Current() }

func (b *Board) DismissFeedback() { b.feedback.Dismiss() }

// Load replaces the local list with the store's.
func (b *Board) Load(ctx context.Context) error {
	release, err := b.gate.Enter()
	if err != nil {
		return err
	}
	defer release()

	tickets, err := b.remote.List(ctx)
	if err != nil {
		err = remoteRead("load tickets", err)
		b.feedback.Fail(err)
		return err
	}
	b.tickets.Reset(tickets)
	return nil
}

func (b *Board) Create(ctx context.Context, n NewTicket) (*models.Ticket, error) {
	if err := ValidateNew(n); err != nil {
		b.feedback.Fail(err)
		return nil, err
	}

	release, err := b.gate.Enter()
	if err != nil {
		return nil, err
	}
	defer release()

	var moduleName string
	if b.cfg.ModuleName != nil {
		moduleName = b.cfg.ModuleName(n.ModuleID)
	}
	t := newTicket(n, b.cfg.OrganizationID, b.cfg.Actor, moduleName, b.cfg.Clock.Now())
	if err := b.remote.Insert(ctx, t); err != nil {
		err = remoteWrite("create ticket", err)
		b.feedback.Fail(err)
		return nil, err
	}

	b.tickets.Prepend(t)
	b.feedback.Succeed("ticket created")
	return &t, nil
}

// ChangeStatus sets the status and appends the matching log entry in one
// local step once the store has accepted both.
func (b *Board) ChangeStatus(ctx context.Context, id string, status models.TicketStatus) (*models.Ticket, error) {
	status, err := parseStatus(status)
	if err != nil {
		b.feedback.Fail(err)
		return nil, err
	}

	release, err := b.gate.Enter()
	if err != nil {
		return nil, err
	}
	defer release()

	current, ok := b.tickets.Get(id)
	if !ok {
		return nil, apperr.NotFound("ticket %s not found", id)
	}

	entry := newEntry(b.cfg.Actor, StatusMessage(current.Status, status), models.UpdateStatusChange, b.cfg.Clock.Now())
	if err := b.remote.UpdateStatus(ctx, id, status, entry); err != nil {
		err = remoteWrite("change ticket status", err)
		b.feedback.Fail(err)
		return nil, err
	}

	updated := withEntry(current, entry)
	updated.Status = status
	b.tickets.Replace(updated)
	b.feedback.Succeed(entry.Message)
	return &updated, nil
}

func (b *Board) AddComment(ctx context.Context, id, message string) (*models.Ticket, error) {
	if err := ValidateComment(message); err != nil {
		b.feedback.Fail(err)
		return nil, err
	}

	release, err := b.gate.Enter()
	if err != nil {
		return nil, err
	}
	defer release()

	current, ok := b.tickets.Get(id)
	if !ok {
		return nil, apperr.NotFound("ticket %s not found", id)
	}

	entry := newEntry(b.cfg.Actor, message, models.UpdateComment, b.cfg.Clock.Now())
	if err := b.remote.AppendUpdate(ctx, id, entry); err != nil {
		err = remoteWrite("add comment", err)
		b.feedback.Fail(err)
		return nil, err
	}

	updated := withEntry(current, entry)
	b.tickets.Replace(updated)
	b.feedback.Succeed("comment added")
	return &updated, nil
}

// Toggle expands id, or collapses it when it is already expanded. Only one
// ticket is expanded at a time.
func (b *Board) Toggle(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.expanded == id {
		b.expanded = ""
		return
	}
	b.expanded = id
}

func (b *Board) Expanded() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.expanded
}

// SelectForDelete marks id as awaiting confirmation. Nothing is removed.
func (b *Board) SelectForDelete(id string) { b.confirm.Select(id) }

func (b *Board) PendingDelete() string { return b.confirm.Pending() }

// CancelDelete drops the pending selection without touching the list.
func (b *Board) CancelDelete() { b.confirm.Cancel() }

// ConfirmDelete deletes the selected ticket. On failure the selection and
// the list stay as they were.
func (b *Board) ConfirmDelete(ctx context.Context) error {
	release, err := b.gate.Enter()
	if err != nil {
		return err
	}
	defer release()

	id := b.confirm.Pending()
	if id == "" {
		return portal.ErrNothingSelected
	}
	if err := b.remote.Delete(ctx, id); err != nil {
		err = remoteWrite("delete ticket", err)
		b.feedback.Fail(err)
		return err
	}

	b.confirm.Take()
	b.tickets.Remove(id)
	b.mu.Lock()
	if b.expanded == id {
		b.expanded = ""
	}
	b.mu.Unlock()
	b.feedback.Succeed("ticket deleted")
	return nil
}

// ScopedRemote adapts a TicketRepository to Remote for one scope.
type ScopedRemote struct {
	Repo  repository.TicketRepository
	Scope tenant.Scope
}

func (r ScopedRemote) List(ctx context.Context) ([]models.Ticket, error) {
	return r.Repo.ListByScope(ctx, r.Scope)
}

func (r ScopedRemote) Insert(ctx context.Context, t models.Ticket) error {
	return r.Repo.Insert(ctx, t)
}

func (r ScopedRemote) UpdateStatus(ctx context.Context, id string, status models.TicketStatus, entry models.TicketUpdate) error {
	found, err := r.Repo.UpdateStatus(ctx, r.Scope, id, status, entry)
	return notFoundIfMissing(id, found, err)
}

func (r ScopedRemote) AppendUpdate(ctx context.Context, id string, entry models.TicketUpdate) error {
	found, err := r.Repo.AppendUpdate(ctx, r.Scope, id, entry)
	return notFoundIfMissing(id, found, err)
}

func (r ScopedRemote) Delete(ctx context.Context, id string) error {
	found, err := r.Repo.Delete(ctx, r.Scope, id)
	return notFoundIfMissing(id, found, err)
}

func notFoundIfMissing(id string, found bool, err error) error {
	if err != nil {
		return err
	}
	if !found {
		return apperr.NotFound("ticket %s not found", id)
	}
	return nil
}
