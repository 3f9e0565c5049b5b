package portal

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/laimu/erptracker/internal/apperr"
	"github.com/laimu/erptracker/internal/clock"
	"github.com/laimu/erptracker/internal/models"
	"github.com/laimu/erptracker/internal/repository"
	"github.com/laimu/erptracker/internal/tenant"
)

// NewActionItem is the input for an action item.
type NewActionItem struct {
	Task       string `json:"task"`
	AssignedTo string `json:"assigned_to"`
	DueDate    string `json:"due_date"`
	IsCritical bool   `json:"is_critical"`
}

// ValidateActionItem requires a task and an assignee.
func ValidateActionItem(n NewActionItem) error {
	if strings.TrimSpace(n.Task) == "" {
		return apperr.Validation("task", "task is required")
	}
	if strings.TrimSpace(n.AssignedTo) == "" {
		return apperr.Validation("assigned_to", "assignee is required")
	}
	return nil
}

// ActionRemote is the store an ActionBoard writes through.
type ActionRemote interface {
	List(ctx context.Context) ([]models.ActionItem, error)
	Insert(ctx context.Context, item models.ActionItem) error
	SetStatus(ctx context.Context, id string, status models.ActionStatus) error
	Delete(ctx context.Context, id string) error
}

// ActionBoard is the action item list of one session.
type ActionBoard struct {
	remote   ActionRemote
	orgID    *string
	items    *Collection[models.ActionItem]
	gate     Gate
	confirm  Confirmation
	feedback *FeedbackState
}

// NewActionBoard builds a board whose new items belong to orgID.
func NewActionBoard(remote ActionRemote, orgID *string, clk clock.Clock) *ActionBoard {
	return &ActionBoard{
		remote:   remote,
		orgID:    orgID,
		items:    NewCollection(func(a models.ActionItem) string { return a.ID }),
		feedback: NewFeedbackState(clk, DefaultFeedbackTTL),
	}
}

func (b *ActionBoard) Items() []models.ActionItem { return b.items.Items() }

func (b *ActionBoard) Feedback() *FeedbackState { return b.feedback }

func (b *ActionBoard) Load(ctx context.Context) error {
	release, err := b.gate.Enter()
	if err != nil {
		return err
	}
	defer release()

	items, err := b.remote.List(ctx)
	if err != nil {
		err = apperr.RemoteRead("load action items", err)
		b.feedback.Fail(err)
		return err
	}
	b.items.Reset(items)
	return nil
}

func (b *ActionBoard) Create(ctx context.Context, n NewActionItem) (*models.ActionItem, error) {
	if err := ValidateActionItem(n); err != nil {
		b.feedback.Fail(err)
		return nil, err
	}

	release, err := b.gate.Enter()
	if err != nil {
		return nil, err
	}
	defer release()

	item := models.ActionItem{
		ID:             uuid.NewString(),
		OrganizationID: b.orgID,
		Task:           strings.TrimSpace(n.Task),
		AssignedTo:     strings.TrimSpace(n.AssignedTo),
		DueDate:        n.DueDate,
		IsCritical:     n.IsCritical,
		Status:         models.ActionPending,
	}
	if err := b.remote.Insert(ctx, item); err != nil {
		err = apperr.RemoteWrite("create action item", err)
		b.feedback.Fail(err)
		return nil, err
	}

	b.items.Append(item)
	b.feedback.Succeed("action item created")
	return &item, nil
}

// Toggle flips the item between PENDING and COMPLETED.
func (b *ActionBoard) Toggle(ctx context.Context, id string) (*models.ActionItem, error) {
	release, err := b.gate.Enter()
	if err != nil {
		return nil, err
	}
	defer release()

	item, ok := b.items.Get(id)
	if !ok {
		return nil, apperr.NotFound("action item %s not found", id)
	}
	next := item.Status.Toggled()
	if err := b.remote.SetStatus(ctx, id, next); err != nil {
		err = apperr.RemoteWrite("update action item", err)
		b.feedback.Fail(err)
		return nil, err
	}

	item.Status = next
	b.items.Replace(item)
	b.feedback.Succeed(fmt.Sprintf("action item marked %s", strings.ToLower(string(next))))
	return &item, nil
}

func (b *ActionBoard) SelectForDelete(id string) { b.confirm.Select(id) }

func (b *ActionBoard) PendingDelete() string { return b.confirm.Pending() }

func (b *ActionBoard) CancelDelete() { b.confirm.Cancel() }

func (b *ActionBoard) ConfirmDelete(ctx context.Context) error {
	release, err := b.gate.Enter()
	if err != nil {
		return err
	}
	defer release()

	id := b.confirm.Pending()
	if id == "" {
		return ErrNothingSelected
	}
	if err := b.remote.Delete(ctx, id); err != nil {
		err = apperr.RemoteWrite("delete action item", err)
		b.feedback.Fail(err)
		return err
	}

	b.confirm.Take()
	b.items.Remove(id)
	b.feedback.Succeed("action item deleted")
	return nil
}

// ScopedActions adapts an ActionItemRepository to ActionRemote for one
// scope.
type ScopedActions struct {
	Repo  repository.ActionItemRepository
	Scope tenant.Scope
}

func (s ScopedActions) List(ctx context.Context) ([]models.ActionItem, error) {
	return s.Repo.ListByScope(ctx, s.Scope)
}

func (s ScopedActions) Insert(ctx context.Context, item models.ActionItem) error {
	return s.Repo.Insert(ctx, item)
}

func (s ScopedActions) SetStatus(ctx context.Context, id string, status models.ActionStatus) error {
	found, err := s.Repo.SetStatus(ctx, s.Scope, id, status)
	if err != nil {
		return err
	}
	if !found {
		return apperr.NotFound("action item %s not found", id)
	}
	return nil
}

func (s ScopedActions) Delete(ctx context.Context, id string) error {
	found, err := s.Repo.Delete(ctx, s.Scope, id)
	if err != nil {
		return err
	}
	if !found {
		return apperr.NotFound("action item %s not found", id)
	}
	return nil
}
