package repository

import (
	"context"
	"errors"
	"time"

	"github.com/laimu/erptracker/internal/models"
	"github.com/laimu/erptracker/internal/tenant"
)

// ErrOutOfScope is returned by writes that target a row the scope may not
// touch, such as an upsert over another tenant's id.
var ErrOutOfScope = errors.New("record outside scope")

// ErrDuplicate is returned when a unique key, such as a login email, is
// already taken.
var ErrDuplicate = errors.New("record already exists")

// Every tenant-owned read and write takes a tenant.Scope. The repository
// filters by it on its own; callers cannot widen what a scope sees by
// passing a guessed id.
//
// Single-row reads return nil, nil when nothing matches. Mutations report
// whether a row in scope was affected. List methods return an empty slice,
// never nil.

type OrganizationRepository interface {
	Create(ctx context.Context, org models.Organization) (*models.Organization, error)
	GetByID(ctx context.Context, id string) (*models.Organization, error)
	// List returns every organization ordered by name.
	List(ctx context.Context) ([]models.Organization, error)
	Update(ctx context.Context, id string, patch OrganizationPatch) (*models.Organization, error)
}

// OrganizationPatch holds the fields to change; nil means unchanged.
type OrganizationPatch struct {
	Name         *string
	ProjectStage *models.ProjectStage
	HealthStatus *models.HealthStatus
	StartDate    *time.Time
	TargetGoLive *time.Time
	ActualGoLive *time.Time
	Branding     *models.BrandingConfig
	ContactEmail *string
}

type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	ListByScope(ctx context.Context, scope tenant.Scope) ([]models.Profile, error)
	Update(ctx context.Context, id string, patch ProfilePatch) (*models.Profile, error)
}

type ProfilePatch struct {
	FullName *string
	Role     *models.Role
	// OrganizationID sets the membership; ClearOrganization removes it.
	OrganizationID    *string
	ClearOrganization bool
}

// CredentialRepository owns the login side of a principal.
type CredentialRepository interface {
	// CreatePrincipal stores the credential and a CLIENT_USER profile
	// without organization, atomically.
	CreatePrincipal(ctx context.Context, email, passwordHash, fullName string) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Credential, error)
}

type ModuleRepository interface {
	// ListByScope returns modules with their features, ordered by id.
	ListByScope(ctx context.Context, scope tenant.Scope) ([]models.Module, error)
	GetByID(ctx context.Context, scope tenant.Scope, id string) (*models.Module, error)
	// Save upserts the module, then replaces its features by deleting all
	// of them and inserting the new list. The two steps are not atomic: a
	// failed insert leaves the module without features.
	Save(ctx context.Context, scope tenant.Scope, module models.Module) error
	Delete(ctx context.Context, scope tenant.Scope, id string) (bool, error)
}

type TimelineRepository interface {
	// ListByScope returns events with their tasks in creation order.
	ListByScope(ctx context.Context, scope tenant.Scope) ([]models.TimelineEvent, error)
	GetByID(ctx context.Context, scope tenant.Scope, id string) (*models.TimelineEvent, error)
	// Save upserts the event and replaces its tasks, with the same
	// non-atomic delete-then-insert as ModuleRepository.Save.
	Save(ctx context.Context, scope tenant.Scope, event models.TimelineEvent) error
	Delete(ctx context.Context, scope tenant.Scope, id string) (bool, error)
}

type TicketRepository interface {
	// ListByScope returns tickets with their updates, newest ticket first.
	ListByScope(ctx context.Context, scope tenant.Scope) ([]models.Ticket, error)
	GetByID(ctx context.Context, scope tenant.Scope, id string) (*models.Ticket, error)
	Insert(ctx context.Context, ticket models.Ticket) error
	// UpdateStatus sets the status and updated_at and appends entry in one
	// transaction.
	UpdateStatus(ctx context.Context, scope tenant.Scope, id string, status models.TicketStatus, entry models.TicketUpdate) (bool, error)
	// AppendUpdate appends entry and touches updated_at in one transaction.
	AppendUpdate(ctx context.Context, scope tenant.Scope, id string, entry models.TicketUpdate) (bool, error)
	Delete(ctx context.Context, scope tenant.Scope, id string) (bool, error)
}

type ActionItemRepository interface {
	ListByScope(ctx context.Context, scope tenant.Scope) ([]models.ActionItem, error)
	GetByID(ctx context.Context, scope tenant.Scope, id string) (*models.ActionItem, error)
	Insert(ctx context.Context, item models.ActionItem) error
	SetStatus(ctx context.Context, scope tenant.Scope, id string, status models.ActionStatus) (bool, error)
	Delete(ctx context.Context, scope tenant.Scope, id string) (bool, error)
}

// FaqRepository lists the scope's own entries plus global ones.
type FaqRepository interface {
	ListByScope(ctx context.Context, scope tenant.Scope) ([]models.FaqItem, error)
	Insert(ctx context.Context, item models.FaqItem) error
	Delete(ctx context.Context, scope tenant.Scope, id string) (bool, error)
}

// TutorialRepository lists the scope's own entries plus global ones.
type TutorialRepository interface {
	ListByScope(ctx context.Context, scope tenant.Scope) ([]models.TutorialItem, error)
	Insert(ctx context.Context, item models.TutorialItem) error
	Delete(ctx context.Context, scope tenant.Scope, id string) (bool, error)
}

type CustomDevelopmentRepository interface {
	ListByScope(ctx context.Context, scope tenant.Scope) ([]models.CustomDevelopment, error)
	Insert(ctx context.Context, dev models.CustomDevelopment) error
	Delete(ctx context.Context, scope tenant.Scope, id string) (bool, error)
}

// UserDirectoryRepository holds the back-office list of people on each
// project. Entries are contact records, not logins.
type UserDirectoryRepository interface {
	// ListByScope returns entries ordered by name.
	ListByScope(ctx context.Context, scope tenant.Scope) ([]models.DirectoryUser, error)
	GetByID(ctx context.Context, scope tenant.Scope, id string) (*models.DirectoryUser, error)
	Insert(ctx context.Context, user models.DirectoryUser) error
	Delete(ctx context.Context, scope tenant.Scope, id string) (bool, error)
}

// NotificationRepository is keyed by the recipient, not by tenant.
type NotificationRepository interface {
	ListForUser(ctx context.Context, userID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id string) (bool, error)
	Delete(ctx context.Context, userID, id string) (bool, error)
}
