package models

import (
	"time"
)

// Organization is the tenant: an isolated customer account. Modules,
// timeline, tickets and users all belong to exactly one organization.
type Organization struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	ProjectStage ProjectStage   `json:"project_stage"`
	HealthStatus HealthStatus   `json:"health_status"`
	StartDate    *time.Time     `json:"start_date,omitempty"`
	TargetGoLive *time.Time     `json:"target_go_live,omitempty"`
	ActualGoLive *time.Time     `json:"actual_go_live,omitempty"`
	Branding     BrandingConfig `json:"branding_config"`
	ContactEmail string         `json:"contact_email,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// BrandingConfig customizes the portal per tenant. Empty fields fall back to
// the product defaults on the client.
type BrandingConfig struct {
	LogoURL      string `json:"logoUrl,omitempty"`
	PrimaryColor string `json:"primaryColor,omitempty"`
	PortalTitle  string `json:"portalTitle,omitempty"`
}

// Profile is the role and organization membership of an authenticated
// principal. OrganizationID is nil for tenant-unscoped super admins.
type Profile struct {
	ID             string    `json:"id"`
	FullName       string    `json:"full_name"`
	Role           Role      `json:"role"`
	OrganizationID *string   `json:"organization_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// Credential is the login record behind a principal. It never leaves the
// server.
type Credential struct {
	PrincipalID  string
	Email        string
	PasswordHash string
}

// Module is an ERP functional area. Progress is set independently of the
// feature statuses; nothing reconciles the two.
type Module struct {
	ID             string    `json:"id"`
	OrganizationID *string   `json:"organization_id,omitempty"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Status         Status    `json:"status"`
	Icon           string    `json:"icon"`
	Owner          string    `json:"owner"`
	Responsibles   string    `json:"responsibles,omitempty"`
	Progress       int       `json:"progress"`
	Features       []Feature `json:"features"`
}

type Feature struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
}

// TimelineEvent is a project phase (sprint). ModulesIncluded references
// modules by name, not by id.
type TimelineEvent struct {
	ID              string   `json:"id"`
	OrganizationID  *string  `json:"organization_id,omitempty"`
	Phase           string   `json:"phase"`
	Date            string   `json:"date"`
	Status          Status   `json:"status"`
	Description     string   `json:"description"`
	ModulesIncluded []string `json:"modules_included"`
	Tasks           []Task   `json:"tasks"`
}

type Task struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status Status `json:"status"`
	Week   string `json:"week,omitempty"`
}

// Ticket is a support request. Updates is append-only: entries are never
// edited or reordered.
type Ticket struct {
	ID             string         `json:"id"`
	OrganizationID *string        `json:"organization_id,omitempty"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	ModuleID       string         `json:"module_id"`
	ModuleName     string         `json:"module_name"`
	Priority       TicketPriority `json:"priority"`
	Status         TicketStatus   `json:"status"`
	Requester      string         `json:"requester"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Updates        []TicketUpdate `json:"updates"`
}

type TicketUpdate struct {
	ID      string     `json:"id"`
	Author  string     `json:"author"`
	Date    time.Time  `json:"date"`
	Message string     `json:"message"`
	Type    UpdateType `json:"type"`
}

// ActionItem is a two-state to-do entry assigned to a department.
type ActionItem struct {
	ID             string       `json:"id"`
	OrganizationID *string      `json:"organization_id,omitempty"`
	Task           string       `json:"task"`
	AssignedTo     string       `json:"assigned_to"`
	DueDate        string       `json:"due_date"`
	IsCritical     bool         `json:"is_critical"`
	Status         ActionStatus `json:"status"`
}

// DirectoryUser is a back-office record of someone working on the project.
// It is kept apart from Profile: listing a person here creates no login.
type DirectoryUser struct {
	ID             string        `json:"id"`
	OrganizationID *string       `json:"organization_id,omitempty"`
	Name           string        `json:"name"`
	Email          string        `json:"email"`
	Role           DirectoryRole `json:"role"`
	Department     Department    `json:"department"`
	JobTitle       string        `json:"job_title,omitempty"`
	Phone          string        `json:"phone,omitempty"`
	Avatar         string        `json:"avatar,omitempty"`
}

// FaqItem is help content. A nil OrganizationID means every tenant sees it.
type FaqItem struct {
	ID             string  `json:"id"`
	OrganizationID *string `json:"organization_id,omitempty"`
	Question       string  `json:"question"`
	Answer         string  `json:"answer"`
	Category       string  `json:"category"`
}

// TutorialItem is help content. A nil OrganizationID means every tenant
// sees it.
type TutorialItem struct {
	ID             string       `json:"id"`
	OrganizationID *string      `json:"organization_id,omitempty"`
	Title          string       `json:"title"`
	Duration       string       `json:"duration"`
	Type           TutorialType `json:"type"`
	ThumbnailColor string       `json:"thumbnail_color"`
}

type CustomDevelopment struct {
	ID             string  `json:"id"`
	OrganizationID *string `json:"organization_id,omitempty"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	RequestedBy    string  `json:"requested_by"`
	Status         Status  `json:"status"`
	DeliveryDate   string  `json:"delivery_date"`
}

type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	IsRead    bool             `json:"is_read"`
	Link      string           `json:"link,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
