package models

import "strings"

// Status is the progress state shared by modules, features, phases, tasks
// and custom developments.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusTesting    Status = "TESTING"
	StatusCompleted  Status = "COMPLETED"
	StatusBlocked    Status = "BLOCKED"
)

func ParseStatus(s string) (Status, bool) {
	switch v := Status(normalize(s)); v {
	case StatusPending, StatusInProgress, StatusTesting, StatusCompleted, StatusBlocked:
		return v, true
	}
	return StatusPending, false
}

func (s Status) Valid() bool { _, ok := ParseStatus(string(s)); return ok }

type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleOrgAdmin   Role = "ORG_ADMIN"
	RoleClientUser Role = "CLIENT_USER"
)

func ParseRole(s string) (Role, bool) {
	switch v := Role(normalize(s)); v {
	case RoleSuperAdmin, RoleOrgAdmin, RoleClientUser:
		return v, true
	}
	return RoleClientUser, false
}

func (r Role) Valid() bool { _, ok := ParseRole(string(r)); return ok }

// IsAdmin is true for both administrative roles.
func (r Role) IsAdmin() bool { return r == RoleSuperAdmin || r == RoleOrgAdmin }

type TicketPriority string

const (
	PriorityLow      TicketPriority = "LOW"
	PriorityMedium   TicketPriority = "MEDIUM"
	PriorityHigh     TicketPriority = "HIGH"
	PriorityCritical TicketPriority = "CRITICAL"
)

// Rows written by earlier versions of the portal stored display labels.
var legacyPriorities = map[string]TicketPriority{
	"BAJA":    PriorityLow,
	"MEDIA":   PriorityMedium,
	"ALTA":    PriorityHigh,
	"CRÍTICA": PriorityCritical,
	"CRITICA": PriorityCritical,
}

func ParseTicketPriority(s string) (TicketPriority, bool) {
	n := normalize(s)
	switch v := TicketPriority(n); v {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return v, true
	}
	if v, ok := legacyPriorities[n]; ok {
		return v, true
	}
	return PriorityLow, false
}

func (p TicketPriority) Valid() bool { _, ok := ParseTicketPriority(string(p)); return ok }

type TicketStatus string

const (
	TicketOpen       TicketStatus = "OPEN"
	TicketInProgress TicketStatus = "IN_PROGRESS"
	TicketResolved   TicketStatus = "RESOLVED"
	TicketClosed     TicketStatus = "CLOSED"
)

var legacyTicketStatuses = map[string]TicketStatus{
	"ABIERTO":     TicketOpen,
	"EN_REVISIÓN": TicketInProgress,
	"EN_REVISION": TicketInProgress,
	"RESUELTO":    TicketResolved,
	"CERRADO":     TicketClosed,
}

func ParseTicketStatus(s string) (TicketStatus, bool) {
	n := normalize(s)
	switch v := TicketStatus(n); v {
	case TicketOpen, TicketInProgress, TicketResolved, TicketClosed:
		return v, true
	}
	if v, ok := legacyTicketStatuses[n]; ok {
		return v, true
	}
	return TicketOpen, false
}

func (s TicketStatus) Valid() bool { _, ok := ParseTicketStatus(string(s)); return ok }

type UpdateType string

const (
	UpdateComment      UpdateType = "COMMENT"
	UpdateStatusChange UpdateType = "STATUS_CHANGE"
)

func ParseUpdateType(s string) (UpdateType, bool) {
	switch v := UpdateType(normalize(s)); v {
	case UpdateComment, UpdateStatusChange:
		return v, true
	}
	return UpdateComment, false
}

type ActionStatus string

const (
	ActionPending   ActionStatus = "PENDING"
	ActionCompleted ActionStatus = "COMPLETED"
)

func ParseActionStatus(s string) (ActionStatus, bool) {
	switch v := ActionStatus(normalize(s)); v {
	case ActionPending, ActionCompleted:
		return v, true
	}
	return ActionPending, false
}

// Toggled returns the other state.
func (s ActionStatus) Toggled() ActionStatus {
	if s == ActionCompleted {
		return ActionPending
	}
	return ActionCompleted
}

// DirectoryRole is the access level recorded in the user directory. It is
// a label for the back office and grants nothing by itself.
type DirectoryRole string

const (
	DirectoryAdmin  DirectoryRole = "ADMIN"
	DirectoryMember DirectoryRole = "USER"
)

func ParseDirectoryRole(s string) (DirectoryRole, bool) {
	switch v := DirectoryRole(normalize(s)); v {
	case DirectoryAdmin, DirectoryMember:
		return v, true
	}
	return DirectoryMember, false
}

// Department is the business area a directory user works in.
type Department string

const (
	DeptGeneral     Department = "GENERAL"
	DeptAdmin       Department = "ADMINISTRATION"
	DeptSales       Department = "SALES"
	DeptPurchasing  Department = "PURCHASING"
	DeptHR          Department = "HUMAN_RESOURCES"
	DeptProduction  Department = "PRODUCTION"
	DeptQuality     Department = "QUALITY"
	DeptWarehouse   Department = "WAREHOUSE"
	DeptIT          Department = "IT"
	DeptLogistics   Department = "LOGISTICS"
	DeptMaintenance Department = "MAINTENANCE"
	DeptFinance     Department = "FINANCE"
	DeptPlanning    Department = "PLANNING"
	DeptSecurity    Department = "SECURITY"
	DeptStrategy    Department = "STRATEGY"
)

// Directory rows written by earlier versions stored the Spanish label.
var legacyDepartments = map[string]Department{
	"DIRECCIÓN_GENERAL":      DeptGeneral,
	"ADMINISTRACIÓN":         DeptAdmin,
	"VENTAS":                 DeptSales,
	"COMPRAS":                DeptPurchasing,
	"RECURSOS_HUMANOS":       DeptHR,
	"PRODUCCIÓN":             DeptProduction,
	"CALIDAD":                DeptQuality,
	"ALMACÉN":                DeptWarehouse,
	"SISTEMAS":               DeptIT,
	"LOGÍSTICA":              DeptLogistics,
	"MANTENIMIENTO":          DeptMaintenance,
	"FINANZAS":               DeptFinance,
	"PLANEACIÓN":             DeptPlanning,
	"SEGURIDAD":              DeptSecurity,
	"PLANEACIÓN_ESTRATÉGICA": DeptStrategy,
}

func ParseDepartment(s string) (Department, bool) {
	n := normalize(s)
	switch v := Department(n); v {
	case DeptGeneral, DeptAdmin, DeptSales, DeptPurchasing, DeptHR, DeptProduction,
		DeptQuality, DeptWarehouse, DeptIT, DeptLogistics, DeptMaintenance,
		DeptFinance, DeptPlanning, DeptSecurity, DeptStrategy:
		return v, true
	}
	if v, ok := legacyDepartments[n]; ok {
		return v, true
	}
	return DeptGeneral, false
}

type TutorialType string

const (
	TutorialDoc   TutorialType = "DOC"
	TutorialVideo TutorialType = "VIDEO"
)

func ParseTutorialType(s string) (TutorialType, bool) {
	switch v := TutorialType(normalize(s)); v {
	case TutorialDoc, TutorialVideo:
		return v, true
	}
	return TutorialDoc, false
}

type ProjectStage string

const (
	StagePreKickoff     ProjectStage = "PRE_KICKOFF"
	StageImplementation ProjectStage = "IMPLEMENTATION"
	StageUAT            ProjectStage = "UAT"
	StageGoLive         ProjectStage = "GO_LIVE"
	StageSupport        ProjectStage = "SUPPORT"
	StageChurned        ProjectStage = "CHURNED"
)

func ParseProjectStage(s string) (ProjectStage, bool) {
	switch v := ProjectStage(normalize(s)); v {
	case StagePreKickoff, StageImplementation, StageUAT, StageGoLive, StageSupport, StageChurned:
		return v, true
	}
	return StagePreKickoff, false
}

type HealthStatus string

const (
	HealthOnTrack  HealthStatus = "ON_TRACK"
	HealthAtRisk   HealthStatus = "AT_RISK"
	HealthDelayed  HealthStatus = "DELAYED"
	HealthCritical HealthStatus = "CRITICAL"
)

func ParseHealthStatus(s string) (HealthStatus, bool) {
	switch v := HealthStatus(normalize(s)); v {
	case HealthOnTrack, HealthAtRisk, HealthDelayed, HealthCritical:
		return v, true
	}
	return HealthOnTrack, false
}

type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

func ParseNotificationType(s string) (NotificationType, bool) {
	switch v := NotificationType(strings.ToLower(strings.TrimSpace(s))); v {
	case NotificationInfo, NotificationSuccess, NotificationWarning, NotificationError:
		return v, true
	}
	return NotificationInfo, false
}

// normalize upper-cases and joins words with underscores so "in progress",
// "In-Progress" and "IN_PROGRESS" compare equal.
func normalize(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}
