package mapper

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/laimu/erptracker/internal/models"
)

// Fallbacks applied when a column is absent.
const (
	DefaultModuleIcon     = "Package"
	DefaultModuleName     = "General"
	DefaultThumbnailColor = "bg-gray-500"
	DefaultProfileName    = "Unknown"
)

func MapOrganization(row OrganizationRow) models.Organization {
	stage, _ := models.ParseProjectStage(str(row.ProjectStage))
	health, _ := models.ParseHealthStatus(str(row.HealthStatus))

	var branding models.BrandingConfig
	if len(row.Branding) > 0 {
		// Unparseable branding leaves the defaults in place.
		if err := json.Unmarshal(row.Branding, &branding); err != nil {
			branding = models.BrandingConfig{}
		}
	}

	return models.Organization{
		ID:           row.ID,
		Name:         str(row.Name),
		ProjectStage: stage,
		HealthStatus: health,
		StartDate:    row.StartDate,
		TargetGoLive: row.TargetGoLive,
		ActualGoLive: row.ActualGoLive,
		Branding:     branding,
		ContactEmail: str(row.ContactEmail),
		CreatedAt:    timeOr(row.CreatedAt),
	}
}

func MapProfile(row ProfileRow) models.Profile {
	role, _ := models.ParseRole(str(row.Role))
	return models.Profile{
		ID:             row.ID,
		FullName:       strOr(row.FullName, DefaultProfileName),
		Role:           role,
		OrganizationID: nonEmpty(row.OrganizationID),
		CreatedAt:      timeOr(row.CreatedAt),
	}
}

func MapModule(row ModuleRow) models.Module {
	status, _ := models.ParseStatus(str(row.Status))

	features := make([]models.Feature, 0, len(row.Features))
	for _, f := range row.Features {
		fs, _ := models.ParseStatus(str(f.Status))
		features = append(features, models.Feature{Name: str(f.Name), Status: fs})
	}

	return models.Module{
		ID:             row.ID,
		OrganizationID: nonEmpty(row.OrganizationID),
		Name:           str(row.Name),
		Description:    str(row.Description),
		Status:         status,
		Icon:           strOr(row.Icon, DefaultModuleIcon),
		Owner:          str(row.Owner),
		Responsibles:   str(row.Responsibles),
		Progress:       clampPercent(row.Progress),
		Features:       features,
	}
}

func MapTimelineEvent(row TimelineEventRow) models.TimelineEvent {
	status, _ := models.ParseStatus(str(row.Status))

	tasks := make([]models.Task, 0, len(row.Tasks))
	for _, t := range row.Tasks {
		ts, _ := models.ParseStatus(str(t.Status))
		tasks = append(tasks, models.Task{
			ID:     str(t.ID),
			Title:  str(t.Title),
			Status: ts,
			Week:   str(t.Week),
		})
	}

	modules := make([]string, 0, len(row.ModulesIncluded))
	modules = append(modules, row.ModulesIncluded...)

	return models.TimelineEvent{
		ID:              row.ID,
		OrganizationID:  nonEmpty(row.OrganizationID),
		Phase:           str(row.Phase),
		Date:            str(row.DateRange),
		Status:          status,
		Description:     str(row.Description),
		ModulesIncluded: modules,
		Tasks:           tasks,
	}
}

// MapTicket maps a ticket and its log. Updates come out in the order they
// were appended (oldest first).
func MapTicket(row TicketRow) models.Ticket {
	priority, _ := models.ParseTicketPriority(str(row.Priority))
	status, _ := models.ParseTicketStatus(str(row.Status))

	seqs := make([]int64, 0, len(row.Updates))
	updates := make([]models.TicketUpdate, 0, len(row.Updates))
	for _, u := range row.Updates {
		ut, _ := models.ParseUpdateType(str(u.Type))
		updates = append(updates, models.TicketUpdate{
			ID:      str(u.ID),
			Author:  str(u.Author),
			Date:    timeOr(u.Date),
			Message: str(u.Message),
			Type:    ut,
		})
		var seq int64
		if u.Seq != nil {
			seq = *u.Seq
		}
		seqs = append(seqs, seq)
	}
	sort.Stable(updateOrder{updates: updates, seqs: seqs})

	createdAt := timeOr(row.CreatedAt)
	updatedAt := createdAt
	if row.UpdatedAt != nil {
		updatedAt = *row.UpdatedAt
	}

	return models.Ticket{
		ID:             row.ID,
		OrganizationID: nonEmpty(row.OrganizationID),
		Title:          str(row.Title),
		Description:    str(row.Description),
		ModuleID:       str(row.ModuleID),
		ModuleName:     strOr(row.ModuleName, DefaultModuleName),
		Priority:       priority,
		Status:         status,
		Requester:      str(row.Requester),
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
		Updates:        updates,
	}
}

func MapActionItem(row ActionItemRow) models.ActionItem {
	status, _ := models.ParseActionStatus(str(row.Status))
	return models.ActionItem{
		ID:             row.ID,
		OrganizationID: nonEmpty(row.OrganizationID),
		Task:           str(row.Task),
		AssignedTo:     str(row.AssignedTo),
		DueDate:        str(row.DueDate),
		IsCritical:     row.IsCritical != nil && *row.IsCritical,
		Status:         status,
	}
}

// MapDirectoryUser accepts the Spanish department labels of older rows.
func MapDirectoryUser(row DirectoryUserRow) models.DirectoryUser {
	role, _ := models.ParseDirectoryRole(str(row.Role))
	dept, _ := models.ParseDepartment(str(row.Department))
	return models.DirectoryUser{
		ID:             row.ID,
		OrganizationID: nonEmpty(row.OrganizationID),
		Name:           str(row.Name),
		Email:          str(row.Email),
		Role:           role,
		Department:     dept,
		JobTitle:       str(row.JobTitle),
		Phone:          str(row.Phone),
		Avatar:         str(row.Avatar),
	}
}

func MapFaq(row FaqRow) models.FaqItem {
	return models.FaqItem{
		ID:             row.ID,
		OrganizationID: nonEmpty(row.OrganizationID),
		Question:       str(row.Question),
		Answer:         str(row.Answer),
		Category:       str(row.Category),
	}
}

func MapTutorial(row TutorialRow) models.TutorialItem {
	tt, _ := models.ParseTutorialType(str(row.Type))
	return models.TutorialItem{
		ID:             row.ID,
		OrganizationID: nonEmpty(row.OrganizationID),
		Title:          str(row.Title),
		Duration:       str(row.Duration),
		Type:           tt,
		ThumbnailColor: strOr(row.ThumbnailColor, DefaultThumbnailColor),
	}
}

func MapCustomDevelopment(row CustomDevelopmentRow) models.CustomDevelopment {
	status, _ := models.ParseStatus(str(row.Status))
	return models.CustomDevelopment{
		ID:             row.ID,
		OrganizationID: nonEmpty(row.OrganizationID),
		Title:          str(row.Title),
		Description:    str(row.Description),
		RequestedBy:    str(row.RequestedBy),
		Status:         status,
		DeliveryDate:   str(row.DeliveryDate),
	}
}

func MapNotification(row NotificationRow) models.Notification {
	nt, _ := models.ParseNotificationType(str(row.Type))
	return models.Notification{
		ID:        row.ID,
		UserID:    str(row.UserID),
		Title:     str(row.Title),
		Message:   str(row.Message),
		Type:      nt,
		IsRead:    row.IsRead != nil && *row.IsRead,
		Link:      str(row.Link),
		CreatedAt: timeOr(row.CreatedAt),
	}
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func strOr(p *string, fallback string) string {
	if p == nil || *p == "" {
		return fallback
	}
	return *p
}

func nonEmpty(p *string) *string {
	if p == nil || *p == "" {
		return nil
	}
	v := *p
	return &v
}

func timeOr(p *time.Time) time.Time {
	if p == nil {
		return time.Time{}
	}
	return *p
}

func clampPercent(p *int32) int {
	if p == nil {
		return 0
	}
	switch v := int(*p); {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// updateOrder sorts log entries by date, then by append sequence. Rows
// without a sequence compare equal and keep their input order.
type updateOrder struct {
	updates []models.TicketUpdate
	seqs    []int64
}

func (o updateOrder) Len() int { return len(o.updates) }

func (o updateOrder) Less(i, j int) bool {
	di, dj := o.updates[i].Date, o.updates[j].Date
	if !di.Equal(dj) {
		return di.Before(dj)
	}
	return o.seqs[i] < o.seqs[j]
}

func (o updateOrder) Swap(i, j int) {
	o.updates[i], o.updates[j] = o.updates[j], o.updates[i]
	o.seqs[i], o.seqs[j] = o.seqs[j], o.seqs[i]
}
