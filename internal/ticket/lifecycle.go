package ticket

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/laimu/erptracker/internal/mapper"
	"github.com/laimu/erptracker/internal/models"
)

// newTicket builds an OPEN ticket with an empty log. moduleName is the
// module's display name at creation time; it is not kept in sync later.
func newTicket(n NewTicket, orgID *string, requester, moduleName string, now time.Time) models.Ticket {
	priority, _ := models.ParseTicketPriority(string(n.Priority))
	if moduleName == "" {
		moduleName = mapper.DefaultModuleName
	}
	return models.Ticket{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Title:          strings.TrimSpace(n.Title),
		Description:    strings.TrimSpace(n.Description),
		ModuleID:       n.ModuleID,
		ModuleName:     moduleName,
		Priority:       priority,
		Status:         models.TicketOpen,
		Requester:      requester,
		CreatedAt:      now,
		UpdatedAt:      now,
		Updates:        []models.TicketUpdate{},
	}
}

func newEntry(author, message string, kind models.UpdateType, now time.Time) models.TicketUpdate {
	return models.TicketUpdate{
		ID:      uuid.NewString(),
		Author:  author,
		Date:    now,
		Message: message,
		Type:    kind,
	}
}

// withEntry returns t with entry appended. The log is copied, so earlier
// copies of t keep their own log unchanged.
func withEntry(t models.Ticket, entry models.TicketUpdate) models.Ticket {
	t.Updates = append(slices.Clip(slices.Clone(t.Updates)), entry)
	t.UpdatedAt = entry.Date
	return t
}
