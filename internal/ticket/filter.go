package ticket

import (
	"strings"

	"github.com/laimu/erptracker/internal/models"
)

// Filter returns the tickets matching both query and moduleID, keeping
// their order. query matches case-insensitively against title, id and
// module name; an empty query or moduleID does not filter.
func Filter(tickets []models.Ticket, query, moduleID string) []models.Ticket {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if moduleID != "" && t.ModuleID != moduleID {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.ID), q) &&
			!strings.Contains(strings.ToLower(t.ModuleName), q) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// StatusMessage is the log line recorded for a status change.
func StatusMessage(from, to models.TicketStatus) string {
	return "status changed from " + string(from) + " to " + string(to)
}
