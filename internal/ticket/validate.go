// Package ticket implements the support ticket lifecycle: creation with
// validation, status changes and comments recorded in an append-only log,
// and deletion behind an explicit confirmation.
//
// Service is what the HTTP API calls. Board and ScopedRemote are the
// session-side list for Go clients that embed the portal, such as a CLI or
// a desktop shell; cmd/server does not construct them.
package ticket

import (
	"strings"
	"unicode/utf8"

	"github.com/laimu/erptracker/internal/apperr"
	"github.com/laimu/erptracker/internal/models"
)

const (
	MinTitleLength   = 5
	MaxCommentLength = 500
)

// NewTicket is what a requester fills in.
type NewTicket struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	ModuleID    string                `json:"module_id"`
	Priority    models.TicketPriority `json:"priority"`
}

// ValidateNew checks the fields in form order and reports only the first
// problem.
func ValidateNew(n NewTicket) error {
	title := strings.TrimSpace(n.Title)
	if title == "" {
		return apperr.Validation("title", "title is required")
	}
	if utf8.RuneCountInString(title) < MinTitleLength {
		return apperr.Validation("title", "title must be at least %d characters", MinTitleLength)
	}
	if strings.TrimSpace(n.ModuleID) == "" {
		return apperr.Validation("module_id", "select a module")
	}
	if strings.TrimSpace(n.Description) == "" {
		return apperr.Validation("description", "description is required")
	}
	// An empty priority takes the default; anything else must be known.
	if n.Priority != "" && !n.Priority.Valid() {
		return apperr.Validation("priority", "unknown priority %q", string(n.Priority))
	}
	return nil
}

func ValidateComment(message string) error {
	if strings.TrimSpace(message) == "" {
		return apperr.Validation("message", "comment cannot be empty")
	}
	if utf8.RuneCountInString(message) > MaxCommentLength {
		return apperr.Validation("message", "comment exceeds %d characters", MaxCommentLength)
	}
	return nil
}

// parseStatus accepts any known spelling and returns the canonical value.
func parseStatus(s models.TicketStatus) (models.TicketStatus, error) {
	status, ok := models.ParseTicketStatus(string(s))
	if !ok {
		return "", apperr.Validation("status", "unknown status %q", string(s))
	}
	return status, nil
}
