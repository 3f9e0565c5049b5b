package ticket

import (
	"context"

	"github.com/laimu/erptracker/internal/apperr"
	"github.com/laimu/erptracker/internal/clock"
	"github.com/laimu/erptracker/internal/models"
	"github.com/laimu/erptracker/internal/repository"
	"github.com/laimu/erptracker/internal/tenant"
	"go.uber.org/zap"
)

// ModuleLookup resolves the module a ticket is filed against.
type ModuleLookup interface {
	GetByID(ctx context.Context, scope tenant.Scope, id string) (*models.Module, error)
}

// Service runs the ticket lifecycle against the store. Every mutation is
// written first; the returned ticket is what the store confirmed.
type Service struct {
	tickets repository.TicketRepository
	modules ModuleLookup
	clock   clock.Clock
	logger  *zap.Logger
}

func NewService(tickets repository.TicketRepository, modules ModuleLookup, clk clock.Clock, logger *zap.Logger) *Service {
	return &Service{tickets: tickets, modules: modules, clock: clk, logger: logger}
}

// List returns the scope's tickets, newest first.
func (s *Service) List(ctx context.Context, scope tenant.Scope) ([]models.Ticket, error) {
	tickets, err := s.tickets.ListByScope(ctx, scope)
	if err != nil {
		return nil, remoteRead("list tickets", err)
	}
	return tickets, nil
}

func (s *Service) Get(ctx context.Context, scope tenant.Scope, id string) (*models.Ticket, error) {
	t, err := s.tickets.GetByID(ctx, scope, id)
	if err != nil {
		return nil, remoteRead("get ticket", err)
	}
	if t == nil {
		return nil, apperr.NotFound("ticket %s not found", id)
	}
	return t, nil
}

// Create validates n, then stores a new OPEN ticket requested by actor.
// Nothing is written when validation fails.
func (s *Service) Create(ctx context.Context, scope tenant.Scope, actor string, n NewTicket) (*models.Ticket, error) {
	if err := ValidateNew(n); err != nil {
		return nil, err
	}
	orgID := scope.OrganizationID()
	if orgID == nil {
		return nil, apperr.Forbidden("tickets must be filed for an organization")
	}

	t := newTicket(n, orgID, actor, s.moduleName(ctx, scope, n.ModuleID), s.clock.Now())
	if err := s.tickets.Insert(ctx, t); err != nil {
		s.logger.Error("failed to create ticket", zap.String("ticket_id", t.ID), zap.Error(err))
		return nil, remoteWrite("create ticket", err)
	}

	s.logger.Info("ticket created",
		zap.String("ticket_id", t.ID),
		zap.String("organization_id", *orgID),
		zap.String("priority", string(t.Priority)),
	)
	return &t, nil
}

// ChangeStatus moves the ticket to status and logs the move. Any status may
// follow any other, including itself.
func (s *Service) ChangeStatus(ctx context.Context, scope tenant.Scope, actor, id string, status models.TicketStatus) (*models.Ticket, error) {
	status, err := parseStatus(status)
	if err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	entry := newEntry(actor, StatusMessage(current.Status, status), models.UpdateStatusChange, s.clock.Now())
	found, err := s.tickets.UpdateStatus(ctx, scope, id, status, entry)
	if err != nil {
		s.logger.Error("failed to change ticket status", zap.String("ticket_id", id), zap.Error(err))
		return nil, remoteWrite("change ticket status", err)
	}
	if !found {
		return nil, apperr.NotFound("ticket %s not found", id)
	}

	updated := withEntry(*current, entry)
	updated.Status = status
	return &updated, nil
}

// AddComment appends a comment by actor to the ticket's log.
func (s *Service) AddComment(ctx context.Context, scope tenant.Scope, actor, id, message string) (*models.Ticket, error) {
	if err := ValidateComment(message); err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	entry := newEntry(actor, message, models.UpdateComment, s.clock.Now())
	found, err := s.tickets.AppendUpdate(ctx, scope, id, entry)
	if err != nil {
		s.logger.Error("failed to add ticket comment", zap.String("ticket_id", id), zap.Error(err))
		return nil, remoteWrite("add comment", err)
	}
	if !found {
		return nil, apperr.NotFound("ticket %s not found", id)
	}

	updated := withEntry(*current, entry)
	return &updated, nil
}

func (s *Service) Delete(ctx context.Context, scope tenant.Scope, id string) error {
	found, err := s.tickets.Delete(ctx, scope, id)
	if err != nil {
		s.logger.Error("failed to delete ticket", zap.String("ticket_id", id), zap.Error(err))
		return remoteWrite("delete ticket", err)
	}
	if !found {
		return apperr.NotFound("ticket %s not found", id)
	}
	s.logger.Info("ticket deleted", zap.String("ticket_id", id))
	return nil
}

// moduleName falls back to the default name when the module cannot be
// read; the ticket is still filed.
func (s *Service) moduleName(ctx context.Context, scope tenant.Scope, moduleID string) string {
	m, err := s.modules.GetByID(ctx, scope, moduleID)
	if err != nil {
		s.logger.Warn("failed to resolve ticket module", zap.String("module_id", moduleID), zap.Error(err))
		return ""
	}
	if m == nil {
		return ""
	}
	return m.Name
}

// remoteRead and remoteWrite keep an auth rejection recognizable as such.
func remoteRead(op string, err error) error {
	if apperr.IsAuthExpired(err) {
		return apperr.AuthExpired("%s: session rejected", op)
	}
	return apperr.RemoteRead(op, err)
}

func remoteWrite(op string, err error) error {
	if apperr.IsAuthExpired(err) {
		return apperr.AuthExpired("%s: session rejected", op)
	}
	return apperr.RemoteWrite(op, err)
}
