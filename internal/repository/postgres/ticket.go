package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/laimu/erptracker/internal/mapper"
	"github.com/laimu/erptracker/internal/models"
	"github.com/laimu/erptracker/internal/tenant"
)

type TicketStore struct {
	pool *pgxpool.Pool
}

func NewTicketStore(pool *pgxpool.Pool) *TicketStore {
	return &TicketStore{pool: pool}
}

const ticketSelect = `
	SELECT t.id, t.organization_id, t.title, t.description, t.module_id, t.module_name,
		t.priority, t.status, t.requester, t.created_at, t.updated_at,
		COALESCE((
			SELECT json_agg(json_build_object('id', u.id, 'seq', u.seq, 'author', u.author,
					'date', u.date, 'message', u.message, 'type', u.type)
				ORDER BY u.seq)
			FROM ticket_updates u
			WHERE u.ticket_id = t.id
		), '[]'::json) AS updates
	FROM tickets t`

func scanTicket(row pgx.Row) (models.Ticket, error) {
	var r mapper.TicketRow
	var updates []byte
	err := row.Scan(
		&r.ID,
		&r.OrganizationID,
		&r.Title,
		&r.Description,
		&r.ModuleID,
		&r.ModuleName,
		&r.Priority,
		&r.Status,
		&r.Requester,
		&r.CreatedAt,
		&r.UpdatedAt,
		&updates,
	)
	if err != nil {
		return models.Ticket{}, err
	}
	if r.Updates, err = mapper.DecodeTicketUpdates(updates); err != nil {
		return models.Ticket{}, fmt.Errorf("ticket %s: %w", r.ID, err)
	}
	return mapper.MapTicket(r), nil
}

func (s *TicketStore) ListByScope(ctx context.Context, scope tenant.Scope) ([]models.Ticket, error) {
	where, args := scopeClause(scope, "t.organization_id", nil)
	query := ticketSelect + ` WHERE ` + where + ` ORDER BY t.created_at DESC, t.id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	tickets := make([]models.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tickets: %w", err)
	}
	return tickets, nil
}

func (s *TicketStore) GetByID(ctx context.Context, scope tenant.Scope, id string) (*models.Ticket, error) {
	where, args := scopeClause(scope, "t.organization_id", []any{id})
	query := ticketSelect + ` WHERE t.id = $1 AND ` + where

	t, err := scanTicket(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	return &t, nil
}

// Insert stores the ticket together with any updates it already carries.
func (s *TicketStore) Insert(ctx context.Context, t models.Ticket) error {
	return inTx(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO tickets (id, organization_id, title, description, module_id,
				module_name, priority, status, requester, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			t.ID,
			t.OrganizationID,
			t.Title,
			t.Description,
			t.ModuleID,
			t.ModuleName,
			string(t.Priority),
			string(t.Status),
			t.Requester,
			t.CreatedAt,
			t.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert ticket: %w", err)
		}
		for _, u := range t.Updates {
			if err := insertTicketUpdate(ctx, tx, t.ID, u); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *TicketStore) UpdateStatus(ctx context.Context, scope tenant.Scope, id string, status models.TicketStatus, entry models.TicketUpdate) (bool, error) {
	found := false
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		where, args := scopeClause(scope, "organization_id", []any{id, string(status), entry.Date})
		tag, err := tx.Exec(ctx,
			`UPDATE tickets SET status = $2, updated_at = $3 WHERE id = $1 AND `+where,
			args...,
		)
		if err != nil {
			return fmt.Errorf("update ticket status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		found = true
		return insertTicketUpdate(ctx, tx, id, entry)
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

func (s *TicketStore) AppendUpdate(ctx context.Context, scope tenant.Scope, id string, entry models.TicketUpdate) (bool, error) {
	found := false
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		where, args := scopeClause(scope, "organization_id", []any{id, entry.Date})
		tag, err := tx.Exec(ctx,
			`UPDATE tickets SET updated_at = $2 WHERE id = $1 AND `+where,
			args...,
		)
		if err != nil {
			return fmt.Errorf("touch ticket: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		found = true
		return insertTicketUpdate(ctx, tx, id, entry)
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

func (s *TicketStore) Delete(ctx context.Context, scope tenant.Scope, id string) (bool, error) {
	where, args := scopeClause(scope, "organization_id", []any{id})
	tag, err := s.pool.Exec(ctx, `DELETE FROM tickets WHERE id = $1 AND `+where, args...)
	if err != nil {
		return false, fmt.Errorf("delete ticket: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func insertTicketUpdate(ctx context.Context, tx pgx.Tx, ticketID string, u models.TicketUpdate) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO ticket_updates (id, ticket_id, author, date, message, type)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, ticketID, u.Author, u.Date, u.Message, string(u.Type),
	)
	if err != nil {
		return fmt.Errorf("insert ticket update: %w", err)
	}
	return nil
}
