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

type ActionItemStore struct {
	pool *pgxpool.Pool
}

func NewActionItemStore(pool *pgxpool.Pool) *ActionItemStore {
	return &ActionItemStore{pool: pool}
}

const actionItemColumns = `id, organization_id, task, assigned_to, due_date, is_critical, status`

func scanActionItem(row pgx.Row) (models.ActionItem, error) {
	var r mapper.ActionItemRow
	err := row.Scan(&r.ID, &r.OrganizationID, &r.Task, &r.AssignedTo, &r.DueDate, &r.IsCritical, &r.Status)
	if err != nil {
		return models.ActionItem{}, err
	}
	return mapper.MapActionItem(r), nil
}

func (s *ActionItemStore) ListByScope(ctx context.Context, scope tenant.Scope) ([]models.ActionItem, error) {
	where, args := scopeClause(scope, "organization_id", nil)
	query := `SELECT ` + actionItemColumns + ` FROM action_items WHERE ` + where + ` ORDER BY created_at, id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list action items: %w", err)
	}
	defer rows.Close()

	items := make([]models.ActionItem, 0)
	for rows.Next() {
		item, err := scanActionItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan action item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate action items: %w", err)
	}
	return items, nil
}

func (s *ActionItemStore) GetByID(ctx context.Context, scope tenant.Scope, id string) (*models.ActionItem, error) {
	where, args := scopeClause(scope, "organization_id", []any{id})
	query := `SELECT ` + actionItemColumns + ` FROM action_items WHERE id = $1 AND ` + where

	item, err := scanActionItem(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get action item: %w", err)
	}
	return &item, nil
}

func (s *ActionItemStore) Insert(ctx context.Context, item models.ActionItem) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO action_items (id, organization_id, task, assigned_to, due_date,
			is_critical, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
		item.ID,
		item.OrganizationID,
		item.Task,
		item.AssignedTo,
		item.DueDate,
		item.IsCritical,
		string(item.Status),
	)
	if err != nil {
		return fmt.Errorf("insert action item: %w", err)
	}
	return nil
}

func (s *ActionItemStore) SetStatus(ctx context.Context, scope tenant.Scope, id string, status models.ActionStatus) (bool, error) {
	where, args := scopeClause(scope, "organization_id", []any{id, string(status)})
	tag, err := s.pool.Exec(ctx, `UPDATE action_items SET status = $2 WHERE id = $1 AND `+where, args...)
	if err != nil {
		return false, fmt.Errorf("update action item status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *ActionItemStore) Delete(ctx context.Context, scope tenant.Scope, id string) (bool, error) {
	where, args := scopeClause(scope, "organization_id", []any{id})
	tag, err := s.pool.Exec(ctx, `DELETE FROM action_items WHERE id = $1 AND `+where, args...)
	if err != nil {
		return false, fmt.Errorf("delete action item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
