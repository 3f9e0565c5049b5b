package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/laimu/erptracker/internal/mapper"
	"github.com/laimu/erptracker/internal/models"
	"github.com/laimu/erptracker/internal/repository"
	"github.com/laimu/erptracker/internal/tenant"
)

type ModuleStore struct {
	pool *pgxpool.Pool
}

func NewModuleStore(pool *pgxpool.Pool) *ModuleStore {
	return &ModuleStore{pool: pool}
}

// Features are folded into one JSON column per module so a list is a single
// round trip.
const moduleSelect = `
	SELECT m.id, m.organization_id, m.name, m.description, m.status, m.icon,
		m.owner, m.responsibles, m.progress,
		COALESCE((
			SELECT json_agg(json_build_object('name', f.name, 'status', f.status)
				ORDER BY f.position, f.created_at)
			FROM module_features f
			WHERE f.module_id = m.id
		), '[]'::json) AS features
	FROM modules m`

func scanModule(row pgx.Row) (models.Module, error) {
	var r mapper.ModuleRow
	var features []byte
	err := row.Scan(
		&r.ID,
		&r.OrganizationID,
		&r.Name,
		&r.Description,
		&r.Status,
		&r.Icon,
		&r.Owner,
		&r.Responsibles,
		&r.Progress,
		&features,
	)
	if err != nil {
		return models.Module{}, err
	}
	if r.Features, err = mapper.DecodeFeatures(features); err != nil {
		return models.Module{}, fmt.Errorf("module %s: %w", r.ID, err)
	}
	return mapper.MapModule(r), nil
}

func (s *ModuleStore) ListByScope(ctx context.Context, scope tenant.Scope) ([]models.Module, error) {
	where, args := scopeClause(scope, "m.organization_id", nil)
	query := moduleSelect + ` WHERE ` + where + ` ORDER BY m.id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	defer rows.Close()

	modules := make([]models.Module, 0)
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		modules = append(modules, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate modules: %w", err)
	}
	return modules, nil
}

func (s *ModuleStore) GetByID(ctx context.Context, scope tenant.Scope, id string) (*models.Module, error) {
	where, args := scopeClause(scope, "m.organization_id", []any{id})
	query := moduleSelect + ` WHERE m.id = $1 AND ` + where

	m, err := scanModule(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get module: %w", err)
	}
	return &m, nil
}

// Save upserts the module row and then rewrites its features. The upsert
// only overwrites an existing row the scope can see.
func (s *ModuleStore) Save(ctx context.Context, scope tenant.Scope, module models.Module) error {
	if scope.Unassigned() {
		return repository.ErrOutOfScope
	}

	args := []any{
		module.ID,
		writeOrganization(scope, module.OrganizationID),
		module.Name,
		module.Description,
		string(module.Status),
		module.Icon,
		module.Owner,
		module.Responsibles,
		module.Progress,
	}
	where, args := scopeClause(scope, "modules.organization_id", args)
	query := `
		INSERT INTO modules (id, organization_id, name, description, status, icon,
			owner, responsibles, progress, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			icon = EXCLUDED.icon,
			owner = EXCLUDED.owner,
			responsibles = EXCLUDED.responsibles,
			progress = EXCLUDED.progress
		WHERE ` + where

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("upsert module: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrOutOfScope
	}

	if _, err := s.pool.Exec(ctx, `DELETE FROM module_features WHERE module_id = $1`, module.ID); err != nil {
		return fmt.Errorf("clear module features: %w", err)
	}
	if len(module.Features) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(module.Features))
	for i, f := range module.Features {
		rows = append(rows, []any{uuid.NewString(), module.ID, i, f.Name, string(f.Status)})
	}
	_, err = s.pool.CopyFrom(ctx,
		pgx.Identifier{"module_features"},
		[]string{"id", "module_id", "position", "name", "status"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("insert module features: %w", err)
	}
	return nil
}

func (s *ModuleStore) Delete(ctx context.Context, scope tenant.Scope, id string) (bool, error) {
	where, args := scopeClause(scope, "organization_id", []any{id})
	tag, err := s.pool.Exec(ctx, `DELETE FROM modules WHERE id = $1 AND `+where, args...)
	if err != nil {
		return false, fmt.Errorf("delete module: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
