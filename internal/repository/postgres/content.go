package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/laimu/erptracker/internal/mapper"
	"github.com/laimu/erptracker/internal/models"
	"github.com/laimu/erptracker/internal/tenant"
)

// FaqStore and TutorialStore hold help content. Rows without an
// organization are global and listed for every tenant.
type FaqStore struct {
	pool *pgxpool.Pool
}

func NewFaqStore(pool *pgxpool.Pool) *FaqStore {
	return &FaqStore{pool: pool}
}

func (s *FaqStore) ListByScope(ctx context.Context, scope tenant.Scope) ([]models.FaqItem, error) {
	where, args := sharedScopeClause(scope, "organization_id", nil)
	query := `
		SELECT id, organization_id, question, answer, category
		FROM faqs
		WHERE ` + where + `
		ORDER BY category, created_at`

	return collect(ctx, s.pool, "faqs", query, args, func(row pgx.Row) (models.FaqItem, error) {
		var r mapper.FaqRow
		if err := row.Scan(&r.ID, &r.OrganizationID, &r.Question, &r.Answer, &r.Category); err != nil {
			return models.FaqItem{}, err
		}
		return mapper.MapFaq(r), nil
	})
}

func (s *FaqStore) Insert(ctx context.Context, item models.FaqItem) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO faqs (id, organization_id, question, answer, category, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`,
		item.ID, item.OrganizationID, item.Question, item.Answer, item.Category,
	)
	if err != nil {
		return fmt.Errorf("insert faq: %w", err)
	}
	return nil
}

// Delete only removes global entries for an unscoped super admin; a tenant
// admin can delete its own entries.
func (s *FaqStore) Delete(ctx context.Context, scope tenant.Scope, id string) (bool, error) {
	return deleteScoped(ctx, s.pool, "faqs", scope, id)
}

type TutorialStore struct {
	pool *pgxpool.Pool
}

func NewTutorialStore(pool *pgxpool.Pool) *TutorialStore {
	return &TutorialStore{pool: pool}
}

func (s *TutorialStore) ListByScope(ctx context.Context, scope tenant.Scope) ([]models.TutorialItem, error) {
	where, args := sharedScopeClause(scope, "organization_id", nil)
	query := `
		SELECT id, organization_id, title, duration, type, thumbnail_color
		FROM tutorials
		WHERE ` + where + `
		ORDER BY created_at`

	return collect(ctx, s.pool, "tutorials", query, args, func(row pgx.Row) (models.TutorialItem, error) {
		var r mapper.TutorialRow
		if err := row.Scan(&r.ID, &r.OrganizationID, &r.Title, &r.Duration, &r.Type, &r.ThumbnailColor); err != nil {
			return models.TutorialItem{}, err
		}
		return mapper.MapTutorial(r), nil
	})
}

func (s *TutorialStore) Insert(ctx context.Context, item models.TutorialItem) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tutorials (id, organization_id, title, duration, type, thumbnail_color, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())`,
		item.ID, item.OrganizationID, item.Title, item.Duration, string(item.Type), item.ThumbnailColor,
	)
	if err != nil {
		return fmt.Errorf("insert tutorial: %w", err)
	}
	return nil
}

func (s *TutorialStore) Delete(ctx context.Context, scope tenant.Scope, id string) (bool, error) {
	return deleteScoped(ctx, s.pool, "tutorials", scope, id)
}

type CustomDevelopmentStore struct {
	pool *pgxpool.Pool
}

func NewCustomDevelopmentStore(pool *pgxpool.Pool) *CustomDevelopmentStore {
	return &CustomDevelopmentStore{pool: pool}
}

func (s *CustomDevelopmentStore) ListByScope(ctx context.Context, scope tenant.Scope) ([]models.CustomDevelopment, error) {
	where, args := scopeClause(scope, "organization_id", nil)
	query := `
		SELECT id, organization_id, title, description, requested_by, status, delivery_date
		FROM custom_developments
		WHERE ` + where + `
		ORDER BY created_at DESC`

	return collect(ctx, s.pool, "custom developments", query, args, func(row pgx.Row) (models.CustomDevelopment, error) {
		var r mapper.CustomDevelopmentRow
		err := row.Scan(&r.ID, &r.OrganizationID, &r.Title, &r.Description, &r.RequestedBy, &r.Status, &r.DeliveryDate)
		if err != nil {
			return models.CustomDevelopment{}, err
		}
		return mapper.MapCustomDevelopment(r), nil
	})
}

func (s *CustomDevelopmentStore) Insert(ctx context.Context, dev models.CustomDevelopment) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO custom_developments (id, organization_id, title, description,
			requested_by, status, delivery_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
		dev.ID, dev.OrganizationID, dev.Title, dev.Description, dev.RequestedBy,
		string(dev.Status), dev.DeliveryDate,
	)
	if err != nil {
		return fmt.Errorf("insert custom development: %w", err)
	}
	return nil
}

func (s *CustomDevelopmentStore) Delete(ctx context.Context, scope tenant.Scope, id string) (bool, error) {
	return deleteScoped(ctx, s.pool, "custom_developments", scope, id)
}

// collect runs a list query and maps every row with scan.
func collect[T any](ctx context.Context, pool *pgxpool.Pool, what, query string, args []any, scan func(pgx.Row) (T, error)) ([]T, error) {
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", what, err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", what, err)
	}
	return out, nil
}

// deleteScoped deletes id from table when the row belongs to the scope.
// table is always a constant from this package.
func deleteScoped(ctx context.Context, pool *pgxpool.Pool, table string, scope tenant.Scope, id string) (bool, error) {
	where, args := scopeClause(scope, "organization_id", []any{id})
	tag, err := pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1 AND `+where, args...)
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", table, err)
	}
	return tag.RowsAffected() > 0, nil
}
