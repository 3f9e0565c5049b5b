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

type TimelineStore struct {
	pool *pgxpool.Pool
}

func NewTimelineStore(pool *pgxpool.Pool) *TimelineStore {
	return &TimelineStore{pool: pool}
}

const timelineSelect = `
	SELECT e.id, e.organization_id, e.phase, e.date_range, e.status, e.description,
		e.modules_included,
		COALESCE((
			SELECT json_agg(json_build_object('id', t.id, 'title', t.title,
					'status', t.status, 'week', t.week)
				ORDER BY t.position, t.created_at)
			FROM timeline_tasks t
			WHERE t.timeline_event_id = e.id
		), '[]'::json) AS tasks
	FROM timeline_events e`

func scanTimelineEvent(row pgx.Row) (models.TimelineEvent, error) {
	var r mapper.TimelineEventRow
	var tasks []byte
	err := row.Scan(
		&r.ID,
		&r.OrganizationID,
		&r.Phase,
		&r.DateRange,
		&r.Status,
		&r.Description,
		&r.ModulesIncluded,
		&tasks,
	)
	if err != nil {
		return models.TimelineEvent{}, err
	}
	if r.Tasks, err = mapper.DecodeTasks(tasks); err != nil {
		return models.TimelineEvent{}, fmt.Errorf("timeline event %s: %w", r.ID, err)
	}
	return mapper.MapTimelineEvent(r), nil
}

func (s *TimelineStore) ListByScope(ctx context.Context, scope tenant.Scope) ([]models.TimelineEvent, error) {
	where, args := scopeClause(scope, "e.organization_id", nil)
	query := timelineSelect + ` WHERE ` + where + ` ORDER BY e.created_at, e.id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list timeline events: %w", err)
	}
	defer rows.Close()

	events := make([]models.TimelineEvent, 0)
	for rows.Next() {
		e, err := scanTimelineEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan timeline event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timeline events: %w", err)
	}
	return events, nil
}

func (s *TimelineStore) GetByID(ctx context.Context, scope tenant.Scope, id string) (*models.TimelineEvent, error) {
	where, args := scopeClause(scope, "e.organization_id", []any{id})
	query := timelineSelect + ` WHERE e.id = $1 AND ` + where

	e, err := scanTimelineEvent(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get timeline event: %w", err)
	}
	return &e, nil
}

func (s *TimelineStore) Save(ctx context.Context, scope tenant.Scope, event models.TimelineEvent) error {
	if scope.Unassigned() {
		return repository.ErrOutOfScope
	}

	included := event.ModulesIncluded
	if included == nil {
		included = []string{}
	}
	args := []any{
		event.ID,
		writeOrganization(scope, event.OrganizationID),
		event.Phase,
		event.Date,
		string(event.Status),
		event.Description,
		included,
	}
	where, args := scopeClause(scope, "timeline_events.organization_id", args)
	query := `
		INSERT INTO timeline_events (id, organization_id, phase, date_range, status,
			description, modules_included, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (id) DO UPDATE SET
			phase = EXCLUDED.phase,
			date_range = EXCLUDED.date_range,
			status = EXCLUDED.status,
			description = EXCLUDED.description,
			modules_included = EXCLUDED.modules_included
		WHERE ` + where

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("upsert timeline event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrOutOfScope
	}

	if _, err := s.pool.Exec(ctx, `DELETE FROM timeline_tasks WHERE timeline_event_id = $1`, event.ID); err != nil {
		return fmt.Errorf("clear timeline tasks: %w", err)
	}
	if len(event.Tasks) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(event.Tasks))
	for i, t := range event.Tasks {
		id := t.ID
		if id == "" {
			id = uuid.NewString()
		}
		rows = append(rows, []any{id, event.ID, i, t.Title, string(t.Status), t.Week})
	}
	_, err = s.pool.CopyFrom(ctx,
		pgx.Identifier{"timeline_tasks"},
		[]string{"id", "timeline_event_id", "position", "title", "status", "week"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("insert timeline tasks: %w", err)
	}
	return nil
}

func (s *TimelineStore) Delete(ctx context.Context, scope tenant.Scope, id string) (bool, error) {
	where, args := scopeClause(scope, "organization_id", []any{id})
	tag, err := s.pool.Exec(ctx, `DELETE FROM timeline_events WHERE id = $1 AND `+where, args...)
	if err != nil {
		return false, fmt.Errorf("delete timeline event: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
