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

// DirectoryStore keeps the back-office user directory.
type DirectoryStore struct {
	pool *pgxpool.Pool
}

func NewDirectoryStore(pool *pgxpool.Pool) *DirectoryStore {
	return &DirectoryStore{pool: pool}
}

const directoryColumns = `id, organization_id, name, email, role, department, job_title, phone, avatar`

func scanDirectoryUser(row pgx.Row) (models.DirectoryUser, error) {
	var r mapper.DirectoryUserRow
	err := row.Scan(&r.ID, &r.OrganizationID, &r.Name, &r.Email, &r.Role,
		&r.Department, &r.JobTitle, &r.Phone, &r.Avatar)
	if err != nil {
		return models.DirectoryUser{}, err
	}
	return mapper.MapDirectoryUser(r), nil
}

func (s *DirectoryStore) ListByScope(ctx context.Context, scope tenant.Scope) ([]models.DirectoryUser, error) {
	where, args := scopeClause(scope, "organization_id", nil)
	query := `SELECT ` + directoryColumns + ` FROM directory_users WHERE ` + where + ` ORDER BY lower(name), id`
	return collect(ctx, s.pool, "directory users", query, args, scanDirectoryUser)
}

func (s *DirectoryStore) GetByID(ctx context.Context, scope tenant.Scope, id string) (*models.DirectoryUser, error) {
	where, args := scopeClause(scope, "organization_id", []any{id})
	query := `SELECT ` + directoryColumns + ` FROM directory_users WHERE id = $1 AND ` + where

	user, err := scanDirectoryUser(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get directory user: %w", err)
	}
	return &user, nil
}

func (s *DirectoryStore) Insert(ctx context.Context, user models.DirectoryUser) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO directory_users (id, organization_id, name, email, role,
			department, job_title, phone, avatar)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		user.ID,
		user.OrganizationID,
		user.Name,
		user.Email,
		string(user.Role),
		string(user.Department),
		user.JobTitle,
		user.Phone,
		user.Avatar,
	)
	if err != nil {
		return fmt.Errorf("insert directory user: %w", err)
	}
	return nil
}

func (s *DirectoryStore) Delete(ctx context.Context, scope tenant.Scope, id string) (bool, error) {
	return deleteScoped(ctx, s.pool, "directory_users", scope, id)
}
