package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/laimu/erptracker/internal/mapper"
	"github.com/laimu/erptracker/internal/models"
	"github.com/laimu/erptracker/internal/repository"
	"github.com/laimu/erptracker/internal/tenant"
)

// uniqueViolation is the Postgres SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// ProfileStore serves both profiles and the credentials behind them.
type ProfileStore struct {
	pool *pgxpool.Pool
}

func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

func scanProfile(row pgx.Row) (models.Profile, error) {
	var r mapper.ProfileRow
	if err := row.Scan(&r.ID, &r.FullName, &r.Role, &r.OrganizationID, &r.CreatedAt); err != nil {
		return models.Profile{}, err
	}
	return mapper.MapProfile(r), nil
}

// CreatePrincipal inserts the credential and its profile in one
// transaction so a principal never exists without a profile.
func (s *ProfileStore) CreatePrincipal(ctx context.Context, email, passwordHash, fullName string) (*models.Profile, error) {
	id := uuid.NewString()

	var profile models.Profile
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO credentials (principal_id, email, password_hash, created_at)
			VALUES ($1, $2, $3, now())`,
			id, strings.ToLower(email), passwordHash,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return repository.ErrDuplicate
			}
			return fmt.Errorf("insert credential: %w", err)
		}

		profile, err = scanProfile(tx.QueryRow(ctx, `
			INSERT INTO profiles (id, full_name, role, created_at)
			VALUES ($1, $2, $3, now())
			RETURNING id, full_name, role, organization_id, created_at`,
			id, fullName, string(models.RoleClientUser),
		))
		if err != nil {
			return fmt.Errorf("insert profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetByEmail looks up a credential globally, not tenant-scoped. Used for
// login.
func (s *ProfileStore) GetByEmail(ctx context.Context, email string) (*models.Credential, error) {
	query := `
		SELECT principal_id, email, password_hash
		FROM credentials
		WHERE email = $1`

	var c models.Credential
	err := s.pool.QueryRow(ctx, query, strings.ToLower(email)).Scan(&c.PrincipalID, &c.Email, &c.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get credential by email: %w", err)
	}
	return &c, nil
}

func (s *ProfileStore) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `
		SELECT id, full_name, role, organization_id, created_at
		FROM profiles
		WHERE id = $1`

	p, err := scanProfile(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

func (s *ProfileStore) ListByScope(ctx context.Context, scope tenant.Scope) ([]models.Profile, error) {
	where, args := scopeClause(scope, "organization_id", nil)
	query := `
		SELECT id, full_name, role, organization_id, created_at
		FROM profiles
		WHERE ` + where + `
		ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]models.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return profiles, nil
}

func (s *ProfileStore) Update(ctx context.Context, id string, patch repository.ProfilePatch) (*models.Profile, error) {
	var sets []string
	args := []any{id}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.FullName != nil {
		set("full_name", *patch.FullName)
	}
	if patch.Role != nil {
		set("role", string(*patch.Role))
	}
	switch {
	case patch.ClearOrganization:
		sets = append(sets, "organization_id = NULL")
	case patch.OrganizationID != nil:
		set("organization_id", *patch.OrganizationID)
	}

	if len(sets) == 0 {
		return s.GetByID(ctx, id)
	}

	query := `UPDATE profiles SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 RETURNING id, full_name, role, organization_id, created_at`

	p, err := scanProfile(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &p, nil
}
