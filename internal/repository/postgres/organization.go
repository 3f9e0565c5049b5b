package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/laimu/erptracker/internal/mapper"
	"github.com/laimu/erptracker/internal/models"
	"github.com/laimu/erptracker/internal/repository"
)

type OrganizationStore struct {
	pool *pgxpool.Pool
}

func NewOrganizationStore(pool *pgxpool.Pool) *OrganizationStore {
	return &OrganizationStore{pool: pool}
}

const organizationColumns = `id, name, project_stage, health_status, start_date, target_go_live,
	actual_go_live, branding_config, contact_email, created_at`

func scanOrganization(row pgx.Row) (models.Organization, error) {
	var r mapper.OrganizationRow
	err := row.Scan(
		&r.ID,
		&r.Name,
		&r.ProjectStage,
		&r.HealthStatus,
		&r.StartDate,
		&r.TargetGoLive,
		&r.ActualGoLive,
		&r.Branding,
		&r.ContactEmail,
		&r.CreatedAt,
	)
	if err != nil {
		return models.Organization{}, err
	}
	return mapper.MapOrganization(r), nil
}

func (s *OrganizationStore) Create(ctx context.Context, org models.Organization) (*models.Organization, error) {
	branding, err := json.Marshal(org.Branding)
	if err != nil {
		return nil, fmt.Errorf("encode branding: %w", err)
	}

	query := `
		INSERT INTO organizations (id, name, project_stage, health_status, start_date,
			target_go_live, actual_go_live, branding_config, contact_email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		RETURNING ` + organizationColumns

	created, err := scanOrganization(s.pool.QueryRow(ctx, query,
		org.ID,
		org.Name,
		string(org.ProjectStage),
		string(org.HealthStatus),
		org.StartDate,
		org.TargetGoLive,
		org.ActualGoLive,
		branding,
		org.ContactEmail,
	))
	if err != nil {
		return nil, fmt.Errorf("insert organization: %w", err)
	}
	return &created, nil
}

func (s *OrganizationStore) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = $1`

	org, err := scanOrganization(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return &org, nil
}

func (s *OrganizationStore) List(ctx context.Context) ([]models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations ORDER BY name`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	orgs := make([]models.Organization, 0)
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate organizations: %w", err)
	}
	return orgs, nil
}

// Update applies the non-nil fields of patch. With an empty patch it
// behaves like GetByID.
func (s *OrganizationStore) Update(ctx context.Context, id string, patch repository.OrganizationPatch) (*models.Organization, error) {
	var sets []string
	args := []any{id}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.ProjectStage != nil {
		set("project_stage", string(*patch.ProjectStage))
	}
	if patch.HealthStatus != nil {
		set("health_status", string(*patch.HealthStatus))
	}
	if patch.StartDate != nil {
		set("start_date", *patch.StartDate)
	}
	if patch.TargetGoLive != nil {
		set("target_go_live", *patch.TargetGoLive)
	}
	if patch.ActualGoLive != nil {
		set("actual_go_live", *patch.ActualGoLive)
	}
	if patch.Branding != nil {
		branding, err := json.Marshal(patch.Branding)
		if err != nil {
			return nil, fmt.Errorf("encode branding: %w", err)
		}
		set("branding_config", branding)
	}
	if patch.ContactEmail != nil {
		set("contact_email", *patch.ContactEmail)
	}

	if len(sets) == 0 {
		return s.GetByID(ctx, id)
	}

	query := `UPDATE organizations SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 RETURNING ` + organizationColumns

	org, err := scanOrganization(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update organization: %w", err)
	}
	return &org, nil
}
