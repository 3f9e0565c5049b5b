package db

import (
	"context"
	"fmt"
)

// Migrate creates every table the tracker needs. It only adds what is
// missing, so it is safe to run on every start.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	db.logger.Info("database schema ready")
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS organizations (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL,
    project_stage  TEXT,
    health_status  TEXT,
    start_date     TIMESTAMPTZ,
    target_go_live TIMESTAMPTZ,
    actual_go_live TIMESTAMPTZ,
    branding_config JSONB,
    contact_email  TEXT,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS credentials (
    principal_id  TEXT PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS profiles (
    id              TEXT PRIMARY KEY REFERENCES credentials(principal_id) ON DELETE CASCADE,
    full_name       TEXT,
    role            TEXT NOT NULL DEFAULT 'CLIENT_USER'
                    CHECK (role IN ('SUPER_ADMIN', 'ORG_ADMIN', 'CLIENT_USER')),
    organization_id TEXT REFERENCES organizations(id) ON DELETE SET NULL,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_profiles_org ON profiles(organization_id);

CREATE TABLE IF NOT EXISTS modules (
    id              TEXT PRIMARY KEY,
    organization_id TEXT REFERENCES organizations(id) ON DELETE CASCADE,
    name            TEXT NOT NULL,
    description     TEXT,
    status          TEXT,
    icon            TEXT,
    owner           TEXT,
    responsibles    TEXT,
    progress        INTEGER,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_modules_org ON modules(organization_id);

CREATE TABLE IF NOT EXISTS module_features (
    id         TEXT PRIMARY KEY,
    module_id  TEXT NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
    position   INTEGER NOT NULL DEFAULT 0,
    name       TEXT NOT NULL,
    status     TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_module_features_module ON module_features(module_id);

CREATE TABLE IF NOT EXISTS timeline_events (
    id               TEXT PRIMARY KEY,
    organization_id  TEXT REFERENCES organizations(id) ON DELETE CASCADE,
    phase            TEXT NOT NULL,
    date_range       TEXT,
    status           TEXT,
    description      TEXT,
    modules_included TEXT[],
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_timeline_events_org ON timeline_events(organization_id);

CREATE TABLE IF NOT EXISTS timeline_tasks (
    id                TEXT PRIMARY KEY,
    timeline_event_id TEXT NOT NULL REFERENCES timeline_events(id) ON DELETE CASCADE,
    position          INTEGER NOT NULL DEFAULT 0,
    title             TEXT NOT NULL,
    status            TEXT,
    week              TEXT,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_timeline_tasks_event ON timeline_tasks(timeline_event_id);

CREATE TABLE IF NOT EXISTS tickets (
    id              TEXT PRIMARY KEY,
    organization_id TEXT REFERENCES organizations(id) ON DELETE CASCADE,
    title           TEXT NOT NULL,
    description     TEXT,
    module_id       TEXT,
    module_name     TEXT,
    priority        TEXT,
    status          TEXT,
    requester       TEXT,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_tickets_org_created ON tickets(organization_id, created_at DESC);

CREATE TABLE IF NOT EXISTS ticket_updates (
    seq        BIGSERIAL,
    id         TEXT PRIMARY KEY,
    ticket_id  TEXT NOT NULL REFERENCES tickets(id) ON DELETE CASCADE,
    author     TEXT NOT NULL,
    date       TIMESTAMPTZ NOT NULL DEFAULT now(),
    message    TEXT NOT NULL,
    type       TEXT NOT NULL
);

-- Entries written within the same microsecond keep their append order
-- through seq. Tables created before the column existed get it here.
ALTER TABLE ticket_updates ADD COLUMN IF NOT EXISTS seq BIGSERIAL;

CREATE INDEX IF NOT EXISTS idx_ticket_updates_ticket ON ticket_updates(ticket_id, seq);

CREATE TABLE IF NOT EXISTS action_items (
    id              TEXT PRIMARY KEY,
    organization_id TEXT REFERENCES organizations(id) ON DELETE CASCADE,
    task            TEXT NOT NULL,
    assigned_to     TEXT,
    due_date        TEXT,
    is_critical     BOOLEAN,
    status          TEXT,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS faqs (
    id              TEXT PRIMARY KEY,
    organization_id TEXT REFERENCES organizations(id) ON DELETE CASCADE,
    question        TEXT NOT NULL,
    answer          TEXT,
    category        TEXT,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tutorials (
    id              TEXT PRIMARY KEY,
    organization_id TEXT REFERENCES organizations(id) ON DELETE CASCADE,
    title           TEXT NOT NULL,
    duration        TEXT,
    type            TEXT,
    thumbnail_color TEXT,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS custom_developments (
    id              TEXT PRIMARY KEY,
    organization_id TEXT REFERENCES organizations(id) ON DELETE CASCADE,
    title           TEXT NOT NULL,
    description     TEXT,
    requested_by    TEXT,
    status          TEXT,
    delivery_date   TEXT,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS notifications (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    title      TEXT NOT NULL,
    message    TEXT,
    type       TEXT,
    is_read    BOOLEAN NOT NULL DEFAULT false,
    link       TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS directory_users (
    id              TEXT PRIMARY KEY,
    organization_id TEXT REFERENCES organizations(id) ON DELETE CASCADE,
    name            TEXT NOT NULL,
    email           TEXT NOT NULL,
    role            TEXT,
    department      TEXT,
    job_title       TEXT,
    phone           TEXT,
    avatar          TEXT,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_directory_users_org ON directory_users(organization_id, name);
`
