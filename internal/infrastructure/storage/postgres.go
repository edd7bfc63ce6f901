package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
)

// psql builds every query with Postgres placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS ingest_queue (
    id            TEXT PRIMARY KEY,
    url           TEXT NOT NULL,
    team_id       TEXT NOT NULL,
    project_id    TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL DEFAULT 'pending',
    priority      BOOLEAN NOT NULL DEFAULT FALSE,
    last_activity TEXT NOT NULL DEFAULT '',
    error_message TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_ingest_queue_pending
    ON ingest_queue (priority DESC, created_at ASC) WHERE status = 'pending';

CREATE TABLE IF NOT EXISTS processed_items (
    id                  TEXT PRIMARY KEY,
    original_url        TEXT NOT NULL DEFAULT '',
    title               TEXT NOT NULL DEFAULT '',
    summary             TEXT NOT NULL DEFAULT '',
    content_markdown    TEXT NOT NULL DEFAULT '',
    metadata            JSONB NOT NULL DEFAULT '{}',
    team_id             TEXT NOT NULL,
    project_id          TEXT NOT NULL DEFAULT '',
    raw_content_path    TEXT NOT NULL DEFAULT '',
    is_synthesis        BOOLEAN NOT NULL DEFAULT FALSE,
    key_insights        TEXT[] NOT NULL DEFAULT '{}',
    action_items        TEXT[] NOT NULL DEFAULT '{}',
    themes              TEXT[] NOT NULL DEFAULT '{}',
    contradictions      TEXT[] NOT NULL DEFAULT '{}',
    synthesis_narrative TEXT NOT NULL DEFAULT '',
    next_steps          TEXT[] NOT NULL DEFAULT '{}',
    created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_processed_items_project
    ON processed_items (project_id, is_synthesis);

CREATE TABLE IF NOT EXISTS assets (
    id                TEXT PRIMARY KEY,
    original_url      TEXT NOT NULL,
    storage_path      TEXT NOT NULL,
    content_type      TEXT NOT NULL,
    team_id           TEXT NOT NULL,
    processed_item_id TEXT NOT NULL,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS projects (
    id           TEXT PRIMARY KEY,
    name         TEXT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    team_id      TEXT NOT NULL,
    status       TEXT NOT NULL DEFAULT 'draft',
    synthesis_id TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// EnsureSchema creates the tables when they are absent.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
