package server

import (
	"context"
	"database/sql"
)

// migrate runs database migrations
func migrate(ctx context.Context, db *sql.DB) error {
	migrations := []string{
		migrationSnapshots,
		migrationPushLog,
	}

	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return err
		}
	}

	return nil
}

const migrationSnapshots = `
CREATE TABLE IF NOT EXISTS snapshots (
    key TEXT PRIMARY KEY,
    version BIGINT NOT NULL DEFAULT 0,
    payload JSONB NOT NULL DEFAULT '[]',
    updated_at TIMESTAMP DEFAULT NOW()
);
`

const migrationPushLog = `
CREATE TABLE IF NOT EXISTS push_log (
    id BIGSERIAL PRIMARY KEY,
    session_id TEXT NOT NULL DEFAULT '',
    version BIGINT NOT NULL,
    task_count INTEGER NOT NULL,
    applied BOOLEAN NOT NULL,
    created_at TIMESTAMP DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_push_log_created ON push_log(created_at);
`
