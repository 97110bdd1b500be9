package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/existflow/taskdeck/internal/model"
	_ "modernc.org/sqlite"
)

// SnapshotKey is the fixed name the task collection is stored under
const SnapshotKey = "tasks"

// ErrNoSnapshot is returned when nothing has been persisted yet
var ErrNoSnapshot = errors.New("no local snapshot")

// SnapshotStore persists the full task collection
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context) (model.Snapshot, error)
	SaveSnapshot(ctx context.Context, snap model.Snapshot) error
	Close() error
}

// DB wraps the SQLite database connection
type DB struct {
	*sql.DB
}

// Open opens or creates the SQLite database
func Open(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{DB: sqlDB}

	if err := db.migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// LoadSnapshot reads the persisted task collection
func (db *DB) LoadSnapshot(ctx context.Context) (model.Snapshot, error) {
	var (
		version int64
		payload string
	)
	err := db.QueryRowContext(ctx,
		`SELECT version, payload FROM snapshots WHERE key = ?`, SnapshotKey,
	).Scan(&version, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var tasks []model.Task
	if err := json.Unmarshal([]byte(payload), &tasks); err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	return model.Snapshot{Version: version, Tasks: tasks}, nil
}

// SaveSnapshot overwrites the persisted task collection
func (db *DB) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	tasks := snap.Tasks
	if tasks == nil {
		tasks = []model.Task{}
	}
	payload, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO snapshots (key, version, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			version = excluded.version,
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		SnapshotKey, snap.Version, string(payload), time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}
