package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/existflow/taskdeck/internal/model"
	_ "github.com/lib/pq"
)

const snapshotKey = "tasks"

// SnapshotRepo stores the single shared task collection
type SnapshotRepo interface {
	// Load returns the stored snapshot, or an empty one if nothing was saved yet
	Load(ctx context.Context) (model.Snapshot, error)
	// Save replaces the stored snapshot unless it is older than the stored one.
	// A zero version always replaces. It reports whether the snapshot was applied.
	Save(ctx context.Context, sessionID string, snap model.Snapshot) (bool, error)
	Close() error
}

// MemoryRepo keeps the snapshot in process memory
type MemoryRepo struct {
	mu   sync.Mutex
	snap model.Snapshot
}

// NewMemoryRepo creates an empty in-memory repo
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{snap: model.Snapshot{Tasks: []model.Task{}}}
}

func (r *MemoryRepo) Load(ctx context.Context) (model.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return model.Snapshot{Version: r.snap.Version, Tasks: model.CloneTasks(r.snap.Tasks)}, nil
}

func (r *MemoryRepo) Save(ctx context.Context, sessionID string, snap model.Snapshot) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if snap.Version != 0 && snap.Version < r.snap.Version {
		return false, nil
	}
	r.snap = model.Snapshot{Version: snap.Version, Tasks: model.CloneTasks(snap.Tasks)}
	return true, nil
}

func (r *MemoryRepo) Close() error { return nil }

// PostgresRepo stores the snapshot as a JSONB row
type PostgresRepo struct {
	db *sql.DB
}

// OpenPostgres connects to dbURL and runs migrations
func OpenPostgres(ctx context.Context, dbURL string) (*PostgresRepo, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &PostgresRepo{db: db}, nil
}

func (r *PostgresRepo) Load(ctx context.Context) (model.Snapshot, error) {
	var (
		version int64
		payload []byte
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT version, payload FROM snapshots WHERE key = $1`, snapshotKey,
	).Scan(&version, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Snapshot{Tasks: []model.Task{}}, nil
	}
	if err != nil {
		return model.Snapshot{}, err
	}

	tasks := []model.Task{}
	if err := json.Unmarshal(payload, &tasks); err != nil {
		return model.Snapshot{}, fmt.Errorf("decode stored tasks: %w", err)
	}
	return model.Snapshot{Version: version, Tasks: tasks}, nil
}

func (r *PostgresRepo) Save(ctx context.Context, sessionID string, snap model.Snapshot) (bool, error) {
	tasks := snap.Tasks
	if tasks == nil {
		tasks = []model.Task{}
	}
	payload, err := json.Marshal(tasks)
	if err != nil {
		return false, err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, version, payload, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE
		SET version = EXCLUDED.version, payload = EXCLUDED.payload, updated_at = NOW()
		WHERE EXCLUDED.version = 0 OR snapshots.version <= EXCLUDED.version`,
		snapshotKey, snap.Version, payload,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	applied := n > 0

	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO push_log (session_id, version, task_count, applied) VALUES ($1, $2, $3, $4)`,
		sessionID, snap.Version, len(tasks), applied,
	); err != nil {
		return applied, fmt.Errorf("record push: %w", err)
	}
	return applied, nil
}

func (r *PostgresRepo) Close() error {
	return r.db.Close()
}
