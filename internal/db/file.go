package db

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/existflow/taskdeck/internal/model"
	"github.com/spf13/afero"
)

// FileStore keeps the snapshot in a single JSON file
type FileStore struct {
	fs   afero.Fs
	path string
}

// NewFileStore creates a file-backed snapshot store.
// Use afero.NewOsFs() for real files or afero.NewMemMapFs() in tests.
func NewFileStore(fs afero.Fs, path string) *FileStore {
	return &FileStore{fs: fs, path: path}
}

// LoadSnapshot reads the snapshot file. A bare JSON array of tasks is
// accepted as a version 0 snapshot.
func (f *FileStore) LoadSnapshot(ctx context.Context) (model.Snapshot, error) {
	data, err := afero.ReadFile(f.fs, f.path)
	if os.IsNotExist(err) {
		return model.Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var tasks []model.Task
		if err := json.Unmarshal(trimmed, &tasks); err != nil {
			return model.Snapshot{}, fmt.Errorf("failed to parse snapshot: %w", err)
		}
		return model.Snapshot{Tasks: tasks}, nil
	}

	var snap model.Snapshot
	if err := json.Unmarshal(trimmed, &snap); err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return snap, nil
}

// SaveSnapshot replaces the snapshot file atomically
func (f *FileStore) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	if snap.Tasks == nil {
		snap.Tasks = []model.Task{}
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := f.fs.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := afero.WriteFile(f.fs, tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := f.fs.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Close is a no-op for file storage
func (f *FileStore) Close() error {
	return nil
}
