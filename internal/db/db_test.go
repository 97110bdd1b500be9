package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/existflow/taskdeck/internal/model"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() model.Snapshot {
	return model.Snapshot{
		Version: 17,
		Tasks: []model.Task{
			{ID: "2", Title: "Buy milk", Day: "2025-06-01", Time: "09:00", Subtasks: []model.Subtask{}},
			{ID: "1", Title: "Dinner", Day: "2025-06-01", Time: "18:00", Subtasks: []model.Subtask{
				{ID: "1-0", Title: "wash", Completed: true},
				{ID: "1-1", Title: "chop"},
			}},
			{ID: "3", Title: "Call mom", Day: "2025-06-02", Time: "20:30", Completed: true, Subtasks: []model.Subtask{}},
		},
	}
}

func openStores(t *testing.T) map[string]SnapshotStore {
	t.Helper()

	sqlite, err := Open(filepath.Join(t.TempDir(), "nested", "taskdeck.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]SnapshotStore{
		"sqlite": sqlite,
		"file":   NewFileStore(afero.NewMemMapFs(), "/data/tasks.json"),
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.LoadSnapshot(ctx)
			assert.ErrorIs(t, err, ErrNoSnapshot)

			want := sampleSnapshot()
			require.NoError(t, store.SaveSnapshot(ctx, want))

			got, err := store.LoadSnapshot(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestSnapshotOverwrite(t *testing.T) {
	ctx := context.Background()

	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.SaveSnapshot(ctx, sampleSnapshot()))

			next := model.Snapshot{Version: 18, Tasks: []model.Task{{ID: "9", Title: "Only", Subtasks: []model.Subtask{}}}}
			require.NoError(t, store.SaveSnapshot(ctx, next))

			got, err := store.LoadSnapshot(ctx)
			require.NoError(t, err)
			assert.Equal(t, next, got)
		})
	}
}

func TestSnapshotEmptyCollection(t *testing.T) {
	ctx := context.Background()

	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.SaveSnapshot(ctx, model.Snapshot{Version: 1}))

			got, err := store.LoadSnapshot(ctx)
			require.NoError(t, err)
			assert.Empty(t, got.Tasks)
			assert.EqualValues(t, 1, got.Version)
		})
	}
}

func TestFileStoreAcceptsBareArray(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/tasks.json",
		[]byte(`[{"id":"1","title":"Legacy","day":"2025-06-01","time":"09:00","completed":false,"subtasks":[]}]`), 0644))

	snap, err := NewFileStore(fs, "/tasks.json").LoadSnapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, "Legacy", snap.Tasks[0].Title)
	assert.Zero(t, snap.Version)
}

func TestFileStoreCorruptFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/tasks.json", []byte("{not json"), 0644))

	_, err := NewFileStore(fs, "/tasks.json").LoadSnapshot(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSnapshot)
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	_, err := OpenStore("redis", "x")
	assert.Error(t, err)
}

func TestOpenFailsOnDirectory(t *testing.T) {
	// a directory where the database file should be
	_, err := Open(t.TempDir())
	assert.Error(t, err)
}
