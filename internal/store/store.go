// Package store owns the working task collection of a session. It mirrors
// every change to local storage and pushes full snapshots to the remote
// service whenever it is reachable.
package store

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"github.com/existflow/taskdeck/internal/db"
	"github.com/existflow/taskdeck/internal/logger"
	"github.com/existflow/taskdeck/internal/model"
	"github.com/existflow/taskdeck/internal/sync"
	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("task not found")
	ErrDuplicateID        = errors.New("task id already exists")
	ErrNotInitialized     = errors.New("store not initialized")
	ErrAlreadyInitialized = errors.New("store already initialized")
	ErrNoRemote           = errors.New("no sync server configured")
)

// Local persists the full collection on this device
type Local interface {
	LoadSnapshot(ctx context.Context) (model.Snapshot, error)
	SaveSnapshot(ctx context.Context, snap model.Snapshot) error
}

// Remote is the sync service
type Remote interface {
	Fetch(ctx context.Context) ([]model.Task, error)
	Push(ctx context.Context, snap model.Snapshot) error
}

// Connectivity reports whether the remote is currently reachable
type Connectivity interface {
	Online() bool
}

// Source tells where the working collection came from on initialize
type Source string

const (
	SourceEmpty  Source = "empty"
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// InitResult describes how the working collection was resolved
type InitResult struct {
	Source        Source
	PushAttempted bool
	FetchErr      error
	Message       string
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source used for ids and snapshot versions
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithDebounce delays background pushes so bursts of edits share one request
func WithDebounce(d time.Duration) Option {
	return func(s *Store) { s.debounce = d }
}

// WithSessionID sets the session id instead of generating one
func WithSessionID(id string) Option {
	return func(s *Store) { s.session = id }
}

// Store is the in-memory task collection of one session
type Store struct {
	local    Local
	remote   Remote
	conn     Connectivity
	auto     *sync.AutoSync
	ids      *model.IDGenerator
	now      func() time.Time
	debounce time.Duration
	session  string

	mu      gosync.Mutex
	tasks   []model.Task
	version int64
	ready   bool
}

// New creates a store. remote may be nil for local-only use; a nil
// connectivity source means the remote is assumed reachable.
func New(local Local, remote Remote, conn Connectivity, opts ...Option) *Store {
	s := &Store{
		local:  local,
		remote: remote,
		conn:   conn,
		now:    time.Now,
		tasks:  []model.Task{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.session == "" {
		s.session = uuid.NewString()
	}
	if s.conn == nil {
		s.conn = sync.AlwaysOnline{}
	}
	s.ids = model.NewIDGenerator(s.now)

	if s.remote != nil {
		if tagged, ok := s.remote.(interface{ SetSessionID(string) }); ok {
			tagged.SetSessionID(s.session)
		}
		s.auto = sync.NewAutoSync(s.remote, s.debounce)
	}
	return s
}

// SessionID identifies this store session in logs and requests
func (s *Store) SessionID() string {
	return s.session
}

// Initialize loads the local collection and reconciles it with the remote.
// A non-empty remote collection replaces local state; an empty remote gets
// the local collection uploaded. Remote failures leave the local data as
// the working set.
func (s *Store) Initialize(ctx context.Context) (InitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return InitResult{}, ErrAlreadyInitialized
	}

	result := InitResult{Source: SourceEmpty, Message: "No tasks yet"}

	snap, err := s.local.LoadSnapshot(ctx)
	switch {
	case err == nil:
		s.tasks = normalize(snap.Tasks)
		s.version = snap.Version
	case errors.Is(err, db.ErrNoSnapshot):
	default:
		logger.Warn("Local tasks unreadable, starting empty", logger.F("error", err))
		s.tasks = []model.Task{}
	}
	if len(s.tasks) > 0 {
		result.Source = SourceLocal
		result.Message = "Found local tasks"
	}

	s.ready = true

	if s.remote == nil {
		return result, nil
	}
	if !s.conn.Online() {
		result.Message = "Offline mode: Using local tasks"
		return result, nil
	}

	remoteTasks, err := s.remote.Fetch(ctx)
	if err != nil {
		logger.Warn("Failed to fetch tasks from server", logger.F("error", err))
		result.FetchErr = err
		result.Message = "Error syncing tasks. Using local data."
		return result, nil
	}

	switch {
	case len(remoteTasks) > 0:
		s.tasks = normalize(remoteTasks)
		s.adoptRemoteVersionLocked()
		next := s.snapshotLocked()
		if err := s.local.SaveSnapshot(ctx, next); err != nil {
			logger.Warn("Failed to store server tasks locally", logger.F("error", err))
		}
		result.Source = SourceRemote
		result.Message = "Tasks loaded from server"

	case len(s.tasks) > 0:
		result.PushAttempted = true
		result.Message = "Local tasks uploaded to server"
		if err := s.remote.Push(ctx, model.Snapshot{Version: s.version, Tasks: model.CloneTasks(s.tasks)}); err != nil {
			logger.Warn("Failed to upload local tasks", logger.F("error", err))
			result.Message = "Error syncing tasks. Using local data."
		}
	}

	logger.Info("Store initialized",
		logger.F("session", s.session),
		logger.F("source", string(result.Source)),
		logger.F("tasks", len(s.tasks)))
	return result, nil
}

// Tasks returns a copy of the working collection in display order
func (s *Store) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneTasks(s.tasks)
}

// Get returns a copy of one task
func (s *Store) Get(id string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := model.IndexOf(s.tasks, id)
	if i < 0 {
		return model.Task{}, false
	}
	return s.tasks[i].Clone(), true
}

// Version returns the version of the current snapshot
func (s *Store) Version() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// NewTask builds a validated task with a fresh id, without adding it
func (s *Store) NewTask(title, day, clock string, subtasks []string) (model.Task, error) {
	return model.NewTask(s.ids.Next(), title, day, clock, subtasks)
}

// CreateTask validates form input and adds the resulting task
func (s *Store) CreateTask(ctx context.Context, title, day, clock string, subtasks []string) (model.Task, error) {
	t, err := s.NewTask(title, day, clock, subtasks)
	if err != nil {
		return model.Task{}, err
	}
	return t, s.Add(ctx, t)
}

// AddFromSuggestions turns accepted AI suggestions into a new task
func (s *Store) AddFromSuggestions(ctx context.Context, prompt, day, clock string, suggestions []string) (model.Task, error) {
	t := model.FromSuggestions(s.ids.Next(), prompt, day, clock, suggestions)
	return t, s.Add(ctx, t)
}

// Add appends a task. A task without id gets one assigned.
func (s *Store) Add(ctx context.Context, task model.Task) error {
	if task.ID == "" {
		task.ID = s.ids.Next()
	}
	task = normalizeTask(task.Clone())

	return s.mutate(ctx, "add", func(tasks []model.Task) ([]model.Task, error) {
		if model.IndexOf(tasks, task.ID) >= 0 {
			return nil, fmt.Errorf("add %s: %w", task.ID, ErrDuplicateID)
		}
		return append(tasks, task), nil
	})
}

// Update replaces the task with the same id
func (s *Store) Update(ctx context.Context, task model.Task) error {
	task = normalizeTask(task.Clone())

	return s.mutate(ctx, "update", func(tasks []model.Task) ([]model.Task, error) {
		i := model.IndexOf(tasks, task.ID)
		if i < 0 {
			return nil, fmt.Errorf("update %s: %w", task.ID, ErrNotFound)
		}
		tasks[i] = task
		return tasks, nil
	})
}

// Remove deletes a task by id, keeping the order of the others
func (s *Store) Remove(ctx context.Context, id string) error {
	return s.mutate(ctx, "remove", func(tasks []model.Task) ([]model.Task, error) {
		i := model.IndexOf(tasks, id)
		if i < 0 {
			return nil, fmt.Errorf("remove %s: %w", id, ErrNotFound)
		}
		return append(tasks[:i], tasks[i+1:]...), nil
	})
}

// Reorder moves the task at from to position to
func (s *Store) Reorder(ctx context.Context, from, to int) error {
	return s.mutate(ctx, "reorder", func(tasks []model.Task) ([]model.Task, error) {
		return model.Move(tasks, from, to)
	})
}

// Clear removes every task
func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, "clear", func([]model.Task) ([]model.Task, error) {
		return []model.Task{}, nil
	})
}

// ToggleTask flips completion of a task without subtasks
func (s *Store) ToggleTask(ctx context.Context, id string) error {
	return s.mutate(ctx, "toggle", func(tasks []model.Task) ([]model.Task, error) {
		i := model.IndexOf(tasks, id)
		if i < 0 {
			return nil, fmt.Errorf("toggle %s: %w", id, ErrNotFound)
		}
		if err := tasks[i].ToggleComplete(); err != nil {
			return nil, err
		}
		return tasks, nil
	})
}

// ToggleSubtask flips one subtask of a task
func (s *Store) ToggleSubtask(ctx context.Context, taskID, subtaskID string) error {
	return s.mutate(ctx, "toggle subtask", func(tasks []model.Task) ([]model.Task, error) {
		i := model.IndexOf(tasks, taskID)
		if i < 0 {
			return nil, fmt.Errorf("toggle subtask of %s: %w", taskID, ErrNotFound)
		}
		if err := tasks[i].ToggleSubtask(subtaskID); err != nil {
			return nil, err
		}
		return tasks, nil
	})
}

// mutate applies fn to a private copy of the collection, then persists the
// result and queues a push. fn may modify its argument.
func (s *Store) mutate(ctx context.Context, op string, fn func([]model.Task) ([]model.Task, error)) error {
	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return ErrNotInitialized
	}

	next, err := fn(model.CloneTasks(s.tasks))
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if next == nil {
		next = []model.Task{}
	}
	s.tasks = next
	snap := s.snapshotLocked()
	saveErr := s.local.SaveSnapshot(ctx, snap)
	s.mu.Unlock()

	logger.Debug("Task collection changed",
		logger.F("op", op),
		logger.F("tasks", len(snap.Tasks)),
		logger.F("version", snap.Version))

	s.push(snap)

	if saveErr != nil {
		logger.Error("Failed to save tasks locally", logger.F("error", saveErr))
		return fmt.Errorf("%s: save locally: %w", op, saveErr)
	}
	return nil
}

// snapshotLocked stamps the current collection with a new version
func (s *Store) snapshotLocked() model.Snapshot {
	v := s.now().UnixMilli()
	if v <= s.version {
		v = s.version + 1
	}
	s.version = v
	return model.Snapshot{Version: v, Tasks: model.CloneTasks(s.tasks)}
}

// adoptRemoteVersionLocked moves the version past the server's so the next
// push is not dropped as stale when another device's clock ran ahead
func (s *Store) adoptRemoteVersionLocked() {
	r, ok := s.remote.(interface{ RemoteVersion() int64 })
	if !ok {
		return
	}
	if v := r.RemoteVersion(); v > s.version {
		s.version = v
	}
}

func (s *Store) push(snap model.Snapshot) {
	if s.auto == nil || !s.conn.Online() {
		return
	}
	s.auto.TriggerSync(snap)
}

func (s *Store) current() (model.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return model.Snapshot{}, false
	}
	return model.Snapshot{Version: s.version, Tasks: model.CloneTasks(s.tasks)}, true
}

// Reconnected pushes the current state after connectivity comes back
func (s *Store) Reconnected() {
	snap, ok := s.current()
	if !ok || s.auto == nil {
		return
	}
	logger.Info("Back online, pushing tasks", logger.F("version", snap.Version))
	s.auto.TriggerSync(snap)
}

// Sync pushes the current state now and waits for the result
func (s *Store) Sync(ctx context.Context) error {
	if s.auto == nil {
		return ErrNoRemote
	}
	snap, ok := s.current()
	if !ok {
		return ErrNotInitialized
	}
	s.auto.TriggerSync(snap)
	if err := s.auto.Flush(ctx); err != nil {
		return err
	}
	return s.auto.LastError()
}

// PullRemote replaces the working collection with the remote one, even
// when the remote is empty. Nothing is pushed back.
func (s *Store) PullRemote(ctx context.Context) (int, error) {
	if s.remote == nil {
		return 0, ErrNoRemote
	}
	tasks, err := s.remote.Fetch(ctx)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return 0, ErrNotInitialized
	}
	s.tasks = normalize(tasks)
	s.adoptRemoteVersionLocked()
	if err := s.local.SaveSnapshot(ctx, s.snapshotLocked()); err != nil {
		return 0, fmt.Errorf("pull: save locally: %w", err)
	}
	return len(s.tasks), nil
}

// HasRemote reports whether a sync server is configured
func (s *Store) HasRemote() bool {
	return s.remote != nil
}

// OnSyncResult registers a callback invoked after every background push
func (s *Store) OnSyncResult(callback func(error)) {
	if s.auto != nil {
		s.auto.SetOnResult(callback)
	}
}

// Pending reports whether a background push is queued or running
func (s *Store) Pending() bool {
	return s.auto != nil && s.auto.IsPending()
}

// LastSyncError returns the outcome of the latest background push
func (s *Store) LastSyncError() error {
	if s.auto == nil {
		return nil
	}
	return s.auto.LastError()
}

// Close ends the session, waiting for the in-flight push
func (s *Store) Close(ctx context.Context) error {
	if s.auto == nil {
		return nil
	}
	return s.auto.Stop(ctx)
}

func normalize(tasks []model.Task) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, normalizeTask(t.Clone()))
	}
	return out
}

func normalizeTask(t model.Task) model.Task {
	if t.Subtasks == nil {
		t.Subtasks = []model.Subtask{}
	}
	return t
}
