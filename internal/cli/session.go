package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/existflow/taskdeck/internal/config"
	"github.com/existflow/taskdeck/internal/db"
	"github.com/existflow/taskdeck/internal/logger"
	"github.com/existflow/taskdeck/internal/store"
	"github.com/existflow/taskdeck/internal/suggest"
	"github.com/existflow/taskdeck/internal/sync"
)

const closeTimeout = 10 * time.Second

// session wires local storage, the sync client and the store for one run
type session struct {
	local     db.SnapshotStore
	client    *sync.Client
	monitor   *sync.Monitor
	conn      store.Connectivity
	suggester *suggest.Client
	store     *store.Store
	cancel    context.CancelFunc
}

// openSession builds a store from config. The store is not initialized yet.
func openSession(ctx context.Context, cfg *config.Config) (*session, error) {
	local, err := db.OpenStore(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local storage: %w", err)
	}

	sess := &session{local: local}
	opts := []store.Option{store.WithDebounce(cfg.Sync.Debounce)}

	if cfg.Sync.ServerURL == "" {
		logger.Debug("No sync server configured, running local only")
		sess.store = store.New(local, nil, nil, opts...)
		return sess, nil
	}

	monitor, err := sync.NewMonitor(cfg.Sync.ServerURL, cfg.Sync.ProbeInterval)
	if err != nil {
		_ = local.Close()
		return nil, err
	}

	sess.client = sync.NewClient(cfg.Sync.ServerURL, cfg.Sync.Timeout)
	sess.suggester = suggest.NewClient(cfg.Sync.ServerURL, cfg.Sync.Timeout)
	sess.monitor = monitor
	sess.conn = monitor
	sess.store = store.New(local, sess.client, monitor, opts...)

	monitor.Check(ctx)
	monitor.SetOnOnline(sess.store.Reconnected)

	runCtx, cancel := context.WithCancel(ctx)
	sess.cancel = cancel
	go monitor.Run(runCtx)

	logger.Info("Session opened",
		logger.F("server", cfg.Sync.ServerURL),
		logger.F("online", monitor.Online()),
		logger.F("session", sess.store.SessionID()))
	return sess, nil
}

// openInitialized opens a session and reconciles local and remote tasks
func openInitialized(ctx context.Context, cfg *config.Config) (*session, store.InitResult, error) {
	sess, err := openSession(ctx, cfg)
	if err != nil {
		return nil, store.InitResult{}, err
	}
	res, err := sess.store.Initialize(ctx)
	if err != nil {
		sess.close()
		return nil, store.InitResult{}, err
	}
	return sess, res, nil
}

// close waits briefly for pending pushes and releases local storage
func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	if err := s.store.Close(ctx); err != nil {
		logger.Warn("Pending sync did not finish", logger.F("error", err))
	}
	if s.cancel != nil {
		s.cancel()
	}
	if err := s.local.Close(); err != nil {
		logger.Warn("Failed to close local storage", logger.F("error", err))
	}
}

// online reports whether the sync server answered the last probe
func (s *session) online() bool {
	return s.monitor != nil && s.monitor.Online()
}
