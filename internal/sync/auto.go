package sync

import (
	"context"
	"sync"
	"time"

	"github.com/existflow/taskdeck/internal/logger"
	"github.com/existflow/taskdeck/internal/model"
)

// Pusher uploads a full snapshot
type Pusher interface {
	Push(ctx context.Context, snap model.Snapshot) error
}

// AutoSync serializes snapshot pushes. At most one push is in flight;
// snapshots triggered meanwhile coalesce into a single follow-up push of the
// newest one. Failures are logged and dropped.
type AutoSync struct {
	pusher   Pusher
	debounce time.Duration

	mu       sync.Mutex
	next     *model.Snapshot
	running  bool
	idle     chan struct{}
	stopped  bool
	lastErr  error
	pushed   int64
	onResult func(error)

	ctx    context.Context
	cancel context.CancelFunc
	stopCh chan struct{}
}

// NewAutoSync creates a push queue; debounce delays each push so rapid
// edits collapse into one request
func NewAutoSync(pusher Pusher, debounce time.Duration) *AutoSync {
	ctx, cancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)
	return &AutoSync{
		pusher:   pusher,
		debounce: debounce,
		idle:     idle,
		ctx:      ctx,
		cancel:   cancel,
		stopCh:   make(chan struct{}),
	}
}

// SetOnResult registers a callback invoked after every push attempt
func (a *AutoSync) SetOnResult(callback func(error)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onResult = callback
}

// TriggerSync queues a snapshot for upload
func (a *AutoSync) TriggerSync(snap model.Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return
	}
	if a.next == nil || snap.Version >= a.next.Version {
		a.next = &snap
	}
	if !a.running {
		a.running = true
		a.idle = make(chan struct{})
		go a.run(a.idle)
	}
}

func (a *AutoSync) run(idle chan struct{}) {
	for {
		if a.debounce > 0 {
			timer := time.NewTimer(a.debounce)
			select {
			case <-timer.C:
			case <-a.stopCh:
				timer.Stop()
			}
		}

		a.mu.Lock()
		snap := a.next
		a.next = nil
		if snap == nil {
			a.running = false
			close(idle)
			a.mu.Unlock()
			return
		}
		a.mu.Unlock()

		err := a.pusher.Push(a.ctx, *snap)

		a.mu.Lock()
		a.lastErr = err
		if err == nil && snap.Version > a.pushed {
			a.pushed = snap.Version
		}
		callback := a.onResult
		a.mu.Unlock()

		if err != nil {
			logger.Warn("Background push failed", logger.F("error", err), logger.F("version", snap.Version))
		}
		if callback != nil {
			callback(err)
		}
	}
}

// Flush blocks until no push is queued or in flight
func (a *AutoSync) Flush(ctx context.Context) error {
	a.mu.Lock()
	idle := a.idle
	a.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop refuses new snapshots, drains the queue and waits for the in-flight
// push. If ctx expires first the in-flight request is cancelled.
func (a *AutoSync) Stop(ctx context.Context) error {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return nil
	}
	a.stopped = true
	close(a.stopCh)
	a.mu.Unlock()

	err := a.Flush(ctx)
	a.cancel()
	return err
}

// IsPending returns true if a push is queued or running
func (a *AutoSync) IsPending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running || a.next != nil
}

// LastError returns the result of the most recent push attempt
func (a *AutoSync) LastError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// PushedVersion returns the newest snapshot version uploaded successfully
func (a *AutoSync) PushedVersion() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pushed
}
