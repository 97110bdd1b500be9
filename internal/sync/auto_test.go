package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/existflow/taskdeck/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedPusher blocks every push until released and records what it saw
type gatedPusher struct {
	mu       gosync.Mutex
	versions []int64
	inFlight int
	maxSeen  int
	started  chan struct{}
	release  chan struct{}
	err      error
}

func newGatedPusher() *gatedPusher {
	return &gatedPusher{started: make(chan struct{}, 16), release: make(chan struct{})}
}

func (p *gatedPusher) Push(ctx context.Context, snap model.Snapshot) error {
	p.mu.Lock()
	p.inFlight++
	if p.inFlight > p.maxSeen {
		p.maxSeen = p.inFlight
	}
	p.versions = append(p.versions, snap.Version)
	p.mu.Unlock()

	p.started <- struct{}{}
	<-p.release

	p.mu.Lock()
	p.inFlight--
	p.mu.Unlock()
	return p.err
}

func (p *gatedPusher) seen() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int64(nil), p.versions...)
}

func TestAutoSyncCoalescesWhileInFlight(t *testing.T) {
	p := newGatedPusher()
	a := NewAutoSync(p, 0)

	a.TriggerSync(model.Snapshot{Version: 1})
	<-p.started

	// queued behind the in-flight push; only the newest survives
	a.TriggerSync(model.Snapshot{Version: 2})
	a.TriggerSync(model.Snapshot{Version: 3})
	a.TriggerSync(model.Snapshot{Version: 4})
	assert.True(t, a.IsPending())

	close(p.release)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, a.Flush(ctx))

	assert.Equal(t, []int64{1, 4}, p.seen())
	assert.Equal(t, 1, p.maxSeen, "pushes must never overlap")
	assert.False(t, a.IsPending())
	assert.EqualValues(t, 4, a.PushedVersion())
}

func TestAutoSyncKeepsNewestVersion(t *testing.T) {
	p := newGatedPusher()
	a := NewAutoSync(p, 0)

	a.TriggerSync(model.Snapshot{Version: 10})
	<-p.started
	a.TriggerSync(model.Snapshot{Version: 12})
	a.TriggerSync(model.Snapshot{Version: 11})

	close(p.release)
	require.NoError(t, a.Flush(context.Background()))
	assert.Equal(t, []int64{10, 12}, p.seen())
}

func TestAutoSyncRecordsFailures(t *testing.T) {
	p := newGatedPusher()
	p.err = errors.New("offline")
	close(p.release)

	results := make(chan error, 1)
	a := NewAutoSync(p, 0)
	a.SetOnResult(func(err error) { results <- err })

	a.TriggerSync(model.Snapshot{Version: 1})
	assert.EqualError(t, <-results, "offline")
	require.NoError(t, a.Flush(context.Background()))

	assert.EqualError(t, a.LastError(), "offline")
	assert.Zero(t, a.PushedVersion())
}

func TestAutoSyncStopDrainsAndRejects(t *testing.T) {
	p := newGatedPusher()
	close(p.release)
	a := NewAutoSync(p, time.Hour)

	a.TriggerSync(model.Snapshot{Version: 1})
	// stopping skips the debounce wait and flushes what is queued
	require.NoError(t, a.Stop(context.Background()))
	assert.Equal(t, []int64{1}, p.seen())

	a.TriggerSync(model.Snapshot{Version: 2})
	assert.False(t, a.IsPending())
	assert.Equal(t, []int64{1}, p.seen())
}

func TestAutoSyncDebounceCollapsesBursts(t *testing.T) {
	p := newGatedPusher()
	close(p.release)
	a := NewAutoSync(p, 50*time.Millisecond)

	for v := int64(1); v <= 5; v++ {
		a.TriggerSync(model.Snapshot{Version: v})
	}
	require.NoError(t, a.Flush(context.Background()))
	assert.Equal(t, []int64{5}, p.seen())
}
