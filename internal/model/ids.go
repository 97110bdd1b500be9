package model

import (
	"fmt"
	"strconv"
	"sync"
	"time"
)

// IDGenerator hands out creation-timestamp ids (Unix milliseconds).
// Ids are strictly increasing even when several are requested within the
// same millisecond.
type IDGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// NewIDGenerator creates a generator; a nil clock means time.Now
func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Next returns a fresh task id
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return strconv.FormatInt(ms, 10)
}

// SubtaskID derives the id of the i-th subtask of a task
func SubtaskID(taskID string, i int) string {
	return fmt.Sprintf("%s-%d", taskID, i)
}
