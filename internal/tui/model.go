package tui

import (
	"context"
	"time"

	"github.com/existflow/taskdeck/internal/logger"
	"github.com/existflow/taskdeck/internal/model"
	"github.com/existflow/taskdeck/internal/store"
)

// Mode represents the current UI mode
type Mode int

const (
	ModeLoading Mode = iota
	ModeNormal
	ModeAddTask
	ModeSuggest
	ModeConfirmDelete
	ModeHelp
)

// Suggester generates subtask suggestions for a prompt
type Suggester interface {
	Suggest(ctx context.Context, prompt string) ([]string, error)
}

// Options configures the TUI
type Options struct {
	Suggester     Suggester
	Connectivity  store.Connectivity
	ConfirmDelete bool
	Now           func() time.Time
}

type section int

const (
	sectionIncomplete section = iota
	sectionCompleted
)

// row is one selectable line of the task list: a task or one of its subtasks
type row struct {
	index   int // position of the task in the store collection
	section section
	task    model.Task
	subtask *model.Subtask
}

// Model is the main TUI model
type Model struct {
	store *store.Store
	opts  Options

	tasks    []model.Task
	rows     []row
	expanded map[string]bool

	// Sync
	syncRefreshChan chan error

	// UI state
	width  int
	height int
	mode   Mode
	cursor int
	now    time.Time

	// Input
	form        form
	suggestions []string
	suggesting  bool

	pendingDelete string
	message       string
}

// NewModel creates a new TUI model. The store is initialized by Init.
func NewModel(s *store.Store, opts Options) Model {
	logger.Info("Initializing TUI model")

	if opts.Now == nil {
		opts.Now = time.Now
	}

	m := Model{
		store:           s,
		opts:            opts,
		mode:            ModeLoading,
		expanded:        make(map[string]bool),
		syncRefreshChan: make(chan error, 1),
		now:             opts.Now(),
		message:         "Loading tasks...",
	}

	s.OnSyncResult(func(err error) {
		// Non-blocking send to trigger a status refresh
		select {
		case m.syncRefreshChan <- err:
		default:
		}
	})
	return m
}

// loadData refreshes the task copy and rebuilds the visible rows
func (m *Model) loadData() {
	m.tasks = m.store.Tasks()
	m.rows = nil

	for _, sec := range []section{sectionIncomplete, sectionCompleted} {
		for i, t := range m.tasks {
			if t.IsComplete() != (sec == sectionCompleted) {
				continue
			}
			m.rows = append(m.rows, row{index: i, section: sec, task: t})
			if !m.expanded[t.ID] {
				continue
			}
			for j := range t.Subtasks {
				st := t.Subtasks[j]
				m.rows = append(m.rows, row{index: i, section: sec, task: t, subtask: &st})
			}
		}
	}

	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) currentRow() *row {
	if m.cursor < len(m.rows) {
		return &m.rows[m.cursor]
	}
	return nil
}

// focusTask moves the cursor onto the task row with the given id
func (m *Model) focusTask(id string) {
	for i, r := range m.rows {
		if r.subtask == nil && r.task.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m Model) online() bool {
	if !m.store.HasRemote() {
		return false
	}
	if m.opts.Connectivity == nil {
		return true
	}
	return m.opts.Connectivity.Online()
}

func (m Model) counts() (pending, done int) {
	for _, t := range m.tasks {
		if t.IsComplete() {
			done++
		} else {
			pending++
		}
	}
	return pending, done
}
