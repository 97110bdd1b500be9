package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/taskdeck/internal/logger"
	"github.com/existflow/taskdeck/internal/model"
	"github.com/existflow/taskdeck/internal/store"
)

const (
	suggestTimeout = 60 * time.Second
	syncTimeout    = 30 * time.Second
)

// tickMsg is sent every second for time updates
type tickMsg time.Time

// initDoneMsg carries the outcome of store initialization
type initDoneMsg struct {
	result store.InitResult
	err    error
}

// syncRefreshMsg is sent after every background push
type syncRefreshMsg struct {
	err error
}

// syncDoneMsg is sent when a manual sync finishes
type syncDoneMsg struct {
	err error
}

// suggestionsMsg carries generated suggestions for a prompt
type suggestionsMsg struct {
	prompt      string
	suggestions []string
	err         error
}

// Init loads the store and starts the clock
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.initStore(), tickCmd(), m.waitForSyncRefresh())
}

func tickCmd() tea.Cmd {
	return tea.Every(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) initStore() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		res, err := s.Initialize(context.Background())
		return initDoneMsg{result: res, err: err}
	}
}

// waitForSyncRefresh listens for background push results
func (m Model) waitForSyncRefresh() tea.Cmd {
	if m.syncRefreshChan == nil {
		return nil
	}
	ch := m.syncRefreshChan
	return func() tea.Msg {
		return syncRefreshMsg{err: <-ch}
	}
}

func (m Model) runSync() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		return syncDoneMsg{err: s.Sync(ctx)}
	}
}

func (m Model) fetchSuggestions(prompt string) tea.Cmd {
	suggester := m.opts.Suggester
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), suggestTimeout)
		defer cancel()
		suggestions, err := suggester.Suggest(ctx, prompt)
		return suggestionsMsg{prompt: prompt, suggestions: suggestions, err: err}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case initDoneMsg:
		m.mode = ModeNormal
		if msg.err != nil {
			logger.Error("Store initialization failed", logger.F("error", msg.err))
			m.message = fmt.Sprintf("Failed to load tasks: %v", msg.err)
		} else {
			m.message = msg.result.Message
		}
		m.loadData()
		return m, nil

	case tickMsg:
		m.now = time.Time(msg)
		return m, tickCmd()

	case syncRefreshMsg:
		if msg.err != nil {
			logger.Debug("Background push reported error", logger.F("error", msg.err))
		}
		return m, m.waitForSyncRefresh()

	case syncDoneMsg:
		switch {
		case errors.Is(msg.err, store.ErrNoRemote):
			m.message = "No sync server configured"
		case msg.err != nil:
			m.message = fmt.Sprintf("Sync failed: %v", msg.err)
		default:
			m.message = "Synced"
		}
		return m, nil

	case suggestionsMsg:
		return m.handleSuggestions(msg), nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Handle mode-specific input
		switch m.mode {
		case ModeLoading:
			if key.Matches(msg, keys.Quit) {
				return m, tea.Quit
			}
			return m, nil
		case ModeAddTask:
			return m.updateAddTask(msg)
		case ModeSuggest:
			return m.updateSuggest(msg)
		case ModeConfirmDelete:
			return m.updateConfirmDelete(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}

		// Normal mode key handling
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

// handleNormalKeys handles key presses in normal mode
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case key.Matches(msg, keys.Top):
		m.cursor = 0

	case key.Matches(msg, keys.Bottom):
		if len(m.rows) > 0 {
			m.cursor = len(m.rows) - 1
		}

	case key.Matches(msg, keys.MoveUp):
		m.handleMove(-1)

	case key.Matches(msg, keys.MoveDown):
		m.handleMove(1)

	case key.Matches(msg, keys.Enter):
		m.handleExpand()

	case key.Matches(msg, keys.Done):
		m.handleToggleDone()

	case key.Matches(msg, keys.Delete):
		m.handleDelete()

	case key.Matches(msg, keys.Add):
		return m.startAddTask()

	case key.Matches(msg, keys.Suggest):
		return m.startSuggest()

	case key.Matches(msg, keys.Escape):
		m.message = ""

	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp

	case key.Matches(msg, keys.Refresh):
		if !m.store.HasRemote() {
			m.message = "No sync server configured"
			return m, nil
		}
		m.message = "Syncing..."
		return m, m.runSync()
	}

	return m, nil
}

func (m *Model) handleExpand() {
	r := m.currentRow()
	if r == nil || len(r.task.Subtasks) == 0 {
		return
	}
	id := r.task.ID
	m.expanded[id] = !m.expanded[id]
	m.loadData()
	m.focusTask(id)
}

func (m *Model) handleToggleDone() {
	r := m.currentRow()
	if r == nil {
		return
	}
	ctx := context.Background()
	id := r.task.ID

	if r.subtask != nil {
		subID := r.subtask.ID
		if err := m.store.ToggleSubtask(ctx, id, subID); err != nil {
			m.message = fmt.Sprintf("Error updating subtask: %v", err)
			return
		}
		m.loadData()
		for i, rr := range m.rows {
			if rr.subtask != nil && rr.subtask.ID == subID {
				m.cursor = i
				break
			}
		}
		return
	}

	err := m.store.ToggleTask(ctx, id)
	switch {
	case errors.Is(err, model.ErrDerivedCompletion):
		m.expanded[id] = true
		m.message = "Complete the subtasks to finish this task"
	case err != nil:
		m.message = fmt.Sprintf("Error updating task: %v", err)
	}
	m.loadData()
	m.focusTask(id)
}

func (m *Model) handleDelete() {
	r := m.currentRow()
	if r == nil {
		return
	}
	if m.opts.ConfirmDelete {
		m.pendingDelete = r.task.ID
		m.mode = ModeConfirmDelete
		return
	}
	m.deleteTask(r.task.ID)
}

func (m *Model) deleteTask(id string) {
	t, _ := m.store.Get(id)
	if err := m.store.Remove(context.Background(), id); err != nil {
		m.message = fmt.Sprintf("Error deleting task: %v", err)
		return
	}
	delete(m.expanded, id)
	m.message = fmt.Sprintf("Deleted: %s", t.Title)
	m.loadData()
}

// handleMove swaps the selected task with its neighbour in the same section
func (m *Model) handleMove(dir int) {
	r := m.currentRow()
	if r == nil || r.subtask != nil {
		return
	}

	target := -1
	for i := m.cursor + dir; i >= 0 && i < len(m.rows); i += dir {
		rr := m.rows[i]
		if rr.section != r.section {
			break
		}
		if rr.subtask == nil {
			target = rr.index
			break
		}
	}
	if target < 0 {
		return
	}

	id := r.task.ID
	if err := m.store.Reorder(context.Background(), r.index, target); err != nil {
		m.message = fmt.Sprintf("Error moving task: %v", err)
		return
	}
	m.loadData()
	m.focusTask(id)
}

func (m Model) startAddTask() (tea.Model, tea.Cmd) {
	day, clock := model.NextSlot(m.now)
	m.mode = ModeAddTask
	m.form = newForm(
		field{label: "Title", placeholder: "What needs doing?"},
		field{label: "Day (YYYY-MM-DD)", value: day},
		field{label: "Time (HH:MM)", value: clock},
		field{label: "Subtasks (comma separated)", placeholder: "optional"},
	)
	return m, textinput.Blink
}

func (m Model) startSuggest() (tea.Model, tea.Cmd) {
	if m.opts.Suggester == nil {
		m.message = "AI suggestions need a sync server"
		return m, nil
	}
	day, clock := model.NextSlot(m.now)
	m.mode = ModeSuggest
	m.suggestions = nil
	m.suggesting = false
	m.form = newForm(
		field{label: "Prompt", placeholder: "e.g. Bake oatmeal cookies"},
		field{label: "Day (YYYY-MM-DD)", value: day},
		field{label: "Time (HH:MM)", value: clock},
	)
	return m, textinput.Blink
}

// formFieldIndex maps a validation field to its input position
var formFieldIndex = map[string]int{"Title": 0, "Day": 1, "Time": 2}

func (m *Model) showFormError(err error) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		m.form.err = verr.Message
		if i, ok := formFieldIndex[verr.Field]; ok {
			m.form.setFocus(i)
		}
		return
	}
	m.form.err = err.Error()
}

func (m Model) updateAddTask(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		return m, nil

	case key.Matches(msg, keys.Tab), key.Matches(msg, keys.Down) && msg.Type != tea.KeyRunes:
		m.form.next()
		return m, nil

	case key.Matches(msg, keys.ShiftTab), key.Matches(msg, keys.Up) && msg.Type != tea.KeyRunes:
		m.form.prev()
		return m, nil

	case key.Matches(msg, keys.Enter):
		t, err := m.store.CreateTask(context.Background(),
			m.form.value(0), m.form.value(1), m.form.value(2), splitList(m.form.value(3)))
		if err != nil {
			var verr *model.ValidationError
			if !errors.As(err, &verr) {
				logger.Error("Failed to add task", logger.F("error", err))
			}
			m.showFormError(err)
			return m, nil
		}
		m.mode = ModeNormal
		m.message = fmt.Sprintf("Added: %s", t.Title)
		m.loadData()
		m.focusTask(t.ID)
		return m, nil
	}

	return m, m.form.update(msg)
}

func (m Model) updateSuggest(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		m.suggestions = nil
		return m, nil

	case key.Matches(msg, keys.Tab), key.Matches(msg, keys.Down) && msg.Type != tea.KeyRunes:
		m.form.next()
		return m, nil

	case key.Matches(msg, keys.ShiftTab), key.Matches(msg, keys.Up) && msg.Type != tea.KeyRunes:
		m.form.prev()
		return m, nil

	case key.Matches(msg, keys.Regenerate):
		return m.requestSuggestions()

	case key.Matches(msg, keys.Enter):
		if m.suggesting {
			return m, nil
		}
		if len(m.suggestions) == 0 {
			return m.requestSuggestions()
		}
		return m.acceptSuggestions()
	}

	before := m.form.value(0)
	cmd := m.form.update(msg)
	if m.form.value(0) != before {
		// a new prompt invalidates earlier suggestions
		m.suggestions = nil
	}
	return m, cmd
}

func (m Model) requestSuggestions() (tea.Model, tea.Cmd) {
	if m.suggesting {
		return m, nil
	}
	prompt := strings.TrimSpace(m.form.value(0))
	if prompt == "" {
		m.form.err = "Please enter a prompt"
		m.form.setFocus(0)
		return m, nil
	}
	m.form.err = ""
	m.suggestions = nil
	m.suggesting = true
	return m, m.fetchSuggestions(prompt)
}

func (m Model) handleSuggestions(msg suggestionsMsg) Model {
	m.suggesting = false
	if m.mode != ModeSuggest || strings.TrimSpace(m.form.value(0)) != msg.prompt {
		// stale result for a closed form or an edited prompt
		return m
	}
	if msg.err != nil {
		logger.Warn("Suggestion request failed", logger.F("error", msg.err))
		m.form.err = "Failed to generate suggestions. Please try again."
		return m
	}
	m.form.err = ""
	m.suggestions = msg.suggestions
	if len(m.suggestions) == 0 {
		m.form.err = "No suggestions returned. Try another prompt."
	}
	return m
}

func (m Model) acceptSuggestions() (tea.Model, tea.Cmd) {
	prompt, day, clock := m.form.value(0), m.form.value(1), m.form.value(2)
	if err := model.ValidateSchedule(prompt, day, clock); err != nil {
		m.showFormError(err)
		return m, nil
	}

	t, err := m.store.AddFromSuggestions(context.Background(),
		prompt, strings.TrimSpace(day), strings.TrimSpace(clock), m.suggestions)
	if err != nil {
		logger.Error("Failed to add suggested task", logger.F("error", err))
		m.form.err = fmt.Sprintf("Error adding task: %v", err)
		return m, nil
	}

	m.mode = ModeNormal
	m.suggestions = nil
	m.expanded[t.ID] = true
	m.message = fmt.Sprintf("Added: %s (%d subtasks)", t.Title, len(t.Subtasks))
	m.loadData()
	m.focusTask(t.ID)
	return m, nil
}

func (m Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.pendingDelete
	m.pendingDelete = ""
	m.mode = ModeNormal

	switch msg.String() {
	case "y", "Y", "enter":
		m.deleteTask(id)
	default:
		m.message = "Delete cancelled"
	}
	return m, nil
}
