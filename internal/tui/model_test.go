package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/taskdeck/internal/db"
	"github.com/existflow/taskdeck/internal/model"
	"github.com/existflow/taskdeck/internal/store"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 1, 9, 20, 0, 0, time.UTC)

type fakeSuggester struct {
	suggestions []string
	err         error
	prompts     []string
}

func (f *fakeSuggester) Suggest(ctx context.Context, prompt string) ([]string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.suggestions, f.err
}

func newTestModel(t *testing.T, opts Options) Model {
	t.Helper()
	s := store.New(db.NewFileStore(afero.NewMemMapFs(), "/tasks.json"), nil, nil)
	opts.Now = func() time.Time { return testNow }

	m := NewModel(s, opts)
	res, err := s.Initialize(context.Background())
	require.NoError(t, err)

	m = send(t, m, initDoneMsg{result: res})
	m = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func keyOf(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func addTask(t *testing.T, m Model, title, subtasks string) Model {
	t.Helper()
	m = send(t, m, runes("a"))
	require.Equal(t, ModeAddTask, m.mode)
	m = send(t, m, runes(title))
	if subtasks != "" {
		for i := 0; i < 3; i++ {
			m = send(t, m, keyOf(tea.KeyTab))
		}
		m = send(t, m, runes(subtasks))
	}
	m = send(t, m, keyOf(tea.KeyEnter))
	require.Equal(t, ModeNormal, m.mode, m.form.err)
	return m
}

func titles(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func TestInitShowsReconcileMessage(t *testing.T) {
	m := newTestModel(t, Options{})
	assert.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, "No tasks yet", m.message)
	assert.Contains(t, m.View(), "No tasks")
}

func TestAddTaskWithDefaults(t *testing.T) {
	m := newTestModel(t, Options{})
	m = addTask(t, m, "Buy milk", "")

	tasks := m.store.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Title)
	assert.Equal(t, "2025-03-01", tasks[0].Day)
	assert.Equal(t, "10:00", tasks[0].Time)
	assert.Equal(t, "Added: Buy milk", m.message)
	assert.Contains(t, m.View(), "Buy milk")
}

func TestAddTaskRequiresTitle(t *testing.T) {
	m := newTestModel(t, Options{})
	m = send(t, m, runes("a"))
	m = send(t, m, keyOf(tea.KeyEnter))

	assert.Equal(t, ModeAddTask, m.mode)
	assert.Equal(t, "Please enter a task title", m.form.err)
	assert.Empty(t, m.store.Tasks())
}

func TestAddTaskEscapeCancels(t *testing.T) {
	m := newTestModel(t, Options{})
	m = send(t, m, runes("a"))
	m = send(t, m, runes("never mind"))
	m = send(t, m, keyOf(tea.KeyEsc))

	assert.Equal(t, ModeNormal, m.mode)
	assert.Empty(t, m.store.Tasks())
}

func TestToggleMovesTaskToCompleted(t *testing.T) {
	m := newTestModel(t, Options{})
	m = addTask(t, m, "Buy milk", "")
	m = addTask(t, m, "Call mom", "")

	m = send(t, m, runes("g"))
	m = send(t, m, runes("x"))

	require.Len(t, m.rows, 2)
	assert.Equal(t, "Call mom", m.rows[0].task.Title)
	assert.Equal(t, sectionIncomplete, m.rows[0].section)
	assert.Equal(t, "Buy milk", m.rows[1].task.Title)
	assert.Equal(t, sectionCompleted, m.rows[1].section)
	assert.Equal(t, 1, m.cursor)
}

func TestSubtasksDriveCompletion(t *testing.T) {
	m := newTestModel(t, Options{})
	m = addTask(t, m, "Cook dinner", "wash, chop")

	m = send(t, m, runes("x"))
	assert.Equal(t, "Complete the subtasks to finish this task", m.message)
	require.Len(t, m.rows, 3)

	m = send(t, m, runes("j"))
	m = send(t, m, runes("x"))
	m = send(t, m, runes("j"))
	m = send(t, m, runes("x"))

	got := m.store.Tasks()
	require.Len(t, got, 1)
	assert.True(t, got[0].IsComplete())
	assert.False(t, got[0].Completed)
	assert.Equal(t, sectionCompleted, m.rows[0].section)
}

func TestMoveReordersStore(t *testing.T) {
	m := newTestModel(t, Options{})
	m = addTask(t, m, "first", "")
	m = addTask(t, m, "second", "")
	m = addTask(t, m, "third", "")

	assert.Equal(t, 2, m.cursor)
	m = send(t, m, runes("K"))
	assert.Equal(t, []string{"first", "third", "second"}, titles(m.store.Tasks()))
	assert.Equal(t, 1, m.cursor)

	m = send(t, m, runes("K"))
	m = send(t, m, runes("K"))
	assert.Equal(t, []string{"third", "first", "second"}, titles(m.store.Tasks()))
	assert.Equal(t, 0, m.cursor)
}

func TestDeleteWithConfirmation(t *testing.T) {
	m := newTestModel(t, Options{ConfirmDelete: true})
	m = addTask(t, m, "keep", "")
	m = addTask(t, m, "drop", "")

	m = send(t, m, runes("d"))
	assert.Equal(t, ModeConfirmDelete, m.mode)
	m = send(t, m, runes("n"))
	assert.Len(t, m.store.Tasks(), 2)
	assert.Equal(t, "Delete cancelled", m.message)

	m = send(t, m, runes("d"))
	m = send(t, m, runes("y"))
	assert.Equal(t, []string{"keep"}, titles(m.store.Tasks()))
	assert.Equal(t, 0, m.cursor)
}

func TestSuggestFlow(t *testing.T) {
	sg := &fakeSuggester{suggestions: []string{"Preheat the oven", "Mix oats", "Bake"}}
	m := newTestModel(t, Options{Suggester: sg})

	m = send(t, m, runes("i"))
	require.Equal(t, ModeSuggest, m.mode)
	m = send(t, m, runes("Bake oatmeal cookies"))

	next, cmd := m.Update(keyOf(tea.KeyEnter))
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.suggesting)
	assert.Contains(t, m.View(), "Generating suggestions...")

	m = send(t, m, cmd())
	assert.False(t, m.suggesting)
	assert.Equal(t, sg.suggestions, m.suggestions)
	assert.Equal(t, []string{"Bake oatmeal cookies"}, sg.prompts)

	m = send(t, m, keyOf(tea.KeyEnter))
	assert.Equal(t, ModeNormal, m.mode)

	tasks := m.store.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "Bake oatmeal cookies", tasks[0].Title)
	require.Len(t, tasks[0].Subtasks, 3)
	assert.Equal(t, "Preheat the oven", tasks[0].Subtasks[0].Title)
	assert.False(t, tasks[0].IsComplete())
}

func TestSuggestFailureIsRetryable(t *testing.T) {
	sg := &fakeSuggester{err: errors.New("boom")}
	m := newTestModel(t, Options{Suggester: sg})

	m = send(t, m, runes("i"))
	m = send(t, m, runes("plan a trip"))
	next, cmd := m.Update(keyOf(tea.KeyEnter))
	m = send(t, next.(Model), cmd())

	assert.Equal(t, "Failed to generate suggestions. Please try again.", m.form.err)
	assert.Empty(t, m.suggestions)

	sg.err = nil
	sg.suggestions = []string{"Book flights"}
	next, cmd = m.Update(keyOf(tea.KeyEnter))
	m = send(t, next.(Model), cmd())

	assert.Empty(t, m.form.err)
	assert.Equal(t, []string{"Book flights"}, m.suggestions)
	assert.Len(t, sg.prompts, 2)
}

func TestSuggestRequiresPrompt(t *testing.T) {
	sg := &fakeSuggester{}
	m := newTestModel(t, Options{Suggester: sg})

	m = send(t, m, runes("i"))
	next, cmd := m.Update(keyOf(tea.KeyEnter))
	m = next.(Model)

	assert.Nil(t, cmd)
	assert.Equal(t, "Please enter a prompt", m.form.err)
	assert.Empty(t, sg.prompts)
}

func TestSuggestWithoutServer(t *testing.T) {
	m := newTestModel(t, Options{})
	m = send(t, m, runes("i"))
	assert.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, "AI suggestions need a sync server", m.message)
}

func TestSyncWithoutServer(t *testing.T) {
	m := newTestModel(t, Options{})
	m = send(t, m, runes("r"))
	assert.Equal(t, "No sync server configured", m.message)
	assert.Contains(t, m.View(), "Local only")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"wash", "chop"}, splitList(" wash, ,chop ,"))
	assert.Nil(t, splitList("  "))
}
