package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsComplete(t *testing.T) {
	tests := []struct {
		name string
		task Task
		want bool
	}{
		{"no subtasks, not completed", Task{}, false},
		{"no subtasks, completed", Task{Completed: true}, true},
		{"subtasks partly done", Task{Subtasks: []Subtask{{Completed: true}, {}}}, false},
		{"subtasks all done", Task{Subtasks: []Subtask{{Completed: true}, {Completed: true}}}, true},
		{"flag set, subtasks open", Task{Completed: true, Subtasks: []Subtask{{}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := tt.task.Completed || (len(tt.task.Subtasks) > 0 && allDone(tt.task.Subtasks))
			assert.Equal(t, want, tt.task.IsComplete())
			assert.Equal(t, tt.want, tt.task.IsComplete())
		})
	}
}

func allDone(sts []Subtask) bool {
	for _, st := range sts {
		if !st.Completed {
			return false
		}
	}
	return true
}

func TestToggleCompleteWithoutSubtasks(t *testing.T) {
	task, err := NewTask("1", "Buy milk", "2025-06-01", "09:00", nil)
	require.NoError(t, err)
	assert.False(t, task.Completed)

	require.NoError(t, task.ToggleComplete())
	assert.True(t, task.Completed)
	assert.True(t, task.IsComplete())

	require.NoError(t, task.ToggleComplete())
	assert.False(t, task.Completed)
	assert.False(t, task.IsComplete())
}

func TestSubtasksDriveCompletion(t *testing.T) {
	task, err := NewTask("7", "Dinner", "2025-06-01", "18:00", []string{"wash", "chop"})
	require.NoError(t, err)
	require.Len(t, task.Subtasks, 2)

	assert.ErrorIs(t, task.ToggleComplete(), ErrDerivedCompletion)

	require.NoError(t, task.ToggleSubtask(task.Subtasks[0].ID))
	assert.False(t, task.IsComplete())
	require.NoError(t, task.ToggleSubtask(task.Subtasks[1].ID))

	assert.True(t, task.IsComplete())
	assert.False(t, task.Completed)
	assert.Equal(t, 2, task.CompletedSubtasks())

	assert.ErrorIs(t, task.ToggleSubtask("nope"), ErrSubtaskNotFound)
}

func TestNewTaskValidation(t *testing.T) {
	tests := []struct {
		name, title, day, clock string
		wantField               string
	}{
		{"blank title", "  ", "2025-06-01", "09:00", "Title"},
		{"missing day", "x", "", "09:00", "Day"},
		{"bad day", "x", "06/01/2025", "09:00", "Day"},
		{"missing time", "x", "2025-06-01", "", "Time"},
		{"bad time", "x", "2025-06-01", "9am", "Time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTask("1", tt.title, tt.day, tt.clock, nil)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
			assert.NotEmpty(t, verr.Message)
		})
	}
}

func TestNewTaskDropsBlankSubtasks(t *testing.T) {
	task, err := NewTask("100", " Move house ", "2025-06-01", "09:00", []string{"pack", " ", "", "load"})
	require.NoError(t, err)

	assert.Equal(t, "Move house", task.Title)
	require.Len(t, task.Subtasks, 2)
	assert.Equal(t, Subtask{ID: "100-0", Title: "pack"}, task.Subtasks[0])
	assert.Equal(t, Subtask{ID: "100-1", Title: "load"}, task.Subtasks[1])
}

func TestFromSuggestions(t *testing.T) {
	task := FromSuggestions("42", "oatmeal cookies", "2025-06-01", "10:00", []string{"oats", "sugar", "butter"})

	assert.Equal(t, "oatmeal cookies", task.Title)
	assert.False(t, task.Completed)
	require.Len(t, task.Subtasks, 3)
	for i, title := range []string{"oats", "sugar", "butter"} {
		assert.Equal(t, title, task.Subtasks[i].Title)
		assert.False(t, task.Subtasks[i].Completed)
		assert.Equal(t, SubtaskID("42", i), task.Subtasks[i].ID)
	}
}

func TestStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, StatusPassed, Task{Day: "2025-06-01", Time: "09:00"}.Status(now))
	assert.Equal(t, StatusUpcoming, Task{Day: "2025-06-02", Time: "09:00"}.Status(now))
	assert.Equal(t, StatusPending, Task{Day: "2025-06-10", Time: "09:00"}.Status(now))
	assert.Equal(t, StatusCompleted, Task{Day: "2025-06-01", Time: "09:00", Completed: true}.Status(now))
	assert.Equal(t, StatusPending, Task{}.Status(now))
}

func TestPartitionKeepsOrder(t *testing.T) {
	tasks := []Task{{ID: "a"}, {ID: "b", Completed: true}, {ID: "c"}, {ID: "d", Completed: true}}

	open, done := Partition(tasks)
	assert.Equal(t, []string{"a", "c"}, ids(open))
	assert.Equal(t, []string{"b", "d"}, ids(done))
}

func TestCloneIsDeep(t *testing.T) {
	orig := []Task{{ID: "a", Subtasks: []Subtask{{ID: "a-0"}}}}
	c := CloneTasks(orig)
	c[0].Subtasks[0].Completed = true

	assert.False(t, orig[0].Subtasks[0].Completed)
}

func TestIDGeneratorIsMonotonic(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	g := NewIDGenerator(func() time.Time { return fixed })

	assert.Equal(t, "1700000000000", g.Next())
	assert.Equal(t, "1700000000001", g.Next())
	assert.Equal(t, "1700000000002", g.Next())
}

func ids(tasks []Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestNextSlot(t *testing.T) {
	day, clock := NextSlot(time.Date(2025, 3, 1, 9, 20, 0, 0, time.UTC))
	assert.Equal(t, "2025-03-01", day)
	assert.Equal(t, "10:00", clock)

	day, clock = NextSlot(time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC))
	assert.Equal(t, "2025-03-02", day)
	assert.Equal(t, "00:00", clock)
}

func TestToggleCompleteClearsStaleFlag(t *testing.T) {
	task, err := NewTask("8", "Dinner", "2025-06-01", "18:00", []string{"wash", "chop"})
	require.NoError(t, err)
	task.Completed = true
	require.True(t, task.IsComplete())

	require.NoError(t, task.ToggleComplete())
	assert.False(t, task.Completed)
	assert.False(t, task.IsComplete())

	assert.ErrorIs(t, task.ToggleComplete(), ErrDerivedCompletion)
}
