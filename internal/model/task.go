package model

import (
	"errors"
	"time"
)

// Layouts for the schedule fields of a task
const (
	DayLayout  = "2006-01-02"
	TimeLayout = "15:04"
)

var (
	// ErrDerivedCompletion is returned when toggling the completed flag of a
	// task whose completion is driven by its subtasks.
	ErrDerivedCompletion = errors.New("task completion is derived from its subtasks")
	// ErrSubtaskNotFound is returned when a subtask id does not exist on a task.
	ErrSubtaskNotFound = errors.New("subtask not found")
)

// Status is the schedule status of a task
type Status string

const (
	StatusCompleted Status = "completed"
	StatusPassed    Status = "passed"
	StatusUpcoming  Status = "upcoming"
	StatusPending   Status = "pending"
)

// Task represents a single scheduled todo item
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Day       string    `json:"day"`
	Time      string    `json:"time"`
	Completed bool      `json:"completed"`
	Subtasks  []Subtask `json:"subtasks"`
}

// Subtask is a checklist item belonging to a task
type Subtask struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// IsComplete reports the effective completion of the task: either the task
// itself is marked completed or it has subtasks and all of them are.
func (t Task) IsComplete() bool {
	return t.Completed || t.subtasksDone()
}

func (t Task) subtasksDone() bool {
	if len(t.Subtasks) == 0 {
		return false
	}
	for _, st := range t.Subtasks {
		if !st.Completed {
			return false
		}
	}
	return true
}

// CompletedSubtasks returns how many subtasks are done
func (t Task) CompletedSubtasks() int {
	n := 0
	for _, st := range t.Subtasks {
		if st.Completed {
			n++
		}
	}
	return n
}

// ToggleComplete flips the completed flag of a task without subtasks.
// Tasks with subtasks complete through their subtasks only; toggling one
// just clears a completed flag left over from elsewhere.
func (t *Task) ToggleComplete() error {
	if len(t.Subtasks) > 0 {
		if t.Completed {
			t.Completed = false
			return nil
		}
		return ErrDerivedCompletion
	}
	t.Completed = !t.Completed
	return nil
}

// ToggleSubtask flips a single subtask's completed flag
func (t *Task) ToggleSubtask(subtaskID string) error {
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == subtaskID {
			t.Subtasks[i].Completed = !t.Subtasks[i].Completed
			return nil
		}
	}
	return ErrSubtaskNotFound
}

// ScheduledAt parses the day and time of the task in the given location
func (t Task) ScheduledAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DayLayout+" "+TimeLayout, t.Day+" "+t.Time, loc)
}

// Status classifies the task relative to now
func (t Task) Status(now time.Time) Status {
	if t.IsComplete() {
		return StatusCompleted
	}
	at, err := t.ScheduledAt(now.Location())
	if err != nil {
		return StatusPending
	}
	if at.Before(now) {
		return StatusPassed
	}
	if at.Sub(now) <= 24*time.Hour {
		return StatusUpcoming
	}
	return StatusPending
}

// Clone returns a deep copy of the task
func (t Task) Clone() Task {
	c := t
	if t.Subtasks != nil {
		c.Subtasks = make([]Subtask, len(t.Subtasks))
		copy(c.Subtasks, t.Subtasks)
	}
	return c
}

// CloneTasks deep-copies a task collection
func CloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

// Partition splits tasks into incomplete and completed views, keeping order
func Partition(tasks []Task) (incomplete, completed []Task) {
	for _, t := range tasks {
		if t.IsComplete() {
			completed = append(completed, t)
		} else {
			incomplete = append(incomplete, t)
		}
	}
	return incomplete, completed
}

// IndexOf returns the position of the task with the given id, or -1
func IndexOf(tasks []Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Snapshot is a full copy of the task collection stamped with a version.
// Versions increase monotonically across mutations.
type Snapshot struct {
	Version int64  `json:"version"`
	Tasks   []Task `json:"tasks"`
}
