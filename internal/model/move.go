package model

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is returned by Move for indices outside the collection
var ErrIndexOutOfRange = errors.New("index out of range")

// Move removes the task at from and reinserts it at to, returning a new
// slice. The input is left untouched.
func Move(tasks []Task, from, to int) ([]Task, error) {
	n := len(tasks)
	if from < 0 || from >= n || to < 0 || to >= n {
		return nil, fmt.Errorf("move %d -> %d in %d tasks: %w", from, to, n, ErrIndexOutOfRange)
	}

	out := make([]Task, 0, n)
	moved := tasks[from]
	for i, t := range tasks {
		if i != from {
			out = append(out, t)
		}
	}
	out = append(out[:to], append([]Task{moved}, out[to:]...)...)
	return out, nil
}
