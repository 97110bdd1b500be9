package model

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ValidationError describes the first invalid field of a task form
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type taskForm struct {
	Title string `validate:"required"`
	Day   string `validate:"required,day"`
	Time  string `validate:"required,clock"`
}

var formMessages = map[string]string{
	"Title": "Please enter a task title",
	"Day":   "Please select a date",
	"Time":  "Please select a time",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("day", layoutValidator(DayLayout))
	_ = v.RegisterValidation("clock", layoutValidator(TimeLayout))
	return v
}

func layoutValidator(layout string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		_, err := time.Parse(layout, fl.Field().String())
		return err == nil
	}
}

// ValidateSchedule checks a title, day and time the way the add-task form does
func ValidateSchedule(title, day, clock string) error {
	err := validate.Struct(taskForm{
		Title: strings.TrimSpace(title),
		Day:   strings.TrimSpace(day),
		Time:  strings.TrimSpace(clock),
	})
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := verrs[0].Field()
		return &ValidationError{Field: field, Message: formMessages[field]}
	}
	return err
}

// NextSlot returns the day and time of the next full hour, used to prefill forms
func NextSlot(now time.Time) (day, clock string) {
	at := now.Truncate(time.Hour).Add(time.Hour)
	return at.Format(DayLayout), at.Format(TimeLayout)
}

// NewTask builds a task from form input. Blank subtask titles are dropped.
func NewTask(id, title, day, clock string, subtaskTitles []string) (Task, error) {
	if err := ValidateSchedule(title, day, clock); err != nil {
		return Task{}, err
	}

	t := Task{
		ID:       id,
		Title:    strings.TrimSpace(title),
		Day:      strings.TrimSpace(day),
		Time:     strings.TrimSpace(clock),
		Subtasks: []Subtask{},
	}
	for _, st := range subtaskTitles {
		st = strings.TrimSpace(st)
		if st == "" {
			continue
		}
		t.Subtasks = append(t.Subtasks, Subtask{
			ID:    SubtaskID(id, len(t.Subtasks)),
			Title: st,
		})
	}
	return t, nil
}

// FromSuggestions builds a task titled after an AI prompt, with one
// incomplete subtask per suggestion in the order given.
func FromSuggestions(id, prompt, day, clock string, suggestions []string) Task {
	t := Task{
		ID:       id,
		Title:    strings.TrimSpace(prompt),
		Day:      day,
		Time:     clock,
		Subtasks: make([]Subtask, 0, len(suggestions)),
	}
	for i, s := range suggestions {
		t.Subtasks = append(t.Subtasks, Subtask{
			ID:    SubtaskID(id, i),
			Title: s,
		})
	}
	return t
}
