package config

import (
	"fmt"
	"strings"
	"time"
)

// MaxNestingDepth bounds how deep nested events may go.
const MaxNestingDepth = 8

// MaxSleep bounds the sleep of a single event iteration.
const MaxSleep = 10 * time.Second

// ValidationError represents a workload validation error
type ValidationError struct {
	Path    string
	Message string
}

// Error returns the error message
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a list of validation errors.
type ValidationErrors []ValidationError

// Error joins all messages.
func (ve ValidationErrors) Error() string {
	msgs := make([]string, len(ve))
	for i, e := range ve {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the semantic rules the schema cannot express.
func Validate(w *Workload) ValidationErrors {
	var errs ValidationErrors

	if w.Name == "" {
		errs = append(errs, ValidationError{Path: "name", Message: "name is required"})
	}

	switch w.Mode {
	case "", "ticks", "nanoseconds", "ns":
	default:
		errs = append(errs, ValidationError{Path: "mode", Message: fmt.Sprintf("invalid mode: %s", w.Mode)})
	}

	if w.Workers < 1 {
		errs = append(errs, ValidationError{Path: "workers", Message: "workers must be at least 1"})
	}

	if w.Ring < 0 {
		errs = append(errs, ValidationError{Path: "ring", Message: "ring cannot be negative"})
	}

	if len(w.Events) == 0 {
		errs = append(errs, ValidationError{Path: "events", Message: "at least one event is required"})
	}

	for i, e := range w.Events {
		errs = append(errs, validateEvent(fmt.Sprintf("events[%d]", i), e, 1)...)
	}

	return errs
}

func validateEvent(path string, e Event, depth int) ValidationErrors {
	var errs ValidationErrors

	if depth > MaxNestingDepth {
		return ValidationErrors{{Path: path, Message: fmt.Sprintf("events nest deeper than %d levels", MaxNestingDepth)}}
	}

	if strings.TrimSpace(e.Name) == "" {
		errs = append(errs, ValidationError{Path: path + ".name", Message: "name is required"})
	}

	if e.Iterations < 1 {
		errs = append(errs, ValidationError{Path: path + ".iterations", Message: "iterations must be at least 1"})
	}

	if e.Spin < 0 {
		errs = append(errs, ValidationError{Path: path + ".spin", Message: "spin cannot be negative"})
	}

	if e.FailEvery < 0 {
		errs = append(errs, ValidationError{Path: path + ".fail_every", Message: "fail_every cannot be negative"})
	}

	if d, err := e.SleepDuration(); err != nil {
		errs = append(errs, ValidationError{Path: path + ".sleep", Message: err.Error()})
	} else if d < 0 || d > MaxSleep {
		errs = append(errs, ValidationError{Path: path + ".sleep", Message: fmt.Sprintf("sleep must be between 0 and %s", MaxSleep)})
	}

	for i, child := range e.Nested {
		errs = append(errs, validateEvent(fmt.Sprintf("%s.nested[%d]", path, i), child, depth+1)...)
	}

	return errs
}
