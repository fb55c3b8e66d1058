package taskqueue

import (
	"errors"
	"fmt"
)

var (
	// ErrStopped is returned by LoadAndRunTasks when Stop ended the run before the queue drained
	ErrStopped = errors.New("task queue stopped")

	// ErrRetriesExhausted wraps a retryable error returned by a record that already hit the retry ceiling
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// Outcome is the kind of verdict a runner returns for a task
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRetryable
	OutcomeUnretryable
	OutcomeCancelled
)

// String implements fmt.Stringer
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeUnretryable:
		return "unretryable"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the verdict of a single task execution
type Result struct {
	Outcome Outcome
	Err     error
}

// Success reports that the task finished
func Success() Result {
	return Result{Outcome: OutcomeSuccess}
}

// Retryable reports a failure that should leave the record queued
func Retryable(err error) Result {
	return Result{Outcome: OutcomeRetryable, Err: err}
}

// Unretryable reports a failure that should drop the record
func Unretryable(err error) Result {
	return Result{Outcome: OutcomeUnretryable, Err: err}
}

// Cancelled reports that the task no longer applies
func Cancelled() Result {
	return Result{Outcome: OutcomeCancelled}
}
