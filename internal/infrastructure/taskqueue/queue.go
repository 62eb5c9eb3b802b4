// Package taskqueue runs background tasks on a fixed pool of workers with per-task retries.
package taskqueue

import (
	"context"
	"errors"
	"time"
)

var (
	ErrQueueClosed = errors.New("task queue is closed")
	ErrUnknownTask = errors.New("unknown task")
)

// Attempt describes one execution of a task
type Attempt struct {
	TaskID string
	Number int
	// Last is true when no further attempt will follow a failure
	Last bool
}

// Task is a unit of work. Run is called once per attempt.
type Task struct {
	Name   string
	Run    func(ctx context.Context, attempt Attempt) error
	Policy *RetryPolicy
	// OnDone is called exactly once with the final result
	OnDone func(Result)
}

// Handle identifies a submitted task
type Handle struct {
	ID   string
	Name string
}

// Result is the final outcome of a task
type Result struct {
	ID          string
	Name        string
	Attempts    int
	Err         error
	SubmittedAt time.Time
	CompletedAt time.Time
}

// Succeeded reports whether the last attempt returned no error
func (r Result) Succeeded() bool { return r.Err == nil }

// Queue accepts tasks for asynchronous execution
type Queue interface {
	Submit(ctx context.Context, task Task) (Handle, error)
	// Await blocks until the task finished or ctx is done
	Await(ctx context.Context, id string) (Result, error)
}

// RetryPolicy decides how failed attempts are repeated
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
	// Retryable reports whether err is worth another attempt; nil uses IsRetryable
	Retryable func(err error) bool
}

func (p RetryPolicy) retryable(err error) bool {
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return IsRetryable(err)
}

// IsRetryable reports whether err, or an error it wraps, declares itself retryable
func IsRetryable(err error) bool {
	var r interface{ Retryable() bool }
	return errors.As(err, &r) && r.Retryable()
}
