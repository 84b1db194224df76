package jobs

import (
	"errors"
	"fmt"
	"time"
)

// Type identifies what a job reconciles against the external system.
type Type string

const (
	// TypeForumTopicUpdate creates or updates the forum topic for a
	// project. Safe to run when the topic already matches.
	TypeForumTopicUpdate Type = "forum_topic_update"
	// TypeForumTopicDelete removes the forum topic for a deleted project.
	// A topic that is already gone counts as success.
	TypeForumTopicDelete Type = "forum_topic_delete"
)

// State is a job's position in its lifecycle. Transitions are driven solely
// by the scheduler: pending -> processing -> done, or processing -> pending
// with backoff, or processing -> failed once retries are exhausted.
type State string

const (
	StatePending    State = "pending"
	StateProcessing State = "processing"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Job is a durable unit of deferred work. Jobs are enqueued inside the
// domain transaction that triggers them and executed later by the
// scheduler; actions receive only the target id and must reload current
// state themselves.
type Job struct {
	ID            int64      `json:"id"`
	Type          Type       `json:"type"`
	TargetID      int64      `json:"target_id"`
	State         State      `json:"state"`
	Retries       int        `json:"retries"`
	LastError     string     `json:"last_error,omitempty"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
	NextRunAt     time.Time  `json:"next_run_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

// NewForumTopicUpdate builds an update-reconciliation job for a project.
func NewForumTopicUpdate(projectID int64) Job {
	return Job{Type: TypeForumTopicUpdate, TargetID: projectID}
}

// NewForumTopicDelete builds a delete-reconciliation job for a project.
func NewForumTopicDelete(projectID int64) Job {
	return Job{Type: TypeForumTopicDelete, TargetID: projectID}
}

// permanentError marks a failure that retrying cannot fix. The scheduler
// moves the job straight to failed.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string {
	return fmt.Sprintf("permanent: %v", e.err)
}

func (e *permanentError) Unwrap() error {
	return e.err
}

// Permanent wraps err so the scheduler will not retry it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent. Everything
// else is treated as transient and retried with backoff.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}
