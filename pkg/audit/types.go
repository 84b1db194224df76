package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action is the kind of recorded event.
type Action string

const (
	ActionProjectRenamed           Action = "project_renamed"
	ActionProjectVisibilityChanged Action = "project_visibility_changed"
	ActionProjectDeleted           Action = "project_deleted"
)

// Entry is one audit record. Before and After hold a human-readable
// rendering of the changed state, for example "owner/old-name".
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Action    Action    `json:"action"`
	UserID    int64     `json:"user_id"`
	ProjectID int64     `json:"project_id"`
	Before    string    `json:"before,omitempty"`
	After     string    `json:"after,omitempty"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewEntry builds an entry with a fresh id and timestamp.
func NewEntry(action Action, userID, projectID int64, before, after, comment string) Entry {
	return Entry{
		ID:        uuid.New(),
		Action:    action,
		UserID:    userID,
		ProjectID: projectID,
		Before:    before,
		After:     after,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	}
}
