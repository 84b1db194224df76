package projects

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Channel is a release channel a project's versions publish into. Every
// project gets one default channel at creation.
type Channel struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Frozen    bool      `json:"frozen"`
	CreatedAt time.Time `json:"created_at"`
}

// ChannelStore persists release channels.
type ChannelStore struct {
	db *sql.DB
}

// NewChannelStore creates a new channel store.
func NewChannelStore(db *sql.DB) *ChannelStore {
	return &ChannelStore{db: db}
}

// CreateTx inserts a channel inside the caller's transaction.
func (s *ChannelStore) CreateTx(ctx context.Context, tx *sql.Tx, projectID int64, name, color string, frozen bool) error {
	query := `
		INSERT INTO project_channels (project_id, name, color, frozen)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.ExecContext(ctx, query, projectID, name, color, frozen); err != nil {
		return fmt.Errorf("failed to create channel: %w", err)
	}
	return nil
}

// ListForProject returns a project's channels in creation order.
func (s *ChannelStore) ListForProject(ctx context.Context, projectID int64) ([]Channel, error) {
	query := `
		SELECT id, project_id, name, color, frozen, created_at
		FROM project_channels
		WHERE project_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	var out []Channel
	for rows.Next() {
		var c Channel
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Name, &c.Color, &c.Frozen, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
