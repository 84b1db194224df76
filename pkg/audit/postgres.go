package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// DBLogger persists audit entries to postgres.
type DBLogger struct {
	db *sql.DB
}

// NewDBLogger creates a database-backed audit logger.
func NewDBLogger(db *sql.DB) (*DBLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &DBLogger{db: db}, nil
}

// Record inserts the entry.
func (l *DBLogger) Record(ctx context.Context, entry Entry) error {
	query := `
		INSERT INTO audit_log (id, action, user_id, project_id, before, after, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := l.db.ExecContext(ctx, query,
		entry.ID, entry.Action, entry.UserID, entry.ProjectID,
		entry.Before, entry.After, entry.Comment, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// ListForProject returns a project's audit trail, newest first.
func (l *DBLogger) ListForProject(ctx context.Context, projectID int64, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, action, user_id, project_id, before, after, comment, created_at
		FROM audit_log
		WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := l.db.QueryContext(ctx, query, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Action, &e.UserID, &e.ProjectID, &e.Before, &e.After, &e.Comment, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
