package projects

import (
	"context"
	"database/sql"
	"fmt"
)

// PageStore persists project content pages. Rendering is out of scope here;
// pages are stored as raw markdown.
type PageStore struct {
	db *sql.DB
}

// NewPageStore creates a new page store.
func NewPageStore(db *sql.DB) *PageStore {
	return &PageStore{db: db}
}

// CreateTx inserts a page inside the caller's transaction. The home page is
// created non-deletable.
func (s *PageStore) CreateTx(ctx context.Context, tx *sql.Tx, projectID int64, name, slug, contents string, deletable bool) error {
	query := `
		INSERT INTO project_pages (project_id, name, slug, contents, deletable)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.ExecContext(ctx, query, projectID, name, slug, contents, deletable); err != nil {
		return fmt.Errorf("failed to create page: %w", err)
	}
	return nil
}
