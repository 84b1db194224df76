package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Store persists project rows. The partial unique indexes on
// (owner_id, lower(name)) and (owner_id, slug) are the final authority on
// availability; the pre-check in the factory is only an early exit.
type Store struct {
	db *sql.DB
}

// NewStore creates a new project store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for transaction ownership by the factory.
func (s *Store) DB() *sql.DB {
	return s.db
}

const projectColumns = `id, owner_id, owner_name, name, slug, visibility, created_at, updated_at`

// InsertTx inserts a project row inside the caller's transaction. A
// uniqueness violation is translated to ErrNameTaken or ErrSlugTaken.
func (s *Store) InsertTx(ctx context.Context, tx *sql.Tx, p *Project) error {
	query := `
		INSERT INTO projects (owner_id, owner_name, name, slug, visibility)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := tx.QueryRowContext(ctx, query, p.OwnerID, p.OwnerName, p.Name, p.Slug, p.Visibility).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return translateUniqueViolation(err, "failed to insert project")
	}
	return nil
}

// Update persists a changed name and slug.
func (s *Store) Update(ctx context.Context, p *Project) error {
	query := `
		UPDATE projects SET name = $1, slug = $2, updated_at = NOW()
		WHERE id = $3
	`
	if _, err := s.db.ExecContext(ctx, query, p.Name, p.Slug, p.ID); err != nil {
		return translateUniqueViolation(err, "failed to update project")
	}
	return nil
}

// UpdateVisibility flips the project's lifecycle state.
func (s *Store) UpdateVisibility(ctx context.Context, projectID int64, v Visibility) error {
	query := `UPDATE projects SET visibility = $1, updated_at = NOW() WHERE id = $2`
	if _, err := s.db.ExecContext(ctx, query, v, projectID); err != nil {
		return fmt.Errorf("failed to update project visibility: %w", err)
	}
	return nil
}

// Delete removes the project row. Channels and pages cascade at the
// database level; role assignments are removed by the factory.
func (s *Store) Delete(ctx context.Context, projectID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

// GetByID returns a project by id, or ErrProjectNotFound.
func (s *Store) GetByID(ctx context.Context, projectID int64) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, projectID))
}

// GetByOwnerAndSlug returns a project by its owner name and slug, or
// ErrProjectNotFound.
func (s *Store) GetByOwnerAndSlug(ctx context.Context, ownerName, slug string) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE owner_name = $1 AND slug = $2`
	return s.scanOne(s.db.QueryRowContext(ctx, query, ownerName, slug))
}

func (s *Store) scanOne(row *sql.Row) (*Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.OwnerID, &p.OwnerName, &p.Name, &p.Slug, &p.Visibility, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}

// CheckAvailability reports whether the owner may use the given name and
// slug, excluding excludeID so a project renaming to its current name does
// not collide with itself. This is an optimization; the insert's unique
// indexes remain the final authority under concurrency.
func (s *Store) CheckAvailability(ctx context.Context, ownerID int64, name, slug string, excludeID int64) error {
	query := `
		SELECT
			EXISTS(SELECT 1 FROM projects WHERE owner_id = $1 AND lower(name) = lower($2) AND id <> $4),
			EXISTS(SELECT 1 FROM projects WHERE owner_id = $1 AND slug = $3 AND id <> $4)
	`
	var nameTaken, slugTaken bool
	err := s.db.QueryRowContext(ctx, query, ownerID, name, slug, excludeID).Scan(&nameTaken, &slugTaken)
	if err != nil {
		return fmt.Errorf("failed to check project availability: %w", err)
	}
	if nameTaken {
		return ErrNameTaken
	}
	if slugTaken {
		return ErrSlugTaken
	}
	return nil
}

func translateUniqueViolation(err error, msg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		if strings.Contains(pqErr.Constraint, "slug") {
			return ErrSlugTaken
		}
		return ErrNameTaken
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// OwnerStore resolves project owners against the users and organizations
// tables.
type OwnerStore struct {
	db *sql.DB
}

// NewOwnerStore creates a new owner store.
func NewOwnerStore(db *sql.DB) *OwnerStore {
	return &OwnerStore{db: db}
}

// GetOwner resolves an owner id to a user or an organization. Returns
// ErrOwnerNotFound when neither exists.
func (s *OwnerStore) GetOwner(ctx context.Context, ownerID int64) (*Owner, error) {
	owner := &Owner{ID: ownerID}

	err := s.db.QueryRowContext(ctx,
		`SELECT id, username FROM users WHERE id = $1`, ownerID).
		Scan(&owner.UserID, &owner.Name)
	if err == nil {
		return owner, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to resolve owner: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT account_user_id, name FROM organizations WHERE id = $1`, ownerID).
		Scan(&owner.UserID, &owner.Name)
	if err == sql.ErrNoRows {
		return nil, ErrOwnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve owner: %w", err)
	}
	owner.IsOrganization = true
	return owner, nil
}
