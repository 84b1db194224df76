package members

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/lodestone-dev/lodestone/pkg/perms"
)

// ErrAlreadyAssigned is returned when a user already holds the role in the
// same scope.
var ErrAlreadyAssigned = errors.New("role already assigned")

// ErrAssignmentNotFound is returned when no matching assignment exists.
var ErrAssignmentNotFound = errors.New("assignment not found")

// Store persists role assignments.
type Store struct {
	db *sql.DB
}

// NewStore creates a new assignment store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const assignmentColumns = `id, user_id, role_id, category, scope_id, accepted, created_at`

// Add inserts an assignment. The (user, role, category, scope) uniqueness is
// enforced by the database; a violation surfaces as ErrAlreadyAssigned.
func (s *Store) Add(ctx context.Context, a *Assignment) error {
	query := `
		INSERT INTO role_assignments (user_id, role_id, category, scope_id, accepted)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := s.db.QueryRowContext(ctx, query, a.UserID, a.RoleID, a.Category, a.ScopeID, a.Accepted).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrAlreadyAssigned
		}
		return fmt.Errorf("failed to add assignment: %w", err)
	}
	return nil
}

// AddAcceptedMember inserts an already-accepted assignment, used when the
// creator of a project or organization becomes its owner without an invite.
func (s *Store) AddAcceptedMember(ctx context.Context, a Assignment) error {
	a.Accepted = true
	return s.Add(ctx, &a)
}

// AddAcceptedMemberTx is AddAcceptedMember inside a caller-owned transaction.
func (s *Store) AddAcceptedMemberTx(ctx context.Context, tx *sql.Tx, a Assignment) error {
	query := `
		INSERT INTO role_assignments (user_id, role_id, category, scope_id, accepted)
		VALUES ($1, $2, $3, $4, TRUE)
	`
	if _, err := tx.ExecContext(ctx, query, a.UserID, a.RoleID, a.Category, a.ScopeID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrAlreadyAssigned
		}
		return fmt.Errorf("failed to add accepted member: %w", err)
	}
	return nil
}

// Accept marks a pending assignment as accepted.
func (s *Store) Accept(ctx context.Context, assignmentID int64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE role_assignments SET accepted = TRUE WHERE id = $1`, assignmentID)
	if err != nil {
		return fmt.Errorf("failed to accept assignment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

// Remove deletes an assignment.
func (s *Store) Remove(ctx context.Context, userID, roleID int64, category perms.Category, scopeID int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM role_assignments
		WHERE user_id = $1 AND role_id = $2 AND category = $3 AND scope_id = $4
	`, userID, roleID, category, scopeID)
	if err != nil {
		return fmt.Errorf("failed to remove assignment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

// DeleteForScope removes all assignments for a scoped entity, called when
// the project or organization itself is deleted.
func (s *Store) DeleteForScope(ctx context.Context, category perms.Category, scopeID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM role_assignments WHERE category = $1 AND scope_id = $2`, category, scopeID)
	if err != nil {
		return fmt.Errorf("failed to delete assignments for scope: %w", err)
	}
	return nil
}

// ListForUser returns all assignments held by a user.
func (s *Store) ListForUser(ctx context.Context, userID int64) ([]Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM role_assignments
		WHERE user_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()
	return scanAssignments(rows)
}

// ListForScope returns all assignments within a scope, e.g. a project's
// member list.
func (s *Store) ListForScope(ctx context.Context, category perms.Category, scopeID int64) ([]Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM role_assignments
		WHERE category = $1 AND scope_id = $2
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, category, scopeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func scanAssignments(rows *sql.Rows) ([]Assignment, error) {
	var out []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.UserID, &a.RoleID, &a.Category, &a.ScopeID, &a.Accepted, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read assignments: %w", err)
	}
	return out, nil
}
