package cache

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lodestone-dev/lodestone/pkg/observability"
	"github.com/lodestone-dev/lodestone/pkg/projects"
)

const (
	keyHomeProjects = "listings:home_projects"
	keyAuthors      = "listings:authors"
)

// Listings serves the cached front-page data: the home project listing and
// the distinct author names. Lifecycle operations invalidate through
// RefreshHomeProjects and ClearAuthors; reads repopulate on miss.
type Listings interface {
	HomeProjects(ctx context.Context) ([]projects.Project, error)
	Authors(ctx context.Context) ([]string, error)
	RefreshHomeProjects(ctx context.Context) error
	ClearAuthors(ctx context.Context) error
}

// Source computes the listings from primary storage on a cache miss.
type Source interface {
	LoadHomeProjects(ctx context.Context) ([]projects.Project, error)
	LoadAuthors(ctx context.Context) ([]string, error)
}

// DBSource loads listings from postgres.
type DBSource struct {
	db    *sql.DB
	limit int
}

// NewDBSource creates a listing source. limit bounds the home listing size.
func NewDBSource(db *sql.DB, limit int) *DBSource {
	if limit <= 0 {
		limit = 50
	}
	return &DBSource{db: db, limit: limit}
}

// LoadHomeProjects returns the newest public projects.
func (s *DBSource) LoadHomeProjects(ctx context.Context) ([]projects.Project, error) {
	query := `
		SELECT id, owner_id, owner_name, name, slug, visibility, created_at, updated_at
		FROM projects
		WHERE visibility = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, projects.VisibilityPublic, s.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load home projects: %w", err)
	}
	defer rows.Close()

	var out []projects.Project
	for rows.Next() {
		var p projects.Project
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.OwnerName, &p.Name, &p.Slug, &p.Visibility, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan home project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// LoadAuthors returns the distinct owner names with public projects.
func (s *DBSource) LoadAuthors(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT owner_name FROM projects
		WHERE visibility = $1
		ORDER BY owner_name
	`
	rows, err := s.db.QueryContext(ctx, query, projects.VisibilityPublic)
	if err != nil {
		return nil, fmt.Errorf("failed to load authors: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan author: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func countHit(m *observability.Metrics, cache string) {
	if m != nil {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
	}
}

func countMiss(m *observability.Metrics, cache string) {
	if m != nil {
		m.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}
