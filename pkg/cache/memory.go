package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/lodestone-dev/lodestone/pkg/observability"
	"github.com/lodestone-dev/lodestone/pkg/projects"
)

// Memory is an in-process Listings implementation on an expirable LRU.
// Suitable for single-instance deployments; multi-instance deployments use
// the redis implementation so invalidations reach every replica.
type Memory struct {
	source  Source
	home    *expirable.LRU[string, []projects.Project]
	authors *expirable.LRU[string, []string]
	metrics *observability.Metrics
}

// NewMemory creates an in-process listings cache with the given entry TTL.
func NewMemory(source Source, ttl time.Duration, metrics *observability.Metrics) *Memory {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Memory{
		source:  source,
		home:    expirable.NewLRU[string, []projects.Project](1, nil, ttl),
		authors: expirable.NewLRU[string, []string](1, nil, ttl),
		metrics: metrics,
	}
}

// HomeProjects returns the cached home listing, repopulating on miss.
func (m *Memory) HomeProjects(ctx context.Context) ([]projects.Project, error) {
	if cached, ok := m.home.Get(keyHomeProjects); ok {
		countHit(m.metrics, "home_projects")
		return cached, nil
	}
	countMiss(m.metrics, "home_projects")

	loaded, err := m.source.LoadHomeProjects(ctx)
	if err != nil {
		return nil, err
	}
	m.home.Add(keyHomeProjects, loaded)
	return loaded, nil
}

// Authors returns the cached author listing, repopulating on miss.
func (m *Memory) Authors(ctx context.Context) ([]string, error) {
	if cached, ok := m.authors.Get(keyAuthors); ok {
		countHit(m.metrics, "authors")
		return cached, nil
	}
	countMiss(m.metrics, "authors")

	loaded, err := m.source.LoadAuthors(ctx)
	if err != nil {
		return nil, err
	}
	m.authors.Add(keyAuthors, loaded)
	return loaded, nil
}

// RefreshHomeProjects recomputes the home listing eagerly so the next read
// is warm.
func (m *Memory) RefreshHomeProjects(ctx context.Context) error {
	loaded, err := m.source.LoadHomeProjects(ctx)
	if err != nil {
		return err
	}
	m.home.Add(keyHomeProjects, loaded)
	return nil
}

// ClearAuthors drops the author listing; the next read recomputes it.
func (m *Memory) ClearAuthors(ctx context.Context) error {
	m.authors.Remove(keyAuthors)
	return nil
}
