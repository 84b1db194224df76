package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/lodestone-dev/lodestone/pkg/observability"
	"github.com/lodestone-dev/lodestone/pkg/projects"
)

// Redis is a Listings implementation shared across instances. Entries are
// stored as JSON with a TTL so a missed invalidation heals itself.
type Redis struct {
	source  Source
	client  *redis.Client
	ttl     time.Duration
	metrics *observability.Metrics
}

// NewRedis creates a redis-backed listings cache and verifies the
// connection.
func NewRedis(source Source, redisURL string, ttl time.Duration, metrics *observability.Metrics) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Redis{source: source, client: client, ttl: ttl, metrics: metrics}, nil
}

// Client exposes the underlying connection for health checks.
func (r *Redis) Client() *redis.Client {
	return r.client
}

// Close closes the redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

// HomeProjects returns the cached home listing, repopulating on miss.
func (r *Redis) HomeProjects(ctx context.Context) ([]projects.Project, error) {
	cached, err := r.client.Get(ctx, keyHomeProjects).Result()
	if err == nil {
		var out []projects.Project
		if err := json.Unmarshal([]byte(cached), &out); err == nil {
			countHit(r.metrics, "home_projects")
			return out, nil
		}
	}
	countMiss(r.metrics, "home_projects")

	loaded, err := r.source.LoadHomeProjects(ctx)
	if err != nil {
		return nil, err
	}
	r.store(ctx, keyHomeProjects, loaded)
	return loaded, nil
}

// Authors returns the cached author listing, repopulating on miss.
func (r *Redis) Authors(ctx context.Context) ([]string, error) {
	cached, err := r.client.Get(ctx, keyAuthors).Result()
	if err == nil {
		var out []string
		if err := json.Unmarshal([]byte(cached), &out); err == nil {
			countHit(r.metrics, "authors")
			return out, nil
		}
	}
	countMiss(r.metrics, "authors")

	loaded, err := r.source.LoadAuthors(ctx)
	if err != nil {
		return nil, err
	}
	r.store(ctx, keyAuthors, loaded)
	return loaded, nil
}

// RefreshHomeProjects recomputes the home listing and replaces the cached
// entry.
func (r *Redis) RefreshHomeProjects(ctx context.Context) error {
	loaded, err := r.source.LoadHomeProjects(ctx)
	if err != nil {
		return err
	}
	r.store(ctx, keyHomeProjects, loaded)
	return nil
}

// ClearAuthors drops the author listing on every instance.
func (r *Redis) ClearAuthors(ctx context.Context) error {
	if err := r.client.Del(ctx, keyAuthors).Err(); err != nil {
		return fmt.Errorf("failed to clear authors cache: %w", err)
	}
	return nil
}

// store caches a value best-effort; a failed write only costs the next
// reader a recompute.
func (r *Redis) store(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	r.client.Set(ctx, key, data, r.ttl)
}
