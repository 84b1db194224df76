package forum

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/lodestone-dev/lodestone/pkg/jobs"
	"github.com/lodestone-dev/lodestone/pkg/observability"
)

// TopicSnapshot is the forum-visible state of a project at execution time.
// Jobs carry only the project id; the executor loads a fresh snapshot so a
// long-delayed job publishes current data, not the state at enqueue time.
type TopicSnapshot struct {
	ProjectID  int64  `json:"project_id"`
	OwnerName  string `json:"owner_name"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	Visibility string `json:"visibility"`
}

// ClientConfig configures the forum client.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	APIUser string
	Timeout time.Duration
}

// Client talks to the Discourse-style discussion forum. Errors are
// classified for the job scheduler: network failures and 5xx responses are
// transient, 4xx responses are permanent.
type Client struct {
	cfg     ClientConfig
	http    *http.Client
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewClient creates a forum client. metrics may be nil.
func NewClient(cfg ClientConfig, logger *observability.Logger, metrics *observability.Metrics) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
		metrics: metrics,
	}
}

// UpdateTopic creates or updates the forum topic for a project. Safe to
// call when the topic already matches the snapshot.
func (c *Client) UpdateTopic(ctx context.Context, snapshot TopicSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return jobs.Permanent(fmt.Errorf("failed to marshal topic snapshot: %w", err))
	}

	url := c.cfg.BaseURL + "/topics/project/" + strconv.FormatInt(snapshot.ProjectID, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return jobs.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	return c.do("update", req, nil)
}

// DeleteTopic removes the forum topic for a project. A topic that is
// already gone counts as success.
func (c *Client) DeleteTopic(ctx context.Context, projectID int64) error {
	url := c.cfg.BaseURL + "/topics/project/" + strconv.FormatInt(projectID, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return jobs.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	c.setAuth(req)

	okStatuses := map[int]bool{http.StatusNotFound: true}
	return c.do("delete", req, okStatuses)
}

func (c *Client) setAuth(req *http.Request) {
	if c.cfg.APIKey != "" {
		req.Header.Set("Api-Key", c.cfg.APIKey)
		req.Header.Set("Api-Username", c.cfg.APIUser)
	}
}

// do sends the request and classifies the outcome. extraOK lists non-2xx
// statuses that still count as success for this operation.
func (c *Client) do(operation string, req *http.Request, extraOK map[int]bool) error {
	resp, err := c.http.Do(req)
	if err != nil {
		c.count(operation, "transient_error")
		return fmt.Errorf("forum request failed: %w", err)
	}
	defer resp.Body.Close()
	// Drain so the connection is reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300, extraOK[resp.StatusCode]:
		c.count(operation, "success")
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		c.count(operation, "permanent_error")
		return jobs.Permanent(fmt.Errorf("forum rejected %s request: status %d", operation, resp.StatusCode))
	default:
		c.count(operation, "transient_error")
		return fmt.Errorf("forum %s request failed: status %d", operation, resp.StatusCode)
	}
}

func (c *Client) count(operation, result string) {
	if c.metrics != nil {
		c.metrics.ForumRequestsTotal.WithLabelValues(operation, result).Inc()
	}
}
