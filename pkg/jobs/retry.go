package jobs

import (
	"math"
	"time"
)

// RetryConfig configures retry behavior for failed jobs.
type RetryConfig struct {
	MaxRetries        int           `json:"max_retries"`
	InitialDelay      time.Duration `json:"initial_delay"`
	MaxDelay          time.Duration `json:"max_delay"`
	BackoffMultiplier float64       `json:"backoff_multiplier"`
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        5,
		InitialDelay:      30 * time.Second,
		MaxDelay:          30 * time.Minute,
		BackoffMultiplier: 2.0,
	}
}

// RetryPolicy implements exponential backoff retry logic.
type RetryPolicy struct {
	config RetryConfig
}

// NewRetryPolicy creates a retry policy, backfilling unset fields with
// defaults.
func NewRetryPolicy(config RetryConfig) *RetryPolicy {
	def := DefaultRetryConfig()
	if config.MaxRetries <= 0 {
		config.MaxRetries = def.MaxRetries
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = def.InitialDelay
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = def.MaxDelay
	}
	if config.BackoffMultiplier <= 1.0 {
		config.BackoffMultiplier = def.BackoffMultiplier
	}
	return &RetryPolicy{config: config}
}

// ShouldRetry reports whether a job that has now failed `retries` times may
// be attempted again. A job reaches the terminal failed state only once its
// failure count exceeds the configured maximum.
func (p *RetryPolicy) ShouldRetry(retries int) bool {
	return retries <= p.config.MaxRetries
}

// NextRetryDelay returns the backoff before the next attempt, growing
// exponentially with the failure count and capped at MaxDelay.
func (p *RetryPolicy) NextRetryDelay(retries int) time.Duration {
	if retries <= 1 {
		return p.config.InitialDelay
	}
	delay := float64(p.config.InitialDelay) * math.Pow(p.config.BackoffMultiplier, float64(retries-1))
	if delay > float64(p.config.MaxDelay) {
		return p.config.MaxDelay
	}
	return time.Duration(delay)
}

// NextRetryTime returns when the next attempt becomes eligible.
func (p *RetryPolicy) NextRetryTime(retries int) time.Time {
	return time.Now().Add(p.NextRetryDelay(retries))
}
