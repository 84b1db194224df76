package jobs

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lodestone-dev/lodestone/pkg/observability"
)

// Executor performs one job type's side effect against the external system.
// Implementations must be idempotent: a crash between execution and outcome
// recording causes a re-claim and re-execution on a later tick, and a target
// entity that no longer exists is a success, not an error.
type Executor interface {
	Execute(ctx context.Context, job Job) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, job Job) error

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, job Job) error {
	return f(ctx, job)
}

// Queue is the slice of the store the scheduler drives.
type Queue interface {
	Claim(ctx context.Context, now time.Time) ([]Job, error)
	MarkDone(ctx context.Context, jobID int64) error
	MarkRetry(ctx context.Context, jobID int64, retries int, nextRunAt time.Time, lastError string) error
	MarkFailed(ctx context.Context, jobID int64, lastError string) error
}

// SchedulerConfig configures the polling scheduler.
type SchedulerConfig struct {
	// CheckInterval is the polling period.
	CheckInterval time.Duration
	// Concurrency bounds how many claimed jobs execute in parallel within
	// one tick.
	Concurrency int
	Retry       RetryConfig
}

// DefaultSchedulerConfig returns the default scheduler configuration.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		CheckInterval: time.Minute,
		Concurrency:   4,
		Retry:         DefaultRetryConfig(),
	}
}

// Scheduler polls the queue on a fixed interval and executes claimed jobs.
// The process owns the ticker loop directly; Stop lets an in-flight tick
// finish before returning.
type Scheduler struct {
	queue     Queue
	executors map[Type]Executor
	policy    *RetryPolicy
	config    SchedulerConfig
	logger    *observability.Logger
	metrics   *observability.Metrics

	mu      sync.Mutex
	stopCh  chan struct{}
	wg      sync.WaitGroup
	started bool
}

// NewScheduler creates a scheduler. metrics may be nil.
func NewScheduler(queue Queue, config SchedulerConfig, logger *observability.Logger, metrics *observability.Metrics) *Scheduler {
	if config.CheckInterval <= 0 {
		config.CheckInterval = DefaultSchedulerConfig().CheckInterval
	}
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultSchedulerConfig().Concurrency
	}
	return &Scheduler{
		queue:     queue,
		executors: make(map[Type]Executor),
		policy:    NewRetryPolicy(config.Retry),
		config:    config,
		logger:    logger,
		metrics:   metrics,
		stopCh:    make(chan struct{}),
	}
}

// Register binds an executor to a job type. Registration happens during
// startup, before Start.
func (s *Scheduler) Register(jobType Type, executor Executor) {
	s.executors[jobType] = executor
}

// Start launches the polling loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.config.CheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.CheckAndProcess(ctx)
			}
		}
	}()
}

// Stop stops accepting new ticks and waits for the in-flight tick to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.started {
		close(s.stopCh)
		s.started = false
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// CheckAndProcess runs one tick: claim every due pending job, execute each
// claimed job once, and record its outcome.
func (s *Scheduler) CheckAndProcess(ctx context.Context) {
	claimed, err := s.queue.Claim(ctx, time.Now())
	if err != nil {
		s.logger.WithError(err).Error("failed to claim jobs")
		return
	}
	if len(claimed) == 0 {
		return
	}
	s.logger.WithField("count", len(claimed)).Debug("claimed jobs")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)
	for _, job := range claimed {
		job := job
		g.Go(func() error {
			s.process(gctx, job)
			return nil
		})
	}
	// Workers only report outcomes through the store; the group never
	// carries an error.
	_ = g.Wait()
}

func (s *Scheduler) process(ctx context.Context, job Job) {
	log := s.logger.WithFields(map[string]interface{}{
		"job_id":   job.ID,
		"job_type": string(job.Type),
		"target":   job.TargetID,
	})

	err := s.execute(ctx, job)
	if err == nil {
		if markErr := s.queue.MarkDone(ctx, job.ID); markErr != nil {
			log.WithError(markErr).Error("failed to record job success")
			return
		}
		s.observe(job.Type, "done")
		log.Debug("job done")
		return
	}

	retries := job.Retries + 1
	if IsPermanent(err) || !s.policy.ShouldRetry(retries) {
		if markErr := s.queue.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
			log.WithError(markErr).Error("failed to record job failure")
			return
		}
		s.observe(job.Type, "failed")
		log.WithError(err).WithField("retries", job.Retries).Error("job failed terminally")
		return
	}

	nextRun := s.policy.NextRetryTime(retries)
	if markErr := s.queue.MarkRetry(ctx, job.ID, retries, nextRun, err.Error()); markErr != nil {
		log.WithError(markErr).Error("failed to record job retry")
		return
	}
	s.observe(job.Type, "retried")
	log.WithError(err).WithFields(map[string]interface{}{
		"retries":     retries,
		"next_run_at": nextRun,
	}).Warn("job failed, scheduled retry")
}

// execute dispatches to the registered executor, converting a panic into a
// transient failure instead of crashing the scheduler.
func (s *Scheduler) execute(ctx context.Context, job Job) (err error) {
	executor, ok := s.executors[job.Type]
	if !ok {
		return Permanent(fmt.Errorf("no executor registered for job type %s", job.Type))
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job executor panicked: %v\n%s", r, debug.Stack())
		}
	}()
	return executor.Execute(ctx, job)
}

func (s *Scheduler) observe(jobType Type, outcome string) {
	if s.metrics != nil {
		s.metrics.JobExecutionsTotal.WithLabelValues(string(jobType), outcome).Inc()
	}
}
