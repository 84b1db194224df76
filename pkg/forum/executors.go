package forum

import (
	"context"
	"errors"

	"github.com/lodestone-dev/lodestone/pkg/jobs"
	"github.com/lodestone-dev/lodestone/pkg/observability"
	"github.com/lodestone-dev/lodestone/pkg/projects"
)

// ProjectLoader loads the current project state for a snapshot.
type ProjectLoader interface {
	GetByID(ctx context.Context, projectID int64) (*projects.Project, error)
}

// TopicClient is the slice of the forum client the executors use.
type TopicClient interface {
	UpdateTopic(ctx context.Context, snapshot TopicSnapshot) error
	DeleteTopic(ctx context.Context, projectID int64) error
}

// Executors adapts the forum client to the job scheduler. Both executors
// are idempotent so at-least-once delivery is safe.
type Executors struct {
	client TopicClient
	loader ProjectLoader
	logger *observability.Logger
}

// NewExecutors creates the forum job executors.
func NewExecutors(client TopicClient, loader ProjectLoader, logger *observability.Logger) *Executors {
	return &Executors{client: client, loader: loader, logger: logger}
}

// UpdateTopic executes a forum_topic_update job. A project deleted between
// enqueue and execution has nothing to sync, so a missing row is success.
func (e *Executors) UpdateTopic(ctx context.Context, job jobs.Job) error {
	project, err := e.loader.GetByID(ctx, job.TargetID)
	if errors.Is(err, projects.ErrProjectNotFound) {
		e.logger.WithField("project_id", job.TargetID).Debug("project gone before topic update, skipping")
		return nil
	}
	if err != nil {
		return err
	}
	return e.client.UpdateTopic(ctx, TopicSnapshot{
		ProjectID:  project.ID,
		OwnerName:  project.OwnerName,
		Name:       project.Name,
		Slug:       project.Slug,
		Visibility: string(project.Visibility),
	})
}

// DeleteTopic executes a forum_topic_delete job.
func (e *Executors) DeleteTopic(ctx context.Context, job jobs.Job) error {
	return e.client.DeleteTopic(ctx, job.TargetID)
}

// Register binds both executors to their job types.
func (e *Executors) Register(s *jobs.Scheduler) {
	s.Register(jobs.TypeForumTopicUpdate, jobs.ExecutorFunc(e.UpdateTopic))
	s.Register(jobs.TypeForumTopicDelete, jobs.ExecutorFunc(e.DeleteTopic))
}
