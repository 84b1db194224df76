package audit

import (
	"context"

	"github.com/lodestone-dev/lodestone/pkg/observability"
	"github.com/lodestone-dev/lodestone/pkg/projects"
)

// ProjectAudit adapts a Logger to the lifecycle orchestrator's sink. Audit
// failures are logged and swallowed: a lost audit entry must not fail the
// user-facing operation it describes.
type ProjectAudit struct {
	audit  Logger
	logger *observability.Logger
}

// NewProjectAudit creates the lifecycle audit sink.
func NewProjectAudit(audit Logger, logger *observability.Logger) *ProjectAudit {
	return &ProjectAudit{audit: audit, logger: logger}
}

// ProjectRenamed records a rename with the old and new "owner/name" paths.
func (a *ProjectAudit) ProjectRenamed(ctx context.Context, actorID, projectID int64, before, after string) {
	a.record(ctx, NewEntry(ActionProjectRenamed, actorID, projectID, before, after, ""))
}

// ProjectVisibilityChanged records a visibility transition.
func (a *ProjectAudit) ProjectVisibilityChanged(ctx context.Context, actorID, projectID int64, before, after projects.Visibility, comment string) {
	a.record(ctx, NewEntry(ActionProjectVisibilityChanged, actorID, projectID, string(before), string(after), comment))
}

// ProjectDeleted records a hard delete with the project's last path.
func (a *ProjectAudit) ProjectDeleted(ctx context.Context, actorID, projectID int64, path string) {
	a.record(ctx, NewEntry(ActionProjectDeleted, actorID, projectID, path, "", ""))
}

func (a *ProjectAudit) record(ctx context.Context, entry Entry) {
	if err := a.audit.Record(ctx, entry); err != nil {
		a.logger.
			WithError(err).
			WithField("action", string(entry.Action)).
			WithField("project_id", entry.ProjectID).
			Error("failed to record audit entry")
	}
}
