package projects

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/lodestone-dev/lodestone/pkg/async"
	"github.com/lodestone-dev/lodestone/pkg/jobs"
	"github.com/lodestone-dev/lodestone/pkg/members"
	"github.com/lodestone-dev/lodestone/pkg/observability"
	"github.com/lodestone-dev/lodestone/pkg/perms"
)

// Collaborators the factory orchestrates. Interfaces are kept narrow so
// tests can substitute each one independently.

// OwnerResolver resolves an owner id to a user or organization.
type OwnerResolver interface {
	GetOwner(ctx context.Context, ownerID int64) (*Owner, error)
}

// ChannelService creates release channels inside the factory's transaction.
type ChannelService interface {
	CreateTx(ctx context.Context, tx *sql.Tx, projectID int64, name, color string, frozen bool) error
}

// PageService creates content pages inside the factory's transaction.
type PageService interface {
	CreateTx(ctx context.Context, tx *sql.Tx, projectID int64, name, slug, contents string, deletable bool) error
}

// MemberService records the creator's role assignment inside the factory's
// transaction and removes a project's assignments on hard delete. Scope ids
// are polymorphic across projects and organizations, so assignment cleanup
// cannot ride on a foreign key cascade.
type MemberService interface {
	AddAcceptedMemberTx(ctx context.Context, tx *sql.Tx, a members.Assignment) error
	DeleteForScope(ctx context.Context, category perms.Category, scopeID int64) error
}

// JobEnqueuer schedules reconciliation jobs, transactionally during create
// and standalone during rename/delete.
type JobEnqueuer interface {
	EnqueueTx(ctx context.Context, tx *sql.Tx, job jobs.Job) error
	Enqueue(ctx context.Context, job jobs.Job) error
}

// FileArea provisions and removes the on-disk directory backing a project.
type FileArea interface {
	GetProjectDir(ownerName, projectName string) string
	EnsureProjectDir(ownerName, projectName string) error
	DeleteDirectory(path string) error
}

// Caches is the listing caches the factory invalidates after lifecycle
// changes. Both calls are fire-and-forget.
type Caches interface {
	ClearAuthors(ctx context.Context) error
	RefreshHomeProjects(ctx context.Context) error
}

// AuditSink records lifecycle actions for moderation review.
type AuditSink interface {
	ProjectRenamed(ctx context.Context, actorID, projectID int64, before, after string)
	ProjectVisibilityChanged(ctx context.Context, actorID, projectID int64, before, after Visibility, comment string)
	ProjectDeleted(ctx context.Context, actorID, projectID int64, path string)
}

// FactoryConfig carries the externally supplied knobs for project creation.
type FactoryConfig struct {
	MaxNameLen          int
	NamePattern         *regexp.Regexp
	DefaultChannelName  string
	DefaultChannelColor string
	HomePageName        string
	HomePageMessage     string
	CacheRefreshTimeout time.Duration
}

// Factory orchestrates the project lifecycle: create, rename, soft delete
// and hard delete. Local state changes happen inside one database
// transaction; side effects outside the transaction (file area, caches) are
// compensated explicitly on failure.
type Factory struct {
	cfg      FactoryConfig
	store    *Store
	owners   OwnerResolver
	channels ChannelService
	pages    PageService
	members  MemberService
	queue    JobEnqueuer
	files    FileArea
	caches   Caches
	audit    AuditSink
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// NewFactory wires the lifecycle orchestrator.
func NewFactory(
	cfg FactoryConfig,
	store *Store,
	owners OwnerResolver,
	channels ChannelService,
	pages PageService,
	memberSvc MemberService,
	queue JobEnqueuer,
	files FileArea,
	caches Caches,
	auditSink AuditSink,
	logger *observability.Logger,
	metrics *observability.Metrics,
) *Factory {
	return &Factory{
		cfg:      cfg,
		store:    store,
		owners:   owners,
		channels: channels,
		pages:    pages,
		members:  memberSvc,
		queue:    queue,
		files:    files,
		caches:   caches,
		audit:    auditSink,
		logger:   logger,
		metrics:  metrics,
	}
}

// validateName checks the compacted name against length and pattern limits.
// Runs before any uniqueness query so malformed input never hits the
// database.
func (f *Factory) validateName(compacted string) error {
	if len(compacted) == 0 || len(compacted) > f.cfg.MaxNameLen {
		return ErrInvalidName
	}
	if f.cfg.NamePattern != nil && !f.cfg.NamePattern.MatchString(compacted) {
		return ErrInvalidName
	}
	return nil
}

// CreateProject creates a project with its default channel, owner
// membership, home page and forum-sync job in one transaction, then
// provisions the file area. If file provisioning fails the committed row is
// deleted again before the original error is returned.
func (f *Factory) CreateProject(ctx context.Context, form NewProjectForm) (*Project, error) {
	owner, err := f.owners.GetOwner(ctx, form.OwnerID)
	if err != nil {
		f.countOp("create", "rejected")
		return nil, err
	}

	name := Compact(form.Name)
	if err := f.validateName(name); err != nil {
		f.countOp("create", "rejected")
		return nil, err
	}
	slug := Slugify(name)

	if err := f.store.CheckAvailability(ctx, owner.ID, name, slug, 0); err != nil {
		f.countOp("create", "rejected")
		return nil, err
	}

	project := &Project{
		OwnerID:    owner.ID,
		OwnerName:  owner.Name,
		Name:       name,
		Slug:       slug,
		Visibility: VisibilityNew,
	}

	if err := f.createInTx(ctx, owner, project, form.PageContent); err != nil {
		f.countOp("create", "error")
		return nil, err
	}

	// The file area lives outside the storage transaction. A failure here
	// must not leave an orphaned project row, so compensate with a manual
	// delete before surfacing the original error unchanged.
	if err := f.files.EnsureProjectDir(owner.Name, project.Name); err != nil {
		f.compensateCreate(ctx, owner, project)
		f.countOp("create", "error")
		return nil, err
	}

	f.countOp("create", "success")
	f.refreshListings(true)
	return project, nil
}

func (f *Factory) createInTx(ctx context.Context, owner *Owner, project *Project, pageContent string) error {
	tx, err := f.store.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := f.store.InsertTx(ctx, tx, project); err != nil {
		return err
	}
	if err := f.channels.CreateTx(ctx, tx, project.ID, f.cfg.DefaultChannelName, f.cfg.DefaultChannelColor, false); err != nil {
		return err
	}

	assignment := members.NewAssignment(perms.ProjectOwner, project.ID, owner.UserID, true)
	if err := f.members.AddAcceptedMemberTx(ctx, tx, assignment); err != nil {
		return err
	}

	contents := pageContent
	if contents == "" {
		contents = f.cfg.HomePageMessage
	}
	pageSlug := Slugify(f.cfg.HomePageName)
	if err := f.pages.CreateTx(ctx, tx, project.ID, f.cfg.HomePageName, pageSlug, contents, false); err != nil {
		return err
	}

	if err := f.queue.EnqueueTx(ctx, tx, jobs.NewForumTopicUpdate(project.ID)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit project creation: %w", err)
	}
	return nil
}

// compensateCreate undoes a committed creation whose post-transaction
// provisioning failed. Compensation failures are logged, not returned, so
// the original error stays visible to the caller.
func (f *Factory) compensateCreate(ctx context.Context, owner *Owner, project *Project) {
	if err := f.store.Delete(ctx, project.ID); err != nil {
		f.logger.
			WithError(err).
			WithField("project_id", project.ID).
			Error("compensating project delete failed, row is orphaned")
	}
	if err := f.files.DeleteDirectory(f.files.GetProjectDir(owner.Name, project.Name)); err != nil {
		f.logger.
			WithError(err).
			WithField("project_id", project.ID).
			Warn("compensating file-area delete failed")
	}
}

// RenameProject renames the project identified by owner name and slug and
// returns the new slug. Renaming a project to its own current name is a
// no-op success.
func (f *Factory) RenameProject(ctx context.Context, actorID int64, ownerName, slug, newName string) (string, error) {
	project, err := f.store.GetByOwnerAndSlug(ctx, ownerName, slug)
	if err != nil {
		f.countOp("rename", "rejected")
		return "", err
	}

	compacted := Compact(newName)
	if err := f.validateName(compacted); err != nil {
		f.countOp("rename", "rejected")
		return "", err
	}
	if compacted == project.Name {
		f.countOp("rename", "success")
		return project.Slug, nil
	}
	newSlug := Slugify(compacted)

	if err := f.store.CheckAvailability(ctx, project.OwnerID, compacted, newSlug, project.ID); err != nil {
		f.countOp("rename", "rejected")
		return "", err
	}

	oldPath := project.OwnerName + "/" + project.Name
	project.Name = compacted
	project.Slug = newSlug
	if err := f.store.Update(ctx, project); err != nil {
		f.countOp("rename", "error")
		return "", err
	}

	f.audit.ProjectRenamed(ctx, actorID, project.ID, oldPath, project.OwnerName+"/"+project.Name)
	if err := f.queue.Enqueue(ctx, jobs.NewForumTopicUpdate(project.ID)); err != nil {
		f.logger.WithError(err).WithField("project_id", project.ID).Error("failed to enqueue forum update after rename")
	}

	f.countOp("rename", "success")
	f.refreshListings(false)
	return newSlug, nil
}

// SoftDelete tombstones a project. A project still in its initial NEW state
// has no public presence worth preserving and is hard deleted instead.
func (f *Factory) SoftDelete(ctx context.Context, actorID int64, project *Project, comment string) error {
	if project.Visibility == VisibilityNew {
		return f.HardDelete(ctx, actorID, project)
	}

	if err := f.queue.Enqueue(ctx, jobs.NewForumTopicUpdate(project.ID)); err != nil {
		f.logger.WithError(err).WithField("project_id", project.ID).Error("failed to enqueue forum update for soft delete")
	}
	if err := f.store.UpdateVisibility(ctx, project.ID, VisibilitySoftDelete); err != nil {
		f.countOp("soft_delete", "error")
		return err
	}
	f.audit.ProjectVisibilityChanged(ctx, actorID, project.ID, project.Visibility, VisibilitySoftDelete, comment)
	project.Visibility = VisibilitySoftDelete

	f.countOp("soft_delete", "success")
	f.refreshListings(false)
	return nil
}

// HardDelete removes the project row, its file area and its forum topic.
// Irreversible.
func (f *Factory) HardDelete(ctx context.Context, actorID int64, project *Project) error {
	path := project.OwnerName + "/" + project.Name
	f.audit.ProjectDeleted(ctx, actorID, project.ID, path)

	if err := f.files.DeleteDirectory(f.files.GetProjectDir(project.OwnerName, project.Name)); err != nil {
		f.logger.WithError(err).WithField("project", path).Warn("failed to delete project file area")
	}
	if err := f.queue.Enqueue(ctx, jobs.NewForumTopicDelete(project.ID)); err != nil {
		f.logger.WithError(err).WithField("project_id", project.ID).Error("failed to enqueue forum delete")
	}
	if err := f.members.DeleteForScope(ctx, perms.CategoryProject, project.ID); err != nil {
		f.logger.WithError(err).WithField("project_id", project.ID).Warn("failed to remove project role assignments")
	}
	if err := f.store.Delete(ctx, project.ID); err != nil {
		f.countOp("hard_delete", "error")
		return err
	}

	f.countOp("hard_delete", "success")
	f.refreshListings(true)
	return nil
}

// refreshListings invalidates the cached listings a lifecycle change makes
// stale. Fire-and-forget: listing staleness is tolerable, blocking the
// caller on cache churn is not.
func (f *Factory) refreshListings(authorsChanged bool) {
	if f.caches == nil {
		return
	}
	timeout := f.cfg.CacheRefreshTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if authorsChanged {
		async.SafeGo(f.logger, timeout, "clear authors cache", f.caches.ClearAuthors)
	}
	async.SafeGo(f.logger, timeout, "refresh home projects", f.caches.RefreshHomeProjects)
}

func (f *Factory) countOp(operation, result string) {
	if f.metrics != nil {
		f.metrics.ProjectOpsTotal.WithLabelValues(operation, result).Inc()
	}
}
