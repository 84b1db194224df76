package projects

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodestone-dev/lodestone/pkg/jobs"
	"github.com/lodestone-dev/lodestone/pkg/members"
	"github.com/lodestone-dev/lodestone/pkg/observability"
	"github.com/lodestone-dev/lodestone/pkg/perms"
)

type fakeOwners struct {
	owner *Owner
	err   error
}

func (f *fakeOwners) GetOwner(ctx context.Context, ownerID int64) (*Owner, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.owner, nil
}

type fakeChannels struct {
	err   error
	calls int
}

func (f *fakeChannels) CreateTx(ctx context.Context, tx *sql.Tx, projectID int64, name, color string, frozen bool) error {
	f.calls++
	return f.err
}

type fakePages struct {
	err   error
	calls int
}

func (f *fakePages) CreateTx(ctx context.Context, tx *sql.Tx, projectID int64, name, slug, contents string, deletable bool) error {
	f.calls++
	return f.err
}

type fakeMembers struct {
	err           error
	added         []members.Assignment
	removedScopes []int64
}

func (f *fakeMembers) AddAcceptedMemberTx(ctx context.Context, tx *sql.Tx, a members.Assignment) error {
	if f.err != nil {
		return f.err
	}
	f.added = append(f.added, a)
	return nil
}

func (f *fakeMembers) DeleteForScope(ctx context.Context, category perms.Category, scopeID int64) error {
	f.removedScopes = append(f.removedScopes, scopeID)
	return nil
}

type fakeQueue struct {
	txJobs []jobs.Job
	jobs   []jobs.Job
	txErr  error
	err    error
}

func (f *fakeQueue) EnqueueTx(ctx context.Context, tx *sql.Tx, job jobs.Job) error {
	if f.txErr != nil {
		return f.txErr
	}
	f.txJobs = append(f.txJobs, job)
	return nil
}

func (f *fakeQueue) Enqueue(ctx context.Context, job jobs.Job) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

type fakeFiles struct {
	ensureErr error
	ensured   []string
	deleted   []string
}

func (f *fakeFiles) GetProjectDir(ownerName, projectName string) string {
	return "/data/" + ownerName + "/" + projectName
}

func (f *fakeFiles) EnsureProjectDir(ownerName, projectName string) error {
	if f.ensureErr != nil {
		return f.ensureErr
	}
	f.ensured = append(f.ensured, f.GetProjectDir(ownerName, projectName))
	return nil
}

func (f *fakeFiles) DeleteDirectory(path string) error {
	f.deleted = append(f.deleted, path)
	return nil
}

type auditedRename struct{ before, after string }

type fakeAudit struct {
	renames    []auditedRename
	visibility []string
	deletes    []string
}

func (f *fakeAudit) ProjectRenamed(ctx context.Context, actorID, projectID int64, before, after string) {
	f.renames = append(f.renames, auditedRename{before, after})
}

func (f *fakeAudit) ProjectVisibilityChanged(ctx context.Context, actorID, projectID int64, before, after Visibility, comment string) {
	f.visibility = append(f.visibility, string(before)+"->"+string(after)+": "+comment)
}

func (f *fakeAudit) ProjectDeleted(ctx context.Context, actorID, projectID int64, path string) {
	f.deletes = append(f.deletes, path)
}

type factoryFixture struct {
	factory  *Factory
	mock     sqlmock.Sqlmock
	owners   *fakeOwners
	channels *fakeChannels
	pages    *fakePages
	members  *fakeMembers
	queue    *fakeQueue
	files    *fakeFiles
	audit    *fakeAudit
}

func newFactoryFixture(t *testing.T) *factoryFixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	fx := &factoryFixture{
		mock:     mock,
		owners:   &fakeOwners{owner: &Owner{ID: 1, UserID: 10, Name: "alice"}},
		channels: &fakeChannels{},
		pages:    &fakePages{},
		members:  &fakeMembers{},
		queue:    &fakeQueue{},
		files:    &fakeFiles{},
		audit:    &fakeAudit{},
	}

	cfg := FactoryConfig{
		MaxNameLen:          28,
		NamePattern:         regexp.MustCompile(`^[a-zA-Z0-9 _.-]+$`),
		DefaultChannelName:  "Release",
		DefaultChannelColor: "00E1E1",
		HomePageName:        "Home",
		HomePageMessage:     "Welcome to your new project!",
	}
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	fx.factory = NewFactory(cfg, NewStore(db), fx.owners, fx.channels, fx.pages,
		fx.members, fx.queue, fx.files, nil, fx.audit, logger, nil)
	return fx
}

func (fx *factoryFixture) expectAvailability(nameTaken, slugTaken bool) {
	fx.mock.ExpectQuery(`SELECT\s+EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"name_taken", "slug_taken"}).AddRow(nameTaken, slugTaken))
}

func projectRow(id int64, ownerID int64, ownerName, name, slug string, v Visibility) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "owner_id", "owner_name", "name", "slug", "visibility", "created_at", "updated_at"}).
		AddRow(id, ownerID, ownerName, name, slug, string(v), now, now)
}

func TestCreateProject(t *testing.T) {
	t.Run("success creates row, channel, member, page and job in one transaction", func(t *testing.T) {
		fx := newFactoryFixture(t)
		fx.expectAvailability(false, false)
		fx.mock.ExpectBegin()
		fx.mock.ExpectQuery(`INSERT INTO projects`).
			WithArgs(int64(1), "alice", "My Cool Plugin", "my-cool-plugin", string(VisibilityNew)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow(int64(5), time.Now(), time.Now()))
		fx.mock.ExpectCommit()

		p, err := fx.factory.CreateProject(context.Background(), NewProjectForm{OwnerID: 1, Name: "  My   Cool Plugin "})
		require.NoError(t, err)
		assert.Equal(t, int64(5), p.ID)
		assert.Equal(t, "My Cool Plugin", p.Name)
		assert.Equal(t, "my-cool-plugin", p.Slug)
		assert.Equal(t, VisibilityNew, p.Visibility)

		assert.Equal(t, 1, fx.channels.calls)
		assert.Equal(t, 1, fx.pages.calls)
		require.Len(t, fx.members.added, 1)
		assert.Equal(t, perms.ProjectOwner.ID, fx.members.added[0].RoleID)
		assert.Equal(t, int64(10), fx.members.added[0].UserID)
		assert.True(t, fx.members.added[0].Accepted)
		require.Len(t, fx.queue.txJobs, 1)
		assert.Equal(t, jobs.TypeForumTopicUpdate, fx.queue.txJobs[0].Type)
		assert.Equal(t, []string{"/data/alice/My Cool Plugin"}, fx.files.ensured)
		require.NoError(t, fx.mock.ExpectationsWereMet())
	})

	t.Run("owner not found", func(t *testing.T) {
		fx := newFactoryFixture(t)
		fx.owners.err = ErrOwnerNotFound

		_, err := fx.factory.CreateProject(context.Background(), NewProjectForm{OwnerID: 99, Name: "Fine"})
		assert.ErrorIs(t, err, ErrOwnerNotFound)
		require.NoError(t, fx.mock.ExpectationsWereMet())
	})

	t.Run("invalid name short-circuits before any uniqueness query", func(t *testing.T) {
		fx := newFactoryFixture(t)
		for _, name := range []string{"", "   ", "way too long a name for the configured limit", "bad|chars!"} {
			_, err := fx.factory.CreateProject(context.Background(), NewProjectForm{OwnerID: 1, Name: name})
			assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)
		}
		require.NoError(t, fx.mock.ExpectationsWereMet())
	})

	t.Run("name collision wins over slug collision", func(t *testing.T) {
		fx := newFactoryFixture(t)
		fx.expectAvailability(true, true)

		_, err := fx.factory.CreateProject(context.Background(), NewProjectForm{OwnerID: 1, Name: "Taken"})
		assert.ErrorIs(t, err, ErrNameTaken)
		require.NoError(t, fx.mock.ExpectationsWereMet())
	})

	t.Run("slug collision", func(t *testing.T) {
		fx := newFactoryFixture(t)
		fx.expectAvailability(false, true)

		_, err := fx.factory.CreateProject(context.Background(), NewProjectForm{OwnerID: 1, Name: "Taken"})
		assert.ErrorIs(t, err, ErrSlugTaken)
		require.NoError(t, fx.mock.ExpectationsWereMet())
	})

	t.Run("page failure rolls back and propagates the original error", func(t *testing.T) {
		fx := newFactoryFixture(t)
		pageErr := errors.New("page store unavailable")
		fx.pages.err = pageErr

		fx.expectAvailability(false, false)
		fx.mock.ExpectBegin()
		fx.mock.ExpectQuery(`INSERT INTO projects`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow(int64(5), time.Now(), time.Now()))
		fx.mock.ExpectRollback()

		_, err := fx.factory.CreateProject(context.Background(), NewProjectForm{OwnerID: 1, Name: "Doomed"})
		assert.Same(t, pageErr, err)
		assert.Empty(t, fx.queue.txJobs)
		assert.Empty(t, fx.files.ensured)
		require.NoError(t, fx.mock.ExpectationsWereMet())
	})

	t.Run("file provisioning failure compensates with a row delete", func(t *testing.T) {
		fx := newFactoryFixture(t)
		diskErr := errors.New("disk full")
		fx.files.ensureErr = diskErr

		fx.expectAvailability(false, false)
		fx.mock.ExpectBegin()
		fx.mock.ExpectQuery(`INSERT INTO projects`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow(int64(5), time.Now(), time.Now()))
		fx.mock.ExpectCommit()
		fx.mock.ExpectExec(`DELETE FROM projects`).
			WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		_, err := fx.factory.CreateProject(context.Background(), NewProjectForm{OwnerID: 1, Name: "Doomed"})
		assert.Same(t, diskErr, err)
		assert.Equal(t, []string{"/data/alice/Doomed"}, fx.files.deleted)
		require.NoError(t, fx.mock.ExpectationsWereMet())
	})
}

func TestRenameProject(t *testing.T) {
	t.Run("renaming to the current name is a no-op success", func(t *testing.T) {
		fx := newFactoryFixture(t)
		fx.mock.ExpectQuery(`SELECT .+ FROM projects WHERE owner_name`).
			WithArgs("alice", "my-plugin").
			WillReturnRows(projectRow(5, 1, "alice", "My Plugin", "my-plugin", VisibilityPublic))

		slug, err := fx.factory.RenameProject(context.Background(), 10, "alice", "my-plugin", "  My   Plugin ")
		require.NoError(t, err)
		assert.Equal(t, "my-plugin", slug)
		assert.Empty(t, fx.audit.renames)
		assert.Empty(t, fx.queue.jobs)
		require.NoError(t, fx.mock.ExpectationsWereMet())
	})

	t.Run("success updates name and slug, audits and enqueues a sync job", func(t *testing.T) {
		fx := newFactoryFixture(t)
		fx.mock.ExpectQuery(`SELECT .+ FROM projects WHERE owner_name`).
			WithArgs("alice", "old-name").
			WillReturnRows(projectRow(5, 1, "alice", "Old Name", "old-name", VisibilityPublic))
		fx.expectAvailability(false, false)
		fx.mock.ExpectExec(`UPDATE projects SET name`).
			WithArgs("New Name", "new-name", int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		slug, err := fx.factory.RenameProject(context.Background(), 10, "alice", "old-name", "New Name")
		require.NoError(t, err)
		assert.Equal(t, "new-name", slug)

		require.Len(t, fx.audit.renames, 1)
		assert.Equal(t, "alice/Old Name", fx.audit.renames[0].before)
		assert.Equal(t, "alice/New Name", fx.audit.renames[0].after)
		require.Len(t, fx.queue.jobs, 1)
		assert.Equal(t, jobs.TypeForumTopicUpdate, fx.queue.jobs[0].Type)
		require.NoError(t, fx.mock.ExpectationsWereMet())
	})

	t.Run("unknown project", func(t *testing.T) {
		fx := newFactoryFixture(t)
		fx.mock.ExpectQuery(`SELECT .+ FROM projects WHERE owner_name`).
			WithArgs("alice", "ghost").
			WillReturnError(sql.ErrNoRows)

		_, err := fx.factory.RenameProject(context.Background(), 10, "alice", "ghost", "New Name")
		assert.ErrorIs(t, err, ErrProjectNotFound)
		require.NoError(t, fx.mock.ExpectationsWereMet())
	})
}

func TestSoftDelete(t *testing.T) {
	t.Run("published project becomes a tombstone", func(t *testing.T) {
		fx := newFactoryFixture(t)
		project := &Project{ID: 5, OwnerID: 1, OwnerName: "alice", Name: "My Plugin", Slug: "my-plugin", Visibility: VisibilityPublic}

		fx.mock.ExpectExec(`UPDATE projects SET visibility`).
			WithArgs(string(VisibilitySoftDelete), int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, fx.factory.SoftDelete(context.Background(), 10, project, "spam"))
		assert.Equal(t, VisibilitySoftDelete, project.Visibility)
		require.Len(t, fx.queue.jobs, 1)
		assert.Equal(t, jobs.TypeForumTopicUpdate, fx.queue.jobs[0].Type)
		require.Len(t, fx.audit.visibility, 1)
		assert.Contains(t, fx.audit.visibility[0], "spam")
		assert.Empty(t, fx.audit.deletes)
		require.NoError(t, fx.mock.ExpectationsWereMet())
	})

	t.Run("project still in NEW state is hard deleted instead", func(t *testing.T) {
		fx := newFactoryFixture(t)
		project := &Project{ID: 5, OwnerID: 1, OwnerName: "alice", Name: "My Plugin", Slug: "my-plugin", Visibility: VisibilityNew}

		fx.mock.ExpectExec(`DELETE FROM projects`).
			WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, fx.factory.SoftDelete(context.Background(), 10, project, "never published"))
		assert.Equal(t, []string{"alice/My Plugin"}, fx.audit.deletes)
		assert.Equal(t, []string{"/data/alice/My Plugin"}, fx.files.deleted)
		require.Len(t, fx.queue.jobs, 1)
		assert.Equal(t, jobs.TypeForumTopicDelete, fx.queue.jobs[0].Type)
		require.NoError(t, fx.mock.ExpectationsWereMet())
	})
}

func TestHardDelete(t *testing.T) {
	fx := newFactoryFixture(t)
	project := &Project{ID: 7, OwnerID: 1, OwnerName: "alice", Name: "Gone", Slug: "gone", Visibility: VisibilityPublic}

	fx.mock.ExpectExec(`DELETE FROM projects`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, fx.factory.HardDelete(context.Background(), 10, project))
	assert.Equal(t, []string{"alice/Gone"}, fx.audit.deletes)
	assert.Equal(t, []string{"/data/alice/Gone"}, fx.files.deleted)
	assert.Equal(t, []int64{7}, fx.members.removedScopes)
	require.Len(t, fx.queue.jobs, 1)
	assert.Equal(t, jobs.TypeForumTopicDelete, fx.queue.jobs[0].Type)
	require.NoError(t, fx.mock.ExpectationsWereMet())
}
