package members

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodestone-dev/lodestone/pkg/perms"
)

type fakeLister struct {
	assignments []Assignment
	err         error
}

func (f *fakeLister) ListForUser(ctx context.Context, userID int64) ([]Assignment, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []Assignment
	for _, a := range f.assignments {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func newTestResolver(t *testing.T, assignments ...Assignment) *Resolver {
	t.Helper()
	reg, err := perms.BuildRegistry()
	require.NoError(t, err)
	return NewResolver(&fakeLister{assignments: assignments}, reg)
}

func TestProjectPermissionsUnionOfAllRoles(t *testing.T) {
	const userID, projectID = int64(7), int64(100)

	// A member holding both Support and Developer gets the union, not just
	// the higher-ranked role.
	r := newTestResolver(t,
		NewAssignment(perms.ProjectSupport, projectID, userID, true),
		NewAssignment(perms.ProjectDeveloper, projectID, userID, true),
	)

	p, err := r.ProjectPermissions(context.Background(), userID, projectID, 0)
	require.NoError(t, err)
	assert.True(t, p.Has(perms.ProjectSupport.Permissions))
	assert.True(t, p.Has(perms.ProjectDeveloper.Permissions))
	assert.False(t, p.Has(perms.DeleteProject))
}

func TestProjectPermissionsIgnoresPendingInvites(t *testing.T) {
	const userID, projectID = int64(7), int64(100)

	r := newTestResolver(t,
		NewAssignment(perms.ProjectDeveloper, projectID, userID, false),
	)

	p, err := r.ProjectPermissions(context.Background(), userID, projectID, 0)
	require.NoError(t, err)
	assert.False(t, p.Has(perms.CreateVersion))
	assert.True(t, p.Has(perms.ViewPublicInfo))
}

func TestProjectPermissionsIgnoresOtherScopes(t *testing.T) {
	const userID = int64(7)

	r := newTestResolver(t,
		NewAssignment(perms.ProjectOwner, 200, userID, true),
	)

	p, err := r.ProjectPermissions(context.Background(), userID, 100, 0)
	require.NoError(t, err)
	assert.False(t, p.Has(perms.IsProjectOwner))
}

func TestOrgMembershipGrantsProjectView(t *testing.T) {
	const userID, projectID, orgID = int64(7), int64(100), int64(55)

	reg, err := perms.BuildRegistry()
	require.NoError(t, err)

	for _, role := range reg.Values(perms.CategoryOrganization) {
		r := newTestResolver(t, NewAssignment(role, orgID, userID, true))

		p, err := r.ProjectPermissions(context.Background(), userID, projectID, orgID)
		require.NoError(t, err)

		want, ok := perms.OrgProjectPermissions(role.ID)
		require.True(t, ok)
		assert.True(t, p.Has(want), "org role %s project view", role.Value)
	}
}

func TestOrgMembershipDoesNotLeakToForeignProjects(t *testing.T) {
	const userID, projectID, orgID = int64(7), int64(100), int64(55)

	r := newTestResolver(t, NewAssignment(perms.OrganizationAdmin, orgID, userID, true))

	// Project owned by a user, not by the organization.
	p, err := r.ProjectPermissions(context.Background(), userID, projectID, 0)
	require.NoError(t, err)
	assert.False(t, p.Has(perms.ManageProjectMembers))
}

func TestGlobalPermissionsFeedIntoEveryScope(t *testing.T) {
	const userID = int64(7)

	r := newTestResolver(t, NewAssignment(perms.PlatformModerator, 0, userID, true))

	p, err := r.ProjectPermissions(context.Background(), userID, 100, 0)
	require.NoError(t, err)
	assert.True(t, p.Has(perms.SeeHidden))
	assert.True(t, p.Has(perms.IsStaff))
}

func TestOrganizationPermissions(t *testing.T) {
	const userID, orgID = int64(7), int64(55)

	r := newTestResolver(t, NewAssignment(perms.OrganizationEditor, orgID, userID, true))

	p, err := r.OrganizationPermissions(context.Background(), userID, orgID)
	require.NoError(t, err)
	assert.True(t, p.Has(perms.PostAsOrganization))
	assert.True(t, p.Has(perms.EditPage))
	assert.False(t, p.Has(perms.IsOrganizationOwner))
}

func TestHighestRoleIsDisplayOnly(t *testing.T) {
	const userID, projectID = int64(7), int64(100)

	support := NewAssignment(perms.ProjectSupport, projectID, userID, true)
	developer := NewAssignment(perms.ProjectDeveloper, projectID, userID, true)

	r := newTestResolver(t, support, developer)

	role, ok := r.HighestRole([]Assignment{support, developer}, perms.CategoryProject, projectID)
	require.True(t, ok)
	assert.Equal(t, perms.ProjectDeveloper.ID, role.ID)

	_, ok = r.HighestRole(nil, perms.CategoryProject, projectID)
	assert.False(t, ok)
}
