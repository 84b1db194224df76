package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodestone-dev/lodestone/pkg/observability"
	"github.com/lodestone-dev/lodestone/pkg/perms"
	"github.com/lodestone-dev/lodestone/pkg/projects"
)

type fakeListings struct {
	home    []projects.Project
	authors []string
	err     error
}

func (f *fakeListings) HomeProjects(context.Context) ([]projects.Project, error) {
	return f.home, f.err
}

func (f *fakeListings) Authors(context.Context) ([]string, error) {
	return f.authors, f.err
}

func (f *fakeListings) RefreshHomeProjects(context.Context) error { return nil }
func (f *fakeListings) ClearAuthors(context.Context) error        { return nil }

func newListingRouter(t *testing.T, listings *fakeListings) *mux.Router {
	t.Helper()
	registry, err := perms.BuildRegistry()
	require.NoError(t, err)
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	router := mux.NewRouter()
	NewListingHandlers(listings, registry, logger).RegisterRoutes(router)
	return router
}

func get(router *mux.Router, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	return rec
}

func TestHomeProjects(t *testing.T) {
	listings := &fakeListings{home: []projects.Project{
		{ID: 1, Name: "Tool", Slug: "tool", Visibility: projects.VisibilityPublic},
	}}
	router := newListingRouter(t, listings)

	rec := get(router, "/api/v1/home")

	require.Equal(t, http.StatusOK, rec.Code)
	var got []projects.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "tool", got[0].Slug)
}

func TestAuthors(t *testing.T) {
	router := newListingRouter(t, &fakeListings{authors: []string{"alice", "bob"}})

	rec := get(router, "/api/v1/authors")

	require.Equal(t, http.StatusOK, rec.Code)
	var got []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []string{"alice", "bob"}, got)
}

func TestListings_SourceFailure(t *testing.T) {
	router := newListingRouter(t, &fakeListings{err: errors.New("db down")})

	rec := get(router, "/api/v1/home")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestListRoles(t *testing.T) {
	router := newListingRouter(t, &fakeListings{})

	t.Run("project roles in order", func(t *testing.T) {
		rec := get(router, "/api/v1/roles/project")

		require.Equal(t, http.StatusOK, rec.Code)
		var roles []perms.Role
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roles))
		require.Len(t, roles, 4)
		assert.Equal(t, "Project_Owner", roles[0].Value)
	})

	t.Run("assignable filter drops owner", func(t *testing.T) {
		rec := get(router, "/api/v1/roles/project?assignable=true")

		require.Equal(t, http.StatusOK, rec.Code)
		var roles []perms.Role
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roles))
		require.Len(t, roles, 3)
		for _, role := range roles {
			assert.True(t, role.Assignable)
		}
	})

	t.Run("unknown category", func(t *testing.T) {
		rec := get(router, "/api/v1/roles/galaxy")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
