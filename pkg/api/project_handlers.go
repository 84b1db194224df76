package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/lodestone-dev/lodestone/pkg/members"
	"github.com/lodestone-dev/lodestone/pkg/observability"
	"github.com/lodestone-dev/lodestone/pkg/perms"
	"github.com/lodestone-dev/lodestone/pkg/projects"
)

// userIDHeader carries the authenticated user id, set by the fronting
// gateway after it has verified the session.
const userIDHeader = "X-User-Id"

// ProjectService is the lifecycle surface the handlers drive; implemented
// by projects.Factory.
type ProjectService interface {
	CreateProject(ctx context.Context, form projects.NewProjectForm) (*projects.Project, error)
	RenameProject(ctx context.Context, actorID int64, ownerName, slug, newName string) (string, error)
	SoftDelete(ctx context.Context, actorID int64, project *projects.Project, comment string) error
	HardDelete(ctx context.Context, actorID int64, project *projects.Project) error
}

// ProjectFinder looks up projects for read paths; implemented by
// projects.Store.
type ProjectFinder interface {
	GetByOwnerAndSlug(ctx context.Context, ownerName, slug string) (*projects.Project, error)
}

// PermissionSource resolves effective permissions; implemented by
// members.Resolver.
type PermissionSource interface {
	GlobalPermissions(ctx context.Context, userID int64) (perms.Permission, error)
	ProjectPermissions(ctx context.Context, userID, projectID, ownerOrgID int64) (perms.Permission, error)
	OrganizationPermissions(ctx context.Context, userID, orgID int64) (perms.Permission, error)
}

// MemberLister lists role assignments in a scope; implemented by
// members.Store.
type MemberLister interface {
	ListForScope(ctx context.Context, category perms.Category, scopeID int64) ([]members.Assignment, error)
}

// ProjectHandlers handles project lifecycle HTTP requests.
type ProjectHandlers struct {
	service ProjectService
	finder  ProjectFinder
	owners  projects.OwnerResolver
	perms   PermissionSource
	members MemberLister
	logger  *observability.Logger
}

// NewProjectHandlers creates a new ProjectHandlers.
func NewProjectHandlers(service ProjectService, finder ProjectFinder, owners projects.OwnerResolver, permSource PermissionSource, memberLister MemberLister, logger *observability.Logger) *ProjectHandlers {
	return &ProjectHandlers{
		service: service,
		finder:  finder,
		owners:  owners,
		perms:   permSource,
		members: memberLister,
		logger:  logger,
	}
}

// RegisterRoutes registers project routes.
func (h *ProjectHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/projects", h.CreateProject).Methods("POST")
	router.HandleFunc("/api/v1/projects/{owner}/{slug}", h.GetProject).Methods("GET")
	router.HandleFunc("/api/v1/projects/{owner}/{slug}", h.DeleteProject).Methods("DELETE")
	router.HandleFunc("/api/v1/projects/{owner}/{slug}/rename", h.RenameProject).Methods("POST")
	router.HandleFunc("/api/v1/projects/{owner}/{slug}/hard", h.HardDeleteProject).Methods("DELETE")
	router.HandleFunc("/api/v1/projects/{owner}/{slug}/members", h.ListMembers).Methods("GET")
	router.HandleFunc("/api/v1/projects/{owner}/{slug}/permissions", h.GetPermissions).Methods("GET")
}

// CreateProject creates a project owned by the caller or by an organization
// the caller may create projects in.
func (h *ProjectHandlers) CreateProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var form projects.NewProjectForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	owner, err := h.owners.GetOwner(ctx, form.OwnerID)
	if err != nil {
		h.writeProjectError(w, err)
		return
	}
	if owner.IsOrganization {
		p, err := h.perms.OrganizationPermissions(ctx, actor, owner.ID)
		if err != nil {
			h.writeInternal(w, err)
			return
		}
		if !p.Has(perms.CreateProject) {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
	} else if owner.UserID != actor {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	project, err := h.service.CreateProject(ctx, form)
	if err != nil {
		h.writeProjectError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

// GetProject returns a project. Hidden projects require membership or the
// see-hidden permission.
func (h *ProjectHandlers) GetProject(w http.ResponseWriter, r *http.Request) {
	project, visible := h.loadVisible(w, r)
	if !visible {
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// RenameProject renames a project and returns the new slug.
func (h *ProjectHandlers) RenameProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	project, err := h.finder.GetByOwnerAndSlug(ctx, vars["owner"], vars["slug"])
	if err != nil {
		h.writeProjectError(w, err)
		return
	}
	if !h.requireProjectPerm(w, r, actor, project, perms.EditProjectSettings) {
		return
	}

	newSlug, err := h.service.RenameProject(ctx, actor, vars["owner"], vars["slug"], req.Name)
	if err != nil {
		h.writeProjectError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"slug": newSlug})
}

// DeleteProject soft-deletes a project. Projects that were never public are
// removed outright.
func (h *ProjectHandlers) DeleteProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)

	var req struct {
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	project, err := h.finder.GetByOwnerAndSlug(ctx, vars["owner"], vars["slug"])
	if err != nil {
		h.writeProjectError(w, err)
		return
	}
	if !h.requireProjectPerm(w, r, actor, project, perms.DeleteProject) {
		return
	}

	if err := h.service.SoftDelete(ctx, actor, project, req.Comment); err != nil {
		h.writeProjectError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HardDeleteProject permanently removes a project.
func (h *ProjectHandlers) HardDeleteProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)

	project, err := h.finder.GetByOwnerAndSlug(ctx, vars["owner"], vars["slug"])
	if err != nil {
		h.writeProjectError(w, err)
		return
	}
	if !h.requireProjectPerm(w, r, actor, project, perms.HardDeleteProject) {
		return
	}

	if err := h.service.HardDelete(ctx, actor, project); err != nil {
		h.writeProjectError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMembers lists the accepted and pending role assignments on a project.
func (h *ProjectHandlers) ListMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	project, visible := h.loadVisible(w, r)
	if !visible {
		return
	}

	assignments, err := h.members.ListForScope(ctx, perms.CategoryProject, project.ID)
	if err != nil {
		h.writeInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assignments)
}

// GetPermissions returns the caller's effective permission names on a
// project.
func (h *ProjectHandlers) GetPermissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)

	project, err := h.finder.GetByOwnerAndSlug(ctx, vars["owner"], vars["slug"])
	if err != nil {
		h.writeProjectError(w, err)
		return
	}
	p, err := h.projectPermissions(ctx, actor, project)
	if err != nil {
		h.writeInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"permissions": p.String()})
}

// loadVisible loads the requested project and enforces visibility: anyone
// sees public and new projects, everything else needs membership or the
// see-hidden permission.
func (h *ProjectHandlers) loadVisible(w http.ResponseWriter, r *http.Request) (*projects.Project, bool) {
	ctx := r.Context()
	vars := mux.Vars(r)

	project, err := h.finder.GetByOwnerAndSlug(ctx, vars["owner"], vars["slug"])
	if err != nil {
		h.writeProjectError(w, err)
		return nil, false
	}
	if project.Visibility == projects.VisibilityPublic || project.Visibility == projects.VisibilityNew {
		return project, true
	}

	actor := actorFrom(r)
	if actor == 0 {
		writeError(w, http.StatusNotFound, "not_found")
		return nil, false
	}
	p, err := h.projectPermissions(ctx, actor, project)
	if err != nil {
		h.writeInternal(w, err)
		return nil, false
	}
	if !p.Has(perms.SeeHidden) && !p.Has(perms.IsProjectMember) {
		writeError(w, http.StatusNotFound, "not_found")
		return nil, false
	}
	return project, true
}

func (h *ProjectHandlers) requireProjectPerm(w http.ResponseWriter, r *http.Request, actor int64, project *projects.Project, required perms.Permission) bool {
	p, err := h.projectPermissions(r.Context(), actor, project)
	if err != nil {
		h.writeInternal(w, err)
		return false
	}
	if !p.Has(required) {
		writeError(w, http.StatusForbidden, "forbidden")
		return false
	}
	return true
}

// projectPermissions resolves effective permissions, feeding the owning
// organization's id through when the project is organization-owned.
func (h *ProjectHandlers) projectPermissions(ctx context.Context, actor int64, project *projects.Project) (perms.Permission, error) {
	owner, err := h.owners.GetOwner(ctx, project.OwnerID)
	if err != nil {
		return perms.None, err
	}
	var ownerOrgID int64
	if owner.IsOrganization {
		ownerOrgID = owner.ID
	}
	return h.perms.ProjectPermissions(ctx, actor, project.ID, ownerOrgID)
}

func (h *ProjectHandlers) requireActor(w http.ResponseWriter, r *http.Request) (int64, bool) {
	actor := actorFrom(r)
	if actor == 0 {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return 0, false
	}
	return actor, true
}

func (h *ProjectHandlers) writeProjectError(w http.ResponseWriter, err error) {
	var pe *projects.ProjectError
	if !errors.As(err, &pe) {
		h.writeInternal(w, err)
		return
	}
	switch pe {
	case projects.ErrProjectNotFound, projects.ErrOwnerNotFound:
		writeError(w, http.StatusNotFound, pe.Reason)
	case projects.ErrInvalidName:
		writeError(w, http.StatusBadRequest, pe.Reason)
	case projects.ErrNameTaken, projects.ErrSlugTaken:
		writeError(w, http.StatusConflict, pe.Reason)
	default:
		writeError(w, http.StatusBadRequest, pe.Reason)
	}
}

func (h *ProjectHandlers) writeInternal(w http.ResponseWriter, err error) {
	if h.logger != nil {
		h.logger.WithError(err).Error("request failed")
	}
	writeError(w, http.StatusInternalServerError, "internal")
}

// actorFrom returns the authenticated user id, or zero for anonymous
// requests.
func actorFrom(r *http.Request) int64 {
	id, err := strconv.ParseInt(r.Header.Get(userIDHeader), 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, map[string]string{"error": reason})
}
