package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lodestone-dev/lodestone/pkg/cache"
	"github.com/lodestone-dev/lodestone/pkg/observability"
	"github.com/lodestone-dev/lodestone/pkg/perms"
)

// ListingHandlers serves the cached public listings and the role tables.
type ListingHandlers struct {
	listings cache.Listings
	registry *perms.Registry
	logger   *observability.Logger
}

// NewListingHandlers creates a new ListingHandlers.
func NewListingHandlers(listings cache.Listings, registry *perms.Registry, logger *observability.Logger) *ListingHandlers {
	return &ListingHandlers{
		listings: listings,
		registry: registry,
		logger:   logger,
	}
}

// RegisterRoutes registers listing routes.
func (h *ListingHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/home", h.HomeProjects).Methods("GET")
	router.HandleFunc("/api/v1/authors", h.Authors).Methods("GET")
	router.HandleFunc("/api/v1/roles/{category}", h.ListRoles).Methods("GET")
}

// HomeProjects returns the cached public project listing for the front
// page.
func (h *ListingHandlers) HomeProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.listings.HomeProjects(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// Authors returns the cached list of distinct project author names.
func (h *ListingHandlers) Authors(w http.ResponseWriter, r *http.Request) {
	authors, err := h.listings.Authors(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authors)
}

// ListRoles returns the registered roles of a category in enumeration
// order. With ?assignable=true only directly grantable roles are returned.
func (h *ListingHandlers) ListRoles(w http.ResponseWriter, r *http.Request) {
	category := perms.Category(mux.Vars(r)["category"])
	switch category {
	case perms.CategoryGlobal, perms.CategoryProject, perms.CategoryOrganization:
	default:
		writeError(w, http.StatusNotFound, "unknown_category")
		return
	}

	roles := h.registry.Values(category)
	if r.URL.Query().Get("assignable") == "true" {
		roles = h.registry.AssignableRoles(category)
	}
	writeJSON(w, http.StatusOK, roles)
}

func (h *ListingHandlers) fail(w http.ResponseWriter, err error) {
	if h.logger != nil {
		h.logger.WithError(err).Error("listing request failed")
	}
	writeError(w, http.StatusInternalServerError, "internal")
}
