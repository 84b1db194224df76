package projects

import "time"

// Visibility is the lifecycle state of a project.
type Visibility string

const (
	VisibilityNew           Visibility = "new"
	VisibilityPublic        Visibility = "public"
	VisibilityNeedsChanges  Visibility = "needs_changes"
	VisibilityNeedsApproval Visibility = "needs_approval"
	VisibilitySoftDelete    Visibility = "soft_delete"
)

// Project is the persisted project row. Slug is always the slugified form of
// Name; (owner, name) and (owner, slug) are unique among live projects.
type Project struct {
	ID         int64      `json:"id"`
	OwnerID    int64      `json:"owner_id"`
	OwnerName  string     `json:"owner_name"`
	Name       string     `json:"name"`
	Slug       string     `json:"slug"`
	Visibility Visibility `json:"visibility"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Owner is the resolved owner of a project: either a user or an
// organization. UserID is the acting user account; for organization-owned
// projects it is the organization's service account.
type Owner struct {
	ID             int64  `json:"id"`
	UserID         int64  `json:"user_id"`
	Name           string `json:"name"`
	IsOrganization bool   `json:"is_organization"`
}

// NewProjectForm is the input to Factory.CreateProject.
type NewProjectForm struct {
	OwnerID     int64  `json:"owner_id"`
	Name        string `json:"name"`
	PageContent string `json:"page_content,omitempty"`
}

// ProjectError carries a stable machine-readable reason key that clients map
// to localized messages. Validation and conflict reasons are never retried
// by the server.
type ProjectError struct {
	Reason string
}

func (e *ProjectError) Error() string {
	return "project: " + e.Reason
}

var (
	// ErrOwnerNotFound: the owner id resolves to no user or organization.
	ErrOwnerNotFound = &ProjectError{Reason: "owner_not_found"}
	// ErrInvalidName: the compacted name is empty, too long, or fails the
	// configured pattern. Checked before any uniqueness query.
	ErrInvalidName = &ProjectError{Reason: "invalid_name"}
	// ErrNameTaken: the owner already has a project with this name.
	ErrNameTaken = &ProjectError{Reason: "owner_name"}
	// ErrSlugTaken: the owner already has a project with this slug.
	ErrSlugTaken = &ProjectError{Reason: "owner_slug"}
	// ErrProjectNotFound: no project matches (owner, slug).
	ErrProjectNotFound = &ProjectError{Reason: "not_found"}
)
