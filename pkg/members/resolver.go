package members

import (
	"context"
	"fmt"
	"sort"

	"github.com/lodestone-dev/lodestone/pkg/perms"
)

// AssignmentLister is the slice of the store the resolver needs.
type AssignmentLister interface {
	ListForUser(ctx context.Context, userID int64) ([]Assignment, error)
}

// Resolver computes a subject's effective permission set. Effective
// permissions are always the union of every applicable accepted role, never
// just the highest-ranked one; rank only orders roles for display.
type Resolver struct {
	store    AssignmentLister
	registry *perms.Registry
}

// NewResolver creates a resolver over the given store and role registry.
func NewResolver(store AssignmentLister, registry *perms.Registry) *Resolver {
	return &Resolver{store: store, registry: registry}
}

// GlobalPermissions returns the user's base permission set from accepted
// global roles. Every signed-in user at least sees public info.
func (r *Resolver) GlobalPermissions(ctx context.Context, userID int64) (perms.Permission, error) {
	assignments, err := r.store.ListForUser(ctx, userID)
	if err != nil {
		return perms.None, err
	}
	return r.globalFrom(assignments), nil
}

// ProjectPermissions resolves the user's effective permissions on a project.
// ownerOrgID is the owning organization's id, or zero for a user-owned
// project. Organization members receive the organization role's project
// permission view on organization-owned projects even without a direct
// project membership.
func (r *Resolver) ProjectPermissions(ctx context.Context, userID, projectID, ownerOrgID int64) (perms.Permission, error) {
	assignments, err := r.store.ListForUser(ctx, userID)
	if err != nil {
		return perms.None, err
	}

	effective := r.globalFrom(assignments)
	for _, a := range assignments {
		if !a.Accepted {
			continue
		}
		switch {
		case a.Category == perms.CategoryProject && a.ScopeID == projectID:
			role, ok := r.registry.ByID(perms.CategoryProject, a.RoleID)
			if !ok {
				return perms.None, fmt.Errorf("unknown project role id %d", a.RoleID)
			}
			effective = effective.Add(role.Permissions)
		case a.Category == perms.CategoryOrganization && ownerOrgID != 0 && a.ScopeID == ownerOrgID:
			view, ok := perms.OrgProjectPermissions(a.RoleID)
			if !ok {
				return perms.None, fmt.Errorf("organization role id %d has no project permission mapping", a.RoleID)
			}
			effective = effective.Add(view)
		}
	}
	return effective, nil
}

// OrganizationPermissions resolves the user's effective permissions within
// an organization.
func (r *Resolver) OrganizationPermissions(ctx context.Context, userID, orgID int64) (perms.Permission, error) {
	assignments, err := r.store.ListForUser(ctx, userID)
	if err != nil {
		return perms.None, err
	}

	effective := r.globalFrom(assignments)
	for _, a := range assignments {
		if !a.Accepted || a.Category != perms.CategoryOrganization || a.ScopeID != orgID {
			continue
		}
		role, ok := r.registry.ByID(perms.CategoryOrganization, a.RoleID)
		if !ok {
			return perms.None, fmt.Errorf("unknown organization role id %d", a.RoleID)
		}
		effective = effective.Add(role.Permissions)
	}
	return effective, nil
}

func (r *Resolver) globalFrom(assignments []Assignment) perms.Permission {
	effective := perms.ViewPublicInfo
	for _, a := range assignments {
		if !a.Accepted || a.Category != perms.CategoryGlobal {
			continue
		}
		if role, ok := r.registry.ByID(perms.CategoryGlobal, a.RoleID); ok {
			effective = effective.Add(role.Permissions)
		}
	}
	return effective
}

// HighestRole picks the single role to display for a member holding several
// roles in a scope. Ranked roles win over unranked ones; among ranked roles
// the lowest rank number is the highest role. Returns false when the member
// holds no accepted role in the scope.
func (r *Resolver) HighestRole(assignments []Assignment, category perms.Category, scopeID int64) (perms.Role, bool) {
	var held []perms.Role
	for _, a := range assignments {
		if !a.Accepted || a.Category != category || a.ScopeID != scopeID {
			continue
		}
		if role, ok := r.registry.ByID(category, a.RoleID); ok {
			held = append(held, role)
		}
	}
	if len(held) == 0 {
		return perms.Role{}, false
	}
	sort.SliceStable(held, func(i, j int) bool {
		ri, rj := held[i].Rank, held[j].Rank
		switch {
		case ri == nil:
			return false
		case rj == nil:
			return true
		default:
			return *ri < *rj
		}
	})
	return held[0], true
}
