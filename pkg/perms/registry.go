package perms

import "fmt"

// Registry is the process-wide read-only role registry. It is built once at
// startup from the static role tables; a duplicate role id or value within a
// category is a programmer error and fails process start.
type Registry struct {
	byCategory map[Category][]Role
	byID       map[Category]map[int64]Role
	byValue    map[Category]map[string]Role
}

// BuildRegistry constructs the registry from the platform's role tables.
func BuildRegistry() (*Registry, error) {
	return buildRegistry(map[Category][]Role{
		CategoryGlobal:       globalRoles,
		CategoryProject:      projectRoles,
		CategoryOrganization: organizationRoles,
	})
}

func buildRegistry(tables map[Category][]Role) (*Registry, error) {
	r := &Registry{
		byCategory: make(map[Category][]Role),
		byID:       make(map[Category]map[int64]Role),
		byValue:    make(map[Category]map[string]Role),
	}
	for category, roles := range tables {
		r.byID[category] = make(map[int64]Role, len(roles))
		r.byValue[category] = make(map[string]Role, len(roles))
		for _, role := range roles {
			if role.Category != category {
				return nil, fmt.Errorf("role %q declared in category %s but carries category %s", role.Value, category, role.Category)
			}
			if _, exists := r.byID[category][role.ID]; exists {
				return nil, fmt.Errorf("duplicate role id %d in category %s", role.ID, category)
			}
			if _, exists := r.byValue[category][role.Value]; exists {
				return nil, fmt.Errorf("duplicate role value %q in category %s", role.Value, category)
			}
			r.byID[category][role.ID] = role
			r.byValue[category][role.Value] = role
			r.byCategory[category] = append(r.byCategory[category], role)
		}
	}

	// Every organization role must map to a defined project permission view.
	for _, role := range r.byCategory[CategoryOrganization] {
		view, ok := OrgProjectPermissions(role.ID)
		if !ok || view.IsNone() {
			return nil, fmt.Errorf("organization role %q has no project permission mapping", role.Value)
		}
	}

	return r, nil
}

// Values returns the roles of a category in declaration order.
func (r *Registry) Values(category Category) []Role {
	roles := r.byCategory[category]
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}

// AssignableRoles returns the directly grantable roles of a category in
// declaration order.
func (r *Registry) AssignableRoles(category Category) []Role {
	var out []Role
	for _, role := range r.byCategory[category] {
		if role.Assignable {
			out = append(out, role)
		}
	}
	return out
}

// ByID looks up a role by category and persisted role id.
func (r *Registry) ByID(category Category, id int64) (Role, bool) {
	role, ok := r.byID[category][id]
	return role, ok
}

// ByValue looks up a role by category and symbolic value.
func (r *Registry) ByValue(category Category, value string) (Role, bool) {
	role, ok := r.byValue[category][value]
	return role, ok
}
