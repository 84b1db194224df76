package members

import (
	"time"

	"github.com/lodestone-dev/lodestone/pkg/perms"
)

// Assignment links a user to a role within a scope. For global roles the
// scope id is zero. Accepted is false while the invitation is pending;
// unaccepted assignments contribute nothing to effective permissions.
type Assignment struct {
	ID        int64          `json:"id"`
	UserID    int64          `json:"user_id"`
	RoleID    int64          `json:"role_id"`
	Category  perms.Category `json:"category"`
	ScopeID   int64          `json:"scope_id"`
	Accepted  bool           `json:"accepted"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewAssignment builds the persisted assignment row for any role category.
func NewAssignment(role perms.Role, scopeID, userID int64, accepted bool) Assignment {
	return Assignment{
		UserID:   userID,
		RoleID:   role.ID,
		Category: role.Category,
		ScopeID:  scopeID,
		Accepted: accepted,
	}
}
