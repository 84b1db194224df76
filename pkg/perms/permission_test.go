package perms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionAlgebra(t *testing.T) {
	samples := []Permission{
		None,
		ViewPublicInfo,
		CreateProject.Add(EditProjectSettings),
		ManageRoles.Add(ManageJobs), // high-word flags
		projectOwnerPerms,
		orgAdminPerms,
	}

	t.Run("add contains both operands", func(t *testing.T) {
		for _, a := range samples {
			for _, b := range samples {
				sum := a.Add(b)
				assert.True(t, sum.Has(a), "A.Add(B) must contain A")
				assert.True(t, sum.Has(b), "A.Add(B) must contain B")
			}
		}
	})

	t.Run("add is commutative", func(t *testing.T) {
		for _, a := range samples {
			for _, b := range samples {
				assert.Equal(t, a.Add(b), b.Add(a))
			}
		}
	})

	t.Run("add is associative", func(t *testing.T) {
		for _, a := range samples {
			for _, b := range samples {
				for _, c := range samples {
					assert.Equal(t, a.Add(b).Add(c), a.Add(b.Add(c)))
				}
			}
		}
	})

	t.Run("add is idempotent", func(t *testing.T) {
		for _, a := range samples {
			assert.Equal(t, a, a.Add(a))
		}
	})

	t.Run("has requires all bits", func(t *testing.T) {
		both := CreateProject.Add(ManageRoles)
		assert.True(t, both.Has(CreateProject))
		assert.True(t, both.Has(ManageRoles))
		assert.False(t, CreateProject.Has(both))
		assert.False(t, ManageRoles.Has(both))
	})

	t.Run("none is the identity", func(t *testing.T) {
		for _, a := range samples {
			assert.Equal(t, a, a.Add(None))
			assert.True(t, a.Has(None))
		}
		assert.True(t, None.IsNone())
	})
}

func TestPermissionHighWord(t *testing.T) {
	// Administration flags sit past bit 63 and must not collide with the
	// low word.
	require.Zero(t, ManageRoles.Lo)
	require.NotZero(t, ManageRoles.Hi)
	assert.False(t, ManageRoles.Has(ViewPublicInfo))
	assert.False(t, ViewPublicInfo.Has(ManageRoles))
}

func TestPermissionFlagsDistinct(t *testing.T) {
	seen := make(map[Permission]string)
	for _, f := range allFlags {
		prev, dup := seen[f.perm]
		require.False(t, dup, "flag %s reuses the bit of %s", f.name, prev)
		seen[f.perm] = f.name
	}
	// The enumeration genuinely needs more than one machine word.
	assert.Greater(t, len(allFlags), 64)
}

func TestPermissionAsMapKey(t *testing.T) {
	m := map[Permission]int{
		CreateProject.Add(EditPage): 1,
		EditPage.Add(CreateProject): 2,
	}
	// Equal sets are the same key regardless of composition order.
	assert.Len(t, m, 1)
	assert.Equal(t, 2, m[CreateProject.Add(EditPage)])
}

func TestPermissionString(t *testing.T) {
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "view_public_info", ViewPublicInfo.String())
	assert.Equal(t, "create_project|edit_page", CreateProject.Add(EditPage).String())
}
