package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRolePermissions(t *testing.T) {
	tests := []struct {
		role Role
		can  []Permission
		cant []Permission
	}{
		{
			role: RoleLocked,
			can:  []Permission{PermissionFollow, PermissionCollect},
			cant: []Permission{PermissionComment, PermissionUpload, PermissionModerate, PermissionAdminister},
		},
		{
			role: RoleUser,
			can:  []Permission{PermissionFollow, PermissionCollect, PermissionComment, PermissionUpload},
			cant: []Permission{PermissionModerate, PermissionAdminister},
		},
		{
			role: RoleModerator,
			can:  []Permission{PermissionFollow, PermissionUpload, PermissionModerate},
			cant: []Permission{PermissionAdminister},
		},
		{
			role: RoleAdministrator,
			can:  []Permission{PermissionFollow, PermissionCollect, PermissionComment, PermissionUpload, PermissionModerate, PermissionAdminister},
		},
	}

	for _, tt := range tests {
		u := &User{Role: tt.role}
		for _, p := range tt.can {
			assert.True(t, u.Can(p), "%s should have %s", tt.role, p)
		}
		for _, p := range tt.cant {
			assert.False(t, u.Can(p), "%s should not have %s", tt.role, p)
		}
	}
}

func TestIsAdmin(t *testing.T) {
	assert.True(t, (&User{Role: RoleAdministrator}).IsAdmin())
	assert.False(t, (&User{Role: RoleModerator}).IsAdmin())
	assert.False(t, (&User{Role: RoleUser}).IsAdmin())
}

func TestGuestIdentity(t *testing.T) {
	g := Guest()
	assert.False(t, g.IsAuthenticated())
	assert.False(t, g.IsAdmin())
	for _, p := range []Permission{PermissionFollow, PermissionCollect, PermissionComment, PermissionUpload, PermissionModerate, PermissionAdminister} {
		assert.False(t, g.Can(p), "guest should not have %s", p)
	}
}

func TestAuthenticatedIdentity(t *testing.T) {
	u := &User{Role: RoleUser}
	i := Authenticated(u)
	assert.True(t, i.IsAuthenticated())
	assert.True(t, i.Can(PermissionUpload))
	assert.False(t, i.Can(PermissionModerate))
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleLocked.Valid())
	assert.False(t, Role("superuser").Valid())
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Grey Li", (&User{Username: "greyli", Name: "Grey Li"}).DisplayName())
	assert.Equal(t, "greyli", (&User{Username: "greyli"}).DisplayName())
}
