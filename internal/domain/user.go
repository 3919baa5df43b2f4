package domain

import "time"

// Role represents the user's permission level in the system.
type Role string

const (
	// RoleLocked is assigned to users locked by a moderator. They keep
	// read access plus following and collecting, nothing else.
	RoleLocked Role = "locked"
	// RoleUser is the default role for new accounts.
	RoleUser Role = "user"
	// RoleModerator can additionally moderate content.
	RoleModerator Role = "moderator"
	// RoleAdministrator has full access, including user and role management.
	RoleAdministrator Role = "administrator"
)

// Valid checks if the role is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleLocked, RoleUser, RoleModerator, RoleAdministrator:
		return true
	default:
		return false
	}
}

// Permission represents a named capability granted through roles.
type Permission string

const (
	PermissionFollow     Permission = "FOLLOW"
	PermissionCollect    Permission = "COLLECT"
	PermissionComment    Permission = "COMMENT"
	PermissionUpload     Permission = "UPLOAD"
	PermissionModerate   Permission = "MODERATE"
	PermissionAdminister Permission = "ADMINISTER"
)

// RolePermissions maps each role to the permissions it grants.
// Roles are cumulative: each step up keeps everything below it.
var RolePermissions = map[Role][]Permission{
	RoleLocked:        {PermissionFollow, PermissionCollect},
	RoleUser:          {PermissionFollow, PermissionCollect, PermissionComment, PermissionUpload},
	RoleModerator:     {PermissionFollow, PermissionCollect, PermissionComment, PermissionUpload, PermissionModerate},
	RoleAdministrator: {PermissionFollow, PermissionCollect, PermissionComment, PermissionUpload, PermissionModerate, PermissionAdminister},
}

// RoleHasPermission reports whether the role grants the permission.
func RoleHasPermission(role Role, p Permission) bool {
	for _, granted := range RolePermissions[role] {
		if granted == p {
			return true
		}
	}
	return false
}

// User represents a registered account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Website      string    `json:"website,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	Location     string    `json:"location,omitempty"`
	Role         Role      `json:"role"`
	Confirmed    bool      `json:"confirmed"`
	Active       bool      `json:"active"`
	AvatarFile   string    `json:"-"`
	AvatarFileM  string    `json:"-"`
	AvatarFileS  string    `json:"-"`
	AvatarColor  string    `json:"-"`

	// Notification opt-ins and privacy settings.
	ReceiveCommentNotification bool `json:"receive_comment_notification"`
	ReceiveFollowNotification  bool `json:"receive_follow_notification"`
	ReceiveCollectNotification bool `json:"receive_collect_notification"`
	PublicCollections          bool `json:"public_collections"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Can reports whether the user's role grants the permission.
func (u *User) Can(p Permission) bool {
	return RoleHasPermission(u.Role, p)
}

// IsAdmin returns true if the user has administrative privileges.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdministrator
}

// IsLocked returns true if the user's account has been locked by a moderator.
func (u *User) IsLocked() bool {
	return u.Role == RoleLocked
}

// DisplayName returns the best available name for the user.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// Identity is the acting principal of a request: an authenticated user
// or the anonymous guest. All authorization checks go through it so
// guest handling stays in one place.
type Identity struct {
	User *User // nil for guests
}

// Guest returns the anonymous identity.
func Guest() Identity {
	return Identity{}
}

// Authenticated wraps a user as an identity.
func Authenticated(u *User) Identity {
	return Identity{User: u}
}

// IsAuthenticated reports whether the identity belongs to a signed-in user.
func (i Identity) IsAuthenticated() bool {
	return i.User != nil
}

// Can reports whether the identity holds the permission. Guests hold none.
func (i Identity) Can(p Permission) bool {
	if i.User == nil {
		return false
	}
	return i.User.Can(p)
}

// IsAdmin reports whether the identity is an administrator. Guests are not.
func (i Identity) IsAdmin() bool {
	return i.User != nil && i.User.IsAdmin()
}
