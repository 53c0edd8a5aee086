package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID             int        `bun:",pk,nullzero" json:"id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Username       string     `bun:",nullzero" json:"username"`
	Email          string     `bun:",nullzero" json:"email,omitempty"`
	PasswordHash   string     `json:"-"` // Never expose password hash
	DisplayName    *string    `json:"display_name"`
	Bio            *string    `json:"bio"`
	Role           string     `bun:",nullzero" json:"role"`
	FavoriteGenres StringList `bun:",type:text" json:"favorite_genres"`
	IsActive       bool       `json:"is_active"`

	// Derived counts, populated by queries that select them.
	FollowerCount  int `bun:",scanonly" json:"follower_count"`
	FollowingCount int `bun:",scanonly" json:"following_count"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanModify reports whether the user may modify a resource owned by ownerID.
// Owners and admins may.
func (u *User) CanModify(ownerID int) bool {
	return u.ID == ownerID || u.IsAdmin()
}
