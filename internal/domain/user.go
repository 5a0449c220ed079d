package domain

import "time"

// Role is the authorization level of a user account.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleSurgeon Role = "surgeon"
	RoleUser    Role = "user"
	// RoleSystem is used by non-interactive integrations (HoloLens bridge,
	// seeding scripts). It carries the same bypass rights as RoleAdmin.
	RoleSystem Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSurgeon, RoleUser, RoleSystem:
		return true
	}
	return false
}

// BypassesMembership reports whether the role may enter any room without
// being on its member list.
func (r Role) BypassesMembership() bool {
	return r == RoleAdmin || r == RoleSystem
}

// User is a staff account that can own and enter rooms.
type User struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Username  string    `gorm:"type:varchar(191);uniqueIndex;not null"`
	Password  string    `gorm:"type:text;not null"` // bcrypt hash, never the plaintext
	Email     string    `gorm:"type:varchar(191);uniqueIndex"`
	Role      Role      `gorm:"type:varchar(20);not null;default:user"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
