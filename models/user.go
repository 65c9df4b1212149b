package models

import "time"

const (
	RoleHost      = "host"
	RoleReception = "reception"
	RoleSiteAdmin = "site_admin"
)

// roleLevels orders the role hierarchy. Authorization is a plain ordinal
// comparison, not a permission matrix.
var roleLevels = map[string]int{
	RoleHost:      1,
	RoleReception: 2,
	RoleSiteAdmin: 3,
}

func HasMinRole(role, required string) bool {
	return roleLevels[role] >= roleLevels[required]
}

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:255" json:"name"`
	Username string `gorm:"size:100;uniqueIndex" json:"username"`

	// bcrypt hash of the login PIN, never serialized.
	PinHash string `gorm:"column:pin_hash;size:100" json:"-"`

	Email    string `gorm:"size:150" json:"email,omitempty"`
	SiteID   uint   `gorm:"index;column:site_id" json:"site_id"`
	Role     string `gorm:"size:32;index" json:"role"`
	IsActive bool   `gorm:"column:is_active;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Site Site `gorm:"foreignKey:SiteID" json:"-"`
}

// IsResponderStaff reports whether the user belongs to the reception /
// site-admin pool that receives deny-list alerts and escalation floats.
func (u *User) IsResponderStaff() bool {
	return u.Role == RoleReception || u.Role == RoleSiteAdmin
}
