package models

import "time"

// DenyListEntry bars a visitor from a site. The target is matched by visitor
// id when known, falling back to a case-insensitive email match. Entries are
// deactivated, never deleted.
type DenyListEntry struct {
	ID uint `gorm:"primaryKey" json:"id"`

	VisitorID    *uint  `gorm:"index;column:visitor_id" json:"visitor_id,omitempty"`
	VisitorName  string `gorm:"column:visitor_name;size:255" json:"visitor_name"`
	VisitorEmail string `gorm:"column:visitor_email;size:150;index" json:"visitor_email,omitempty"`

	SiteID uint   `gorm:"index;column:site_id" json:"site_id"`
	Reason string `gorm:"type:text" json:"reason"`

	IsPermanent bool       `gorm:"column:is_permanent;default:false" json:"is_permanent"`
	ExpiresAt   *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`

	AddedBy  uint `gorm:"column:added_by" json:"added_by"`
	IsActive bool `gorm:"column:is_active;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsEffective reports whether the entry blocks check-in at t:
// active and either permanent or not yet expired.
func (e *DenyListEntry) IsEffective(t time.Time) bool {
	if !e.IsActive {
		return false
	}
	if e.IsPermanent {
		return true
	}
	return e.ExpiresAt != nil && e.ExpiresAt.After(t)
}
