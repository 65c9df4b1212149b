package models

import "time"

const (
	PreApprovalStatusPending  = "pending"
	PreApprovalStatusApproved = "approved"
	PreApprovalStatusRejected = "rejected"
	PreApprovalStatusExpired  = "expired"
	PreApprovalStatusRevoked  = "revoked"
)

// PreApproval grants a (visitor, site) pair unescorted access for a bounded
// period once approved.
type PreApproval struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	VisitorID uint `gorm:"index;column:visitor_id" json:"visitor_id"`
	SiteID    uint `gorm:"index;column:site_id" json:"site_id"`

	RequestedBy uint  `gorm:"column:requested_by" json:"requested_by"`
	ApprovedBy  *uint `gorm:"column:approved_by" json:"approved_by,omitempty"`

	Status string `gorm:"size:32;index;default:pending" json:"status"`
	Reason string `gorm:"type:text" json:"reason,omitempty"`

	ExpiresAt *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
	RevokedAt *time.Time `gorm:"column:revoked_at" json:"revoked_at,omitempty"`
	RevokedBy *uint      `gorm:"column:revoked_by" json:"revoked_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsEffective reports whether the grant confers unescorted access at t.
func (p *PreApproval) IsEffective(t time.Time) bool {
	return p.Status == PreApprovalStatusApproved && p.ExpiresAt != nil && p.ExpiresAt.After(t)
}
