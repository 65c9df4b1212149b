package models

import "time"

// EvacuationEvent is the site-wide gate record. At most one event per site
// may have ClosedAt = nil; while one is open, check-in and sign-out are
// vetoed for the whole site.
type EvacuationEvent struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	SiteID uint `gorm:"index;column:site_id" json:"site_id"`

	ActivatedBy uint      `gorm:"column:activated_by" json:"activated_by"`
	ActivatedAt time.Time `gorm:"column:activated_at" json:"activated_at"`

	ClosedAt *time.Time `gorm:"column:closed_at" json:"closed_at,omitempty"`
	ClosedBy *uint      `gorm:"column:closed_by" json:"closed_by,omitempty"`

	// Checked-in visits at the moment of activation, and the running tally
	// of people marked accounted-for during the muster.
	HeadcountAtActivation int `gorm:"column:headcount_at_activation" json:"headcount_at_activation"`
	HeadcountAccounted    int `gorm:"column:headcount_accounted;default:0" json:"headcount_accounted"`

	Notes string `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (e *EvacuationEvent) IsOpen() bool {
	return e.ClosedAt == nil
}
