package models

import "time"

// InductionValidityDays is how long a completed health & safety induction
// remains valid. A record is also invalidated early when the site bumps its
// content version.
const InductionValidityDays = 90

type InductionRecord struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	VisitorID uint `gorm:"index;column:visitor_id" json:"visitor_id"`
	SiteID    uint `gorm:"index;column:site_id" json:"site_id"`

	ContentVersion int       `gorm:"column:content_version" json:"content_version"`
	CompletedAt    time.Time `gorm:"column:completed_at" json:"completed_at"`

	VisitID *uint `gorm:"column:visit_id" json:"visit_id,omitempty"`
}
