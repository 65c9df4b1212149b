package models

import "time"

// VisitHostContact binds a visit to a responder. One primary and at most one
// backup are expected, but nothing enforces that shape; consumers must
// tolerate zero or several of either.
type VisitHostContact struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	VisitID  uint `gorm:"index;column:visit_id" json:"visit_id"`
	UserID   uint `gorm:"index;column:user_id" json:"user_id"`
	IsBackup bool `gorm:"column:is_backup;default:false" json:"is_backup"`

	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
