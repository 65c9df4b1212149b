package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLogEntry records one workflow action for later review. Audit writes
// are observability, not correctness: a failed write never rolls back the
// action that produced it.
type AuditLogEntry struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Action     string `gorm:"size:64;index" json:"action"`
	EntityType string `gorm:"column:entity_type;size:64" json:"entity_type"`
	EntityID   *uint  `gorm:"column:entity_id;index" json:"entity_id,omitempty"`
	UserID     *uint  `gorm:"column:user_id" json:"user_id,omitempty"`

	Details datatypes.JSON `gorm:"column:details" json:"details,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
