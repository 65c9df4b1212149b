package models

import "time"

// VisitDocument is a site document (markdown) the visitor must accept before
// check-in can proceed to the access decision.
type VisitDocument struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	VisitID uint `gorm:"index;column:visit_id" json:"visit_id"`

	DocumentName    string `gorm:"column:document_name;size:255" json:"document_name"`
	DocumentContent string `gorm:"column:document_content;type:text" json:"document_content"`

	Accepted   bool       `gorm:"default:false" json:"accepted"`
	AcceptedAt *time.Time `gorm:"column:accepted_at" json:"accepted_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
