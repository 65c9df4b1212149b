package models

import "time"

const (
	VisitorTypeInternalStaff = "internal_staff"
	VisitorTypeThirdParty    = "third_party"
)

type Visitor struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"size:255" json:"name"`
	Email   string `gorm:"size:150;index" json:"email"`
	Phone   string `gorm:"size:50" json:"phone,omitempty"`
	Company string `gorm:"size:255" json:"company,omitempty"`

	VisitorType string `gorm:"column:visitor_type;size:32;default:third_party" json:"visitor_type"`

	// Random hex token used in self-service links (pre-arrival induction,
	// document acceptance). Not a session credential.
	AccessToken string `gorm:"column:access_token;size:128;uniqueIndex" json:"-"`

	CreatedBy    uint `gorm:"column:created_by" json:"created_by"`
	IsAnonymised bool `gorm:"column:is_anonymised;default:false" json:"is_anonymised"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
