package models

import "time"

// Visit lifecycle. departed and cancelled are terminal.
const (
	VisitStatusScheduled = "scheduled"
	VisitStatusCheckedIn = "checked_in"
	VisitStatusDeparted  = "departed"
	VisitStatusCancelled = "cancelled"

	// Derived on read, never persisted.
	VisitStatusOverdue = "overdue"
)

const (
	AccessStatusUnescorted     = "unescorted"
	AccessStatusAwaitingEscort = "awaiting_escort"
)

type Visit struct {
	ID uint `gorm:"primaryKey" json:"id"`

	VisitorID  uint   `gorm:"index;column:visitor_id" json:"visitor_id"`
	SiteID     uint   `gorm:"index;column:site_id" json:"site_id"`
	HostUserID uint   `gorm:"index;column:host_user_id" json:"host_user_id"`
	Purpose    string `gorm:"type:text" json:"purpose"`

	PlannedArrival   time.Time  `gorm:"column:planned_arrival;index" json:"planned_arrival"`
	PlannedDeparture time.Time  `gorm:"column:planned_departure" json:"planned_departure"`
	ActualArrival    *time.Time `gorm:"column:actual_arrival" json:"actual_arrival,omitempty"`
	ActualDeparture  *time.Time `gorm:"column:actual_departure" json:"actual_departure,omitempty"`

	Status string `gorm:"size:32;index;default:scheduled" json:"status"`

	// Null unless status = checked_in.
	AccessStatus *string `gorm:"column:access_status;size:32" json:"access_status,omitempty"`

	InductionCompleted   bool       `gorm:"column:induction_completed;default:false" json:"induction_completed"`
	InductionCompletedAt *time.Time `gorm:"column:induction_completed_at" json:"induction_completed_at,omitempty"`
	InductionVersion     *int       `gorm:"column:induction_version" json:"induction_version,omitempty"`

	DocumentsAccepted   bool       `gorm:"column:documents_accepted;default:false" json:"documents_accepted"`
	DocumentsAcceptedAt *time.Time `gorm:"column:documents_accepted_at" json:"documents_accepted_at,omitempty"`

	IsWalkIn    bool  `gorm:"column:is_walk_in;default:false" json:"is_walk_in"`
	CheckedInBy *uint `gorm:"column:checked_in_by" json:"checked_in_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Visitor Visitor `gorm:"foreignKey:VisitorID" json:"visitor,omitempty"`
	Site    Site    `gorm:"foreignKey:SiteID" json:"-"`
	Host    User    `gorm:"foreignKey:HostUserID" json:"host,omitempty"`

	HostContacts []VisitHostContact `gorm:"foreignKey:VisitID" json:"host_contacts,omitempty"`
}

// DisplayStatus projects the stored status, substituting overdue for a
// checked-in visit whose planned departure has passed.
func (v *Visit) DisplayStatus(now time.Time) string {
	if v.Status == VisitStatusCheckedIn && v.PlannedDeparture.Before(now) {
		return VisitStatusOverdue
	}
	return v.Status
}
