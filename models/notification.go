package models

import "time"

const (
	NotificationVisitScheduled      = "visit_scheduled"
	NotificationVisitCancelled      = "visit_cancelled"
	NotificationVisitAmended        = "visit_amended"
	NotificationCheckinHostAlert    = "checkin_host_alert"
	NotificationEscortRequired      = "escort_required"
	NotificationEscalation          = "escalation"
	NotificationEscalationReception = "escalation_reception"
	NotificationHostReminder        = "host_reminder"
	NotificationPreApprovalRequest  = "pre_approval_request"
	NotificationPreApprovalDecision = "pre_approval_decision"
	NotificationDenyListAlert       = "deny_list_alert"
	NotificationEvacuationActivated = "evacuation_activated"
	NotificationWalkInHostConfirm   = "walk_in_host_confirm"
)

const (
	RecipientTypeUser    = "user"
	RecipientTypeVisitor = "visitor"
)

// Notification is one outbound alert. AcknowledgedAt, once set, is never
// cleared, and Escalated transitions false -> true exactly once.
type Notification struct {
	ID uint `gorm:"primaryKey" json:"id"`

	RecipientType      string `gorm:"column:recipient_type;size:16;default:user" json:"recipient_type"`
	RecipientUserID    *uint  `gorm:"index;column:recipient_user_id" json:"recipient_user_id,omitempty"`
	RecipientVisitorID *uint  `gorm:"index;column:recipient_visitor_id" json:"recipient_visitor_id,omitempty"`

	VisitID *uint `gorm:"index;column:visit_id" json:"visit_id,omitempty"`

	NotificationType string `gorm:"column:notification_type;size:48;index" json:"notification_type"`
	Title            string `gorm:"size:255" json:"title"`
	Body             string `gorm:"type:text" json:"body"`
	ActionURL        string `gorm:"column:action_url;size:512" json:"action_url,omitempty"`

	IsRead                  bool       `gorm:"column:is_read;default:false" json:"is_read"`
	RequiresAcknowledgement bool       `gorm:"column:requires_acknowledgement;default:false" json:"requires_acknowledgement"`
	AcknowledgedAt          *time.Time `gorm:"column:acknowledged_at" json:"acknowledged_at,omitempty"`
	Escalated               bool       `gorm:"default:false" json:"escalated"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
