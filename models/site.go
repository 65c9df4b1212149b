package models

import "time"

type Site struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:255" json:"name"`
	SiteCode string `gorm:"column:site_code;size:32;uniqueIndex" json:"site_code"`
	Address  string `gorm:"type:text" json:"address,omitempty"`
	Region   string `gorm:"size:100" json:"region,omitempty"`

	// Health & safety induction content. Bumping the version invalidates
	// every induction record completed against an older version.
	HSContentVersion int    `gorm:"column:hs_content_version;default:1" json:"hs_content_version"`
	HSVideoURL       string `gorm:"column:hs_video_url;size:512" json:"hs_video_url,omitempty"`
	HSWrittenContent string `gorm:"column:hs_written_content;type:text" json:"hs_written_content,omitempty"`

	NotificationEscalationMinutes int `gorm:"column:notification_escalation_minutes;default:15" json:"notification_escalation_minutes"`
	PreApprovalDefaultDays        int `gorm:"column:pre_approval_default_days;default:30" json:"pre_approval_default_days"`

	IsActive  bool      `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EscalationWindow is how long an escort request may sit unacknowledged
// before the escalation chain kicks in.
func (s *Site) EscalationWindow() time.Duration {
	return time.Duration(s.NotificationEscalationMinutes) * time.Minute
}
