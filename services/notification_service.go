package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"visitor-backend/models"
)

// NotificationService creates and mutates outbound alerts. Acknowledgement is
// sticky: acknowledged_at is set through a conditional update and never
// cleared.
type NotificationService struct {
	DB   *gorm.DB
	Feed *ChangeFeed
}

func NewNotificationService(db *gorm.DB, feed *ChangeFeed) *NotificationService {
	return &NotificationService{DB: db, Feed: feed}
}

// SendPayload carries everything needed to create one notification.
type SendPayload struct {
	RecipientType      string
	RecipientUserID    *uint
	RecipientVisitorID *uint
	VisitID            *uint
	NotificationType   string
	Title              string
	Body               string
	ActionURL          string
	RequiresAck        bool
}

func (s *NotificationService) Send(p SendPayload) (*models.Notification, error) {
	if p.RecipientType == "" {
		p.RecipientType = models.RecipientTypeUser
	}
	n := models.Notification{
		RecipientType:           p.RecipientType,
		RecipientUserID:         p.RecipientUserID,
		RecipientVisitorID:      p.RecipientVisitorID,
		VisitID:                 p.VisitID,
		NotificationType:        p.NotificationType,
		Title:                   p.Title,
		Body:                    p.Body,
		ActionURL:               p.ActionURL,
		RequiresAcknowledgement: p.RequiresAck,
	}
	if err := s.DB.Create(&n).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	if s.Feed != nil {
		s.Feed.Publish(ChangeEvent{
			EntityType: "notification",
			Action:     "insert",
			EntityID:   n.ID,
			Entity:     n,
		})
	}
	return &n, nil
}

// NotifySiteStaff fans one alert out to every active reception / site-admin
// user at the site. Returns the number of notifications created.
func (s *NotificationService) NotifySiteStaff(siteID uint, p SendPayload) (int, error) {
	var users []models.User
	if err := s.DB.
		Where("site_id = ? AND is_active = ?", siteID, true).
		Find(&users).Error; err != nil {
		return 0, fmt.Errorf("failed to load site staff: %w", err)
	}
	var staff []models.User
	for i := range users {
		if users[i].IsResponderStaff() {
			staff = append(staff, users[i])
		}
	}
	if len(staff) == 0 {
		return 0, fmt.Errorf("no active reception or site admin users for site %d", siteID)
	}

	sent := 0
	for i := range staff {
		uid := staff[i].ID
		p.RecipientType = models.RecipientTypeUser
		p.RecipientUserID = &uid
		p.RecipientVisitorID = nil
		if _, err := s.Send(p); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// ListForUser returns the newest notifications addressed to the user.
func (s *NotificationService) ListForUser(userID uint, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	var list []models.Notification
	if err := s.DB.
		Where("recipient_user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return list, nil
}

// ListForVisitor returns the newest notifications addressed to the visitor.
func (s *NotificationService) ListForVisitor(visitorID uint, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	var list []models.Notification
	if err := s.DB.
		Where("recipient_visitor_id = ?", visitorID).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return list, nil
}

// MarkRead is idempotent: re-reading an already-read notification is a
// no-op, not an error. The update is conditioned on is_read so the driver's
// changed-rows count cannot be mistaken for a missing row.
func (s *NotificationService) MarkRead(id uint) error {
	result := s.DB.Model(&models.Notification{}).
		Where("id = ? AND is_read = ?", id, false).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var n models.Notification
		if err := s.DB.First(&n, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotificationNotFound
			}
			return err
		}
		return nil
	}
	s.publishUpdate(id)
	return nil
}

// Acknowledge stamps acknowledged_at exactly once. A second acknowledgement
// attempt reports the conflict instead of silently overwriting the first.
func (s *NotificationService) Acknowledge(id uint) error {
	now := time.Now().UTC()
	result := s.DB.Model(&models.Notification{}).
		Where("id = ? AND acknowledged_at IS NULL", id).
		Updates(map[string]interface{}{
			"acknowledged_at": now,
			"is_read":         true,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var n models.Notification
		if err := s.DB.First(&n, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotificationNotFound
			}
			return err
		}
		return ErrAlreadyAcknowledged
	}
	s.publishUpdate(id)
	return nil
}

func (s *NotificationService) publishUpdate(id uint) {
	if s.Feed == nil {
		return
	}
	s.Feed.Publish(ChangeEvent{
		EntityType: "notification",
		Action:     "update",
		EntityID:   id,
	})
}
