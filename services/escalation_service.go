package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"visitor-backend/models"
)

// EscalationService reconciles stale escort requests up the responder chain:
// primary host -> backup contact -> reception/site-admin pool. It is driven
// by a polling tick rather than the change feed because staleness is a
// time-based condition, not a change event.
//
// Idempotence: a processed escort_required notification is marked escalated
// through a conditional update (escalated was false), so re-running a tick
// with no new stale input is a no-op even across concurrent instances.
type EscalationService struct {
	DB            *gorm.DB
	Notifications *NotificationService
	Audit         *AuditService
}

func NewEscalationService(db *gorm.DB, notifications *NotificationService, audit *AuditService) *EscalationService {
	return &EscalationService{DB: db, Notifications: notifications, Audit: audit}
}

// RunTick runs one reconciliation pass over every active site. A failure in
// one site's sweep is logged and does not abort the others.
func (s *EscalationService) RunTick(now time.Time) {
	var sites []models.Site
	if err := s.DB.Where("is_active = ?", true).Find(&sites).Error; err != nil {
		log.Printf("escalation tick: site lookup failed: %v", err)
		return
	}
	for i := range sites {
		if err := s.RunTickForSite(&sites[i], now); err != nil {
			log.Printf("escalation tick: site %d sweep failed: %v", sites[i].ID, err)
		}
	}
}

// RunTickForSite sweeps one site for stale, unacknowledged, not-yet-escalated
// escort requests and applies the two-tier chain to each. Failures escalating
// one visit are isolated: the rest of the batch proceeds, and the failed
// notification stays unmarked so the next tick retries it.
func (s *EscalationService) RunTickForSite(site *models.Site, now time.Time) error {
	cutoff := now.Add(-site.EscalationWindow())

	var stale []models.Notification
	err := s.DB.
		Joins("JOIN visits ON visits.id = notifications.visit_id").
		Where("visits.site_id = ?", site.ID).
		Where("notifications.notification_type = ?", models.NotificationEscortRequired).
		Where("notifications.requires_acknowledgement = ?", true).
		Where("notifications.acknowledged_at IS NULL").
		Where("notifications.escalated = ?", false).
		Where("notifications.created_at < ?", cutoff).
		Find(&stale).Error
	if err != nil {
		return fmt.Errorf("stale notification query failed: %w", err)
	}

	for i := range stale {
		if err := s.escalate(site, &stale[i], cutoff); err != nil {
			log.Printf("escalation for visit %v failed: %v", derefUint(stale[i].VisitID), err)
		}
	}
	return nil
}

// escalate applies the chain for one stale escort request:
//
//	no prior escalation + backup exists  -> escalation to the backup
//	no prior escalation + no backup      -> escalation_reception broadcast
//	prior escalation unacknowledged and itself past the window
//	                                     -> escalation_reception broadcast
//	otherwise                            -> no action, notification unmarked
//
// The prior escalation's own staleness is judged by its created_at.
func (s *EscalationService) escalate(site *models.Site, notif *models.Notification, cutoff time.Time) error {
	if notif.VisitID == nil {
		return nil
	}
	visitID := *notif.VisitID

	var backup models.VisitHostContact
	hasBackup := true
	err := s.DB.
		Where("visit_id = ? AND is_backup = ?", visitID, true).
		First(&backup).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		hasBackup = false
	} else if err != nil {
		return fmt.Errorf("backup contact lookup failed: %w", err)
	}

	var prior models.Notification
	hasPrior := true
	err = s.DB.
		Where("visit_id = ? AND notification_type = ?", visitID, models.NotificationEscalation).
		Order("created_at").
		First(&prior).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		hasPrior = false
	} else if err != nil {
		return fmt.Errorf("prior escalation lookup failed: %w", err)
	}

	var escalationType string
	switch {
	case !hasPrior && hasBackup:
		escalationType = models.NotificationEscalation
	case !hasPrior && !hasBackup:
		escalationType = models.NotificationEscalationReception
	case prior.AcknowledgedAt == nil && prior.CreatedAt.Before(cutoff):
		escalationType = models.NotificationEscalationReception
	default:
		// Prior escalation still within its own window, or already
		// acknowledged. Leave the originating request unmarked.
		return nil
	}

	if escalationType == models.NotificationEscalation {
		uid := backup.UserID
		if _, err := s.Notifications.Send(SendPayload{
			RecipientUserID:  &uid,
			VisitID:          &visitID,
			NotificationType: models.NotificationEscalation,
			Title:            "Escalation: Visitor awaiting escort",
			Body:             "The primary host has not responded. Please collect the visitor.",
			RequiresAck:      true,
		}); err != nil {
			return fmt.Errorf("backup escalation send failed: %w", err)
		}
	} else {
		if _, err := s.Notifications.NotifySiteStaff(site.ID, SendPayload{
			VisitID:          &visitID,
			NotificationType: models.NotificationEscalationReception,
			Title:            "Escalation: Host not responding",
			Body: fmt.Sprintf("No host has acknowledged the escort request for visit %d. Please follow up manually.",
				visitID),
		}); err != nil {
			return fmt.Errorf("reception escalation send failed: %w", err)
		}
	}

	// The conditional update keeps concurrently running schedulers from both
	// claiming this notification.
	result := s.DB.Model(&models.Notification{}).
		Where("id = ? AND escalated = ?", notif.ID, false).
		Update("escalated", true)
	if result.Error != nil {
		return fmt.Errorf("mark escalated failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		log.Printf("notification %d already escalated by another scheduler instance", notif.ID)
		return nil
	}

	s.Audit.Log("escalation_triggered", "notification", &notif.ID, nil, map[string]interface{}{
		"visit_id":        visitID,
		"escalation_type": escalationType,
	})
	return nil
}

func derefUint(p *uint) uint {
	if p == nil {
		return 0
	}
	return *p
}
