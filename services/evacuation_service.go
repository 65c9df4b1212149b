package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"visitor-backend/models"
)

// EvacuationService owns the site-wide evacuation gate. While an event is
// open for a site, check-in and sign-out are vetoed at the state-machine
// level; the headcount fields drive the muster view only.
type EvacuationService struct {
	DB            *gorm.DB
	Notifications *NotificationService
	Audit         *AuditService
	Feed          *ChangeFeed
}

func NewEvacuationService(db *gorm.DB, notifications *NotificationService, audit *AuditService, feed *ChangeFeed) *EvacuationService {
	return &EvacuationService{DB: db, Notifications: notifications, Audit: audit, Feed: feed}
}

// ActiveForSite returns the open evacuation event for the site, or nil.
func (s *EvacuationService) ActiveForSite(siteID uint) (*models.EvacuationEvent, error) {
	var ev models.EvacuationEvent
	err := s.DB.
		Where("site_id = ? AND closed_at IS NULL", siteID).
		First(&ev).Error
	if err == nil {
		return &ev, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, fmt.Errorf("evacuation lookup failed: %w", err)
}

// Activate opens an evacuation for the site, snapshotting the on-site
// headcount. Fails if one is already open; the singleton check runs inside a
// transaction with the site row locked so two terminals cannot both activate.
func (s *EvacuationService) Activate(siteID, activatedBy uint) (*models.EvacuationEvent, error) {
	now := time.Now().UTC()
	var event models.EvacuationEvent

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var site models.Site
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&site, siteID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSiteNotFound
			}
			return err
		}

		var open int64
		if err := tx.Model(&models.EvacuationEvent{}).
			Where("site_id = ? AND closed_at IS NULL", siteID).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return ErrEvacuationOngoing
		}

		var headcount int64
		if err := tx.Model(&models.Visit{}).
			Where("site_id = ? AND status = ?", siteID, models.VisitStatusCheckedIn).
			Count(&headcount).Error; err != nil {
			return err
		}

		event = models.EvacuationEvent{
			SiteID:                siteID,
			ActivatedBy:           activatedBy,
			ActivatedAt:           now,
			HeadcountAtActivation: int(headcount),
		}
		return tx.Create(&event).Error
	})
	if err != nil {
		return nil, err
	}

	s.broadcastActivation(&event)

	s.Audit.Log("evacuation_activated", "evacuation_event", &event.ID, &activatedBy, map[string]interface{}{
		"site_id":                 siteID,
		"headcount_at_activation": event.HeadcountAtActivation,
	})
	if s.Feed != nil {
		s.Feed.Publish(ChangeEvent{EntityType: "evacuation_event", Action: "insert", EntityID: event.ID, SiteID: siteID, Entity: event})
	}
	return &event, nil
}

// broadcastActivation alerts every active user at the site. Broadcast, not
// directed: no acknowledgement required.
func (s *EvacuationService) broadcastActivation(event *models.EvacuationEvent) {
	var users []models.User
	if err := s.DB.Where("site_id = ? AND is_active = ?", event.SiteID, true).Find(&users).Error; err != nil {
		log.Printf("warning: evacuation broadcast user lookup failed: %v", err)
		return
	}
	for i := range users {
		uid := users[i].ID
		if _, err := s.Notifications.Send(SendPayload{
			RecipientUserID:  &uid,
			NotificationType: models.NotificationEvacuationActivated,
			Title:            "EVACUATION IN PROGRESS",
			Body:             "An evacuation has been activated for your site. Proceed to the assembly point. Check-ins and sign-outs are suspended.",
		}); err != nil {
			log.Printf("warning: evacuation notification to user %d failed: %v", uid, err)
		}
	}
}

// Close ends an open evacuation. Idempotence comes from the conditional
// update on closed_at IS NULL: a second close reports the conflict.
func (s *EvacuationService) Close(id, closedBy uint, notes string) error {
	var event models.EvacuationEvent
	if err := s.DB.First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return gorm.ErrRecordNotFound
		}
		return err
	}

	now := time.Now().UTC()
	result := s.DB.Model(&models.EvacuationEvent{}).
		Where("id = ? AND closed_at IS NULL", id).
		Updates(map[string]interface{}{
			"closed_at": now,
			"closed_by": closedBy,
			"notes":     notes,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEvacuationClosed
	}

	// Reload for the final accounted tally.
	var closed models.EvacuationEvent
	if err := s.DB.First(&closed, id).Error; err == nil {
		event = closed
	}

	s.Audit.Log("evacuation_closed", "evacuation_event", &id, &closedBy, map[string]interface{}{
		"site_id":                 event.SiteID,
		"headcount_at_activation": event.HeadcountAtActivation,
		"headcount_accounted":     event.HeadcountAccounted,
		"notes":                   notes,
	})
	if s.Feed != nil {
		s.Feed.Publish(ChangeEvent{EntityType: "evacuation_event", Action: "update", EntityID: id, SiteID: event.SiteID})
	}
	return nil
}

// MarkAccounted persists the running accounted-for tally. Advisory only;
// it never gates transitions.
func (s *EvacuationService) MarkAccounted(id uint, accounted int) error {
	if accounted < 0 {
		accounted = 0
	}
	result := s.DB.Model(&models.EvacuationEvent{}).
		Where("id = ? AND closed_at IS NULL", id).
		Update("headcount_accounted", accounted)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEvacuationClosed
	}
	return nil
}

// Roster returns the on-site roster: visits checked in at the site, oldest
// arrival first, with visitor and host joined for the muster display.
func (s *EvacuationService) Roster(siteID uint) ([]models.Visit, error) {
	var visits []models.Visit
	if err := s.DB.
		Preload("Visitor").
		Preload("Host").
		Where("site_id = ? AND status = ?", siteID, models.VisitStatusCheckedIn).
		Order("actual_arrival").
		Find(&visits).Error; err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	return visits, nil
}
