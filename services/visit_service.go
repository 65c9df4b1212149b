package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"visitor-backend/models"
	"visitor-backend/utils"
)

// VisitService owns the visit lifecycle: scheduled -> checked_in -> departed,
// scheduled -> cancelled. Check-in itself lives in CheckInService because it
// folds in the access decision; every other transition is here. All
// transitions are conditional updates keyed on the expected prior status so
// concurrent sessions racing on one visit resolve to exactly one winner.
type VisitService struct {
	DB            *gorm.DB
	Notifications *NotificationService
	Audit         *AuditService
	Evacuations   *EvacuationService
	Feed          *ChangeFeed
}

func NewVisitService(db *gorm.DB, notifications *NotificationService, audit *AuditService, evacuations *EvacuationService, feed *ChangeFeed) *VisitService {
	return &VisitService{DB: db, Notifications: notifications, Audit: audit, Evacuations: evacuations, Feed: feed}
}

// SchedulePayload carries a new visit request. BackupUserID optionally names
// a second responder for the escort escalation chain.
type SchedulePayload struct {
	VisitorID        uint
	SiteID           uint
	HostUserID       uint
	BackupUserID     *uint
	Purpose          string
	PlannedArrival   time.Time
	PlannedDeparture time.Time
	IsWalkIn         bool
	ScheduledBy      uint
}

func (s *VisitService) Schedule(p SchedulePayload) (*models.Visit, error) {
	if !p.PlannedDeparture.After(p.PlannedArrival) {
		return nil, ErrInvalidPlannedWindow
	}
	if strings.TrimSpace(p.Purpose) == "" {
		return nil, errors.New("purpose_required")
	}

	var visitor models.Visitor
	if err := s.DB.First(&visitor, p.VisitorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVisitorNotFound
		}
		return nil, fmt.Errorf("failed to load visitor: %w", err)
	}
	var site models.Site
	if err := s.DB.First(&site, p.SiteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSiteNotFound
		}
		return nil, fmt.Errorf("failed to load site: %w", err)
	}
	var host models.User
	if err := s.DB.First(&host, p.HostUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load host: %w", err)
	}

	visit := models.Visit{
		VisitorID:        p.VisitorID,
		SiteID:           p.SiteID,
		HostUserID:       p.HostUserID,
		Purpose:          strings.TrimSpace(p.Purpose),
		PlannedArrival:   p.PlannedArrival,
		PlannedDeparture: p.PlannedDeparture,
		Status:           models.VisitStatusScheduled,
		IsWalkIn:         p.IsWalkIn,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&visit).Error; err != nil {
			return fmt.Errorf("failed to create visit: %w", err)
		}

		contacts := []models.VisitHostContact{
			{VisitID: visit.ID, UserID: p.HostUserID, IsBackup: false},
		}
		if p.BackupUserID != nil && *p.BackupUserID != p.HostUserID {
			contacts = append(contacts, models.VisitHostContact{
				VisitID: visit.ID, UserID: *p.BackupUserID, IsBackup: true,
			})
		}
		if err := tx.Create(&contacts).Error; err != nil {
			return fmt.Errorf("failed to create host contacts: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyScheduled(&visit, &visitor, &host)

	// Best-effort invite; walk-ins are already on site.
	if !p.IsWalkIn && visitor.Email != "" {
		link := utils.BuildSelfServiceLink(utils.EnvOrDefault("FRONTEND_URL", "http://localhost:3000"), visitor.AccessToken)
		if mailErr := utils.SendVisitInviteEmail(
			visitor.Email, visitor.Name, site.Name, host.Name,
			visit.Purpose, visit.PlannedArrival.Format(time.RFC1123), link,
		); mailErr != nil {
			log.Printf("warning: invite email for visit %d failed: %v", visit.ID, mailErr)
		}
	}

	s.Audit.Log("visit_scheduled", "visit", &visit.ID, &p.ScheduledBy, map[string]interface{}{
		"visitor_id": p.VisitorID,
		"site_id":    p.SiteID,
		"is_walk_in": p.IsWalkIn,
	})
	s.publish("insert", &visit)
	return &visit, nil
}

func (s *VisitService) notifyScheduled(visit *models.Visit, visitor *models.Visitor, host *models.User) {
	hostID := host.ID
	visitID := visit.ID
	notifType := models.NotificationVisitScheduled
	title := fmt.Sprintf("Visit scheduled: %s", visitor.Name)
	if visit.IsWalkIn {
		notifType = models.NotificationWalkInHostConfirm
		title = fmt.Sprintf("Walk-in visitor: %s", visitor.Name)
	}
	if _, err := s.Notifications.Send(SendPayload{
		RecipientUserID:  &hostID,
		VisitID:          &visitID,
		NotificationType: notifType,
		Title:            title,
		Body: fmt.Sprintf("%s is visiting for: %s. Planned arrival %s.",
			visitor.Name, visit.Purpose, visit.PlannedArrival.Format(time.RFC1123)),
	}); err != nil {
		log.Printf("warning: schedule notification for visit %d failed: %v", visit.ID, err)
	}
}

// SignOut moves a checked-in visit to departed. Vetoed while the site's
// evacuation gate is open.
func (s *VisitService) SignOut(visitID uint) error {
	visit, err := s.GetByID(visitID)
	if err != nil {
		return err
	}

	open, err := s.Evacuations.ActiveForSite(visit.SiteID)
	if err != nil {
		return err
	}
	if open != nil {
		return ErrEvacuationActive
	}

	if visit.Status != models.VisitStatusCheckedIn {
		return ErrNotCheckedIn
	}

	now := time.Now().UTC()
	result := s.DB.Model(&models.Visit{}).
		Where("id = ? AND status = ?", visitID, models.VisitStatusCheckedIn).
		Updates(map[string]interface{}{
			"status":           models.VisitStatusDeparted,
			"actual_departure": now,
			// access_status only has meaning while on site.
			"access_status": nil,
		})
	if result.Error != nil {
		return fmt.Errorf("sign-out update failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotCheckedIn
	}

	s.Audit.Log("visit_signed_out", "visit", &visitID, visit.CheckedInBy, map[string]interface{}{
		"visitor_id": visit.VisitorID,
	})
	s.publish("update", visit)
	return nil
}

// Cancel is allowed only while the visit is still scheduled. Cancelled visits
// are retained for audit, never deleted.
func (s *VisitService) Cancel(visitID, actorID uint) error {
	visit, err := s.GetByID(visitID)
	if err != nil {
		return err
	}
	if visit.Status == models.VisitStatusCancelled {
		return ErrAlreadyCancelled
	}
	if visit.Status != models.VisitStatusScheduled {
		return ErrNotScheduled
	}

	result := s.DB.Model(&models.Visit{}).
		Where("id = ? AND status = ?", visitID, models.VisitStatusScheduled).
		Update("status", models.VisitStatusCancelled)
	if result.Error != nil {
		return fmt.Errorf("cancel update failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotScheduled
	}

	hostID := visit.HostUserID
	if _, err := s.Notifications.Send(SendPayload{
		RecipientUserID:  &hostID,
		VisitID:          &visitID,
		NotificationType: models.NotificationVisitCancelled,
		Title:            "Visit cancelled",
		Body:             fmt.Sprintf("The visit by %s has been cancelled.", visit.Visitor.Name),
	}); err != nil {
		log.Printf("warning: cancel notification for visit %d failed: %v", visitID, err)
	}

	s.Audit.Log("visit_cancelled", "visit", &visitID, &actorID, nil)
	s.publish("update", visit)
	return nil
}

func (s *VisitService) GetByID(id uint) (*models.Visit, error) {
	var visit models.Visit
	err := s.DB.
		Preload("Visitor").
		Preload("Host").
		Preload("HostContacts").
		First(&visit, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVisitNotFound
		}
		return nil, fmt.Errorf("failed to load visit: %w", err)
	}
	return &visit, nil
}

// TodaysVisits returns today's still-scheduled visits at the site, in
// planned-arrival order.
func (s *VisitService) TodaysVisits(siteID uint) ([]models.Visit, error) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1)

	var visits []models.Visit
	if err := s.DB.
		Preload("Visitor").
		Preload("Host").
		Where("site_id = ? AND status = ? AND planned_arrival >= ? AND planned_arrival < ?",
			siteID, models.VisitStatusScheduled, start, end).
		Order("planned_arrival").
		Find(&visits).Error; err != nil {
		return nil, fmt.Errorf("failed to list today's visits: %w", err)
	}
	return visits, nil
}

func (s *VisitService) CheckedInVisits(siteID uint) ([]models.Visit, error) {
	var visits []models.Visit
	if err := s.DB.
		Preload("Visitor").
		Preload("Host").
		Where("site_id = ? AND status = ?", siteID, models.VisitStatusCheckedIn).
		Order("actual_arrival").
		Find(&visits).Error; err != nil {
		return nil, fmt.Errorf("failed to list checked-in visits: %w", err)
	}
	return visits, nil
}

// OverdueVisits projects the derived overdue status: checked in, planned
// departure already passed.
func (s *VisitService) OverdueVisits(siteID uint) ([]models.Visit, error) {
	var visits []models.Visit
	if err := s.DB.
		Preload("Visitor").
		Preload("Host").
		Where("site_id = ? AND status = ? AND planned_departure < ?",
			siteID, models.VisitStatusCheckedIn, time.Now().UTC()).
		Order("planned_departure").
		Find(&visits).Error; err != nil {
		return nil, fmt.Errorf("failed to list overdue visits: %w", err)
	}
	return visits, nil
}

func (s *VisitService) AwaitingEscortVisits(siteID uint) ([]models.Visit, error) {
	var visits []models.Visit
	if err := s.DB.
		Preload("Visitor").
		Preload("Host").
		Where("site_id = ? AND status = ? AND access_status = ?",
			siteID, models.VisitStatusCheckedIn, models.AccessStatusAwaitingEscort).
		Order("actual_arrival").
		Find(&visits).Error; err != nil {
		return nil, fmt.Errorf("failed to list awaiting-escort visits: %w", err)
	}
	return visits, nil
}

// UpcomingVisits returns scheduled visits from tomorrow onward.
func (s *VisitService) UpcomingVisits(siteID uint) ([]models.Visit, error) {
	now := time.Now()
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)

	var visits []models.Visit
	if err := s.DB.
		Preload("Visitor").
		Preload("Host").
		Where("site_id = ? AND status = ? AND planned_arrival >= ?",
			siteID, models.VisitStatusScheduled, tomorrow).
		Order("planned_arrival").
		Find(&visits).Error; err != nil {
		return nil, fmt.Errorf("failed to list upcoming visits: %w", err)
	}
	return visits, nil
}

func (s *VisitService) VisitsForVisitor(visitorID uint) ([]models.Visit, error) {
	var visits []models.Visit
	if err := s.DB.
		Preload("Visitor").
		Preload("Host").
		Where("visitor_id = ?", visitorID).
		Order("planned_arrival DESC").
		Find(&visits).Error; err != nil {
		return nil, fmt.Errorf("failed to list visitor's visits: %w", err)
	}
	return visits, nil
}

func (s *VisitService) publish(action string, visit *models.Visit) {
	if s.Feed == nil {
		return
	}
	s.Feed.Publish(ChangeEvent{
		EntityType: "visit",
		Action:     action,
		EntityID:   visit.ID,
		SiteID:     visit.SiteID,
	})
}
