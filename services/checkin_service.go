package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"visitor-backend/models"
)

// CheckInService turns a scheduled visit into an on-site visitor. It runs the
// access decision (deny list, staff exemption, pre-approval) and performs the
// scheduled -> checked_in transition as a single conditional update, so two
// terminals racing on the same visit produce exactly one check-in.
//
// Induction and document gating are upstream of the access decision: CheckIn
// reports induction_required / documents_outstanding and the caller routes
// the visitor through CompleteInduction / AcceptDocuments first.
type CheckInService struct {
	DB            *gorm.DB
	DenyList      *DenyListService
	PreApprovals  *PreApprovalService
	Inductions    *InductionService
	Notifications *NotificationService
	Evacuations   *EvacuationService
	Audit         *AuditService
	Feed          *ChangeFeed
}

func NewCheckInService(
	db *gorm.DB,
	denyList *DenyListService,
	preApprovals *PreApprovalService,
	inductions *InductionService,
	notifications *NotificationService,
	evacuations *EvacuationService,
	audit *AuditService,
	feed *ChangeFeed,
) *CheckInService {
	return &CheckInService{
		DB:            db,
		DenyList:      denyList,
		PreApprovals:  preApprovals,
		Inductions:    inductions,
		Notifications: notifications,
		Evacuations:   evacuations,
		Audit:         audit,
		Feed:          feed,
	}
}

// CheckIn performs the full check-in workflow for visit visitID, acted by
// actorID. On success the visit is checked_in with access_status set to the
// engine's decision.
func (s *CheckInService) CheckIn(visitID, actorID uint) (*models.Visit, error) {
	visit, site, err := s.loadVisit(visitID)
	if err != nil {
		return nil, err
	}

	switch visit.Status {
	case models.VisitStatusScheduled:
		// proceed
	case models.VisitStatusCheckedIn:
		return nil, ErrAlreadyCheckedIn
	case models.VisitStatusCancelled:
		return nil, ErrAlreadyCancelled
	default:
		return nil, ErrNotScheduled
	}

	// Gate veto: during an evacuation no scheduled visit moves.
	open, err := s.Evacuations.ActiveForSite(visit.SiteID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, ErrEvacuationActive
	}

	// Upstream gating: both must be satisfied before the access decision.
	valid, _, err := s.Inductions.CheckValid(visit.VisitorID, site)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, ErrInductionRequired
	}
	outstanding, err := s.outstandingDocuments(visitID)
	if err != nil {
		return nil, err
	}
	if outstanding > 0 {
		return nil, ErrDocumentsOutstanding
	}

	// Deny list blocks before any access decision and alerts site staff.
	entry, err := s.DenyList.Check(&visit.Visitor, visit.SiteID)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		s.alertDenied(visit, entry)
		s.Audit.Log("deny_list_check_blocked", "visit", &visitID, &actorID, map[string]interface{}{
			"visitor_id":   visit.VisitorID,
			"deny_list_id": entry.ID,
		})
		return nil, &DeniedVisitorError{Entry: entry}
	}

	accessStatus, err := s.decideAccess(&visit.Visitor, visit.SiteID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result := s.DB.Model(&models.Visit{}).
		Where("id = ? AND status = ?", visitID, models.VisitStatusScheduled).
		Updates(map[string]interface{}{
			"status":         models.VisitStatusCheckedIn,
			"actual_arrival": now,
			"access_status":  accessStatus,
			"checked_in_by":  actorID,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("check-in update failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Lost the race: someone else transitioned this visit first.
		return nil, ErrAlreadyCheckedIn
	}

	s.notifyHostContacts(visit, accessStatus)

	s.Audit.Log("visit_checked_in", "visit", &visitID, &actorID, map[string]interface{}{
		"visitor_id":    visit.VisitorID,
		"access_status": accessStatus,
	})
	if s.Feed != nil {
		s.Feed.Publish(ChangeEvent{EntityType: "visit", Action: "update", EntityID: visitID, SiteID: visit.SiteID})
	}

	return s.reload(visitID)
}

// decideAccess is the access decision proper: internal staff never require an
// escort; third parties need an effective pre-approval for unescorted access.
func (s *CheckInService) decideAccess(visitor *models.Visitor, siteID uint) (string, error) {
	if visitor.VisitorType == models.VisitorTypeInternalStaff {
		return models.AccessStatusUnescorted, nil
	}
	pa, err := s.PreApprovals.EffectiveFor(visitor.ID, siteID)
	if err != nil {
		return "", err
	}
	if pa != nil {
		return models.AccessStatusUnescorted, nil
	}
	return models.AccessStatusAwaitingEscort, nil
}

// notifyHostContacts fans out the arrival alert to every host contact, plus
// an acknowledgement-required escort request when access is escorted. The
// escort_required notifications seed the escalation scheduler.
func (s *CheckInService) notifyHostContacts(visit *models.Visit, accessStatus string) {
	var contacts []models.VisitHostContact
	if err := s.DB.Where("visit_id = ?", visit.ID).Find(&contacts).Error; err != nil {
		log.Printf("warning: host contact lookup for visit %d failed: %v", visit.ID, err)
		return
	}

	accessLabel := "Unescorted"
	if accessStatus == models.AccessStatusAwaitingEscort {
		accessLabel = "Awaiting Escort"
	}
	company := visit.Visitor.Company
	if company == "" {
		company = "Unknown"
	}

	visitID := visit.ID
	for i := range contacts {
		uid := contacts[i].UserID
		if _, err := s.Notifications.Send(SendPayload{
			RecipientUserID:  &uid,
			VisitID:          &visitID,
			NotificationType: models.NotificationCheckinHostAlert,
			Title:            fmt.Sprintf("%s has checked in", visit.Visitor.Name),
			Body: fmt.Sprintf("%s from %s has arrived for: %s. Access: %s.",
				visit.Visitor.Name, company, visit.Purpose, accessLabel),
		}); err != nil {
			log.Printf("warning: check-in alert to user %d failed: %v", uid, err)
		}
	}

	if accessStatus != models.AccessStatusAwaitingEscort {
		return
	}
	for i := range contacts {
		uid := contacts[i].UserID
		if _, err := s.Notifications.Send(SendPayload{
			RecipientUserID:  &uid,
			VisitID:          &visitID,
			NotificationType: models.NotificationEscortRequired,
			Title:            fmt.Sprintf("Visitor awaiting escort: %s", visit.Visitor.Name),
			Body: fmt.Sprintf("%s from %s has checked in for %s. They require an escort. Please acknowledge and collect them.",
				visit.Visitor.Name, company, visit.Purpose),
			RequiresAck: true,
		}); err != nil {
			log.Printf("warning: escort request to user %d failed: %v", uid, err)
		}
	}
}

func (s *CheckInService) alertDenied(visit *models.Visit, entry *models.DenyListEntry) {
	company := visit.Visitor.Company
	if company == "" {
		company = "Unknown"
	}
	visitID := visit.ID
	if _, err := s.Notifications.NotifySiteStaff(visit.SiteID, SendPayload{
		VisitID:          &visitID,
		NotificationType: models.NotificationDenyListAlert,
		Title:            fmt.Sprintf("Denied visitor: %s", visit.Visitor.Name),
		Body: fmt.Sprintf("%s from %s attempted to check in but is on the deny list. Reason: %s",
			visit.Visitor.Name, company, entry.Reason),
	}); err != nil {
		log.Printf("warning: deny list alert for visit %d failed: %v", visit.ID, err)
	}
}

// CompleteInduction records the visitor's induction against the site's
// current content version and stamps the visit.
func (s *CheckInService) CompleteInduction(visitID, actorID uint) error {
	visit, site, err := s.loadVisit(visitID)
	if err != nil {
		return err
	}
	actor := actorID
	return s.Inductions.Complete(visit.VisitorID, site, visitID, &actor)
}

// AcceptDocuments marks every outstanding document on the visit accepted and
// stamps the visit.
func (s *CheckInService) AcceptDocuments(visitID, actorID uint) error {
	if _, _, err := s.loadVisit(visitID); err != nil {
		return err
	}

	now := time.Now().UTC()
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.VisitDocument{}).
			Where("visit_id = ? AND accepted = ?", visitID, false).
			Updates(map[string]interface{}{"accepted": true, "accepted_at": now}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Visit{}).
			Where("id = ?", visitID).
			Updates(map[string]interface{}{
				"documents_accepted":    true,
				"documents_accepted_at": now,
			}).Error
	})
	if err != nil {
		return fmt.Errorf("document acceptance failed: %w", err)
	}

	s.Audit.Log("document_accepted", "visit_document", &visitID, &actorID, nil)
	return nil
}

func (s *CheckInService) outstandingDocuments(visitID uint) (int64, error) {
	var count int64
	if err := s.DB.Model(&models.VisitDocument{}).
		Where("visit_id = ? AND accepted = ?", visitID, false).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("document lookup failed: %w", err)
	}
	return count, nil
}

func (s *CheckInService) loadVisit(visitID uint) (*models.Visit, *models.Site, error) {
	var visit models.Visit
	if err := s.DB.Preload("Visitor").First(&visit, visitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrVisitNotFound
		}
		return nil, nil, fmt.Errorf("failed to load visit: %w", err)
	}
	var site models.Site
	if err := s.DB.First(&site, visit.SiteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrSiteNotFound
		}
		return nil, nil, fmt.Errorf("failed to load site: %w", err)
	}
	return &visit, &site, nil
}

func (s *CheckInService) reload(visitID uint) (*models.Visit, error) {
	var visit models.Visit
	if err := s.DB.Preload("Visitor").Preload("Host").First(&visit, visitID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload visit: %w", err)
	}
	return &visit, nil
}
