package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"visitor-backend/models"
)

// PreApprovalService manages standing unescorted-access grants for
// (visitor, site) pairs.
type PreApprovalService struct {
	DB            *gorm.DB
	Notifications *NotificationService
	Audit         *AuditService
}

func NewPreApprovalService(db *gorm.DB, notifications *NotificationService, audit *AuditService) *PreApprovalService {
	return &PreApprovalService{DB: db, Notifications: notifications, Audit: audit}
}

// EffectiveFor returns the approved, unexpired pre-approval for the pair, or
// nil when none exists.
func (s *PreApprovalService) EffectiveFor(visitorID, siteID uint) (*models.PreApproval, error) {
	var pa models.PreApproval
	err := s.DB.
		Where("visitor_id = ? AND site_id = ? AND status = ?",
			visitorID, siteID, models.PreApprovalStatusApproved).
		Order("expires_at DESC").
		First(&pa).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("pre-approval lookup failed: %w", err)
	}
	if !pa.IsEffective(time.Now().UTC()) {
		return nil, nil
	}
	return &pa, nil
}

// Request opens a pending pre-approval and alerts site staff to review it.
func (s *PreApprovalService) Request(visitorID, siteID, requestedBy uint, reason string) (*models.PreApproval, error) {
	pa := models.PreApproval{
		VisitorID:   visitorID,
		SiteID:      siteID,
		RequestedBy: requestedBy,
		Status:      models.PreApprovalStatusPending,
		Reason:      reason,
	}
	if err := s.DB.Create(&pa).Error; err != nil {
		return nil, fmt.Errorf("failed to create pre-approval: %w", err)
	}

	if _, err := s.Notifications.NotifySiteStaff(siteID, SendPayload{
		NotificationType: models.NotificationPreApprovalRequest,
		Title:            "Pre-approval requested",
		Body:             fmt.Sprintf("A pre-approval request for visitor %d is awaiting review.", visitorID),
	}); err != nil {
		// Reviewers will still see the pending record in the queue.
		log.Printf("warning: pre-approval request fan-out failed: %v", err)
	}

	s.Audit.Log("pre_approval_requested", "pre_approval", &pa.ID, &requestedBy, map[string]interface{}{
		"visitor_id": visitorID,
		"site_id":    siteID,
	})
	return &pa, nil
}

// Approve moves a pending request to approved with expiry taken from the
// site's default window. Conditional on the request still being pending.
func (s *PreApprovalService) Approve(id, approvedBy uint) error {
	pa, site, err := s.loadWithSite(id)
	if err != nil {
		return err
	}

	expires := time.Now().UTC().AddDate(0, 0, site.PreApprovalDefaultDays)
	result := s.DB.Model(&models.PreApproval{}).
		Where("id = ? AND status = ?", id, models.PreApprovalStatusPending).
		Updates(map[string]interface{}{
			"status":      models.PreApprovalStatusApproved,
			"approved_by": approvedBy,
			"expires_at":  expires,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPreApprovalNotPending
	}

	s.notifyDecision(pa, "approved")
	s.Audit.Log("pre_approval_approved", "pre_approval", &id, &approvedBy, map[string]interface{}{
		"expires_at": expires,
	})
	return nil
}

// Reject moves a pending request to rejected with the reviewer's reason.
func (s *PreApprovalService) Reject(id, reviewedBy uint, reason string) error {
	pa, _, err := s.loadWithSite(id)
	if err != nil {
		return err
	}

	result := s.DB.Model(&models.PreApproval{}).
		Where("id = ? AND status = ?", id, models.PreApprovalStatusPending).
		Updates(map[string]interface{}{
			"status":      models.PreApprovalStatusRejected,
			"approved_by": reviewedBy,
			"reason":      reason,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPreApprovalNotPending
	}

	s.notifyDecision(pa, "rejected")
	s.Audit.Log("pre_approval_rejected", "pre_approval", &id, &reviewedBy, nil)
	return nil
}

// Revoke withdraws an approved grant. Conditional on it still being approved.
func (s *PreApprovalService) Revoke(id, revokedBy uint) error {
	now := time.Now().UTC()
	result := s.DB.Model(&models.PreApproval{}).
		Where("id = ? AND status = ?", id, models.PreApprovalStatusApproved).
		Updates(map[string]interface{}{
			"status":     models.PreApprovalStatusRevoked,
			"revoked_at": now,
			"revoked_by": revokedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPreApprovalNotFound
	}
	s.Audit.Log("pre_approval_revoked", "pre_approval", &id, &revokedBy, nil)
	return nil
}

func (s *PreApprovalService) ListForSite(siteID uint) ([]models.PreApproval, error) {
	var list []models.PreApproval
	if err := s.DB.
		Where("site_id = ?", siteID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list pre-approvals: %w", err)
	}
	return list, nil
}

func (s *PreApprovalService) loadWithSite(id uint) (*models.PreApproval, *models.Site, error) {
	var pa models.PreApproval
	if err := s.DB.First(&pa, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrPreApprovalNotFound
		}
		return nil, nil, err
	}
	var site models.Site
	if err := s.DB.First(&site, pa.SiteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrSiteNotFound
		}
		return nil, nil, err
	}
	return &pa, &site, nil
}

func (s *PreApprovalService) notifyDecision(pa *models.PreApproval, outcome string) {
	uid := pa.RequestedBy
	if _, err := s.Notifications.Send(SendPayload{
		RecipientUserID:  &uid,
		NotificationType: models.NotificationPreApprovalDecision,
		Title:            fmt.Sprintf("Pre-approval %s", outcome),
		Body:             fmt.Sprintf("Your pre-approval request for visitor %d was %s.", pa.VisitorID, outcome),
	}); err != nil {
		log.Printf("warning: pre-approval decision notification failed: %v", err)
	}
}
