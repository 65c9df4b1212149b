package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"visitor-backend/models"
)

// InductionService tracks health & safety induction completion. An induction
// is valid only against the site's current content version and within the
// fixed validity window.
type InductionService struct {
	DB    *gorm.DB
	Audit *AuditService
}

func NewInductionService(db *gorm.DB, audit *AuditService) *InductionService {
	return &InductionService{DB: db, Audit: audit}
}

// CheckValid reports whether the visitor holds a current induction for the
// site, returning the newest matching record when one exists.
func (s *InductionService) CheckValid(visitorID uint, site *models.Site) (bool, *models.InductionRecord, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -models.InductionValidityDays)

	var record models.InductionRecord
	err := s.DB.
		Where("visitor_id = ? AND site_id = ? AND content_version = ? AND completed_at >= ?",
			visitorID, site.ID, site.HSContentVersion, cutoff).
		Order("completed_at DESC").
		First(&record).Error
	if err == nil {
		return true, &record, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil, nil
	}
	return false, nil, fmt.Errorf("induction lookup failed: %w", err)
}

// Complete records a fresh induction for the visitor and stamps the visit.
func (s *InductionService) Complete(visitorID uint, site *models.Site, visitID uint, actorID *uint) error {
	now := time.Now().UTC()

	record := models.InductionRecord{
		VisitorID:      visitorID,
		SiteID:         site.ID,
		ContentVersion: site.HSContentVersion,
		CompletedAt:    now,
		VisitID:        &visitID,
	}
	if err := s.DB.Create(&record).Error; err != nil {
		return fmt.Errorf("failed to record induction: %w", err)
	}

	version := site.HSContentVersion
	if err := s.DB.Model(&models.Visit{}).
		Where("id = ?", visitID).
		Updates(map[string]interface{}{
			"induction_completed":    true,
			"induction_completed_at": now,
			"induction_version":      version,
		}).Error; err != nil {
		return fmt.Errorf("failed to stamp visit induction: %w", err)
	}

	s.Audit.Log("induction_completed", "induction_record", &record.ID, actorID, map[string]interface{}{
		"visitor_id":      visitorID,
		"visit_id":        visitID,
		"content_version": version,
	})
	return nil
}
