package services

import (
	"encoding/json"
	"log"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"visitor-backend/models"
)

// AuditService appends workflow audit entries. Failures are logged and
// swallowed: audit is an observability concern and must never roll back the
// transition that produced it.
type AuditService struct {
	DB *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{DB: db}
}

func (s *AuditService) Log(action, entityType string, entityID, userID *uint, details map[string]interface{}) {
	entry := models.AuditLogEntry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		UserID:     userID,
	}
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err != nil {
			log.Printf("warning: audit details marshal failed for %s: %v", action, err)
		} else {
			entry.Details = datatypes.JSON(raw)
		}
	}
	if err := s.DB.Create(&entry).Error; err != nil {
		log.Printf("warning: audit write failed for %s on %s: %v", action, entityType, err)
	}
}

// Recent returns the newest entries, most recent first.
func (s *AuditService) Recent(limit int) ([]models.AuditLogEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []models.AuditLogEntry
	if err := s.DB.Order("created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
