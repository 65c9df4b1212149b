package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"visitor-backend/models"
)

// DenyListService manages visitor block records and answers the
// effective-block question at check-in time.
type DenyListService struct {
	DB *gorm.DB
}

func NewDenyListService(db *gorm.DB) *DenyListService {
	return &DenyListService{DB: db}
}

// Check returns the effective deny-list entry blocking the visitor at the
// site, or nil. Matches by visitor id first, then falls back to a
// case-insensitive email match.
func (s *DenyListService) Check(visitor *models.Visitor, siteID uint) (*models.DenyListEntry, error) {
	now := time.Now().UTC()

	var entry models.DenyListEntry
	err := s.DB.
		Where("site_id = ? AND visitor_id = ? AND is_active = ?", siteID, visitor.ID, true).
		Where("is_permanent = ? OR expires_at > ?", true, now).
		First(&entry).Error
	if err == nil {
		return &entry, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("deny list lookup failed: %w", err)
	}

	email := strings.TrimSpace(visitor.Email)
	if email == "" {
		return nil, nil
	}

	err = s.DB.
		Where("site_id = ? AND LOWER(visitor_email) = LOWER(?) AND is_active = ?", siteID, email, true).
		Where("is_permanent = ? OR expires_at > ?", true, now).
		First(&entry).Error
	if err == nil {
		return &entry, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, fmt.Errorf("deny list lookup failed: %w", err)
}

// AddPayload describes a new block record. Reason is mandatory.
type AddPayload struct {
	VisitorID    *uint
	VisitorName  string
	VisitorEmail string
	SiteID       uint
	Reason       string
	IsPermanent  bool
	ExpiresAt    *time.Time
	AddedBy      uint
}

func (s *DenyListService) Add(p AddPayload) (*models.DenyListEntry, error) {
	if strings.TrimSpace(p.Reason) == "" {
		return nil, ErrReasonRequired
	}
	entry := models.DenyListEntry{
		VisitorID:    p.VisitorID,
		VisitorName:  strings.TrimSpace(p.VisitorName),
		VisitorEmail: strings.TrimSpace(p.VisitorEmail),
		SiteID:       p.SiteID,
		Reason:       strings.TrimSpace(p.Reason),
		IsPermanent:  p.IsPermanent,
		ExpiresAt:    p.ExpiresAt,
		AddedBy:      p.AddedBy,
		IsActive:     true,
	}
	if err := s.DB.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("failed to create deny list entry: %w", err)
	}
	return &entry, nil
}

// Deactivate soft-removes an entry. Entries are retained for audit.
func (s *DenyListService) Deactivate(id uint) error {
	result := s.DB.Model(&models.DenyListEntry{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *DenyListService) ListForSite(siteID uint) ([]models.DenyListEntry, error) {
	var entries []models.DenyListEntry
	if err := s.DB.
		Where("site_id = ?", siteID).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list deny list entries: %w", err)
	}
	return entries, nil
}
