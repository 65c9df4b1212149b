package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"visitor-backend/models"
	"visitor-backend/utils"
)

// VisitorService manages visitor records. Visitors get a random access token
// on creation, used for self-service links.
type VisitorService struct {
	DB *gorm.DB
}

func NewVisitorService(db *gorm.DB) *VisitorService {
	return &VisitorService{DB: db}
}

type VisitorPayload struct {
	Name        string
	Email       string
	Phone       string
	Company     string
	VisitorType string
	CreatedBy   uint
}

func (s *VisitorService) Create(p VisitorPayload) (*models.Visitor, error) {
	name := strings.TrimSpace(p.Name)
	email := strings.TrimSpace(p.Email)
	if name == "" {
		return nil, errors.New("name_required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.New("invalid_email")
	}
	visitorType := p.VisitorType
	if visitorType != models.VisitorTypeInternalStaff {
		visitorType = models.VisitorTypeThirdParty
	}

	token, err := utils.GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	visitor := models.Visitor{
		Name:        name,
		Email:       email,
		Phone:       strings.TrimSpace(p.Phone),
		Company:     strings.TrimSpace(p.Company),
		VisitorType: visitorType,
		AccessToken: token,
		CreatedBy:   p.CreatedBy,
	}
	if err := s.DB.Create(&visitor).Error; err != nil {
		return nil, fmt.Errorf("failed to create visitor: %w", err)
	}
	return &visitor, nil
}

func (s *VisitorService) GetByID(id uint) (*models.Visitor, error) {
	var visitor models.Visitor
	if err := s.DB.First(&visitor, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVisitorNotFound
		}
		return nil, fmt.Errorf("failed to load visitor: %w", err)
	}
	return &visitor, nil
}

func (s *VisitorService) GetByAccessToken(token string) (*models.Visitor, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrVisitorNotFound
	}
	var visitor models.Visitor
	if err := s.DB.Where("access_token = ?", token).First(&visitor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVisitorNotFound
		}
		return nil, fmt.Errorf("failed to load visitor: %w", err)
	}
	return &visitor, nil
}

// Search matches on name, email or company, case-insensitively.
func (s *VisitorService) Search(query string, limit int) ([]models.Visitor, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []models.Visitor{}, nil
	}
	like := "%" + q + "%"

	var visitors []models.Visitor
	if err := s.DB.
		Where("is_anonymised = ?", false).
		Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(company) LIKE ?", like, like, like).
		Order("name").
		Limit(limit).
		Find(&visitors).Error; err != nil {
		return nil, fmt.Errorf("visitor search failed: %w", err)
	}
	return visitors, nil
}

// Anonymise scrubs personal data in place while retaining the row so old
// visits keep a referent.
func (s *VisitorService) Anonymise(id uint) error {
	result := s.DB.Model(&models.Visitor{}).
		Where("id = ? AND is_anonymised = ?", id, false).
		Updates(map[string]interface{}{
			"name":          fmt.Sprintf("Anonymised visitor %d", id),
			"email":         "",
			"phone":         "",
			"company":       "",
			"is_anonymised": true,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVisitorNotFound
	}
	return nil
}
