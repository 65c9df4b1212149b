package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"visitor-backend/models"
	"visitor-backend/services"
	"visitor-backend/utils"
)

type SiteController struct {
	DB    *gorm.DB
	Audit *services.AuditService
}

func NewSiteController(db *gorm.DB, audit *services.AuditService) *SiteController {
	return &SiteController{DB: db, Audit: audit}
}

func (sc *SiteController) Get(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	var site models.Site
	if err := sc.DB.First(&site, id).Error; err != nil {
		respondServiceError(c, services.ErrSiteNotFound)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, site)
}

type siteSettingsPayload struct {
	Name                          *string `json:"name"`
	Address                       *string `json:"address"`
	Region                        *string `json:"region"`
	HSVideoURL                    *string `json:"hs_video_url"`
	HSWrittenContent              *string `json:"hs_written_content"`
	NotificationEscalationMinutes *int    `json:"notification_escalation_minutes"`
	PreApprovalDefaultDays        *int    `json:"pre_approval_default_days"`
	BumpContentVersion            bool    `json:"bump_content_version"`
}

// Update applies partial site settings. Bumping the content version
// invalidates every induction completed against the old content.
func (sc *SiteController) Update(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	var payload siteSettingsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, err.Error())
		return
	}

	var site models.Site
	if err := sc.DB.First(&site, id).Error; err != nil {
		respondServiceError(c, services.ErrSiteNotFound)
		return
	}

	updates := map[string]interface{}{}
	if payload.Name != nil {
		updates["name"] = *payload.Name
	}
	if payload.Address != nil {
		updates["address"] = *payload.Address
	}
	if payload.Region != nil {
		updates["region"] = *payload.Region
	}
	if payload.HSVideoURL != nil {
		updates["hs_video_url"] = *payload.HSVideoURL
	}
	if payload.HSWrittenContent != nil {
		updates["hs_written_content"] = *payload.HSWrittenContent
	}
	if payload.NotificationEscalationMinutes != nil && *payload.NotificationEscalationMinutes > 0 {
		updates["notification_escalation_minutes"] = *payload.NotificationEscalationMinutes
	}
	if payload.PreApprovalDefaultDays != nil && *payload.PreApprovalDefaultDays > 0 {
		updates["pre_approval_default_days"] = *payload.PreApprovalDefaultDays
	}
	if payload.BumpContentVersion {
		updates["hs_content_version"] = site.HSContentVersion + 1
	}

	if len(updates) == 0 {
		utils.JSONSuccess(c, http.StatusOK, site)
		return
	}
	if err := sc.DB.Model(&site).Updates(updates).Error; err != nil {
		utils.JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSONSuccess(c, http.StatusOK, site)
}

// AuditTrail serves the newest audit entries for review.
func (sc *SiteController) AuditTrail(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	entries, err := sc.Audit.Recent(limit)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSONSuccess(c, http.StatusOK, entries)
}
