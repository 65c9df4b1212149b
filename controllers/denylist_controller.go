package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"visitor-backend/middleware"
	"visitor-backend/services"
	"visitor-backend/utils"
)

type DenyListController struct {
	DenyList *services.DenyListService
	Audit    *services.AuditService
}

func NewDenyListController(denyList *services.DenyListService, audit *services.AuditService) *DenyListController {
	return &DenyListController{DenyList: denyList, Audit: audit}
}

func (dc *DenyListController) List(c *gin.Context) {
	siteID, ok := queryUint(c, "site_id")
	if !ok {
		utils.JSONError(c, http.StatusBadRequest, "site_id is required")
		return
	}
	entries, err := dc.DenyList.ListForSite(siteID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, entries)
}

type addDenyPayload struct {
	VisitorID    *uint      `json:"visitor_id"`
	VisitorName  string     `json:"visitor_name" binding:"required"`
	VisitorEmail string     `json:"visitor_email"`
	SiteID       uint       `json:"site_id" binding:"required"`
	Reason       string     `json:"reason" binding:"required"`
	IsPermanent  bool       `json:"is_permanent"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

func (dc *DenyListController) Add(c *gin.Context) {
	var payload addDenyPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, err.Error())
		return
	}
	actor := middleware.CurrentUser(c)

	entry, err := dc.DenyList.Add(services.AddPayload{
		VisitorID:    payload.VisitorID,
		VisitorName:  payload.VisitorName,
		VisitorEmail: payload.VisitorEmail,
		SiteID:       payload.SiteID,
		Reason:       payload.Reason,
		IsPermanent:  payload.IsPermanent,
		ExpiresAt:    payload.ExpiresAt,
		AddedBy:      actor.ID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	dc.Audit.Log("deny_list_added", "deny_list_entry", &entry.ID, &actor.ID, map[string]interface{}{
		"site_id":      payload.SiteID,
		"is_permanent": payload.IsPermanent,
	})
	utils.JSONSuccess(c, http.StatusCreated, entry)
}

func (dc *DenyListController) Deactivate(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	actor := middleware.CurrentUser(c)

	if err := dc.DenyList.Deactivate(id); err != nil {
		respondServiceError(c, err)
		return
	}
	dc.Audit.Log("deny_list_deactivated", "deny_list_entry", &id, &actor.ID, nil)
	utils.JSONSuccess(c, http.StatusOK, gin.H{"is_active": false})
}
