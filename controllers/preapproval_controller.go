package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"visitor-backend/middleware"
	"visitor-backend/services"
	"visitor-backend/utils"
)

type PreApprovalController struct {
	PreApprovals *services.PreApprovalService
}

func NewPreApprovalController(preApprovals *services.PreApprovalService) *PreApprovalController {
	return &PreApprovalController{PreApprovals: preApprovals}
}

func (pc *PreApprovalController) List(c *gin.Context) {
	siteID, ok := queryUint(c, "site_id")
	if !ok {
		utils.JSONError(c, http.StatusBadRequest, "site_id is required")
		return
	}
	list, err := pc.PreApprovals.ListForSite(siteID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, list)
}

type requestPreApprovalPayload struct {
	VisitorID uint   `json:"visitor_id" binding:"required"`
	SiteID    uint   `json:"site_id" binding:"required"`
	Reason    string `json:"reason"`
}

func (pc *PreApprovalController) Request(c *gin.Context) {
	var payload requestPreApprovalPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, err.Error())
		return
	}
	actor := middleware.CurrentUser(c)

	pa, err := pc.PreApprovals.Request(payload.VisitorID, payload.SiteID, actor.ID, payload.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, pa)
}

func (pc *PreApprovalController) Approve(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	actor := middleware.CurrentUser(c)
	if err := pc.PreApprovals.Approve(id, actor.ID); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"status": "approved"})
}

type rejectPayload struct {
	Reason string `json:"reason" binding:"required"`
}

func (pc *PreApprovalController) Reject(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	var payload rejectPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "reason is required")
		return
	}
	actor := middleware.CurrentUser(c)
	if err := pc.PreApprovals.Reject(id, actor.ID, payload.Reason); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"status": "rejected"})
}

func (pc *PreApprovalController) Revoke(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	actor := middleware.CurrentUser(c)
	if err := pc.PreApprovals.Revoke(id, actor.ID); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"status": "revoked"})
}
