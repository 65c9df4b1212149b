package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"visitor-backend/middleware"
	"visitor-backend/services"
	"visitor-backend/utils"
)

type EvacuationController struct {
	Evacuations *services.EvacuationService
}

func NewEvacuationController(evacuations *services.EvacuationService) *EvacuationController {
	return &EvacuationController{Evacuations: evacuations}
}

type activatePayload struct {
	SiteID uint `json:"site_id" binding:"required"`
}

func (ec *EvacuationController) Activate(c *gin.Context) {
	var payload activatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "site_id is required")
		return
	}
	actor := middleware.CurrentUser(c)

	event, err := ec.Evacuations.Activate(payload.SiteID, actor.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, event)
}

// Active reports the open evacuation for a site, if any. Data is null when
// the gate is clear; the frontend banner keys off that.
func (ec *EvacuationController) Active(c *gin.Context) {
	siteID, ok := queryUint(c, "site_id")
	if !ok {
		utils.JSONError(c, http.StatusBadRequest, "site_id is required")
		return
	}
	event, err := ec.Evacuations.ActiveForSite(siteID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, event)
}

type closePayload struct {
	Notes string `json:"notes"`
}

func (ec *EvacuationController) Close(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	var payload closePayload
	_ = c.ShouldBindJSON(&payload)
	actor := middleware.CurrentUser(c)

	if err := ec.Evacuations.Close(id, actor.ID, payload.Notes); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"closed": true})
}

type headcountPayload struct {
	Accounted int `json:"accounted"`
}

func (ec *EvacuationController) MarkAccounted(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	var payload headcountPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "accounted is required")
		return
	}
	if err := ec.Evacuations.MarkAccounted(id, payload.Accounted); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"accounted": payload.Accounted})
}

// Roster returns the checked-in visits at the site for the muster view.
func (ec *EvacuationController) Roster(c *gin.Context) {
	siteID, ok := queryUint(c, "site_id")
	if !ok {
		utils.JSONError(c, http.StatusBadRequest, "site_id is required")
		return
	}
	visits, err := ec.Evacuations.Roster(siteID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, visits)
}
