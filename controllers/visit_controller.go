package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"visitor-backend/middleware"
	"visitor-backend/models"
	"visitor-backend/services"
	"visitor-backend/utils"
)

type VisitController struct {
	Visits   *services.VisitService
	CheckIns *services.CheckInService
}

func NewVisitController(visits *services.VisitService, checkIns *services.CheckInService) *VisitController {
	return &VisitController{Visits: visits, CheckIns: checkIns}
}

type scheduleVisitPayload struct {
	VisitorID        uint      `json:"visitor_id" binding:"required"`
	SiteID           uint      `json:"site_id" binding:"required"`
	HostUserID       uint      `json:"host_user_id" binding:"required"`
	BackupUserID     *uint     `json:"backup_user_id"`
	Purpose          string    `json:"purpose" binding:"required"`
	PlannedArrival   time.Time `json:"planned_arrival" binding:"required"`
	PlannedDeparture time.Time `json:"planned_departure" binding:"required"`
	IsWalkIn         bool      `json:"is_walk_in"`
}

func (vc *VisitController) ScheduleVisit(c *gin.Context) {
	var payload scheduleVisitPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, err.Error())
		return
	}
	actor := middleware.CurrentUser(c)

	visit, err := vc.Visits.Schedule(services.SchedulePayload{
		VisitorID:        payload.VisitorID,
		SiteID:           payload.SiteID,
		HostUserID:       payload.HostUserID,
		BackupUserID:     payload.BackupUserID,
		Purpose:          payload.Purpose,
		PlannedArrival:   payload.PlannedArrival,
		PlannedDeparture: payload.PlannedDeparture,
		IsWalkIn:         payload.IsWalkIn,
		ScheduledBy:      actor.ID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, visit)
}

// ListVisits serves the dashboard projections, selected by ?view=.
func (vc *VisitController) ListVisits(c *gin.Context) {
	siteID, ok := queryUint(c, "site_id")
	if !ok {
		utils.JSONError(c, http.StatusBadRequest, "site_id is required")
		return
	}

	var (
		visits []models.Visit
		err    error
	)
	switch c.DefaultQuery("view", "today") {
	case "today":
		visits, err = vc.Visits.TodaysVisits(siteID)
	case "checked_in":
		visits, err = vc.Visits.CheckedInVisits(siteID)
	case "overdue":
		visits, err = vc.Visits.OverdueVisits(siteID)
	case "awaiting_escort":
		visits, err = vc.Visits.AwaitingEscortVisits(siteID)
	case "upcoming":
		visits, err = vc.Visits.UpcomingVisits(siteID)
	default:
		utils.JSONError(c, http.StatusBadRequest, "unknown view")
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	now := time.Now().UTC()
	out := make([]gin.H, 0, len(visits))
	for i := range visits {
		out = append(out, gin.H{
			"visit":          visits[i],
			"display_status": visits[i].DisplayStatus(now),
		})
	}
	utils.JSONSuccess(c, http.StatusOK, out)
}

func (vc *VisitController) GetVisit(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	visit, err := vc.Visits.GetByID(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"visit":          visit,
		"display_status": visit.DisplayStatus(time.Now().UTC()),
	})
}

func (vc *VisitController) CheckIn(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	actor := middleware.CurrentUser(c)

	visit, err := vc.CheckIns.CheckIn(id, actor.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, visit)
}

func (vc *VisitController) SignOut(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	if err := vc.Visits.SignOut(id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"status": models.VisitStatusDeparted})
}

func (vc *VisitController) CancelVisit(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	actor := middleware.CurrentUser(c)
	if err := vc.Visits.Cancel(id, actor.ID); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"status": models.VisitStatusCancelled})
}

func (vc *VisitController) CompleteInduction(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	actor := middleware.CurrentUser(c)
	if err := vc.CheckIns.CompleteInduction(id, actor.ID); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"induction_completed": true})
}

func (vc *VisitController) AcceptDocuments(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	actor := middleware.CurrentUser(c)
	if err := vc.CheckIns.AcceptDocuments(id, actor.ID); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"documents_accepted": true})
}

func paramUint(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		utils.JSONError(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func queryUint(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
