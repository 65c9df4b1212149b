package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"visitor-backend/middleware"
	"visitor-backend/services"
	"visitor-backend/utils"
)

type NotificationController struct {
	Notifications *services.NotificationService
}

func NewNotificationController(notifications *services.NotificationService) *NotificationController {
	return &NotificationController{Notifications: notifications}
}

// ListMine returns the acting user's inbox, newest first.
func (nc *NotificationController) ListMine(c *gin.Context) {
	user := middleware.CurrentUser(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	list, err := nc.Notifications.ListForUser(user.ID, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, list)
}

func (nc *NotificationController) MarkRead(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	if err := nc.Notifications.MarkRead(id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"is_read": true})
}

func (nc *NotificationController) Acknowledge(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	if err := nc.Notifications.Acknowledge(id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"acknowledged": true})
}
