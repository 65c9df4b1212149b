package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"visitor-backend/services"
	"visitor-backend/utils"
)

// respondServiceError maps workflow errors to HTTP statuses. Conflicting
// transitions come back as 409 so the frontend can say "this visit was
// already processed" instead of showing an opaque failure.
func respondServiceError(c *gin.Context, err error) {
	if denied, ok := services.AsDeniedVisitor(err); ok {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   "visitor_denied",
			"reason":  denied.Entry.Reason,
			"entry":   denied.Entry,
		})
		return
	}

	switch {
	case services.IsInvalidTransition(err),
		errors.Is(err, services.ErrAlreadyAcknowledged),
		errors.Is(err, services.ErrEvacuationOngoing),
		errors.Is(err, services.ErrEvacuationClosed),
		errors.Is(err, services.ErrPreApprovalNotPending):
		utils.JSONError(c, http.StatusConflict, err.Error())

	case errors.Is(err, services.ErrEvacuationActive):
		utils.JSONError(c, http.StatusLocked, err.Error())

	case errors.Is(err, services.ErrVisitNotFound),
		errors.Is(err, services.ErrVisitorNotFound),
		errors.Is(err, services.ErrSiteNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrNotificationNotFound),
		errors.Is(err, services.ErrPreApprovalNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		utils.JSONError(c, http.StatusNotFound, err.Error())

	case errors.Is(err, services.ErrInductionRequired),
		errors.Is(err, services.ErrDocumentsOutstanding):
		// Precondition failures the frontend routes through completion
		// screens before retrying check-in.
		utils.JSONError(c, http.StatusPreconditionFailed, err.Error())

	case errors.Is(err, services.ErrReasonRequired),
		errors.Is(err, services.ErrInvalidPlannedWindow):
		utils.JSONError(c, http.StatusBadRequest, err.Error())

	default:
		utils.JSONError(c, http.StatusInternalServerError, err.Error())
	}
}
