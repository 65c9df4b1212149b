package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"visitor-backend/middleware"
	"visitor-backend/services"
	"visitor-backend/utils"
)

type VisitorController struct {
	Visitors     *services.VisitorService
	VisitService *services.VisitService
}

func NewVisitorController(visitors *services.VisitorService, visits *services.VisitService) *VisitorController {
	return &VisitorController{Visitors: visitors, VisitService: visits}
}

type visitorPayload struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Phone       string `json:"phone"`
	Company     string `json:"company"`
	VisitorType string `json:"visitor_type"`
}

func (vc *VisitorController) Create(c *gin.Context) {
	var payload visitorPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, err.Error())
		return
	}
	actor := middleware.CurrentUser(c)

	visitor, err := vc.Visitors.Create(services.VisitorPayload{
		Name:        payload.Name,
		Email:       payload.Email,
		Phone:       payload.Phone,
		Company:     payload.Company,
		VisitorType: payload.VisitorType,
		CreatedBy:   actor.ID,
	})
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, err.Error())
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, visitor)
}

func (vc *VisitorController) Search(c *gin.Context) {
	visitors, err := vc.Visitors.Search(c.Query("q"), 50)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, visitors)
}

func (vc *VisitorController) Get(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	visitor, err := vc.Visitors.GetByID(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, visitor)
}

// Visits returns the visitor's visit history, newest planned arrival first.
func (vc *VisitorController) Visits(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	visits, err := vc.VisitService.VisitsForVisitor(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, visits)
}

func (vc *VisitorController) Anonymise(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	if err := vc.Visitors.Anonymise(id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"is_anonymised": true})
}
