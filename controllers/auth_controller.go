package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"visitor-backend/models"
	"visitor-backend/utils"
)

type AuthController struct {
	DB *gorm.DB
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{DB: db}
}

type loginPayload struct {
	Username string `json:"username" binding:"required"`
	Pin      string `json:"pin" binding:"required"`
}

// Login verifies the user's PIN and returns the safe user plus their site.
// The frontend keeps the session; subsequent requests carry X-User-ID.
func (ac *AuthController) Login(c *gin.Context) {
	var payload loginPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "username and pin required")
		return
	}

	username := strings.TrimSpace(payload.Username)

	var user models.User
	if err := ac.DB.Where("username = ?", username).First(&user).Error; err != nil {
		utils.JSONError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !user.IsActive {
		utils.JSONError(c, http.StatusForbidden, "user is deactivated")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PinHash), []byte(payload.Pin)) != nil {
		utils.JSONError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	var site models.Site
	if err := ac.DB.First(&site, user.SiteID).Error; err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to load site")
		return
	}

	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"user": user,
		"site": site,
	})
}
