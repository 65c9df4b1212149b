package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"visitor-backend/models"
)

func newIdentityRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("underlying db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.User{}, &models.Site{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	r := gin.New()
	r.GET("/whoami", Identity(db), func(c *gin.Context) {
		user := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": user.ID, "role": user.Role})
	})
	r.GET("/admin", Identity(db), RequireMinRole(models.RoleSiteAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r, db
}

func get(r *gin.Engine, path, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdentity_MissingHeader(t *testing.T) {
	r, _ := newIdentityRouter(t)
	if w := get(r, "/whoami", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestIdentity_UnknownUser(t *testing.T) {
	r, _ := newIdentityRouter(t)
	if w := get(r, "/whoami", "42"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestIdentity_DeactivatedUser(t *testing.T) {
	r, db := newIdentityRouter(t)
	user := models.User{Name: "Old Hand", Username: "oldhand", Role: models.RoleHost, IsActive: false}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	// Default-valued booleans need an explicit update to stick.
	if err := db.Model(&user).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if w := get(r, "/whoami", "1"); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestRequireMinRole_GatesByHierarchy(t *testing.T) {
	r, db := newIdentityRouter(t)
	host := models.User{Name: "Host", Username: "host1", Role: models.RoleHost, IsActive: true}
	admin := models.User{Name: "Admin", Username: "admin1", Role: models.RoleSiteAdmin, IsActive: true}
	if err := db.Create(&host).Error; err != nil {
		t.Fatalf("create host: %v", err)
	}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("create admin: %v", err)
	}

	if w := get(r, "/admin", "1"); w.Code != http.StatusForbidden {
		t.Fatalf("host should be refused, got %d", w.Code)
	}
	if w := get(r, "/admin", "2"); w.Code != http.StatusOK {
		t.Fatalf("admin should pass, got %d", w.Code)
	}
}
