package routes

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"visitor-backend/controllers"
	"visitor-backend/middleware"
	"visitor-backend/models"
)

func parseCorsOrigins() []string {
	raw := strings.TrimSpace(os.Getenv("CORS_ORIGINS"))
	if raw == "" {
		return []string{"*"}
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// SetupRouter wires the controllers into the gin engine. Identity is
// required on everything under /api except login; mutating route groups are
// additionally gated on the role hierarchy.
func SetupRouter(
	db *gorm.DB,
	ac *controllers.AuthController,
	vc *controllers.VisitController,
	vtc *controllers.VisitorController,
	nc *controllers.NotificationController,
	ec *controllers.EvacuationController,
	dc *controllers.DenyListController,
	pc *controllers.PreApprovalController,
	stc *controllers.SiteController,
	smc *controllers.StreamController,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	origins := parseCorsOrigins()
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/auth/login", ac.Login)

		authed := api.Group("")
		authed.Use(middleware.Identity(db))
		{
			visits := authed.Group("/visits")
			{
				visits.GET("", vc.ListVisits)
				visits.GET("/:id", vc.GetVisit)
				visits.POST("", vc.ScheduleVisit)
				visits.POST("/:id/checkin", vc.CheckIn)
				visits.POST("/:id/signout", vc.SignOut)
				visits.POST("/:id/cancel", vc.CancelVisit)
				visits.POST("/:id/induction", vc.CompleteInduction)
				visits.POST("/:id/documents/accept", vc.AcceptDocuments)
			}

			visitors := authed.Group("/visitors")
			{
				visitors.GET("", vtc.Search)
				visitors.GET("/:id", vtc.Get)
				visitors.GET("/:id/visits", vtc.Visits)
				visitors.POST("", vtc.Create)
				visitors.POST("/:id/anonymise", middleware.RequireMinRole(models.RoleSiteAdmin), vtc.Anonymise)
			}

			notifications := authed.Group("/notifications")
			{
				notifications.GET("", nc.ListMine)
				notifications.POST("/:id/read", nc.MarkRead)
				notifications.POST("/:id/acknowledge", nc.Acknowledge)
			}

			evacuations := authed.Group("/evacuations")
			evacuations.Use(middleware.RequireMinRole(models.RoleReception))
			{
				evacuations.GET("/active", ec.Active)
				evacuations.GET("/roster", ec.Roster)
				evacuations.POST("", ec.Activate)
				evacuations.POST("/:id/close", ec.Close)
				evacuations.PATCH("/:id/headcount", ec.MarkAccounted)
			}

			denyList := authed.Group("/deny-list")
			denyList.Use(middleware.RequireMinRole(models.RoleReception))
			{
				denyList.GET("", dc.List)
				denyList.POST("", dc.Add)
				denyList.POST("/:id/deactivate", dc.Deactivate)
			}

			preApprovals := authed.Group("/pre-approvals")
			{
				preApprovals.GET("", pc.List)
				preApprovals.POST("", pc.Request)
				preApprovals.POST("/:id/approve", middleware.RequireMinRole(models.RoleReception), pc.Approve)
				preApprovals.POST("/:id/reject", middleware.RequireMinRole(models.RoleReception), pc.Reject)
				preApprovals.POST("/:id/revoke", middleware.RequireMinRole(models.RoleReception), pc.Revoke)
			}

			sites := authed.Group("/sites")
			{
				sites.GET("/:id", stc.Get)
				sites.PUT("/:id", middleware.RequireMinRole(models.RoleSiteAdmin), stc.Update)
			}

			authed.GET("/audit", middleware.RequireMinRole(models.RoleSiteAdmin), stc.AuditTrail)
			authed.GET("/stream", smc.Events)
		}
	}

	return r
}
