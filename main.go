package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"visitor-backend/config"
	"visitor-backend/controllers"
	"visitor-backend/routes"
	"visitor-backend/services"
	"visitor-backend/utils"
)

func main() {
	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		log.Println(".env not found or couldn't load it; continuing with environment variables")
	}

	// Connect database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Database connect failed: %v", err)
	}
	db := config.DB
	if db == nil {
		log.Fatal("config.DB is nil after ConnectDatabase()")
	}
	log.Println("Database connection established and migrations applied.")

	// Initialize services
	auditService := services.NewAuditService(db)
	changeFeed := services.NewChangeFeed()
	notificationService := services.NewNotificationService(db, changeFeed)
	denyListService := services.NewDenyListService(db)
	preApprovalService := services.NewPreApprovalService(db, notificationService, auditService)
	inductionService := services.NewInductionService(db, auditService)
	evacuationService := services.NewEvacuationService(db, notificationService, auditService, changeFeed)
	visitService := services.NewVisitService(db, notificationService, auditService, evacuationService, changeFeed)
	checkInService := services.NewCheckInService(
		db,
		denyListService,
		preApprovalService,
		inductionService,
		notificationService,
		evacuationService,
		auditService,
		changeFeed,
	)
	visitorService := services.NewVisitorService(db)
	escalationService := services.NewEscalationService(db, notificationService, auditService)

	// Initialize controllers
	authController := controllers.NewAuthController(db)
	visitController := controllers.NewVisitController(visitService, checkInService)
	visitorController := controllers.NewVisitorController(visitorService, visitService)
	notificationController := controllers.NewNotificationController(notificationService)
	evacuationController := controllers.NewEvacuationController(evacuationService)
	denyListController := controllers.NewDenyListController(denyListService, auditService)
	preApprovalController := controllers.NewPreApprovalController(preApprovalService)
	siteController := controllers.NewSiteController(db, auditService)
	streamController := controllers.NewStreamController(changeFeed)

	// Background escalation sweeper
	interval := utils.EnvDurationSeconds("ESCALATION_INTERVAL_SECONDS", 30*time.Second)
	scheduler := services.NewEscalationScheduler(escalationService, interval, log.Default())
	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	scheduler.Start(schedulerCtx)

	// Build router
	router := routes.SetupRouter(
		db,
		authController,
		visitController,
		visitorController,
		notificationController,
		evacuationController,
		denyListController,
		preApprovalController,
		siteController,
		streamController,
	)

	// Port from env (prefer), fallback to 8080
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	addr := ":" + port

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
		// useful timeouts
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with timeout
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received, shutting down server...")

	stopScheduler()
	scheduler.Stop()

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped gracefully")
}
