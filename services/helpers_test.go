package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"visitor-backend/config"
	"visitor-backend/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

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
	// One connection so every session sees the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// testEnv bundles the full service graph over one in-memory database.
type testEnv struct {
	db            *gorm.DB
	feed          *ChangeFeed
	audit         *AuditService
	notifications *NotificationService
	denyList      *DenyListService
	preApprovals  *PreApprovalService
	inductions    *InductionService
	evacuations   *EvacuationService
	visits        *VisitService
	checkIns      *CheckInService
	escalations   *EscalationService
	visitors      *VisitorService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)

	env := &testEnv{db: db}
	env.feed = NewChangeFeed()
	env.audit = NewAuditService(db)
	env.notifications = NewNotificationService(db, env.feed)
	env.denyList = NewDenyListService(db)
	env.preApprovals = NewPreApprovalService(db, env.notifications, env.audit)
	env.inductions = NewInductionService(db, env.audit)
	env.evacuations = NewEvacuationService(db, env.notifications, env.audit, env.feed)
	env.visits = NewVisitService(db, env.notifications, env.audit, env.evacuations, env.feed)
	env.checkIns = NewCheckInService(db, env.denyList, env.preApprovals, env.inductions,
		env.notifications, env.evacuations, env.audit, env.feed)
	env.escalations = NewEscalationService(db, env.notifications, env.audit)
	env.visitors = NewVisitorService(db)
	return env
}

func createSite(t *testing.T, db *gorm.DB) *models.Site {
	t.Helper()
	site := models.Site{
		Name:                          "Test Site",
		SiteCode:                      fmt.Sprintf("TST%d", time.Now().UnixNano()%100000),
		HSContentVersion:              1,
		NotificationEscalationMinutes: 15,
		PreApprovalDefaultDays:        30,
		IsActive:                      true,
	}
	if err := db.Create(&site).Error; err != nil {
		t.Fatalf("create site: %v", err)
	}
	return &site
}

func createUser(t *testing.T, db *gorm.DB, siteID uint, role string) *models.User {
	t.Helper()
	user := models.User{
		Name:     fmt.Sprintf("%s user", role),
		Username: fmt.Sprintf("%s-%d", role, time.Now().UnixNano()),
		SiteID:   siteID,
		Role:     role,
		IsActive: true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return &user
}

func createVisitor(t *testing.T, db *gorm.DB, visitorType string) *models.Visitor {
	t.Helper()
	visitor := models.Visitor{
		Name:        "Alex Visitor",
		Email:       fmt.Sprintf("alex%d@example.com", time.Now().UnixNano()),
		Company:     "Acme Ltd",
		VisitorType: visitorType,
		AccessToken: fmt.Sprintf("tok-%d", time.Now().UnixNano()),
	}
	if err := db.Create(&visitor).Error; err != nil {
		t.Fatalf("create visitor: %v", err)
	}
	return &visitor
}

// scheduleVisit creates a scheduled visit through the service so host
// contacts and the schedule notification exist, as they would in production.
func scheduleVisit(t *testing.T, env *testEnv, visitor *models.Visitor, site *models.Site, host *models.User, backup *models.User) *models.Visit {
	t.Helper()
	p := SchedulePayload{
		VisitorID:        visitor.ID,
		SiteID:           site.ID,
		HostUserID:       host.ID,
		Purpose:          "maintenance work",
		PlannedArrival:   time.Now().Add(10 * time.Minute),
		PlannedDeparture: time.Now().Add(2 * time.Hour),
		ScheduledBy:      host.ID,
	}
	if backup != nil {
		id := backup.ID
		p.BackupUserID = &id
	}
	visit, err := env.visits.Schedule(p)
	if err != nil {
		t.Fatalf("schedule visit: %v", err)
	}
	return visit
}

// completeInduction gives the visitor a current induction so check-in can
// reach the access decision.
func completeInduction(t *testing.T, env *testEnv, visit *models.Visit, site *models.Site) {
	t.Helper()
	if err := env.inductions.Complete(visit.VisitorID, site, visit.ID, nil); err != nil {
		t.Fatalf("complete induction: %v", err)
	}
}

func countNotifications(t *testing.T, db *gorm.DB, notificationType string) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.Notification{}).
		Where("notification_type = ?", notificationType).
		Count(&n).Error; err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	return n
}
