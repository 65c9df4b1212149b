package services

import (
	"testing"
	"time"

	"visitor-backend/models"
)

// staleEscortRequest inserts an escort_required notification created before
// the site's escalation window, as check-in would have produced it.
func staleEscortRequest(t *testing.T, env *testEnv, visit *models.Visit, userID uint, age time.Duration) *models.Notification {
	t.Helper()
	visitID := visit.ID
	n := models.Notification{
		RecipientType:           models.RecipientTypeUser,
		RecipientUserID:         &userID,
		VisitID:                 &visitID,
		NotificationType:        models.NotificationEscortRequired,
		Title:                   "Visitor awaiting escort",
		RequiresAcknowledgement: true,
		CreatedAt:               time.Now().UTC().Add(-age),
	}
	if err := env.db.Create(&n).Error; err != nil {
		t.Fatalf("create escort request: %v", err)
	}
	return &n
}

func TestEscalation_BackupFirst(t *testing.T) {
	env := newTestEnv(t)
	site := createSite(t, env.db) // 15 minute window
	host := createUser(t, env.db, site.ID, models.RoleHost)
	backup := createUser(t, env.db, site.ID, models.RoleHost)
	createUser(t, env.db, site.ID, models.RoleReception)
	visitor := createVisitor(t, env.db, models.VisitorTypeThirdParty)
	visit := scheduleVisit(t, env, visitor, site, host, backup)

	staleEscortRequest(t, env, visit, host.ID, 20*time.Minute)
	staleEscortRequest(t, env, visit, backup.ID, 20*time.Minute)

	if err := env.escalations.RunTickForSite(site, time.Now().UTC()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	// One escalation to the backup, addressed to them and ack-required.
	var escalations []models.Notification
	if err := env.db.Where("notification_type = ?", models.NotificationEscalation).Find(&escalations).Error; err != nil {
		t.Fatalf("load escalations: %v", err)
	}
	if len(escalations) != 1 {
		t.Fatalf("expected 1 backup escalation, got %d", len(escalations))
	}
	if escalations[0].RecipientUserID == nil || *escalations[0].RecipientUserID != backup.ID {
		t.Fatalf("escalation addressed to %v, want backup %d", escalations[0].RecipientUserID, backup.ID)
	}
	if !escalations[0].RequiresAcknowledgement {
		t.Fatal("backup escalation must require acknowledgement")
	}

	// The reception broadcast must not fire in the same pass: the fresh
	// backup escalation is still within its own window.
	if n := countNotifications(t, env.db, models.NotificationEscalationReception); n != 0 {
		t.Fatalf("reception broadcast fired too early, got %d", n)
	}
}

func TestEscalation_ReceptionAfterBackupStale(t *testing.T) {
	env := newTestEnv(t)
	site := createSite(t, env.db)
	host := createUser(t, env.db, site.ID, models.RoleHost)
	backup := createUser(t, env.db, site.ID, models.RoleHost)
	createUser(t, env.db, site.ID, models.RoleReception)
	visitor := createVisitor(t, env.db, models.VisitorTypeThirdParty)
	visit := scheduleVisit(t, env, visitor, site, host, backup)

	staleEscortRequest(t, env, visit, host.ID, 40*time.Minute)
	second := staleEscortRequest(t, env, visit, backup.ID, 40*time.Minute)

	if err := env.escalations.RunTickForSite(site, time.Now().UTC()); err != nil {
		t.Fatalf("first tick: %v", err)
	}

	// Age the backup escalation past the window and run again.
	if err := env.db.Model(&models.Notification{}).
		Where("notification_type = ?", models.NotificationEscalation).
		Update("created_at", time.Now().UTC().Add(-20*time.Minute)).Error; err != nil {
		t.Fatalf("age escalation: %v", err)
	}
	if err := env.escalations.RunTickForSite(site, time.Now().UTC()); err != nil {
		t.Fatalf("second tick: %v", err)
	}

	if n := countNotifications(t, env.db, models.NotificationEscalationReception); n != 1 {
		t.Fatalf("expected 1 reception broadcast, got %d", n)
	}

	var remaining models.Notification
	if err := env.db.First(&remaining, second.ID).Error; err != nil {
		t.Fatalf("reload second request: %v", err)
	}
	if !remaining.Escalated {
		t.Fatal("second escort request should be marked escalated after the reception step")
	}
}

func TestEscalation_NoBackupGoesStraightToReception(t *testing.T) {
	env := newTestEnv(t)
	site := createSite(t, env.db)
	host := createUser(t, env.db, site.ID, models.RoleHost)
	createUser(t, env.db, site.ID, models.RoleReception)
	createUser(t, env.db, site.ID, models.RoleSiteAdmin)
	visitor := createVisitor(t, env.db, models.VisitorTypeThirdParty)
	visit := scheduleVisit(t, env, visitor, site, host, nil)

	staleEscortRequest(t, env, visit, host.ID, 20*time.Minute)

	if err := env.escalations.RunTickForSite(site, time.Now().UTC()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	if n := countNotifications(t, env.db, models.NotificationEscalation); n != 0 {
		t.Fatalf("no backup exists, yet %d backup escalations fired", n)
	}
	// Broadcast reaches both reception and site admin.
	if n := countNotifications(t, env.db, models.NotificationEscalationReception); n != 2 {
		t.Fatalf("expected 2 reception broadcasts, got %d", n)
	}
}

func TestEscalation_TickIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	site := createSite(t, env.db)
	host := createUser(t, env.db, site.ID, models.RoleHost)
	createUser(t, env.db, site.ID, models.RoleReception)
	visitor := createVisitor(t, env.db, models.VisitorTypeThirdParty)
	visit := scheduleVisit(t, env, visitor, site, host, nil)

	staleEscortRequest(t, env, visit, host.ID, 20*time.Minute)

	now := time.Now().UTC()
	if err := env.escalations.RunTickForSite(site, now); err != nil {
		t.Fatalf("first tick: %v", err)
	}
	if err := env.escalations.RunTickForSite(site, now); err != nil {
		t.Fatalf("second tick: %v", err)
	}

	if n := countNotifications(t, env.db, models.NotificationEscalationReception); n != 1 {
		t.Fatalf("re-running the tick must not duplicate escalations, got %d", n)
	}
}

func TestEscalation_AcknowledgedRequestSkipped(t *testing.T) {
	env := newTestEnv(t)
	site := createSite(t, env.db)
	host := createUser(t, env.db, site.ID, models.RoleHost)
	createUser(t, env.db, site.ID, models.RoleReception)
	visitor := createVisitor(t, env.db, models.VisitorTypeThirdParty)
	visit := scheduleVisit(t, env, visitor, site, host, nil)

	req := staleEscortRequest(t, env, visit, host.ID, 20*time.Minute)
	if err := env.notifications.Acknowledge(req.ID); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}

	if err := env.escalations.RunTickForSite(site, time.Now().UTC()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if n := countNotifications(t, env.db, models.NotificationEscalationReception); n != 0 {
		t.Fatalf("acknowledged request must not escalate, got %d", n)
	}
}

func TestEscalation_FreshRequestNotTouched(t *testing.T) {
	env := newTestEnv(t)
	site := createSite(t, env.db)
	host := createUser(t, env.db, site.ID, models.RoleHost)
	createUser(t, env.db, site.ID, models.RoleReception)
	visitor := createVisitor(t, env.db, models.VisitorTypeThirdParty)
	visit := scheduleVisit(t, env, visitor, site, host, nil)

	// Two minutes old, well inside the 15 minute window.
	staleEscortRequest(t, env, visit, host.ID, 2*time.Minute)

	if err := env.escalations.RunTickForSite(site, time.Now().UTC()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if n := countNotifications(t, env.db, models.NotificationEscalationReception); n != 0 {
		t.Fatalf("fresh request escalated, got %d broadcasts", n)
	}
	if n := countNotifications(t, env.db, models.NotificationEscalation); n != 0 {
		t.Fatalf("fresh request escalated, got %d backup escalations", n)
	}
}
