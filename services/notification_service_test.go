package services

import (
	"errors"
	"testing"

	"visitor-backend/models"
)

func TestAcknowledge_IsSticky(t *testing.T) {
	env := newTestEnv(t)
	site := createSite(t, env.db)
	host := createUser(t, env.db, site.ID, models.RoleHost)

	uid := host.ID
	n, err := env.notifications.Send(SendPayload{
		RecipientUserID:  &uid,
		NotificationType: models.NotificationEscortRequired,
		Title:            "Visitor awaiting escort",
		RequiresAck:      true,
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if err := env.notifications.Acknowledge(n.ID); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}

	var first models.Notification
	if err := env.db.First(&first, n.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if first.AcknowledgedAt == nil {
		t.Fatal("expected acknowledged_at set")
	}
	if !first.IsRead {
		t.Fatal("acknowledging should mark the notification read")
	}

	if err := env.notifications.Acknowledge(n.ID); !errors.Is(err, ErrAlreadyAcknowledged) {
		t.Fatalf("expected ErrAlreadyAcknowledged, got %v", err)
	}

	var second models.Notification
	if err := env.db.First(&second, n.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !second.AcknowledgedAt.Equal(*first.AcknowledgedAt) {
		t.Fatal("acknowledged_at must not change on a repeat attempt")
	}
}

func TestAcknowledge_UnknownNotification(t *testing.T) {
	env := newTestEnv(t)
	if err := env.notifications.Acknowledge(9999); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound, got %v", err)
	}
}

func TestMarkRead_UnknownNotification(t *testing.T) {
	env := newTestEnv(t)
	if err := env.notifications.MarkRead(9999); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound, got %v", err)
	}
}

func TestMarkRead_RepeatIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	site := createSite(t, env.db)
	host := createUser(t, env.db, site.ID, models.RoleHost)

	uid := host.ID
	n, err := env.notifications.Send(SendPayload{
		RecipientUserID:  &uid,
		NotificationType: models.NotificationVisitAmended,
		Title:            "Visit rescheduled",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if err := env.notifications.MarkRead(n.ID); err != nil {
		t.Fatalf("first mark read: %v", err)
	}
	if err := env.notifications.MarkRead(n.ID); err != nil {
		t.Fatalf("repeat mark read should succeed, got %v", err)
	}

	var reloaded models.Notification
	if err := env.db.First(&reloaded, n.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.IsRead {
		t.Fatal("expected is_read to remain set")
	}
}

func TestNotifySiteStaff_FansOutToStaffOnly(t *testing.T) {
	env := newTestEnv(t)
	site := createSite(t, env.db)
	createUser(t, env.db, site.ID, models.RoleHost)
	reception := createUser(t, env.db, site.ID, models.RoleReception)
	admin := createUser(t, env.db, site.ID, models.RoleSiteAdmin)

	sent, err := env.notifications.NotifySiteStaff(site.ID, SendPayload{
		NotificationType: models.NotificationDenyListAlert,
		Title:            "Denied visitor",
	})
	if err != nil {
		t.Fatalf("fan out: %v", err)
	}
	if sent != 2 {
		t.Fatalf("expected 2 recipients, got %d", sent)
	}

	for _, u := range []*models.User{reception, admin} {
		list, err := env.notifications.ListForUser(u.ID, 10)
		if err != nil {
			t.Fatalf("list for %d: %v", u.ID, err)
		}
		if len(list) != 1 {
			t.Fatalf("expected 1 notification for user %d, got %d", u.ID, len(list))
		}
	}
}

func TestNotifySiteStaff_NoStaffIsAnError(t *testing.T) {
	env := newTestEnv(t)
	site := createSite(t, env.db)
	createUser(t, env.db, site.ID, models.RoleHost)

	if _, err := env.notifications.NotifySiteStaff(site.ID, SendPayload{
		NotificationType: models.NotificationDenyListAlert,
		Title:            "Denied visitor",
	}); err == nil {
		t.Fatal("expected an error when the site has no reception or admin users")
	}
}
