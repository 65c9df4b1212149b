package services

import (
	"testing"
	"time"
)

func TestChangeFeed_DeliversMatchingEvents(t *testing.T) {
	feed := NewChangeFeed()

	ch, cancel := feed.Subscribe("visit", func(ev ChangeEvent) bool {
		return ev.SiteID == 1
	})
	defer cancel()

	feed.Publish(ChangeEvent{EntityType: "visit", Action: "update", EntityID: 10, SiteID: 1})
	feed.Publish(ChangeEvent{EntityType: "visit", Action: "update", EntityID: 11, SiteID: 2})
	feed.Publish(ChangeEvent{EntityType: "notification", Action: "insert", EntityID: 12, SiteID: 1})

	select {
	case ev := <-ch:
		if ev.EntityID != 10 {
			t.Fatalf("expected event 10, got %d", ev.EntityID)
		}
		if ev.OccurredAt.IsZero() {
			t.Fatal("expected occurred_at stamped on publish")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	select {
	case ev := <-ch:
		t.Fatalf("unexpected extra event: %+v", ev)
	default:
	}
}

func TestChangeFeed_CancelClosesChannel(t *testing.T) {
	feed := NewChangeFeed()
	ch, cancel := feed.Subscribe("", nil)
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("expected channel closed after cancel")
	}

	// Publishing after cancel must not panic.
	feed.Publish(ChangeEvent{EntityType: "visit", Action: "update", EntityID: 1})
}

func TestChangeFeed_SlowSubscriberDropsEvents(t *testing.T) {
	feed := NewChangeFeed()
	ch, cancel := feed.Subscribe("visit", nil)
	defer cancel()

	// Overflow the buffer; the excess is dropped, not blocked on.
	for i := 0; i < 100; i++ {
		feed.Publish(ChangeEvent{EntityType: "visit", Action: "update", EntityID: uint(i)})
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
		default:
			if received == 0 || received > 32 {
				t.Fatalf("expected between 1 and 32 buffered events, got %d", received)
			}
			return
		}
	}
}
