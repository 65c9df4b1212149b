package services

import (
	"sync"
	"time"
)

// ChangeEvent describes one mutation to a stored entity. The feed carries
// announcements, not payloads: subscribers re-run their queries on receipt.
type ChangeEvent struct {
	EntityType string      `json:"entity_type"`
	Action     string      `json:"action"` // insert | update
	EntityID   uint        `json:"entity_id"`
	SiteID     uint        `json:"site_id,omitempty"`
	Entity     interface{} `json:"entity,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

type feedSubscriber struct {
	entityType string
	filter     func(ChangeEvent) bool
	ch         chan ChangeEvent
}

// ChangeFeed is an in-process publish/subscribe bus keyed by entity type.
// Services publish after their writes commit; the HTTP layer exposes the
// stream over SSE. Delivery is best-effort: a subscriber that cannot keep up
// has events dropped rather than blocking publishers.
type ChangeFeed struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]*feedSubscriber
}

func NewChangeFeed() *ChangeFeed {
	return &ChangeFeed{subs: make(map[int]*feedSubscriber)}
}

// Subscribe registers for events on entityType (empty string = all types).
// The optional filter narrows delivery further. The returned cancel func must
// be called to release the subscription.
func (f *ChangeFeed) Subscribe(entityType string, filter func(ChangeEvent) bool) (<-chan ChangeEvent, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++

	sub := &feedSubscriber{
		entityType: entityType,
		filter:     filter,
		ch:         make(chan ChangeEvent, 32),
	}
	f.subs[id] = sub

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if s, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(s.ch)
		}
	}
	return sub.ch, cancel
}

// Publish fans the event out to matching subscribers without blocking.
func (f *ChangeFeed) Publish(ev ChangeEvent) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, sub := range f.subs {
		if sub.entityType != "" && sub.entityType != ev.EntityType {
			continue
		}
		if sub.filter != nil && !sub.filter(ev) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			// Slow subscriber: drop rather than stall the workflow.
		}
	}
}
