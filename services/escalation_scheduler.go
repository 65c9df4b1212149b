package services

import (
	"context"
	"log"
	"time"
)

const defaultEscalationInterval = 30 * time.Second

// EscalationScheduler drives EscalationService on a fixed interval as a
// background goroutine. Ticks run inline in the loop, so a slow sweep delays
// the next tick instead of overlapping it. Stop via the context or Stop().
type EscalationScheduler struct {
	svc      *EscalationService
	interval time.Duration
	logger   *log.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewEscalationScheduler(svc *EscalationService, interval time.Duration, logger *log.Logger) *EscalationScheduler {
	if interval <= 0 {
		interval = defaultEscalationInterval
	}
	return &EscalationScheduler{
		svc:      svc,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start begins the loop with an immediate first tick.
func (s *EscalationScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)
	s.logger.Printf("escalation scheduler started (interval=%s)", s.interval)
}

// Stop signals the loop to exit and waits for the in-flight tick to finish.
func (s *EscalationScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
}

func (s *EscalationScheduler) loop(ctx context.Context) {
	defer close(s.done)

	s.svc.RunTick(time.Now().UTC())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.svc.RunTick(time.Now().UTC())
		}
	}
}
