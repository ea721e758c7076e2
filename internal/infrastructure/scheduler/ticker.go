package scheduler

import (
	"context"
	"time"

	"github.com/AbdElbassetKh/PharmaCentral/internal/ports"
)

// TickerScheduler re-runs the refresh job at a fixed interval for the
// process lifetime. Stop must cancel the pending work so no ticks leak past
// shutdown.
type TickerScheduler struct {
	interval time.Duration
	stop     chan struct{}
}

var _ ports.Scheduler = (*TickerScheduler)(nil)

// NewTickerScheduler builds a scheduler with the given period.
func NewTickerScheduler(interval time.Duration) *TickerScheduler {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &TickerScheduler{interval: interval}
}

// Start begins ticking; the job runs once per interval until Stop or context
// cancellation. Calling Start twice without Stop is a no-op.
func (t *TickerScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	if t.stop != nil {
		return nil
	}

	t.stop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case tick := <-ticker.C:
				job(tick)
			case <-ctx.Done():
				return
			case <-t.stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine.
func (t *TickerScheduler) Stop(ctx context.Context) error {
	if t.stop == nil {
		return nil
	}
	close(t.stop)
	t.stop = nil
	return nil
}
