package worker

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/sla-ticket-service/internal/service"
)

// Runner owns the background side of the service: notification handlers
// and the periodic overdue sweep.
type Runner struct {
	notifications *service.NotificationService
	monitor       *OverdueMonitor
	interval      time.Duration
	wg            sync.WaitGroup
}

// NewRunner builds a runner. Either collaborator may be nil.
func NewRunner(notifications *service.NotificationService, monitor *OverdueMonitor, sweepInterval time.Duration) *Runner {
	return &Runner{notifications: notifications, monitor: monitor, interval: sweepInterval}
}

// Start registers notification handlers and launches the overdue sweep,
// which stops when ctx is done.
func (r *Runner) Start(ctx context.Context) {
	if r.notifications != nil {
		r.notifications.RegisterHandlers()
	}
	if r.monitor == nil || r.interval <= 0 {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.monitor.Run(ctx, r.interval)
	}()
}

// Wait blocks until the background goroutines exit.
func (r *Runner) Wait() {
	r.wg.Wait()
}
