package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inspace/protocoin/services"
)

// MaintenanceLoop keeps one symbol's maintenance cycle running: each
// occurrence expires stakes and triggers the boost check, then schedules the
// next occurrence under a fresh id. A failed cycle commits nothing and does
// not reschedule; restarting the chain is an operational concern.
type MaintenanceLoop struct {
	svc      *services.TokenService
	sched    *Scheduler
	interval time.Duration
	symbol   string
	log      *slog.Logger

	mu      sync.Mutex
	started bool
}

// NewMaintenanceLoop builds a loop for one symbol.
func NewMaintenanceLoop(svc *services.TokenService, sched *Scheduler, symbolCode string, interval time.Duration, log *slog.Logger) *MaintenanceLoop {
	return &MaintenanceLoop{
		svc:      svc,
		sched:    sched,
		interval: interval,
		symbol:   symbolCode,
		log:      log,
	}
}

// Start schedules the first occurrence. Subsequent calls while the chain is
// alive are no-ops.
func (l *MaintenanceLoop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return nil
	}
	if err := l.schedule(); err != nil {
		return err
	}
	l.started = true
	return nil
}

func (l *MaintenanceLoop) schedule() error {
	// A fresh id per occurrence so a rescheduled run never collides with the
	// one still in flight.
	id := fmt.Sprintf("maintenance/%s/%s", l.symbol, uuid.NewString())
	return l.sched.Schedule(id, l.interval, l.run)
}

func (l *MaintenanceLoop) run(now time.Time) {
	if err := l.svc.RunMaintenance(context.Background(), l.symbol, now); err != nil {
		l.log.Error("maintenance cycle failed, chain stopped", "symbol", l.symbol, "error", err)
		l.markStopped()
		return
	}
	if err := l.schedule(); err != nil {
		l.log.Error("maintenance reschedule failed, chain stopped", "symbol", l.symbol, "error", err)
		l.markStopped()
	}
}

func (l *MaintenanceLoop) markStopped() {
	l.mu.Lock()
	l.started = false
	l.mu.Unlock()
}
