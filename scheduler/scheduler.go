package scheduler

import (
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ErrStopped is returned when a task is scheduled against a stopped scheduler.
var ErrStopped = errors.New("scheduler is stopped")

// Task is a unit of deferred work. It receives the wall-clock time at which
// it fired.
type Task func(now time.Time)

// Scheduler is a one-shot delayed-task runner: "execute this again after D
// seconds". Each scheduled occurrence is keyed by a caller-supplied id so two
// occurrences of the same logical job never collide. Recurrence is the
// task's own concern; a recurring job reschedules itself at the end of each
// run.
type Scheduler struct {
	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
	wg      sync.WaitGroup
	log     *slog.Logger
}

// New returns a ready scheduler.
func New(log *slog.Logger) *Scheduler {
	return &Scheduler{
		timers: make(map[string]*time.Timer),
		log:    log,
	}
}

// Schedule queues task to run once after delay. The id must be unique among
// in-flight occurrences.
func (s *Scheduler) Schedule(id string, delay time.Duration, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return errors.Wrapf(ErrStopped, "cannot schedule %s", id)
	}
	if _, exists := s.timers[id]; exists {
		return errors.Errorf("task %s is already scheduled", id)
	}
	s.wg.Add(1)
	s.timers[id] = time.AfterFunc(delay, func() {
		defer s.wg.Done()
		s.mu.Lock()
		delete(s.timers, id)
		stopped := s.stopped
		s.mu.Unlock()
		if stopped {
			return
		}
		task(time.Now().UTC())
	})
	s.log.Debug("task scheduled", "id", id, "delay", delay)
	return nil
}

// Stop cancels pending timers and waits for running tasks to finish. No
// further tasks can be scheduled afterwards, which is what ends a
// self-rescheduling chain.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for id, timer := range s.timers {
		if timer.Stop() {
			s.wg.Done()
		}
		delete(s.timers, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}
