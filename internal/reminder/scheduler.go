package reminder

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Scheduler owns the daily sweep tick and the cancellable delayed tasks used
// by TEST_MODE (the 5-minute post-booking reminder). Delete of a cita cancels
// its pending task so a cancelled cita never gets the test reminder.
type Scheduler struct {
	mu      sync.Mutex
	delayed map[string]*time.Timer
	done    chan struct{}
	closed  bool
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		delayed: make(map[string]*time.Timer),
		done:    make(chan struct{}),
	}
}

// RunDaily fires job once a day at the given hour in loc, starting with the
// next occurrence. It returns immediately; the loop stops on Close.
func (s *Scheduler) RunDaily(hour int, loc *time.Location, job func()) {
	go func() {
		for {
			next := NextDailyTick(time.Now(), hour, loc)
			t := time.NewTimer(time.Until(next))
			select {
			case <-t.C:
				job()
			case <-s.done:
				t.Stop()
				return
			}
		}
	}()
}

// NextDailyTick returns the next wall-clock occurrence of hour:00 in loc
// strictly after now.
func NextDailyTick(now time.Time, hour int, loc *time.Location) time.Time {
	n := now.In(loc)
	next := time.Date(n.Year(), n.Month(), n.Day(), hour, 0, 0, 0, loc)
	if !next.After(n) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Schedule runs job after delay unless cancelled first. A second Schedule
// with the same key replaces the pending one.
func (s *Scheduler) Schedule(key string, delay time.Duration, job func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if t, ok := s.delayed[key]; ok {
		t.Stop()
	}
	s.delayed[key] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.delayed, key)
		s.mu.Unlock()
		job()
	})
}

// Cancel stops the pending task for key. Reports whether one was pending.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.delayed[key]
	if !ok {
		return false
	}
	t.Stop()
	delete(s.delayed, key)
	return true
}

// Close stops the daily loop and every pending delayed task.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
	for key, t := range s.delayed {
		t.Stop()
		delete(s.delayed, key)
	}
	log.Debug().Msg("[reminder] scheduler closed")
}
