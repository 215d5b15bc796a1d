// Package schedule implements the engine's cooperative timer queue (spec
// §4.D): an ordered list of due-time entries that a caller drains by
// repeatedly invoking Execute from its own loop. There are no goroutines or
// tickers here — the single-threaded, caller-driven model spec §5 requires
// replaces the per-message-type Schedule subclasses of the original with one
// concrete type carrying a Process closure (spec §9's redesign: typed
// closures in place of virtual dispatch).
package schedule

import "time"

// Entry is one queued unit of work: a name for logging/lookup, a due time,
// an optional repeat interval, an optional expiry, and the closure that
// performs the actual send/receive when it fires.
type Entry struct {
	Name       string
	NextFire   time.Time
	RepeatMs   int
	EndTime    time.Time // zero means "never expires"
	Active     bool
	Address    string // informational, logged when ReportAddr is set
	ReportAddr bool
	Process    func(now time.Time) error
}

// Scheduler holds an ordered queue of Entry values and executes whichever
// are due each time the caller calls Execute (spec §4.D, §5).
type Scheduler struct {
	queue  []*Entry
	active bool
	logger Logger
}

// Logger is the minimal logging surface Scheduler needs; satisfied by
// *log.Logger.
type Logger interface {
	Printf(format string, v ...any)
}

// NewScheduler returns a Scheduler that is active by default. A nil logger
// is replaced with a no-op logger rather than log.Default, since the
// scheduler's debug-level chatter is too frequent for a bare default sink.
func NewScheduler(logger Logger) *Scheduler {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Scheduler{active: true, logger: logger}
}

type noopLogger struct{}

func (noopLogger) Printf(string, ...any) {}

// Add appends a new entry to the queue, marking it active.
func (s *Scheduler) Add(e *Entry) {
	e.Active = true
	if e.ReportAddr {
		s.logger.Printf("schedule %s from %s", e.Name, e.Address)
	} else {
		s.logger.Printf("schedule %s", e.Name)
	}
	s.queue = append(s.queue, e)
}

// Execute runs every due, active entry exactly once, rescheduling repeating
// entries and retiring one-shot ones, then reclaims a single retired slot
// (matching the original's one-per-pass cleanup). It is a no-op entirely
// when the scheduler has been deactivated via SetActive(false).
func (s *Scheduler) Execute(now time.Time) {
	if !s.active {
		return
	}

	for _, e := range s.queue {
		if e == nil || now.Before(e.NextFire) {
			continue
		}
		if !e.EndTime.IsZero() && now.After(e.EndTime) {
			e.Active = false
		}
		if !e.Active {
			s.logger.Printf("schedule %s: inactive", e.Name)
			continue
		}

		s.logger.Printf("schedule %s: executing", e.Name)
		if err := e.Process(now); err != nil {
			s.logger.Printf("schedule %s: %v", e.Name, err)
		}

		if e.RepeatMs > 0 {
			e.NextFire = now.Add(time.Duration(e.RepeatMs) * time.Millisecond)
		} else {
			e.Active = false
		}
	}

	s.cleanup()
}

// cleanup removes the first inactive entry from the queue, the same
// one-per-pass granularity the original's Scheduler::cleanup uses.
func (s *Scheduler) cleanup() {
	for i, e := range s.queue {
		if e == nil || e.Active {
			continue
		}
		s.logger.Printf("schedule cleanup: %s", e.Name)
		s.queue = append(s.queue[:i], s.queue[i+1:]...)
		return
	}
}

// IsMSearchActive reports whether any active entry is named "MSearch"
// (used to gate repeated discovery bursts).
func (s *Scheduler) IsMSearchActive() bool {
	for _, e := range s.queue {
		if e != nil && e.Active && e.Name == "MSearch" {
			return true
		}
	}
	return false
}

// Size returns the number of queued entries, including inactive ones not
// yet reclaimed by cleanup.
func (s *Scheduler) Size() int {
	return len(s.queue)
}

// SetActive enables or disables the scheduler; Execute is a no-op while
// inactive (spec §9 decided open question: disabling gates dispatch
// entirely, not just discovery queries).
func (s *Scheduler) SetActive(flag bool) {
	s.active = flag
}

// IsActive reports the scheduler's enabled state.
func (s *Scheduler) IsActive() bool {
	return s.active
}
