package monitor

import (
	"sync"
	"time"

	"github.com/david/termin-watch/internal/models"
)

// Status collects what the loop has done so far for the status endpoint
// and the heartbeat. Safe for concurrent use.
type Status struct {
	mu           sync.RWMutex
	startedAt    time.Time
	cycles       int
	last         *models.Cycle
	lastNotified *models.Cycle
	nextRun      time.Time
}

func NewStatus(startedAt time.Time) *Status {
	return &Status{startedAt: startedAt}
}

func (s *Status) Record(c models.Cycle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles++
	s.last = &c
	if c.Notified {
		s.lastNotified = &c
	}
}

func (s *Status) ScheduleNext(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRun = t
}

// Snapshot is a copy of Status at one point in time.
type Snapshot struct {
	StartedAt    time.Time     `json:"started_at"`
	Cycles       int           `json:"cycles"`
	NextRun      *time.Time    `json:"next_run,omitempty"`
	Last         *models.Cycle `json:"last,omitempty"`
	LastNotified *models.Cycle `json:"last_notified,omitempty"`
}

func (s *Status) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{StartedAt: s.startedAt, Cycles: s.cycles}
	if !s.nextRun.IsZero() {
		next := s.nextRun
		snap.NextRun = &next
	}
	if s.last != nil {
		last := *s.last
		snap.Last = &last
	}
	if s.lastNotified != nil {
		n := *s.lastNotified
		snap.LastNotified = &n
	}
	return snap
}
