package monitor

import (
	"math/rand/v2"
	"time"
)

const (
	DefaultJitter = 2 * time.Minute
	DefaultFloor  = 60 * time.Second
)

// Schedule spaces cycles: Base plus a uniform offset in [-Jitter, +Jitter]
// drawn in whole seconds, never less than Floor.
type Schedule struct {
	Base   time.Duration
	Jitter time.Duration
	Floor  time.Duration

	// randN returns a value in [0, n). Nil uses math/rand/v2.
	randN func(n int64) int64
}

func NewSchedule(interval time.Duration) *Schedule {
	return &Schedule{
		Base:   interval,
		Jitter: DefaultJitter,
		Floor:  DefaultFloor,
	}
}

// WithRand replaces the random source.
func (s *Schedule) WithRand(randN func(n int64) int64) *Schedule {
	s.randN = randN
	return s
}

func (s *Schedule) Delay() time.Duration {
	randN := s.randN
	if randN == nil {
		randN = rand.Int64N
	}
	j := int64(s.Jitter / time.Second)
	offset := randN(2*j+1) - j

	d := s.Base + time.Duration(offset)*time.Second
	if d < s.Floor {
		d = s.Floor
	}
	return d
}

func (s *Schedule) Next(now time.Time) time.Time {
	return now.Add(s.Delay())
}
