package monitor

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/david/termin-watch/internal/logger"
	"github.com/david/termin-watch/internal/models"
)

// Cycler runs one polling cycle.
type Cycler interface {
	RunCycle(ctx context.Context) models.Cycle
}

// Runner repeats cycles until its context is cancelled.
type Runner struct {
	cycler   Cycler
	schedule *Schedule
	status   *Status
	now      func() time.Time
}

func NewRunner(cycler Cycler, schedule *Schedule, status *Status) *Runner {
	return &Runner{cycler: cycler, schedule: schedule, status: status, now: time.Now}
}

// Run blocks until ctx is done. A running cycle is allowed to finish;
// cancellation is only observed between cycles.
func (r *Runner) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			logger.Log.Info("Watcher stopped")
			return nil
		}

		r.runOnce(context.WithoutCancel(ctx))

		delay := r.schedule.Delay()
		next := r.now().Add(delay)
		if r.status != nil {
			r.status.ScheduleNext(next)
		}
		logger.Log.Infof("Next check at %s (in %s)", next.Format(time.DateTime), delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Log.Info("Watcher stopped")
			return nil
		case <-timer.C:
		}
	}
}

func (r *Runner) runOnce(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Log.WithField("stack", string(debug.Stack())).
				Errorf("Cycle panicked: %v", rec)
		}
	}()
	r.cycler.RunCycle(ctx)
}

// RunOnce runs a single guarded cycle and returns its report.
func RunOnce(ctx context.Context, c Cycler) (cyc models.Cycle, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("cycle panicked: %v", rec)
		}
	}()
	return c.RunCycle(ctx), nil
}
