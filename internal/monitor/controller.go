package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/david/termin-watch/internal/booking"
	"github.com/david/termin-watch/internal/extract"
	"github.com/david/termin-watch/internal/logger"
	"github.com/david/termin-watch/internal/models"
	"github.com/david/termin-watch/internal/notify"
	"github.com/david/termin-watch/internal/state"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Navigator brings a driver to the result page.
type Navigator interface {
	Run(ctx context.Context, d booking.Driver) error
}

// Extractor reads the earliest date from a page.
type Extractor interface {
	Run(ctx context.Context, page extract.Page) extract.Result
}

// Recorder keeps a history of cycles.
type Recorder interface {
	RecordCycle(ctx context.Context, c models.Cycle) error
}

// Options wires a Controller. Recorder and Status are optional.
type Options struct {
	Opener     booking.Opener
	Flow       Navigator
	Extractor  Extractor
	Store      state.Store
	Notifier   notify.Notifier
	Policy     Policy
	WindowDays int
	Location   *time.Location
	TargetURL  string
	Subject    string
	Recorder   Recorder
	Status     *Status
	// DryRun evaluates as usual but neither mails nor writes state.
	DryRun bool
	// KeepPastState compares against the stored date even after it has
	// passed. By default a past date is forgotten.
	KeepPastState bool
	Now           func() time.Time
}

// Controller runs one polling cycle at a time.
type Controller struct {
	opts Options
}

func NewController(opts Options) *Controller {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Policy == "" {
		opts.Policy = PolicyEarlier
	}
	return &Controller{opts: opts}
}

// RunCycle navigates, extracts, evaluates and, when the policy says so,
// notifies and persists the found date. Every failure ends in the returned
// report; nothing is retried within a cycle.
func (c *Controller) RunCycle(ctx context.Context) (cyc models.Cycle) {
	cyc = models.Cycle{
		ID:         uuid.New(),
		StartedAt:  c.opts.Now(),
		Policy:     string(c.opts.Policy),
		WindowDays: c.opts.WindowDays,
	}
	log := logger.Log.WithField("cycle_id", cyc.ID)
	defer func() { c.finish(ctx, log, &cyc) }()

	lastKnown := c.loadState(log)

	res, err := c.extract(ctx, log)
	if err != nil {
		c.fail(log, &cyc, err)
		return cyc
	}
	cyc.Strategy = res.Strategy
	cyc.Candidates = res.Candidates
	cyc.Detail = res.Detail
	cyc.Found = res.Date

	today := models.DateOf(c.opts.Now().In(c.opts.Location))
	if lastKnown != nil && lastKnown.Before(today) && !c.opts.KeepPastState {
		log.WithField("last_known", lastKnown.String()).Info("Last notified date has passed, forgetting it")
		lastKnown = nil
	}
	cyc.LastKnown = lastKnown

	ev := Evaluate(res.Date, lastKnown, today, c.opts.WindowDays)
	cyc.InWindow = ev.InWindow
	cyc.IsNew = ev.IsNew

	fields := logrus.Fields{
		"found":      "none",
		"last_known": "none",
		"in_window":  ev.InWindow,
		"is_new":     ev.IsNew,
		"window_end": ev.Window.To.String(),
	}
	if res.Found() {
		fields["found"] = res.Date.String()
		fields["strategy"] = res.Strategy
	}
	if lastKnown != nil {
		fields["last_known"] = lastKnown.String()
	}
	log.WithFields(fields).Info("Cycle evaluated")

	if !res.Found() {
		cyc.Outcome = models.OutcomeNoDate
		return cyc
	}
	if !c.opts.Policy.ShouldNotify(ev, res.Date) {
		cyc.Outcome = models.OutcomeFound
		return cyc
	}

	cyc.Outcome = models.OutcomeNotified
	c.notify(ctx, log, &cyc, *res.Date, today)
	return cyc
}

// extract opens a session, walks the flow and runs the chain. The session
// is closed before returning.
func (c *Controller) extract(ctx context.Context, log *logrus.Entry) (extract.Result, error) {
	session, err := c.opts.Opener.Open(ctx)
	if err != nil {
		return extract.Result{}, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.WithError(err).Warn("Failed to close browser session")
		}
	}()

	if err := c.opts.Flow.Run(ctx, session); err != nil {
		return extract.Result{}, err
	}
	return c.opts.Extractor.Run(ctx, session), nil
}

func (c *Controller) notify(ctx context.Context, log *logrus.Entry, cyc *models.Cycle, found, today models.Date) {
	if c.opts.DryRun {
		log.WithField("found", found.String()).Info("Dry run, skipping notification and state update")
		return
	}

	alert := notify.Alert{
		Found:      found,
		Detail:     cyc.Detail,
		TargetURL:  c.opts.TargetURL,
		WindowDays: c.opts.WindowDays,
		Today:      today,
	}
	if err := c.opts.Notifier.Send(ctx, c.opts.Subject, alert.Body()); err != nil {
		cyc.MailError = err.Error()
		log.WithError(err).Error("Failed to send notification")
	} else {
		cyc.Notified = true
		log.WithField("found", found.String()).Info("Notification sent")
	}

	if err := c.opts.Store.Save(found); err != nil {
		log.WithError(err).Error("Failed to persist last notified date")
	}
}

func (c *Controller) loadState(log *logrus.Entry) *models.Date {
	d, err := c.opts.Store.Load()
	if err != nil {
		log.WithError(err).Warn("Ignoring unreadable state")
		return nil
	}
	return d
}

func (c *Controller) fail(log *logrus.Entry, cyc *models.Cycle, err error) {
	cyc.Error = err.Error()

	var navErr *booking.NavigationError
	switch {
	case errors.As(err, &navErr):
		cyc.Outcome = models.OutcomeNavigationError
		cyc.FailedStep = navErr.Step
		log.WithField("step", navErr.Step).WithError(err).Error("Navigation failed")
	case errors.Is(err, booking.ErrTimeout):
		cyc.Outcome = models.OutcomeTimeout
		log.WithError(err).Warn("Timed out, will retry next cycle")
	default:
		cyc.Outcome = models.OutcomeFailed
		log.WithError(err).Error("Cycle failed")
	}
}

// finish stamps the report and hands it to the status tracker and the
// history recorder.
func (c *Controller) finish(ctx context.Context, log *logrus.Entry, cyc *models.Cycle) {
	cyc.FinishedAt = c.opts.Now()
	if cyc.Outcome == "" {
		cyc.Outcome = models.OutcomeFailed
		cyc.Error = "cycle did not complete"
	}
	log.WithFields(logrus.Fields{
		"outcome":  cyc.Outcome,
		"duration": cyc.Duration().Round(time.Millisecond).String(),
	}).Debug("Cycle finished")

	if c.opts.Status != nil {
		c.opts.Status.Record(*cyc)
	}
	if c.opts.Recorder != nil {
		if err := c.opts.Recorder.RecordCycle(ctx, *cyc); err != nil {
			log.WithError(err).Warn("Failed to record cycle history")
		}
	}
}
