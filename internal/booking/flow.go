package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/david/termin-watch/internal/config"
	"github.com/david/termin-watch/internal/logger"
)

// Step names, reported in NavigationError and the cycle record.
const (
	StepOpen     = "open"
	StepUnit     = "unit"
	StepService  = "service"
	StepConcern  = "concern"
	StepContinue = "continue"
)

// Flow walks from the landing page to the date overview.
type Flow struct {
	TargetURL      string
	Unit           string
	Service        string
	Concerns       []string
	ContinueLabels []string
	DialogLabels   []string
}

func NewFlow(targetURL string, f *config.Flow) *Flow {
	return &Flow{
		TargetURL:      targetURL,
		Unit:           f.Unit,
		Service:        f.Service,
		Concerns:       f.ConcernCandidates,
		ContinueLabels: f.ContinueLabels,
		DialogLabels:   f.DialogLabels,
	}
}

// Run leaves d on the result page. A missing control yields a
// *NavigationError, an expired wait an error wrapping ErrTimeout.
func (f *Flow) Run(ctx context.Context, d Driver) error {
	if err := d.Navigate(ctx, f.TargetURL); err != nil {
		return stepError(StepOpen, f.TargetURL, err)
	}
	f.dismissDialogs(ctx, d)
	if err := d.WaitIdle(ctx); err != nil {
		return stepError(StepOpen, f.TargetURL, err)
	}

	unit := []Target{
		{Label: f.Unit, Role: RoleButton},
		{Label: f.Unit, Role: RoleLink},
		{Label: f.Unit, Role: RoleText},
	}
	if err := f.clickStep(ctx, d, StepUnit, f.Unit, unit); err != nil {
		return err
	}

	logger.Log.WithField("step", StepService).Debugf("Incrementing %q", f.Service)
	if err := d.IncrementQuantity(ctx, f.Service); err != nil {
		return stepError(StepService, f.Service, err)
	}

	var concern []Target
	for _, label := range f.Concerns {
		concern = append(concern,
			Target{Label: label, Role: RoleButton, Exact: true},
			Target{Label: label, Role: RoleLink, Exact: true},
			Target{Label: label, Role: RoleText, Exact: true},
		)
	}
	if err := f.clickStep(ctx, d, StepConcern, strings.Join(f.Concerns, " | "), concern); err != nil {
		return err
	}

	var next []Target
	for _, label := range f.ContinueLabels {
		next = append(next, Target{Label: label, Role: RoleButton})
	}
	if len(f.ContinueLabels) > 0 {
		next = append(next, Target{Label: f.ContinueLabels[0], Role: RoleLink})
	}
	return f.clickStep(ctx, d, StepContinue, strings.Join(f.ContinueLabels, " | "), next)
}

// clickStep clicks the first target that exists and waits for the page to
// settle.
func (f *Flow) clickStep(ctx context.Context, d Driver, step, label string, targets []Target) error {
	log := logger.Log.WithField("step", step)
	for _, t := range targets {
		err := d.Click(ctx, t)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return stepError(step, t.Label, err)
		}
		log.Debugf("Clicked %s", t)
		if err := d.WaitIdle(ctx); err != nil {
			return stepError(step, t.Label, err)
		}
		return nil
	}
	return &NavigationError{Step: step, Label: label, Err: ErrNotFound}
}

// dismissDialogs closes cookie and notice overlays. Nothing here is
// required, so every error is ignored.
func (f *Flow) dismissDialogs(ctx context.Context, d Driver) {
	for _, label := range f.DialogLabels {
		if err := d.Click(ctx, Target{Label: label, Role: RoleButton, Exact: true}); err == nil {
			logger.Log.WithField("step", StepOpen).Debugf("Dismissed dialog via %q", label)
		}
	}
}

func stepError(step, label string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return &NavigationError{Step: step, Label: label, Err: err}
	case errors.Is(err, ErrTimeout):
		return fmt.Errorf("step %s: %w", step, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("step %s: %w: %w", step, ErrTimeout, err)
	default:
		return fmt.Errorf("step %s: %w", step, err)
	}
}
