// Package monitor decides when a found date is worth an alert and runs the
// polling loop.
package monitor

import (
	"fmt"
	"strings"

	"github.com/david/termin-watch/internal/models"
)

// Window is the inclusive range of dates worth reporting.
type Window struct {
	From models.Date
	To   models.Date
}

func NewWindow(today models.Date, days int) Window {
	return Window{From: today, To: today.AddDays(days)}
}

func (w Window) Contains(d models.Date) bool {
	return !d.Before(w.From) && !d.After(w.To)
}

// Evaluation flags are only meaningful when a date was found.
type Evaluation struct {
	Window   Window
	InWindow bool
	IsNew    bool
}

// Evaluate checks found against the window starting today and the last
// notified date.
func Evaluate(found, lastKnown *models.Date, today models.Date, windowDays int) Evaluation {
	ev := Evaluation{Window: NewWindow(today, windowDays)}
	if found == nil {
		return ev
	}
	ev.InWindow = ev.Window.Contains(*found)
	ev.IsNew = lastKnown == nil || found.Before(*lastKnown)
	return ev
}

// Policy decides which evaluations trigger a notification.
type Policy string

const (
	// PolicyEarlier alerts only for in-window dates earlier than the last
	// notified one.
	PolicyEarlier Policy = "earlier"
	// PolicyInWindow alerts for every in-window date, repeating each cycle.
	PolicyInWindow Policy = "in-window"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyEarlier, PolicyInWindow:
		return p, nil
	case "":
		return PolicyEarlier, nil
	default:
		return "", fmt.Errorf("unknown notify policy %q (want %q or %q)", s, PolicyEarlier, PolicyInWindow)
	}
}

func (p Policy) ShouldNotify(ev Evaluation, found *models.Date) bool {
	if found == nil || !ev.InWindow {
		return false
	}
	switch p {
	case PolicyInWindow:
		return true
	default:
		return ev.IsNew
	}
}
