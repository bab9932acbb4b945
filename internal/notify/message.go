package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/david/termin-watch/internal/models"
)

// Subject follows "[<office>] <unit> - <concern>".
func Subject(office, unit, concern string) string {
	return fmt.Sprintf("[%s] %s - %s", office, unit, concern)
}

// Alert is the content of an availability mail.
type Alert struct {
	Found      models.Date
	Detail     string // e.g. "08:40 Uhr"
	TargetURL  string
	WindowDays int
	Today      models.Date
}

func (a Alert) Body() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Earliest available date: %s (%s)", a.Found.German(), a.Found)
	if a.Detail != "" {
		fmt.Fprintf(&b, ", %s", a.Detail)
	}
	b.WriteString("\n\n")
	b.WriteString(a.TargetURL)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Window: today -> %d days (%s to %s)\n",
		a.WindowDays, a.Today, a.Today.AddDays(a.WindowDays))
	return b.String()
}

// Heartbeat is the periodic "still watching" digest.
type Heartbeat struct {
	Cycles    int
	Last      *models.Cycle
	TargetURL string
}

func (h Heartbeat) Body() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Still watching %s\n", h.TargetURL)
	fmt.Fprintf(&b, "Cycles since start: %d\n", h.Cycles)
	if h.Last == nil {
		b.WriteString("No cycle has finished yet.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Last cycle: %s at %s (%s)\n",
		h.Last.Outcome, h.Last.FinishedAt.Format("2006-01-02 15:04"), h.Last.Duration().Round(time.Second))
	if h.Last.Found != nil {
		fmt.Fprintf(&b, "Last date seen: %s\n", h.Last.Found.German())
	}
	if h.Last.LastKnown != nil {
		fmt.Fprintf(&b, "Notified date before that cycle: %s\n", h.Last.LastKnown.German())
	}
	if h.Last.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", h.Last.Error)
	}
	return b.String()
}
