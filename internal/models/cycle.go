package models

import (
	"time"

	"github.com/google/uuid"
)

// Outcome classifies how a polling cycle ended.
type Outcome string

const (
	OutcomeNoDate          Outcome = "no_date"          // flow completed, nothing extracted
	OutcomeFound           Outcome = "found"            // date extracted, no notification due
	OutcomeNotified        Outcome = "notified"         // notification decided and attempted
	OutcomeNavigationError Outcome = "navigation_error" // a required control was missing
	OutcomeTimeout         Outcome = "timeout"          // the browser exceeded a wait
	OutcomeFailed          Outcome = "failed"           // session could not be opened or a defect
)

// Cycle is the report of one navigate, extract, evaluate pass.
type Cycle struct {
	ID         uuid.UUID `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Outcome    Outcome   `json:"outcome"`
	Policy     string    `json:"policy"`
	Strategy   string    `json:"strategy,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	Candidates int       `json:"candidates"`
	Found      *Date     `json:"found"`
	LastKnown  *Date     `json:"last_known"`
	WindowDays int       `json:"window_days"`
	InWindow   bool      `json:"in_window"`
	IsNew      bool      `json:"is_new"`
	Notified   bool      `json:"notified"`
	FailedStep string    `json:"failed_step,omitempty"`
	Error      string    `json:"error,omitempty"`
	MailError  string    `json:"mail_error,omitempty"`
}

func (c Cycle) Duration() time.Duration {
	if c.FinishedAt.IsZero() {
		return 0
	}
	return c.FinishedAt.Sub(c.StartedAt)
}
