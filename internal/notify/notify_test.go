package notify

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/david/termin-watch/internal/config"
	"github.com/david/termin-watch/internal/models"
	"github.com/google/uuid"
	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeSMTP() config.SMTPConfig {
	return config.SMTPConfig{
		Host:     "smtp.gmail.com",
		Port:     587,
		User:     "watcher@example.org",
		Password: "app-password",
		To:       "me@example.org, partner@example.org",
	}
}

func TestMailer_NotConfigured(t *testing.T) {
	cfg := completeSMTP()
	cfg.Password = ""
	m := NewMailer(cfg)
	m.send = func(*email.Email, string, smtp.Auth) error {
		t.Fatal("send must not be called")
		return nil
	}

	err := m.Send(context.Background(), "s", "b")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestMailer_Send(t *testing.T) {
	m := NewMailer(completeSMTP())
	var (
		got     *email.Email
		gotAddr string
	)
	m.send = func(e *email.Email, addr string, _ smtp.Auth) error {
		got, gotAddr = e, addr
		return nil
	}

	require.NoError(t, m.Send(context.Background(), "subject", "body"))

	assert.Equal(t, "smtp.gmail.com:587", gotAddr)
	assert.Equal(t, "watcher@example.org", got.From)
	assert.Equal(t, []string{"me@example.org", "partner@example.org"}, got.To)
	assert.Equal(t, "subject", got.Subject)
	assert.Equal(t, "body", string(got.Text))
}

func TestMailer_SendError(t *testing.T) {
	m := NewMailer(completeSMTP())
	m.send = func(*email.Email, string, smtp.Auth) error {
		return errors.New("535 authentication failed")
	}

	err := m.Send(context.Background(), "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp.gmail.com:587")
	assert.Contains(t, err.Error(), "535")
}

func TestSubject(t *testing.T) {
	assert.Equal(t,
		"[Mainz] Abteilung Ausländerangelegenheiten - Überträge von Aufenthaltstiteln (neuer Pass)",
		Subject("Mainz", "Abteilung Ausländerangelegenheiten", "Überträge von Aufenthaltstiteln (neuer Pass)"))
}

func TestAlertBody(t *testing.T) {
	a := Alert{
		Found:      models.MustDate(2025, time.January, 5),
		Detail:     "08:40 Uhr",
		TargetURL:  "https://termine-reservieren.de/termine/buergeramt.mainz/",
		WindowDays: 12,
		Today:      models.MustDate(2025, time.January, 1),
	}

	body := a.Body()

	assert.Contains(t, body, "05.01.2025 (2025-01-05), 08:40 Uhr")
	assert.Contains(t, body, "https://termine-reservieren.de/termine/buergeramt.mainz/")
	assert.Contains(t, body, "12 days (2025-01-01 to 2025-01-13)")
}

func TestHeartbeatBody(t *testing.T) {
	assert.Contains(t, Heartbeat{TargetURL: "u"}.Body(), "No cycle has finished yet.")

	found := models.MustDate(2025, time.March, 3)
	start := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	last := &models.Cycle{
		ID:         uuid.New(),
		StartedAt:  start,
		FinishedAt: start.Add(42 * time.Second),
		Outcome:    models.OutcomeFound,
		Found:      &found,
	}
	body := Heartbeat{Cycles: 7, Last: last, TargetURL: "u"}.Body()

	assert.Contains(t, body, "Cycles since start: 7")
	assert.Contains(t, body, "found at 2025-02-01 09:00 (42s)")
	assert.Contains(t, body, "Last date seen: 03.03.2025")
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, LogNotifier{}.Send(context.Background(), "s", "b"))
}
