package monitor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/david/termin-watch/internal/booking"
	"github.com/david/termin-watch/internal/booking/bookingtest"
	"github.com/david/termin-watch/internal/config"
	"github.com/david/termin-watch/internal/logger"
	"github.com/david/termin-watch/internal/models"
	"github.com/david/termin-watch/internal/notify"
	"github.com/david/termin-watch/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const targetURL = "https://termine-reservieren.de/termine/buergeramt.mainz/"

type sentMail struct {
	Subject, Body string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMail{subject, body})
	return nil
}

type recordingRecorder struct {
	cycles []models.Cycle
	err    error
}

func (r *recordingRecorder) RecordCycle(_ context.Context, c models.Cycle) error {
	r.cycles = append(r.cycles, c)
	return r.err
}

type harness struct {
	driver   *bookingtest.Driver
	opener   *bookingtest.Opener
	notifier *recordingNotifier
	store    *state.FileStore
	status   *Status
	recorder *recordingRecorder
}

func (h *harness) controller(t *testing.T, policy Policy, mutate ...func(*Options)) *Controller {
	t.Helper()
	flow, err := config.LoadFlow("")
	require.NoError(t, err)
	chain, err := flow.Extraction.Chain()
	require.NoError(t, err)
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	opts := Options{
		Opener:     h.opener,
		Flow:       booking.NewFlow(targetURL, flow),
		Extractor:  chain,
		Store:      h.store,
		Notifier:   h.notifier,
		Policy:     policy,
		WindowDays: 12,
		Location:   berlin,
		TargetURL:  targetURL,
		Subject:    notify.Subject(flow.Office, flow.Unit, flow.Service),
		Recorder:   h.recorder,
		Status:     h.status,
		Now:        func() time.Time { return time.Date(2025, 1, 1, 10, 0, 0, 0, berlin) },
	}
	for _, m := range mutate {
		m(&opts)
	}
	return NewController(opts)
}

func newHarness(t *testing.T, resultHTML string) *harness {
	t.Helper()
	logger.Discard()
	d, err := bookingtest.Mainz(resultHTML)
	require.NoError(t, err)
	return &harness{
		driver:   d,
		opener:   &bookingtest.Opener{Driver: d},
		notifier: &recordingNotifier{},
		store:    state.NewFileStore(filepath.Join(t.TempDir(), ".state_earliest.txt")),
		status:   NewStatus(time.Now()),
		recorder: &recordingRecorder{},
	}
}

func (h *harness) stateFile(t *testing.T) (string, bool) {
	t.Helper()
	raw, err := os.ReadFile(h.store.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false
	}
	require.NoError(t, err)
	return string(raw), true
}

const jan5 = `<div class="summary"><p>Nächster Termin ab 05.01.2025, 09:30 Uhr</p></div>`

func TestRunCycle_FirstDateNotifiesAndPersists(t *testing.T) {
	h := newHarness(t, jan5)

	cyc := h.controller(t, PolicyEarlier).RunCycle(context.Background())

	assert.Equal(t, models.OutcomeNotified, cyc.Outcome)
	assert.True(t, cyc.Notified)
	assert.True(t, cyc.InWindow)
	assert.True(t, cyc.IsNew)
	assert.Equal(t, "phrase", cyc.Strategy)
	assert.Equal(t, "09:30 Uhr", cyc.Detail)
	require.NotNil(t, cyc.Found)
	assert.Equal(t, "2025-01-05", cyc.Found.String())

	require.Len(t, h.notifier.sent, 1)
	mail := h.notifier.sent[0]
	assert.Equal(t, "[Mainz] Abteilung Ausländerangelegenheiten - Überträge von Aufenthaltstiteln (neuer Pass)", mail.Subject)
	assert.Contains(t, mail.Body, "05.01.2025")
	assert.Contains(t, mail.Body, targetURL)
	assert.Contains(t, mail.Body, "12 days")

	content, ok := h.stateFile(t)
	require.True(t, ok)
	assert.Equal(t, "2025-01-05\n", content)
	assert.True(t, h.driver.Closed)
}

func TestRunCycle_RepeatedDate(t *testing.T) {
	tests := []struct {
		policy   Policy
		wantMail int
		want     models.Outcome
	}{
		{PolicyEarlier, 0, models.OutcomeFound},
		{PolicyInWindow, 1, models.OutcomeNotified},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			h := newHarness(t, jan5)
			require.NoError(t, h.store.Save(models.MustDate(2025, time.January, 5)))

			cyc := h.controller(t, tt.policy).RunCycle(context.Background())

			assert.Equal(t, tt.want, cyc.Outcome)
			assert.False(t, cyc.IsNew)
			assert.True(t, cyc.InWindow)
			assert.Len(t, h.notifier.sent, tt.wantMail)
			content, _ := h.stateFile(t)
			assert.Equal(t, "2025-01-05\n", content)
		})
	}
}

func TestRunCycle_EarlierDateReplacesState(t *testing.T) {
	h := newHarness(t, jan5)
	require.NoError(t, h.store.Save(models.MustDate(2025, time.January, 9)))

	cyc := h.controller(t, PolicyEarlier).RunCycle(context.Background())

	assert.Equal(t, models.OutcomeNotified, cyc.Outcome)
	content, _ := h.stateFile(t)
	assert.Equal(t, "2025-01-05\n", content)
}

func TestRunCycle_OutsideWindow(t *testing.T) {
	h := newHarness(t, `<p>Nächster Termin ab 20.02.2025</p>`)

	cyc := h.controller(t, PolicyInWindow).RunCycle(context.Background())

	assert.Equal(t, models.OutcomeFound, cyc.Outcome)
	assert.False(t, cyc.InWindow)
	assert.True(t, cyc.IsNew)
	assert.Empty(t, h.notifier.sent)
	_, ok := h.stateFile(t)
	assert.False(t, ok)
}

func TestRunCycle_NoDate(t *testing.T) {
	h := newHarness(t, `<p>Derzeit sind keine Termine verfügbar.</p>`)

	cyc := h.controller(t, PolicyInWindow).RunCycle(context.Background())

	assert.Equal(t, models.OutcomeNoDate, cyc.Outcome)
	assert.Nil(t, cyc.Found)
	assert.Empty(t, cyc.Strategy)
	assert.Empty(t, h.notifier.sent)
}

func TestRunCycle_NavigationErrorLeavesStateAndMailAlone(t *testing.T) {
	steps := map[string]func(d *bookingtest.Driver){
		booking.StepUnit: func(d *bookingtest.Driver) {
			d.FailOn("Abteilung Ausländerangelegenheiten", booking.ErrNotFound)
		},
		booking.StepService: func(d *bookingtest.Driver) {
			d.FailOn("Überträge von Aufenthaltstiteln (neuer Pass)", booking.ErrNotFound)
		},
		booking.StepContinue: func(d *bookingtest.Driver) {
			for _, l := range []string{"Weiter", "Fortfahren", "weiter", "WEITER"} {
				d.FailOn(l, booking.ErrNotFound)
			}
		},
	}
	for step, breakIt := range steps {
		t.Run(step, func(t *testing.T) {
			h := newHarness(t, jan5)
			require.NoError(t, h.store.Save(models.MustDate(2025, time.January, 9)))
			breakIt(h.driver)

			cyc := h.controller(t, PolicyInWindow).RunCycle(context.Background())

			assert.Equal(t, models.OutcomeNavigationError, cyc.Outcome)
			assert.Equal(t, step, cyc.FailedStep)
			assert.Nil(t, cyc.Found)
			assert.Empty(t, h.notifier.sent)
			content, _ := h.stateFile(t)
			assert.Equal(t, "2025-01-09\n", content)
			assert.True(t, h.driver.Closed)
		})
	}
}

func TestRunCycle_Timeout(t *testing.T) {
	h := newHarness(t, jan5)
	h.driver.FailOn("Abteilung Ausländerangelegenheiten", context.DeadlineExceeded)

	cyc := h.controller(t, PolicyEarlier).RunCycle(context.Background())

	assert.Equal(t, models.OutcomeTimeout, cyc.Outcome)
	assert.Empty(t, h.notifier.sent)
	assert.True(t, h.driver.Closed)
}

func TestRunCycle_OpenFailure(t *testing.T) {
	h := newHarness(t, jan5)
	h.opener.Err = errors.New("chrome not found")

	cyc := h.controller(t, PolicyEarlier).RunCycle(context.Background())

	assert.Equal(t, models.OutcomeFailed, cyc.Outcome)
	assert.Equal(t, "chrome not found", cyc.Error)
	assert.Empty(t, h.notifier.sent)
}

func TestRunCycle_MailFailureStillPersists(t *testing.T) {
	h := newHarness(t, jan5)
	h.notifier.err = notify.ErrNotConfigured

	cyc := h.controller(t, PolicyEarlier).RunCycle(context.Background())

	assert.Equal(t, models.OutcomeNotified, cyc.Outcome)
	assert.False(t, cyc.Notified)
	assert.Equal(t, notify.ErrNotConfigured.Error(), cyc.MailError)
	content, _ := h.stateFile(t)
	assert.Equal(t, "2025-01-05\n", content)
}

func TestRunCycle_MalformedStateCountsAsNone(t *testing.T) {
	h := newHarness(t, jan5)
	require.NoError(t, os.WriteFile(h.store.Path, []byte("garbage"), 0o600))

	cyc := h.controller(t, PolicyEarlier).RunCycle(context.Background())

	assert.Equal(t, models.OutcomeNotified, cyc.Outcome)
	assert.Nil(t, cyc.LastKnown)
	content, _ := h.stateFile(t)
	assert.Equal(t, "2025-01-05\n", content)
}

func TestRunCycle_PastStateIsForgotten(t *testing.T) {
	h := newHarness(t, `<p>Nächster Termin ab 10.01.2025</p>`)
	require.NoError(t, h.store.Save(models.MustDate(2024, time.December, 30)))

	cyc := h.controller(t, PolicyEarlier).RunCycle(context.Background())

	assert.Equal(t, models.OutcomeNotified, cyc.Outcome)
	assert.Nil(t, cyc.LastKnown)
	assert.True(t, cyc.IsNew)
}

func TestRunCycle_PastStateKeptWhenConfigured(t *testing.T) {
	h := newHarness(t, `<p>Nächster Termin ab 10.01.2025</p>`)
	require.NoError(t, h.store.Save(models.MustDate(2024, time.December, 30)))

	cyc := h.controller(t, PolicyEarlier, func(o *Options) { o.KeepPastState = true }).RunCycle(context.Background())

	assert.Equal(t, models.OutcomeFound, cyc.Outcome)
	require.NotNil(t, cyc.LastKnown)
	assert.Equal(t, "2024-12-30", cyc.LastKnown.String())
	assert.False(t, cyc.IsNew)
	assert.Empty(t, h.notifier.sent)
	content, _ := h.stateFile(t)
	assert.Equal(t, "2024-12-30\n", content)
}

func TestRunCycle_DryRun(t *testing.T) {
	h := newHarness(t, jan5)

	cyc := h.controller(t, PolicyEarlier, func(o *Options) { o.DryRun = true }).RunCycle(context.Background())

	assert.Equal(t, models.OutcomeNotified, cyc.Outcome)
	assert.False(t, cyc.Notified)
	assert.Empty(t, h.notifier.sent)
	_, ok := h.stateFile(t)
	assert.False(t, ok)
}

func TestRunCycle_PublishesReport(t *testing.T) {
	h := newHarness(t, jan5)
	h.recorder.err = errors.New("database is down")

	cyc := h.controller(t, PolicyEarlier).RunCycle(context.Background())

	require.Len(t, h.recorder.cycles, 1)
	assert.Equal(t, cyc.ID, h.recorder.cycles[0].ID)
	snap := h.status.Snapshot()
	assert.Equal(t, 1, snap.Cycles)
	require.NotNil(t, snap.Last)
	assert.Equal(t, cyc.ID, snap.Last.ID)
	require.NotNil(t, snap.LastNotified)
	assert.False(t, cyc.FinishedAt.IsZero())
}
