package monitor

import (
	"testing"
	"time"

	"github.com/david/termin-watch/internal/logger"
	"github.com/david/termin-watch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Snapshot(t *testing.T) {
	start := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	s := NewStatus(start)

	snap := s.Snapshot()
	assert.Equal(t, start, snap.StartedAt)
	assert.Zero(t, snap.Cycles)
	assert.Nil(t, snap.Last)
	assert.Nil(t, snap.NextRun)

	s.Record(models.Cycle{Outcome: models.OutcomeNotified, Notified: true})
	s.Record(models.Cycle{Outcome: models.OutcomeNoDate})
	s.ScheduleNext(start.Add(12 * time.Minute))

	snap = s.Snapshot()
	assert.Equal(t, 2, snap.Cycles)
	assert.Equal(t, models.OutcomeNoDate, snap.Last.Outcome)
	assert.Equal(t, models.OutcomeNotified, snap.LastNotified.Outcome)
	assert.Equal(t, start.Add(12*time.Minute), *snap.NextRun)
}

func TestHeartbeat(t *testing.T) {
	logger.Discard()
	status := NewStatus(time.Now())
	status.Record(models.Cycle{Outcome: models.OutcomeFound})
	n := &recordingNotifier{}

	h, err := NewHeartbeat("0 9 * * *", time.UTC, status, n, "[Mainz] X - Y", targetURL)
	require.NoError(t, err)

	h.send()

	require.Len(t, n.sent, 1)
	assert.Equal(t, "[Mainz] X - Y (heartbeat)", n.sent[0].Subject)
	assert.Contains(t, n.sent[0].Body, "Cycles since start: 1")
	assert.Contains(t, n.sent[0].Body, targetURL)

	h.Start()
	h.Stop()
}

func TestHeartbeat_InvalidSpec(t *testing.T) {
	_, err := NewHeartbeat("every morning", time.UTC, NewStatus(time.Now()), &recordingNotifier{}, "s", targetURL)
	assert.Error(t, err)
}

