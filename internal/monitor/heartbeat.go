package monitor

import (
	"context"
	"time"

	"github.com/david/termin-watch/internal/logger"
	"github.com/david/termin-watch/internal/notify"
	"github.com/robfig/cron/v3"
)

// Heartbeat mails a short digest on a cron schedule so a silent watcher
// can be told apart from a dead one. It only reads Status.
type Heartbeat struct {
	cronEngine *cron.Cron
	status     *Status
	notifier   notify.Notifier
	subject    string
	targetURL  string
}

func NewHeartbeat(spec string, loc *time.Location, status *Status, n notify.Notifier, subject, targetURL string) (*Heartbeat, error) {
	h := &Heartbeat{
		cronEngine: cron.New(cron.WithLocation(loc)),
		status:     status,
		notifier:   n,
		subject:    subject + " (heartbeat)",
		targetURL:  targetURL,
	}
	if _, err := h.cronEngine.AddFunc(spec, h.send); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Heartbeat) Start() {
	h.cronEngine.Start()
	logger.Log.Info("Heartbeat scheduler started")
}

// Stop waits for a running job to finish.
func (h *Heartbeat) Stop() {
	<-h.cronEngine.Stop().Done()
}

func (h *Heartbeat) send() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	snap := h.status.Snapshot()
	body := notify.Heartbeat{Cycles: snap.Cycles, Last: snap.Last, TargetURL: h.targetURL}.Body()
	if err := h.notifier.Send(ctx, h.subject, body); err != nil {
		logger.Log.WithError(err).Warn("Failed to send heartbeat")
		return
	}
	logger.Log.Debug("Heartbeat sent")
}
