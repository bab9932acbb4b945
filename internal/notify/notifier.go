// Package notify delivers availability alerts.
package notify

import (
	"context"
	"errors"

	"github.com/david/termin-watch/internal/logger"
)

// ErrNotConfigured is returned when mail credentials or the recipient are
// missing. Callers log it and carry on.
var ErrNotConfigured = errors.New("mail is not configured")

// Notifier sends one plain-text message.
type Notifier interface {
	Send(ctx context.Context, subject, body string) error
}

// LogNotifier writes messages to the log instead of sending them.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, subject, body string) error {
	logger.Log.WithField("subject", subject).Infof("Notification (not sent):\n%s", body)
	return nil
}
