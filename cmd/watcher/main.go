package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/david/termin-watch/internal/api"
	"github.com/david/termin-watch/internal/app"
	"github.com/david/termin-watch/internal/config"
	"github.com/david/termin-watch/internal/logger"
	"github.com/david/termin-watch/internal/monitor"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel, cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		logger.Log.Fatalf("Failed to initialise watcher: %v", err)
	}
	defer a.Close()

	logger.Log.WithFields(logrus.Fields{
		"target":      cfg.TargetURL,
		"service":     cfg.Flow.Service,
		"policy":      a.Policy,
		"window_days": cfg.WindowDays,
		"interval":    a.Interval().String(),
		"history":     a.History != nil,
	}).Info("Watcher starting")

	if cfg.StatusAddr != "" {
		srv := api.NewServer(a.Status, historyOrNil(a), api.Info{
			TargetURL:  cfg.TargetURL,
			Service:    cfg.Flow.Service,
			Policy:     string(a.Policy),
			WindowDays: cfg.WindowDays,
			Interval:   a.Interval().String(),
		})
		go func() {
			logger.Log.Infof("Status server listening on %s", cfg.StatusAddr)
			if err := srv.Start(cfg.StatusAddr); err != nil {
				logger.Log.WithError(err).Error("Status server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if cfg.HeartbeatCron != "" {
		hb, err := monitor.NewHeartbeat(cfg.HeartbeatCron, cfg.Location, a.Status, a.Notifier, a.Subject, cfg.TargetURL)
		if err != nil {
			logger.Log.Fatalf("Invalid HEARTBEAT_CRON %q: %v", cfg.HeartbeatCron, err)
		}
		hb.Start()
		defer hb.Stop()
	}

	runner := monitor.NewRunner(a.Controller, monitor.NewSchedule(a.Interval()), a.Status)
	if err := runner.Run(ctx); err != nil {
		logger.Log.WithError(err).Error("Watcher exited")
	}
}

// historyOrNil keeps a nil *db.Store from becoming a non-nil interface.
func historyOrNil(a *app.App) api.History {
	if a.History == nil {
		return nil
	}
	return a.History
}
