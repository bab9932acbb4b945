// Package app wires configuration into a ready-to-run controller.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/david/termin-watch/internal/booking"
	"github.com/david/termin-watch/internal/browser"
	"github.com/david/termin-watch/internal/config"
	"github.com/david/termin-watch/internal/db"
	"github.com/david/termin-watch/internal/monitor"
	"github.com/david/termin-watch/internal/notify"
	"github.com/david/termin-watch/internal/state"
	"github.com/jackc/pgx/v5/pgxpool"
)

type App struct {
	Config     *config.AppConfig
	Policy     monitor.Policy
	Subject    string
	Controller *monitor.Controller
	Status     *monitor.Status
	Notifier   notify.Notifier
	History    *db.Store // nil without DATABASE_URL

	pool *pgxpool.Pool
}

type Options struct {
	DryRun bool
	// Opener defaults to a go-rod browser.
	Opener booking.Opener
}

func New(ctx context.Context, cfg *config.AppConfig, opts Options) (*App, error) {
	policy, err := monitor.ParsePolicy(cfg.NotifyPolicy)
	if err != nil {
		return nil, err
	}
	chain, err := cfg.Flow.Extraction.Chain()
	if err != nil {
		return nil, fmt.Errorf("extraction chain: %w", err)
	}

	a := &App{
		Config:   cfg,
		Policy:   policy,
		Subject:  notify.Subject(cfg.Flow.Office, cfg.Flow.Unit, cfg.Flow.Service),
		Status:   monitor.NewStatus(time.Now()),
		Notifier: notify.NewMailer(cfg.SMTP),
	}
	if opts.DryRun {
		a.Notifier = notify.LogNotifier{}
	}

	var recorder monitor.Recorder
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.ApplyMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		a.pool = pool
		a.History = db.NewStore(pool)
		recorder = a.History
	}

	opener := opts.Opener
	if opener == nil {
		opener = browser.NewOpener(cfg.Browser)
	}

	a.Controller = monitor.NewController(monitor.Options{
		Opener:        opener,
		Flow:          booking.NewFlow(cfg.TargetURL, cfg.Flow),
		Extractor:     chain,
		Store:         state.NewFileStore(cfg.StateFile),
		Notifier:      a.Notifier,
		Policy:        policy,
		WindowDays:    cfg.WindowDays,
		Location:      cfg.Location,
		TargetURL:     cfg.TargetURL,
		Subject:       a.Subject,
		Recorder:      recorder,
		Status:        a.Status,
		DryRun:        opts.DryRun,
		KeepPastState: !cfg.ForgetPastState,
	})
	return a, nil
}

// Interval is the configured base delay between cycles.
func (a *App) Interval() time.Duration {
	return time.Duration(a.Config.IntervalMinutes) * time.Minute
}

func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
