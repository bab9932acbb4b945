package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/david/termin-watch/internal/config"
	"github.com/david/termin-watch/internal/db"
	"github.com/david/termin-watch/internal/logger"
	"github.com/david/termin-watch/internal/models"
	"github.com/jedib0t/go-pretty/v6/table"
)

func main() {
	limit := flag.Int("n", 20, "Number of cycles to show")
	outcome := flag.String("outcome", "", "Only show cycles with this outcome")
	found := flag.Bool("found", false, "Only show cycles that found a date")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel, cfg.Environment)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal(err)
	}
	defer pool.Close()

	store := db.NewStore(pool)
	cycles, err := store.ListCycles(ctx, db.ListParams{
		Outcome:      models.Outcome(*outcome),
		WithDateOnly: *found,
		Limit:        *limit,
	})
	if err != nil {
		logger.Log.Fatal(err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Started At", "Outcome", "Found", "Strategy", "In Window", "New", "Mail", "Duration", "Error"})

	for _, c := range cycles {
		mail := ""
		switch {
		case c.Notified:
			mail = "sent"
		case c.MailError != "":
			mail = "failed"
		}
		t.AppendRow(table.Row{
			c.StartedAt.In(cfg.Location).Format("2006-01-02 15:04"),
			c.Outcome,
			dateCell(c.Found),
			c.Strategy,
			c.InWindow,
			c.IsNew,
			mail,
			c.Duration().Round(time.Second).String(),
			firstNonEmpty(c.FailedStep, c.Error),
		})
	}

	if stats, err := store.GetStats(ctx); err == nil {
		t.AppendFooter(table.Row{"Total", stats.Total, dateCell(stats.EarliestSeen), "", "", "", stats.Notifications, "", ""})
	}
	t.Render()
}

func dateCell(d *models.Date) string {
	if d == nil {
		return "-"
	}
	return d.German()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
