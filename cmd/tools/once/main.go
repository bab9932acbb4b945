package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/david/termin-watch/internal/app"
	"github.com/david/termin-watch/internal/config"
	"github.com/david/termin-watch/internal/logger"
	"github.com/david/termin-watch/internal/models"
	"github.com/david/termin-watch/internal/monitor"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Evaluate without sending mail or writing state")
	asJSON := flag.Bool("json", false, "Print the cycle report as JSON")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel, cfg.Environment)

	ctx := context.Background()
	a, err := app.New(ctx, cfg, app.Options{DryRun: *dryRun})
	if err != nil {
		logger.Log.Fatalf("Failed to initialise: %v", err)
	}
	defer a.Close()

	cyc, err := monitor.RunOnce(ctx, a.Controller)
	if err != nil {
		logger.Log.Fatalf("Cycle crashed: %v", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(cyc)
		return
	}

	fmt.Printf("Cycle %s: %s (%s)\n", cyc.ID, cyc.Outcome, cyc.Duration().Round(time.Millisecond))
	if cyc.Found != nil {
		fmt.Printf("Earliest date: %s via %s %s\n", cyc.Found.German(), cyc.Strategy, cyc.Detail)
		fmt.Printf("In window: %t, new: %t, notified: %t\n", cyc.InWindow, cyc.IsNew, cyc.Notified)
	}
	if cyc.Error != "" {
		fmt.Printf("Error: %s\n", cyc.Error)
	}
	if cyc.MailError != "" {
		fmt.Printf("Mail error: %s\n", cyc.MailError)
	}
	if cyc.Outcome == models.OutcomeFailed {
		os.Exit(1)
	}
}
