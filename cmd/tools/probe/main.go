package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/david/termin-watch/internal/config"
	"github.com/david/termin-watch/internal/extract"
	"github.com/david/termin-watch/internal/htmlpage"
	"github.com/david/termin-watch/internal/logger"
)

// probe runs the extraction chain on a static snapshot: the target page
// fetched without a browser, or a saved HTML file.
func main() {
	file := flag.String("file", "", "Read HTML from this file instead of fetching")
	url := flag.String("url", "", "Page to fetch (defaults to TARGET_URL)")
	each := flag.Bool("each", false, "Run every strategy on its own and print all results")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel, cfg.Environment)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	page, source := loadPage(ctx, cfg, *file, *url)

	chain, err := cfg.Flow.Extraction.Chain()
	if err != nil {
		logger.Log.Fatalf("Invalid extraction config: %v", err)
	}

	if *each {
		for _, id := range chain.IDs() {
			res := extract.NewChain(mustStrategy(cfg, id)).Run(ctx, page)
			printResult(id, res)
		}
		return
	}

	fmt.Printf("Source: %s\nChain: %v\n", source, chain.IDs())
	fmt.Printf("Unit %q listed: %t\n", cfg.Flow.Unit, page.Contains(cfg.Flow.Unit))
	printResult("chain", chain.Run(ctx, page))
}

func loadPage(ctx context.Context, cfg *config.AppConfig, file, url string) (*htmlpage.Page, string) {
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			logger.Log.Fatalf("Failed to open %s: %v", file, err)
		}
		defer f.Close()
		page, err := htmlpage.FromReader(f)
		if err != nil {
			logger.Log.Fatalf("Failed to parse %s: %v", file, err)
		}
		return page, file
	}

	if url == "" {
		url = cfg.TargetURL
	}
	fetcher := htmlpage.NewFetcher()
	fetcher.UserAgent = cfg.Browser.UserAgent
	res, err := fetcher.Fetch(ctx, url)
	if err != nil {
		logger.Log.Fatalf("Failed to fetch %s: %v", url, err)
	}
	return res.Page, fmt.Sprintf("%s (HTTP %d)", res.URL, res.StatusCode)
}

func mustStrategy(cfg *config.AppConfig, id string) extract.Strategy {
	s, err := extract.NewDefaultFactory(cfg.Flow.Extraction.Settings()).Get(id)
	if err != nil {
		logger.Log.Fatal(err)
	}
	return s
}

func printResult(label string, res extract.Result) {
	if !res.Found() {
		fmt.Printf("%-9s no date\n", label)
		return
	}
	fmt.Printf("%-9s %s via %s (%d candidates) %s\n", label, res.Date.German(), res.Strategy, res.Candidates, res.Detail)
}
