package htmlpage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/david/termin-watch/internal/logger"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Fetcher loads a page once over plain HTTP. It sees only what the
// server renders; anything built by scripts is missing.
type Fetcher struct {
	UserAgent      string
	RequestTimeout time.Duration
	MaxRetries     int
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		UserAgent:      defaultUserAgent,
		RequestTimeout: 30 * time.Second,
		MaxRetries:     2,
	}
}

// FetchResult is a fetched and parsed page.
type FetchResult struct {
	URL        string
	StatusCode int
	FetchedAt  time.Time
	Page       *Page
}

func (f *Fetcher) buildCollector(ctx context.Context, host string) *colly.Collector {
	c := colly.NewCollector(
		colly.AllowedDomains(host),
		colly.UserAgent(f.UserAgent),
		colly.DetectCharset(),
		colly.AllowURLRevisit(),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(f.RequestTimeout)
	return c
}

func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*FetchResult, error) {
	parsedURL, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	c := f.buildCollector(ctx, parsedURL.Hostname())

	var (
		result   *FetchResult
		parseErr error
		fetchErr error
		attempts int
	)

	c.OnResponse(func(r *colly.Response) {
		page, err := FromReader(bytes.NewReader(r.Body))
		if err != nil {
			parseErr = err
			return
		}
		result = &FetchResult{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			FetchedAt:  time.Now(),
			Page:       page,
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		attempts++
		if attempts <= f.MaxRetries && ctx.Err() == nil {
			logger.Log.WithError(err).Warnf("Retry %d/%d for %s", attempts, f.MaxRetries, r.Request.URL)
			time.Sleep(time.Duration(attempts) * time.Second)
			if retryErr := r.Request.Retry(); retryErr == nil {
				return
			}
		}
		fetchErr = fmt.Errorf("fetch %s: %w", r.Request.URL, err)
	})

	// A retried request that succeeds still leaves the first error as
	// Visit's return value, so the result takes precedence.
	visitErr := c.Visit(targetURL)
	c.Wait()

	switch {
	case result != nil:
		return result, nil
	case parseErr != nil:
		return nil, parseErr
	case fetchErr != nil:
		return nil, fetchErr
	case visitErr != nil:
		return nil, fmt.Errorf("visit failed: %w", visitErr)
	}
	return nil, fmt.Errorf("no response received for %s", targetURL)
}
