package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"time"

	"trendwatch/internal/core"
	"trendwatch/internal/features/trends/models"
)

const maxBackoff = 10 * time.Second

// FetcherService fetches one region's feed with retries and hands the body
// to the parser.
//
// Failures never escape: once every attempt is used up the region simply
// yields no records.
type FetcherService struct {
	parser *ParserService
	logger *core.Logger
	config *models.FetcherConfig

	// sleep and jitter are replaced in tests
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(lo, hi time.Duration) time.Duration
}

// NewFetcherService creates a new fetcher service
func NewFetcherService(parser *ParserService, logger *core.Logger, config *models.FetcherConfig) *FetcherService {
	return &FetcherService{
		parser: parser,
		logger: logger,
		config: config,
		sleep:  sleepContext,
		jitter: randomDuration,
	}
}

// FeedURL builds the request URL for a region code
func (f *FetcherService) FeedURL(code string) (string, error) {
	u, err := url.Parse(f.config.FeedBaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid feed base url: %w", err)
	}

	q := u.Query()
	q.Set("geo", code)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchRegion fetches and parses one region, trying at most maxRetries times.
// A non-positive maxRetries uses the configured default.
func (f *FetcherService) FetchRegion(ctx context.Context, client *http.Client, region models.Region, countryName string, maxRetries int) []models.TrendRecord {
	if maxRetries <= 0 {
		maxRetries = f.config.MaxRetries
	}

	logger := f.logger.With("region", region.Name, "code", region.Code)

	feedURL, err := f.FeedURL(region.Code)
	if err != nil {
		logger.Error("Cannot build feed URL", "error", err)
		return nil
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		logger.Info("Fetching region", "attempt", attempt+1, "max_retries", maxRetries)

		body, status, err := f.get(ctx, client, feedURL)
		switch {
		case err != nil && ctx.Err() != nil:
			logger.Warn("Fetch cancelled", "error", ctx.Err())
			return nil
		case err != nil:
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				logger.Warn("Fetch timed out", "attempt", attempt+1, "error", err)
			} else {
				logger.Warn("Fetch connection error", "attempt", attempt+1, "error", err)
			}
		case status == http.StatusOK:
			logger.Debug("Fetched region", "bytes", len(body))
			return f.parser.Parse(body, region.Name, countryName)
		case status == http.StatusTooManyRequests:
			logger.Warn("Rate limited, waiting before retry", "status", status)
			if f.sleep(ctx, f.jitter(5*time.Second, 8*time.Second)) != nil {
				return nil
			}
			continue
		case status >= 500:
			logger.Warn("Server error, waiting before retry", "status", status)
			if f.sleep(ctx, f.jitter(2*time.Second, 4*time.Second)) != nil {
				return nil
			}
		default:
			logger.Warn("Unexpected status", "status", status)
			if f.sleep(ctx, f.jitter(time.Second, 2*time.Second)) != nil {
				return nil
			}
		}

		if attempt < maxRetries-1 {
			wait := backoffDelay(attempt)
			logger.Info("Waiting before retry", "wait", wait)
			if f.sleep(ctx, wait) != nil {
				return nil
			}
		}
	}

	logger.Error("Region fetch failed", "attempts", maxRetries)
	return nil
}

// get performs one request and returns the body only for 200 responses
func (f *FetcherService) get(ctx context.Context, client *http.Client, feedURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/rss+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.1")
	if f.config.UserAgent != "" {
		req.Header.Set("User-Agent", f.config.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, resp.StatusCode, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, resp.StatusCode, nil
}

// backoffDelay is the standard wait after a failed attempt: 1s, 2s, 4s...
// capped at 10s
func backoffDelay(attempt int) time.Duration {
	if attempt >= 4 {
		return maxBackoff
	}
	return min(maxBackoff, time.Second<<attempt)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// randomDuration returns a uniformly random duration in [lo, hi]
func randomDuration(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}
