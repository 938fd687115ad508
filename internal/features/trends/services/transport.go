package services

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"trendwatch/internal/core"
	"trendwatch/internal/features/trends/models"
)

// retryStatuses are retried by the session transport before the region
// fetcher sees them
var retryStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// NewSessionClient builds the HTTP client shared by every request of a run:
// fixed per-attempt timeout and user agent, optional proxy, and a bounded
// retry layer over connection errors and retryable statuses.
//
// The client itself has no timeout; it would bound all retries together.
func NewSessionClient(config *models.FetcherConfig, logger *core.Logger) (*http.Client, error) {
	proxy := http.ProxyFromEnvironment
	if config.ProxyURL != "" {
		proxyURL, err := url.Parse(config.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url %q: %w", config.ProxyURL, err)
		}
		proxy = http.ProxyURL(proxyURL)
		logger.Info("Using HTTP proxy", "proxy", proxyURL.Host)
	}

	base := &http.Transport{
		Proxy: proxy,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &http.Client{
		Transport: &sessionTransport{
			base:           base,
			userAgent:      config.UserAgent,
			attemptTimeout: config.Timeout,
			maxRetries:     config.TransportRetries,
			newBackOff:     defaultSessionBackOff,
			logger:         logger,
		},
	}, nil
}

func defaultSessionBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.Multiplier = 2
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// sessionTransport injects the user agent and retries idempotent requests
type sessionTransport struct {
	base           http.RoundTripper
	userAgent      string
	attemptTimeout time.Duration
	maxRetries     int
	newBackOff     func() backoff.BackOff
	logger         *core.Logger
}

func (t *sessionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	if t.maxRetries <= 0 || (req.Method != http.MethodGet && req.Method != http.MethodHead) {
		return t.attempt(req)
	}

	var resp *http.Response
	operation := func() error {
		if resp != nil {
			drainAndClose(resp.Body)
			resp = nil
		}

		r, err := t.attempt(req)
		if err != nil {
			return err
		}
		resp = r

		if retryStatuses[r.StatusCode] {
			return fmt.Errorf("retryable status %d", r.StatusCode)
		}
		return nil
	}

	notify := func(err error, wait time.Duration) {
		t.logger.Debug("Retrying request", "url", req.URL.Redacted(), "error", err, "wait", wait)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(t.newBackOff(), uint64(t.maxRetries)), req.Context())
	err := backoff.RetryNotify(operation, b, notify)

	// the last response is handed back even for a retryable status so the
	// caller can apply its own policy to it
	if resp != nil {
		return resp, nil
	}
	return nil, err
}

// attempt sends req once, bounded by the attempt timeout. The timeout covers
// reading the body too and is released when the body is closed.
func (t *sessionTransport) attempt(req *http.Request) (*http.Response, error) {
	if t.attemptTimeout <= 0 {
		return t.base.RoundTrip(req)
	}

	ctx, cancel := context.WithTimeout(req.Context(), t.attemptTimeout)
	resp, err := t.base.RoundTrip(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

func drainAndClose(body io.ReadCloser) {
	io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	body.Close()
}
