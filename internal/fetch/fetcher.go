// Package fetch implements the resilient single-URL fetcher used by the
// website extractor.
package fetch

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/mspscout/leadscout/internal/metrics"
)

// Config controls fetch and retry behavior.
type Config struct {
	UserAgent      string
	Timeout        time.Duration
	MaxRetries     int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

// Result is a completed fetch.
type Result struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// StatusError is a terminal non-2xx response. Retryable statuses (429, 5xx)
// only surface as StatusError once the retry ceiling is exhausted.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
}

// Client fetches single URLs via a Colly collector, retrying transient
// failures with doubling backoff.
type Client struct {
	cfg    Config
	logger *zap.Logger
}

// New builds a Client.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffInitial <= 0 {
		cfg.BackoffInitial = time.Second
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = 16 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{cfg: cfg, logger: logger}
}

// Get performs an HTTP GET with bounded retry. 429 and 5xx statuses and
// connection-level errors retry with doubling backoff; any other non-2xx
// status is a terminal *StatusError.
func (c *Client) Get(ctx context.Context, url string) (*Result, error) {
	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		res, err := c.visit(ctx, url)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetch %s: %w", url, ctx.Err())
		}
		if !retryable(err) {
			return nil, err
		}
		if attempt == c.cfg.MaxRetries-1 {
			break
		}
		wait := c.backoff(attempt)
		c.logger.Debug("retrying fetch",
			zap.String("url", url),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, fmt.Errorf("fetch %s: %w", url, ctx.Err())
		}
	}
	return nil, fmt.Errorf("fetch %s failed after %d attempts: %w", url, c.cfg.MaxRetries, lastErr)
}

// visit runs one collector pass. Non-2xx responses come back as *StatusError.
func (c *Client) visit(ctx context.Context, url string) (*Result, error) {
	// colly v2.1.0's Async option ignores its argument and always enables
	// async mode; omitting the option is the portable spelling of "sync".
	collector := colly.NewCollector()
	collector.AllowURLRevisit = true
	collector.IgnoreRobotsTxt = true
	if c.cfg.UserAgent != "" {
		collector.UserAgent = c.cfg.UserAgent
	}
	collector.SetRequestTimeout(c.cfg.Timeout)
	collector.WithTransport(newHTTPTransport())

	var (
		result   Result
		fetchErr error
	)
	start := time.Now()

	collector.OnResponse(func(r *colly.Response) {
		result = Result{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			fetchErr = &StatusError{URL: url, StatusCode: r.StatusCode}
			return
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if fetchErr != nil {
			metrics.ObserveOutbound("site", statusOf(fetchErr), time.Since(start))
			return nil, fetchErr
		}
		if err != nil {
			metrics.ObserveOutbound("site", 0, time.Since(start))
			return nil, fmt.Errorf("visit %s: %w", url, err)
		}
		metrics.ObserveOutbound("site", result.StatusCode, result.Duration)
		return &result, nil
	}
}

func (c *Client) backoff(attempt int) time.Duration {
	wait := c.cfg.BackoffInitial << attempt
	if wait > c.cfg.BackoffMax {
		wait = c.cfg.BackoffMax
	}
	return wait/2 + randomJitter(wait/2)
}

// retryable covers 429/5xx statuses and connection-level failures; all other
// HTTP errors are terminal.
func retryable(err error) bool {
	if se, ok := err.(*StatusError); ok {
		switch se.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	return true
}

func statusOf(err error) int {
	if se, ok := err.(*StatusError); ok {
		return se.StatusCode
	}
	return 0
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(limit)))
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
