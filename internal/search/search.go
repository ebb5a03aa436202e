// Package search implements the place search client over the Serper and
// SerpAPI maps providers, with an offline mock fallback.
package search

import (
	"context"
	"errors"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mspscout/leadscout/internal/cache"
	"github.com/mspscout/leadscout/internal/leads"
)

// Default provider endpoints. Overridable for tests.
const (
	DefaultSerperURL    = "https://google.serper.dev/maps"
	DefaultSerpAPIURL   = "https://serpapi.com/search"
	DefaultNominatimURL = "https://nominatim.openstreetmap.org/search"
)

// Config controls the search client.
type Config struct {
	SerperURL    string
	SerpAPIURL   string
	NominatimURL string
	PageDelay    time.Duration
	Timeout      time.Duration
	UserAgent    string
}

// Client implements leads.Searcher. Provider selection is a strict priority
// order: Serper, then SerpAPI, then the deterministic offline mock.
type Client struct {
	cfg    Config
	http   *resty.Client
	cache  cache.Cache
	logger *zap.Logger
}

// New builds a Client. cache may be nil to disable geocode caching.
func New(cfg Config, c cache.Cache, logger *zap.Logger) *Client {
	if cfg.SerperURL == "" {
		cfg.SerperURL = DefaultSerperURL
	}
	if cfg.SerpAPIURL == "" {
		cfg.SerpAPIURL = DefaultSerpAPIURL
	}
	if cfg.NominatimURL == "" {
		cfg.NominatimURL = DefaultNominatimURL
	}
	if cfg.PageDelay <= 0 {
		cfg.PageDelay = 500 * time.Millisecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent)
	return &Client{
		cfg:    cfg,
		http:   httpClient,
		cache:  c,
		logger: logger,
	}
}

// Search returns up to n normalized places. Provider errors degrade to
// whatever was accumulated so far; only invalid input returns an error.
func (c *Client) Search(
	ctx context.Context,
	query, location string,
	n int,
	creds leads.Credentials,
) ([]leads.Place, error) {
	if query == "" || location == "" {
		return nil, errors.New("query and location are required")
	}
	if n <= 0 {
		return nil, errors.New("result count must be positive")
	}

	switch {
	case creds.SerperKey != "":
		c.logger.Info("searching via serper", zap.String("query", query), zap.String("location", location))
		return c.searchSerper(ctx, query, location, n, creds.SerperKey), nil
	case creds.SerpAPIKey != "":
		c.logger.Info("searching via serpapi", zap.String("query", query), zap.String("location", location))
		return c.searchSerpAPI(ctx, query, location, n, creds.SerpAPIKey), nil
	default:
		c.logger.Warn("no search provider key set, using mock places")
		return mockPlaces(query, location, n), nil
	}
}

// pageLimiter spaces provider page requests. The initial token is available
// immediately so only gaps between pages wait.
func (c *Client) pageLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(c.cfg.PageDelay), 1)
}
