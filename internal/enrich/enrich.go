// Package enrich fills contact and firmographic fields on leads from the
// Hunter and Apollo APIs. Every lookup is fail-soft: provider trouble is
// logged and the lead keeps its zero values.
package enrich

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/mspscout/leadscout/internal/cache"
	"github.com/mspscout/leadscout/internal/leads"
)

// Default provider endpoints. Overridable for tests.
const (
	DefaultHunterURL       = "https://api.hunter.io/v2/domain-search"
	DefaultApolloOrgURL    = "https://api.apollo.io/v1/organizations/enrich"
	DefaultApolloPeopleURL = "https://api.apollo.io/v1/mixed_people/search"
)

// Config controls the enrichment client.
type Config struct {
	HunterURL       string
	ApolloOrgURL    string
	ApolloPeopleURL string
	Timeout         time.Duration
	UserAgent       string
}

// Client implements leads.Enricher over both providers.
type Client struct {
	cfg    Config
	http   *resty.Client
	cache  cache.Cache
	logger *zap.Logger
}

// New builds a Client. cache may be nil to disable result caching.
func New(cfg Config, c cache.Cache, logger *zap.Logger) *Client {
	if cfg.HunterURL == "" {
		cfg.HunterURL = DefaultHunterURL
	}
	if cfg.ApolloOrgURL == "" {
		cfg.ApolloOrgURL = DefaultApolloOrgURL
	}
	if cfg.ApolloPeopleURL == "" {
		cfg.ApolloPeopleURL = DefaultApolloPeopleURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
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

// Enrich runs both providers for the domain and writes the results into the
// lead. Each provider is skipped when its key or the domain is empty.
func (c *Client) Enrich(ctx context.Context, domain string, creds leads.Credentials, lead *leads.Lead) {
	if domain == "" {
		return
	}
	if creds.HunterKey != "" {
		c.enrichHunter(ctx, domain, creds.HunterKey, lead)
	}
	if creds.ApolloKey != "" {
		c.enrichApollo(ctx, domain, creds.ApolloKey, lead)
	}
}

// statusOf extracts a status code for metrics, 0 for transport errors.
func statusOf(resp *resty.Response, err error) int {
	if resp == nil || err != nil && resp.StatusCode() == 0 {
		return 0
	}
	return resp.StatusCode()
}

func durationOf(resp *resty.Response) time.Duration {
	if resp == nil {
		return 0
	}
	return resp.Time()
}

// cachedLookup reads key into dest, or runs fetch (which fills dest and
// reports whether the result is worth caching) and stores the outcome.
func (c *Client) cachedLookup(ctx context.Context, key string, dest any, fetch func() bool) {
	if c.cache != nil {
		if ok, err := c.cache.Get(ctx, key, dest); err == nil && ok {
			return
		}
	}
	if !fetch() {
		return
	}
	if c.cache != nil {
		if err := c.cache.Set(ctx, key, dest, cache.EnrichmentTTL); err != nil {
			c.logger.Warn("enrichment cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
}
