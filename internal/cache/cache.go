// Package cache provides a key -> JSON value lookup cache with TTL, used to
// avoid repeat geocoding and enrichment calls.
package cache

import (
	"context"
	"time"
)

// Cache stores JSON-encodable values under string keys with an expiry.
type Cache interface {
	// Get unmarshals the cached value for key into dest and reports whether
	// a live entry was found.
	Get(ctx context.Context, key string, dest any) (bool, error)

	// Set stores val under key for ttl.
	Set(ctx context.Context, key string, val any, ttl time.Duration) error

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
}

// TTLs for the lookup kinds cached by the pipeline.
const (
	GeocodeTTL    = 30 * 24 * time.Hour
	EnrichmentTTL = 7 * 24 * time.Hour
)
