package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mspscout/leadscout/internal/cache"
)

type nominatimHit struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// geocode resolves location to the "@lat,lon,14z" form Serper expects.
// Lookup is best-effort: any failure degrades to an un-geocoded query.
// Results are cached since city coordinates effectively never change.
func (c *Client) geocode(ctx context.Context, location string) string {
	key := "geocode:" + strings.ToLower(strings.TrimSpace(location))

	if c.cache != nil {
		var cached string
		if ok, err := c.cache.Get(ctx, key, &cached); err == nil && ok {
			return cached
		}
	}

	var hits []nominatimHit
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":      location,
			"format": "json",
			"limit":  "1",
		}).
		SetHeader("User-Agent", "leadscout/1.0").
		SetResult(&hits).
		ForceContentType("application/json").
		Get(c.cfg.NominatimURL)
	if err != nil {
		c.logger.Warn("geocoding failed", zap.String("location", location), zap.Error(err))
		return ""
	}
	if resp.IsError() || len(hits) == 0 {
		c.logger.Warn("geocoding returned nothing",
			zap.String("location", location), zap.Int("status", resp.StatusCode()))
		return ""
	}

	coords := fmt.Sprintf("@%s,%s,14z", hits[0].Lat, hits[0].Lon)
	if c.cache != nil {
		if err := c.cache.Set(ctx, key, coords, cache.GeocodeTTL); err != nil {
			c.logger.Warn("geocode cache write failed", zap.Error(err))
		}
	}
	return coords
}
