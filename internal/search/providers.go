package search

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mspscout/leadscout/internal/leads"
)

type serperResponse struct {
	Places []map[string]any `json:"places"`
}

type serpAPIResponse struct {
	LocalResults []map[string]any `json:"local_results"`
}

// searchSerper paginates google.serper.dev/maps until n results accumulate
// or a page comes back empty. Provider errors abort pagination and return
// the partial result set.
func (c *Client) searchSerper(ctx context.Context, query, location string, n int, key string) []leads.Place {
	coords := c.geocode(ctx, location)
	limiter := c.pageLimiter()

	var out []leads.Place
	for page := 1; len(out) < n; page++ {
		if err := limiter.Wait(ctx); err != nil {
			break
		}
		body := map[string]any{"q": query + " in " + location}
		if coords != "" {
			body["ll"] = coords
		}
		if page > 1 {
			body["page"] = page
		}

		var parsed serperResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetHeader("X-API-KEY", key).
			SetHeader("Content-Type", "application/json").
			SetBody(body).
			SetResult(&parsed).
			ForceContentType("application/json").
			Post(c.cfg.SerperURL)
		if err != nil {
			c.logger.Error("serper request failed", zap.Int("page", page), zap.Error(err))
			break
		}
		if resp.IsError() {
			c.logger.Error("serper returned error status",
				zap.Int("page", page), zap.Int("status", resp.StatusCode()))
			break
		}
		if len(parsed.Places) == 0 {
			break
		}
		for _, raw := range parsed.Places {
			out = append(out, parseSerperPlace(raw))
		}
	}
	return truncate(out, n)
}

// searchSerpAPI paginates serpapi.com google_maps results with the same
// degrade-to-partial policy.
func (c *Client) searchSerpAPI(ctx context.Context, query, location string, n int, key string) []leads.Place {
	limiter := c.pageLimiter()

	var out []leads.Place
	for start := 0; len(out) < n; {
		if err := limiter.Wait(ctx); err != nil {
			break
		}
		var parsed serpAPIResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"engine":  "google_maps",
				"q":       query + " in " + location,
				"type":    "search",
				"api_key": key,
				"start":   strconv.Itoa(start),
			}).
			SetResult(&parsed).
			ForceContentType("application/json").
			Get(c.cfg.SerpAPIURL)
		if err != nil {
			c.logger.Error("serpapi request failed", zap.Int("start", start), zap.Error(err))
			break
		}
		if resp.IsError() {
			c.logger.Error("serpapi returned error status",
				zap.Int("start", start), zap.Int("status", resp.StatusCode()))
			break
		}
		if len(parsed.LocalResults) == 0 {
			break
		}
		for _, raw := range parsed.LocalResults {
			out = append(out, parseSerpAPIPlace(raw))
		}
		start += len(parsed.LocalResults)
	}
	return truncate(out, n)
}

// parseSerperPlace normalizes one Serper maps record. Serper-specific field
// names stop here.
func parseSerperPlace(m map[string]any) leads.Place {
	category := asString(m["category"])
	if category == "" {
		category = joinTypes(m["types"])
	}
	phone := asString(m["phoneNumber"])
	if phone == "" {
		phone = asString(m["phone"])
	}
	reviews := 0
	if v, ok := m["reviews"]; ok {
		reviews = asInt(v)
	} else {
		reviews = asInt(m["ratingCount"])
	}
	ref := asString(m["cid"])
	if ref == "" {
		ref = asString(m["place_id_search"])
	}
	return leads.Place{
		Name:     asString(m["title"]),
		Category: category,
		Address:  asString(m["address"]),
		Phone:    phone,
		Website:  asString(m["website"]),
		Rating:   asFloat(m["rating"]),
		Reviews:  reviews,
		MapsRef:  ref,
	}
}

// parseSerpAPIPlace normalizes one SerpAPI local_results record.
func parseSerpAPIPlace(m map[string]any) leads.Place {
	category := asString(m["type"])
	if category == "" {
		category = joinTypes(m["types"])
	}
	return leads.Place{
		Name:     asString(m["title"]),
		Category: category,
		Address:  asString(m["address"]),
		Phone:    asString(m["phone"]),
		Website:  asString(m["website"]),
		Rating:   asFloat(m["rating"]),
		Reviews:  asInt(m["reviews"]),
		MapsRef:  asString(m["place_id"]),
	}
}

func truncate(places []leads.Place, n int) []leads.Place {
	if len(places) > n {
		return places[:n]
	}
	return places
}

func joinTypes(v any) string {
	list, ok := v.([]any)
	if !ok {
		return ""
	}
	parts := make([]string, 0, len(list))
	for _, item := range list {
		if s := asString(item); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// asString, asFloat and asInt absorb the numeric/string divergence between
// provider payloads; garbage coerces to the zero value.
func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func asInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(t), ",", "")
		i, err := strconv.Atoi(cleaned)
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}
