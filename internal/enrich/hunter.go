package enrich

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mspscout/leadscout/internal/leads"
	"github.com/mspscout/leadscout/internal/metrics"
)

// priorityTitles order Hunter contacts: the first address whose position
// matches wins, otherwise the first address listed.
var priorityTitles = []string{"owner", "ceo", "president", "founder", "director", "manager"}

type hunterEmail struct {
	Value      string `json:"value"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Position   string `json:"position"`
	Confidence int    `json:"confidence"`
}

type hunterResponse struct {
	Data struct {
		Emails []hunterEmail `json:"emails"`
	} `json:"data"`
}

type hunterResult struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Confidence int    `json:"confidence"`
}

func (c *Client) enrichHunter(ctx context.Context, domain, key string, lead *leads.Lead) {
	var result hunterResult
	c.cachedLookup(ctx, "enrich:hunter:"+domain, &result, func() bool {
		var body hunterResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"domain":  domain,
				"api_key": key,
				"limit":   "3",
			}).
			SetResult(&body).
			ForceContentType("application/json").
			Get(c.cfg.HunterURL)
		metrics.ObserveOutbound("hunter", statusOf(resp, err), durationOf(resp))
		if err != nil || resp.IsError() {
			c.logger.Warn("hunter lookup failed",
				zap.String("domain", domain), zap.Int("status", statusOf(resp, err)), zap.Error(err))
			return false
		}
		if len(body.Data.Emails) == 0 {
			return true
		}
		best := body.Data.Emails[0]
		for _, e := range body.Data.Emails {
			pos := strings.ToLower(e.Position)
			if matchesAny(pos, priorityTitles) {
				best = e
				break
			}
		}
		result = hunterResult{
			Email:      best.Value,
			Name:       strings.TrimSpace(best.FirstName + " " + best.LastName),
			Confidence: best.Confidence,
		}
		return true
	})

	lead.HunterEmail = result.Email
	lead.HunterName = result.Name
	lead.HunterConfidence = result.Confidence
}

func matchesAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
