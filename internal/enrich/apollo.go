package enrich

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/mspscout/leadscout/internal/leads"
	"github.com/mspscout/leadscout/internal/metrics"
)

// apolloPersonTitles is the title filter sent to the people search.
var apolloPersonTitles = []string{"owner", "ceo", "president", "founder", "office manager"}

type apolloOrgResponse struct {
	Organization struct {
		EstimatedNumEmployees int    `json:"estimated_num_employees"`
		Industry              string `json:"industry"`
	} `json:"organization"`
}

type apolloPeopleResponse struct {
	People []struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Title string `json:"title"`
	} `json:"people"`
}

type apolloResult struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	CompanySize string `json:"company_size"`
	Industry    string `json:"industry"`
}

func (c *Client) enrichApollo(ctx context.Context, domain, key string, lead *leads.Lead) {
	var result apolloResult
	c.cachedLookup(ctx, "enrich:apollo:"+domain, &result, func() bool {
		var org apolloOrgResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(map[string]any{"api_key": key, "domain": domain}).
			SetResult(&org).
			ForceContentType("application/json").
			Post(c.cfg.ApolloOrgURL)
		metrics.ObserveOutbound("apollo", statusOf(resp, err), durationOf(resp))
		if err != nil || resp.IsError() {
			c.logger.Warn("apollo org lookup failed",
				zap.String("domain", domain), zap.Int("status", statusOf(resp, err)), zap.Error(err))
			return false
		}
		if n := org.Organization.EstimatedNumEmployees; n > 0 {
			result.CompanySize = strconv.Itoa(n)
		}
		result.Industry = org.Organization.Industry

		var people apolloPeopleResponse
		resp, err = c.http.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(map[string]any{
				"api_key":                key,
				"q_organization_domains": domain,
				"person_titles":          apolloPersonTitles,
				"page":                   1,
				"per_page":               1,
			}).
			SetResult(&people).
			ForceContentType("application/json").
			Post(c.cfg.ApolloPeopleURL)
		metrics.ObserveOutbound("apollo", statusOf(resp, err), durationOf(resp))
		if err != nil || resp.IsError() {
			c.logger.Warn("apollo people search failed",
				zap.String("domain", domain), zap.Int("status", statusOf(resp, err)), zap.Error(err))
			// Keep the org fields but do not cache the partial result.
			return false
		}
		if len(people.People) > 0 {
			p := people.People[0]
			result.Email = p.Email
			result.Name = p.Name
			result.Title = p.Title
		}
		return true
	})

	lead.ApolloEmail = result.Email
	lead.ApolloName = result.Name
	lead.ApolloTitle = result.Title
	lead.CompanySize = result.CompanySize
	lead.Industry = result.Industry
}
