// Package scoring computes the 0-100 opportunity score for a lead.
package scoring

import (
	"strings"

	"github.com/mspscout/leadscout/internal/leads"
)

// Weight keys recognized by Score.
const (
	WebsitePresent     = "website_present"
	PhonePresent       = "phone_present"
	Reviews10Plus      = "reviews_10plus"
	Reviews50Plus      = "reviews_50plus"
	Reviews100Plus     = "reviews_100plus"
	Rating4Plus        = "rating_4plus"
	EmailScraped       = "email_scraped"
	EmailVerified      = "email_verified"
	EmailDecisionMaker = "email_decision_maker"
	NoITStaff          = "no_it_staff"
	ExistingMSPPenalty = "existing_msp_penalty"
	CloudTools         = "cloud_tools"
	ComplianceMention  = "compliance_mention"
	SSLPresent         = "ssl_present"
	BusinessSizeMedium = "business_size_medium"
)

// decisionMakerTitles mark a contact as worth the decision-maker bonus.
var decisionMakerTitles = []string{"owner", "ceo", "president", "founder"}

// cloudProducts are the recognized cloud productivity suites.
var cloudProducts = []string{"Microsoft 365", "Google Workspace"}

// Weights maps weight keys to point values. A partial map is valid: missing
// keys fall back to the defaults.
type Weights map[string]int

// DefaultWeights returns the documented default table.
func DefaultWeights() Weights {
	return Weights{
		WebsitePresent:     15,
		PhonePresent:       5,
		Reviews10Plus:      5,
		Reviews50Plus:      5,
		Reviews100Plus:     5,
		Rating4Plus:        5,
		EmailScraped:       10,
		EmailVerified:      10,
		EmailDecisionMaker: 5,
		NoITStaff:          10,
		ExistingMSPPenalty: -15,
		CloudTools:         5,
		ComplianceMention:  5,
		SSLPresent:         3,
		BusinessSizeMedium: 5,
	}
}

func (w Weights) get(key string) int {
	if w != nil {
		if v, ok := w[key]; ok {
			return v
		}
	}
	return DefaultWeights()[key]
}

// Input is the subset of lead fields the score depends on.
type Input struct {
	Website            string
	Phone              string
	Reviews            int
	Rating             float64
	ScrapedEmails      []string
	VerifiedEmail      string // first non-empty enrichment email
	ContactTitle       string // enrichment title or name, for the DM bonus
	HasITMention       bool
	HasExistingMSP     bool
	TechStack          []string
	ComplianceMentions []string
	SSLValid           bool
}

// Score computes the weighted sum and clamps it to [0, 100]. weights may be
// nil or partial.
func Score(in Input, weights Weights) int {
	score := 0

	if in.Website != "" {
		score += weights.get(WebsitePresent)
	}
	if in.Phone != "" {
		score += weights.get(PhonePresent)
	}

	// Review thresholds are cumulative.
	if in.Reviews >= 10 {
		score += weights.get(Reviews10Plus)
	}
	if in.Reviews >= 50 {
		score += weights.get(Reviews50Plus)
	}
	if in.Reviews >= 100 {
		score += weights.get(Reviews100Plus)
	}
	if in.Reviews >= 50 && in.Reviews <= 200 {
		score += weights.get(BusinessSizeMedium)
	}

	if in.Rating >= 4.0 {
		score += weights.get(Rating4Plus)
	}

	// Contact quality tiers are mutually exclusive at the top level.
	switch {
	case in.VerifiedEmail != "":
		score += weights.get(EmailVerified)
		title := strings.ToLower(in.ContactTitle)
		for _, t := range decisionMakerTitles {
			if strings.Contains(title, t) {
				score += weights.get(EmailDecisionMaker)
				break
			}
		}
	case len(in.ScrapedEmails) > 0:
		score += weights.get(EmailScraped)
	}

	if !in.HasITMention {
		score += weights.get(NoITStaff)
	}
	if in.HasExistingMSP {
		score += weights.get(ExistingMSPPenalty)
	}
	for _, product := range cloudProducts {
		if containsString(in.TechStack, product) {
			score += weights.get(CloudTools)
			break
		}
	}
	if len(in.ComplianceMentions) > 0 {
		score += weights.get(ComplianceMention)
	}
	if in.SSLValid {
		score += weights.get(SSLPresent)
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// FromLead builds the scoring input from a lead record.
func FromLead(l leads.Lead) Input {
	verified := l.HunterEmail
	title := l.ApolloTitle
	if verified == "" {
		verified = l.ApolloEmail
	}
	if title == "" {
		title = l.HunterName
	}
	return Input{
		Website:            l.Website,
		Phone:              l.Phone,
		Reviews:            l.Reviews,
		Rating:             l.Rating,
		ScrapedEmails:      l.Emails,
		VerifiedEmail:      verified,
		ContactTitle:       title,
		HasITMention:       l.HasITMention,
		HasExistingMSP:     l.HasExistingMSP,
		TechStack:          l.TechStack,
		ComplianceMentions: l.ComplianceMentions,
		SSLValid:           l.SSLValid,
	}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
