package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScoreTypicalLead(t *testing.T) {
	t.Parallel()

	in := Input{
		Website:       "https://example-sample.com",
		Phone:         "555-1234",
		Reviews:       60,
		Rating:        4.2,
		ScrapedEmails: []string{"info@example-sample.com"},
		SSLValid:      true,
	}

	// 15 website + 5 phone + 5+5 review tiers + 5 rating + 10 scraped email
	// + 10 no IT staff + 3 ssl + 5 medium-size band
	require.Equal(t, 63, Score(in, nil))

	in.TechStack = []string{"Microsoft 365", "WordPress"}
	in.ComplianceMentions = []string{"hipaa"}
	// Cloud tooling and a compliance mention add 5 each.
	require.Equal(t, 73, Score(in, nil))
}

func TestScoreVerifiedBeatsScraped(t *testing.T) {
	t.Parallel()

	in := Input{
		ScrapedEmails: []string{"info@x.com"},
		VerifiedEmail: "jane@x.com",
		ContactTitle:  "Founder & CEO",
		HasITMention:  true,
	}
	// 10 verified + 5 decision maker, scraped tier not added.
	require.Equal(t, 15, Score(in, nil))
}

func TestScoreDecisionMakerRequiresTitle(t *testing.T) {
	t.Parallel()

	in := Input{
		VerifiedEmail: "jane@x.com",
		ContactTitle:  "Accountant",
		HasITMention:  true,
	}
	require.Equal(t, 10, Score(in, nil))
}

func TestScoreReviewTiersStack(t *testing.T) {
	t.Parallel()

	in := Input{Reviews: 150, HasITMention: true}
	// 5 + 5 + 5 review tiers + 5 medium-size band (50..200).
	require.Equal(t, 20, Score(in, nil))

	in.Reviews = 250
	// Above the medium band the size bonus drops off.
	require.Equal(t, 15, Score(in, nil))
}

func TestScoreClampsToRange(t *testing.T) {
	t.Parallel()

	// Only the MSP penalty applies and the floor holds.
	in := Input{HasITMention: true, HasExistingMSP: true}
	require.Equal(t, 0, Score(in, nil))

	boosted := Weights{WebsitePresent: 500}
	require.Equal(t, 100, Score(Input{Website: "https://x.com", HasITMention: true}, boosted))
}

func TestScorePartialOverrideFallsBack(t *testing.T) {
	t.Parallel()

	in := Input{
		Website:      "https://x.com",
		Phone:        "555",
		HasITMention: true,
	}
	// Override only the website weight; phone keeps its default.
	got := Score(in, Weights{WebsitePresent: 1})
	require.Equal(t, 1+5, got)
}

func TestScoreGarbageInputStaysInRange(t *testing.T) {
	t.Parallel()

	cases := []Input{
		{Reviews: -50, Rating: -3},
		{Reviews: 1 << 30, Rating: 99},
		{HasExistingMSP: true},
		{},
	}
	for _, in := range cases {
		got := Score(in, nil)
		require.GreaterOrEqual(t, got, 0)
		require.LessOrEqual(t, got, 100)
	}
}
