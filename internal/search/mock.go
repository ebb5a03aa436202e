package search

import (
	"strings"

	"github.com/mspscout/leadscout/internal/leads"
)

// mockPlaces fabricates three plausible records so the rest of the pipeline
// is exercisable without any provider key. The third record deliberately has
// no website to cover the no-website path.
func mockPlaces(query, location string, n int) []leads.Place {
	name := titleCase(query)
	places := []leads.Place{
		{
			Name:     "Sample " + name + " Co.",
			Category: query,
			Address:  "123 Main St, " + location,
			Phone:    "555-1234",
			Website:  "https://example-sample.com",
			Rating:   4.5,
			Reviews:  87,
		},
		{
			Name:     "Metro " + name + " Group",
			Category: query,
			Address:  "456 Oak Ave, " + location,
			Phone:    "555-5678",
			Website:  "https://example-metro.org",
			Rating:   4.1,
			Reviews:  32,
		},
		{
			Name:     location + " " + name + " LLC",
			Category: query,
			Address:  "789 Pine Rd, " + location,
			Phone:    "555-9012",
			Website:  "",
			Rating:   3.8,
			Reviews:  12,
		},
	}
	return truncate(places, n)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
