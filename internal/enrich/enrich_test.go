package enrich

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mspscout/leadscout/internal/cache"
	"github.com/mspscout/leadscout/internal/leads"
)

func testClient(hunterURL, apolloOrgURL, apolloPeopleURL string, c cache.Cache) *Client {
	return New(Config{
		HunterURL:       hunterURL,
		ApolloOrgURL:    apolloOrgURL,
		ApolloPeopleURL: apolloPeopleURL,
		Timeout:         2 * time.Second,
	}, c, nil)
}

func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func respondHunter(w http.ResponseWriter, emails ...map[string]any) {
	respondJSON(w, map[string]any{"data": map[string]any{"emails": emails}})
}

func TestEnrichSkipsWithoutDomainOrKeys(t *testing.T) {
	t.Parallel()

	c := testClient("http://127.0.0.1:0", "http://127.0.0.1:0", "http://127.0.0.1:0", nil)

	var lead leads.Lead
	c.Enrich(context.Background(), "", leads.Credentials{HunterKey: "k", ApolloKey: "k"}, &lead)
	require.Empty(t, lead.HunterEmail)

	c.Enrich(context.Background(), "acme.com", leads.Credentials{}, &lead)
	require.Empty(t, lead.HunterEmail)
	require.Empty(t, lead.ApolloEmail)
}

func TestHunterPrefersDecisionMaker(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "acme.com", r.URL.Query().Get("domain"))
		require.Equal(t, "hk", r.URL.Query().Get("api_key"))
		respondHunter(w,
			map[string]any{"value": "intern@acme.com", "first_name": "In", "last_name": "Tern", "position": "Intern", "confidence": 40},
			map[string]any{"value": "jane@acme.com", "first_name": "Jane", "last_name": "Doe", "position": "Owner", "confidence": 92},
		)
	}))
	defer srv.Close()

	c := testClient(srv.URL, "", "", nil)
	var lead leads.Lead
	c.Enrich(context.Background(), "acme.com", leads.Credentials{HunterKey: "hk"}, &lead)

	require.Equal(t, "jane@acme.com", lead.HunterEmail)
	require.Equal(t, "Jane Doe", lead.HunterName)
	require.Equal(t, 92, lead.HunterConfidence)
}

func TestHunterFallsBackToFirstContact(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondHunter(w,
			map[string]any{"value": "a@acme.com", "first_name": "A", "last_name": "One", "position": "Engineer", "confidence": 70},
			map[string]any{"value": "b@acme.com", "first_name": "B", "last_name": "Two", "position": "Designer", "confidence": 80},
		)
	}))
	defer srv.Close()

	c := testClient(srv.URL, "", "", nil)
	var lead leads.Lead
	c.Enrich(context.Background(), "acme.com", leads.Credentials{HunterKey: "hk"}, &lead)

	require.Equal(t, "a@acme.com", lead.HunterEmail)
}

func TestHunterFailsSoft(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer srv.Close()

	c := testClient(srv.URL, "", "", nil)
	lead := leads.Lead{Name: "Acme"}
	c.Enrich(context.Background(), "acme.com", leads.Credentials{HunterKey: "hk"}, &lead)

	require.Empty(t, lead.HunterEmail)
	require.Equal(t, "Acme", lead.Name)
}

func TestHunterUsesCache(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		respondHunter(w,
			map[string]any{"value": "jane@acme.com", "first_name": "Jane", "last_name": "Doe", "position": "CEO", "confidence": 90},
		)
	}))
	defer srv.Close()

	c := testClient(srv.URL, "", "", cache.NewMemory())
	creds := leads.Credentials{HunterKey: "hk"}

	var first, second leads.Lead
	c.Enrich(context.Background(), "acme.com", creds, &first)
	c.Enrich(context.Background(), "acme.com", creds, &second)

	require.Equal(t, int32(1), calls.Load())
	require.Equal(t, first.HunterEmail, second.HunterEmail)
	require.Equal(t, first.HunterConfidence, second.HunterConfidence)
}

func TestApolloFillsOrgAndPerson(t *testing.T) {
	t.Parallel()

	org := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "acme.com", body["domain"])
		respondJSON(w, map[string]any{"organization": map[string]any{
			"estimated_num_employees": 42,
			"industry":                "dental",
		}})
	}))
	defer org.Close()
	people := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "acme.com", body["q_organization_domains"])
		respondJSON(w, map[string]any{"people": []map[string]any{
			{"email": "owner@acme.com", "name": "Pat Smith", "title": "Owner"},
		}})
	}))
	defer people.Close()

	c := testClient("", org.URL, people.URL, nil)
	var lead leads.Lead
	c.Enrich(context.Background(), "acme.com", leads.Credentials{ApolloKey: "ak"}, &lead)

	require.Equal(t, "owner@acme.com", lead.ApolloEmail)
	require.Equal(t, "Pat Smith", lead.ApolloName)
	require.Equal(t, "Owner", lead.ApolloTitle)
	require.Equal(t, "42", lead.CompanySize)
	require.Equal(t, "dental", lead.Industry)
}

func TestApolloKeepsOrgFieldsWhenPeopleSearchFails(t *testing.T) {
	t.Parallel()

	org := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, map[string]any{"organization": map[string]any{
			"estimated_num_employees": 7,
			"industry":                "retail",
		}})
	}))
	defer org.Close()
	people := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer people.Close()

	c := testClient("", org.URL, people.URL, nil)
	var lead leads.Lead
	c.Enrich(context.Background(), "acme.com", leads.Credentials{ApolloKey: "ak"}, &lead)

	require.Equal(t, "7", lead.CompanySize)
	require.Equal(t, "retail", lead.Industry)
	require.Empty(t, lead.ApolloEmail)
}
