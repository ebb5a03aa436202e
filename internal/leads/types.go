// Package leads defines core types shared across subsystems.
package leads

import "time"

// JobStatus represents the lifecycle state of a scrape job.
type JobStatus string

// Job status values persisted in the job store. Pending jobs transition to
// running, then to exactly one terminal state.
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// ScrapeOutcome records how the website extraction for a lead ended.
type ScrapeOutcome string

// Scrape outcome values stored on each lead.
const (
	OutcomeOK            ScrapeOutcome = "ok"
	OutcomeNoWebsite     ScrapeOutcome = "no_website"
	OutcomeHomepageError ScrapeOutcome = "homepage_error"
	OutcomeExtractError  ScrapeOutcome = "extract_error"
)

// Place is a normalized search-provider result. Every field is always
// populated by the provider mappers (zero value where the provider had
// nothing), so downstream code never branches on provider shape.
type Place struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Address  string  `json:"address"`
	Phone    string  `json:"phone"`
	Website  string  `json:"website"`
	Rating   float64 `json:"rating"`
	Reviews  int     `json:"reviews"`
	MapsRef  string  `json:"maps_ref"`
}

// Lead is one discovered business with extraction, enrichment and a score.
// A lead belongs to exactly one job. Invariant: Domain is empty iff Website
// is empty, in which case Outcome is OutcomeNoWebsite.
type Lead struct {
	ID       string  `json:"id"`
	JobID    string  `json:"job_id"`
	Name     string  `json:"business_name"`
	Category string  `json:"category"`
	Address  string  `json:"address"`
	Phone    string  `json:"phone"`
	Website  string  `json:"website"`
	Domain   string  `json:"domain"`
	Rating   float64 `json:"rating"`
	Reviews  int     `json:"reviews"`
	MapsRef  string  `json:"maps_ref"`

	Emails             []string      `json:"emails"`
	TechStack          []string      `json:"tech_stack"`
	HasITMention       bool          `json:"has_it_mention"`
	HasExistingMSP     bool          `json:"has_existing_msp"`
	ComplianceMentions []string      `json:"compliance_mentions"`
	SSLValid           bool          `json:"ssl_valid"`
	Outcome            ScrapeOutcome `json:"scrape_status"`

	HunterEmail      string `json:"hunter_email"`
	HunterName       string `json:"hunter_name"`
	HunterConfidence int    `json:"hunter_confidence"`
	ApolloEmail      string `json:"apollo_email"`
	ApolloName       string `json:"apollo_name"`
	ApolloTitle      string `json:"apollo_title"`
	CompanySize      string `json:"company_size"`
	Industry         string `json:"industry"`

	Score    int    `json:"score"`
	Notes    string `json:"notes"`
	Archived bool   `json:"archived"`
}

// Job represents one end-to-end scrape request and its lifecycle.
type Job struct {
	ID          string        `json:"id"`
	Category    string        `json:"category"`
	Location    string        `json:"location"`
	NumResults  int           `json:"num_results"`
	Delay       time.Duration `json:"delay"`
	Status      JobStatus     `json:"status"`
	LeadCount   int           `json:"lead_count"`
	ErrorText   string        `json:"error_text,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// Credentials carries the external provider keys for one run. Values come
// from per-request headers with a fallback to process-wide config; an empty
// key means the corresponding provider degrades to a no-op or mock.
type Credentials struct {
	SerperKey  string
	SerpAPIKey string
	HunterKey  string
	ApolloKey  string
}
