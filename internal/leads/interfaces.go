package leads

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a job does not exist.
var ErrNotFound = errors.New("not found")

// JobStore persists job metadata and status transitions.
type JobStore interface {
	CreateJob(ctx context.Context, job Job) error
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errText string, leadCount int) error
	GetJob(ctx context.Context, jobID string) (Job, error)
}

// LeadStore persists scored leads. InsertLeads is called once per successful
// job with the full deduplicated batch.
type LeadStore interface {
	InsertLeads(ctx context.Context, jobID string, batch []Lead) error
	ListLeads(ctx context.Context, jobID string) ([]Lead, error)
}

// Searcher returns up to n normalized places for a category+location query.
// Implementations degrade to partial results on provider errors and never
// return an error for an exhausted provider, only for invalid input.
type Searcher interface {
	Search(ctx context.Context, query, location string, n int, creds Credentials) ([]Place, error)
}

// Enricher fills provider-specific contact fields on a lead in place. It
// must no-op when the domain or its credential is absent and fail soft on
// provider errors.
type Enricher interface {
	Enrich(ctx context.Context, domain string, creds Credentials, lead *Lead)
}

// Runner executes jobs in the background. Submit returns as soon as the job
// is scheduled; Cancel only requests cancellation, the orchestrator honors
// it at its next checkpoint.
type Runner interface {
	Submit(jobID string, run func(ctx context.Context))
	Cancel(jobID string) bool
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces job and lead IDs.
type IDGenerator interface {
	NewID() string
}
