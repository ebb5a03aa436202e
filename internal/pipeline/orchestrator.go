// Package pipeline runs the end-to-end scrape for one job: search, per-place
// website extraction, enrichment, scoring, dedupe and a single persist.
package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mspscout/leadscout/internal/events"
	"github.com/mspscout/leadscout/internal/leads"
	"github.com/mspscout/leadscout/internal/metrics"
	"github.com/mspscout/leadscout/internal/scoring"
	"github.com/mspscout/leadscout/internal/website"
)

// Error text limits: the stored message keeps more context than the one
// pushed to subscribers.
const (
	maxStoredError  = 500
	maxEmittedError = 200
)

// Orchestrator executes scrape jobs. One Run call owns its job record from
// the running transition to the terminal one; leads are persisted only when
// the whole job completes.
type Orchestrator struct {
	jobs      leads.JobStore
	store     leads.LeadStore
	searcher  leads.Searcher
	extractor *website.Extractor
	enricher  leads.Enricher
	bus       *events.Bus
	ids       leads.IDGenerator
	weights   scoring.Weights
	logger    *zap.Logger
}

// New wires an Orchestrator. weights may be nil to use the defaults.
func New(
	jobs leads.JobStore,
	store leads.LeadStore,
	searcher leads.Searcher,
	extractor *website.Extractor,
	enricher leads.Enricher,
	bus *events.Bus,
	ids leads.IDGenerator,
	weights scoring.Weights,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		jobs:      jobs,
		store:     store,
		searcher:  searcher,
		extractor: extractor,
		enricher:  enricher,
		bus:       bus,
		ids:       ids,
		weights:   weights,
		logger:    logger,
	}
}

// Run executes the job to a terminal state. ctx cancellation is honored at
// the per-place checkpoints; a cancelled job persists nothing.
func (o *Orchestrator) Run(ctx context.Context, job leads.Job, creds leads.Credentials) {
	logger := o.logger.With(zap.String("job_id", job.ID))
	metrics.JobStarted()
	defer metrics.JobEnded()

	if err := o.jobs.UpdateJobStatus(ctx, job.ID, leads.JobStatusRunning, "", 0); err != nil {
		logger.Error("job start transition failed", zap.Error(err))
		o.fail(ctx, job.ID, err)
		return
	}
	o.emit(job.ID, events.TypeStarted, map[string]any{
		"category": job.Category,
		"location": job.Location,
	})

	o.emit(job.ID, events.TypeSearching, map[string]any{
		"category": job.Category,
		"location": job.Location,
	})
	places, err := o.searcher.Search(ctx, job.Category, job.Location, job.NumResults, creds)
	if err != nil {
		logger.Error("search failed", zap.Error(err))
		o.fail(ctx, job.ID, err)
		return
	}
	o.emit(job.ID, events.TypeSearchComplete, map[string]any{"count": len(places)})

	if len(places) == 0 {
		o.complete(ctx, job.ID, nil, logger)
		return
	}

	batch := make([]leads.Lead, 0, len(places))
	for i, place := range places {
		if o.cancelRequested(ctx, job.ID) {
			o.cancel(job.ID, logger)
			return
		}

		lead := o.processPlace(ctx, job.ID, place, creds)
		batch = append(batch, lead)
		metrics.ObserveLead(string(lead.Outcome), lead.Score)

		o.emit(job.ID, events.TypeLeadProcessed, map[string]any{
			"index":         i + 1,
			"total":         len(places),
			"business_name": lead.Name,
			"score":         lead.Score,
			"scrape_status": string(lead.Outcome),
		})

		if job.Delay > 0 && i < len(places)-1 {
			timer := time.NewTimer(job.Delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				o.cancel(job.ID, logger)
				return
			}
		}
	}

	o.complete(ctx, job.ID, deduplicate(batch), logger)
}

// cancelRequested is the cooperative cancellation checkpoint: it fires on
// context death (process shutdown, runner cancel) or when the cancel endpoint
// has already flipped the stored status.
func (o *Orchestrator) cancelRequested(ctx context.Context, jobID string) bool {
	if ctx.Err() != nil {
		return true
	}
	job, err := o.jobs.GetJob(ctx, jobID)
	if err != nil {
		return false
	}
	return job.Status == leads.JobStatusCancelled
}

// processPlace builds one scored lead from a place record. Extraction and
// enrichment failures degrade the lead, never the job.
func (o *Orchestrator) processPlace(ctx context.Context, jobID string, place leads.Place, creds leads.Credentials) leads.Lead {
	lead := leads.Lead{
		ID:       o.ids.NewID(),
		JobID:    jobID,
		Name:     place.Name,
		Category: place.Category,
		Address:  place.Address,
		Phone:    place.Phone,
		Website:  place.Website,
		Rating:   place.Rating,
		Reviews:  place.Reviews,
		MapsRef:  place.MapsRef,
		Outcome:  leads.OutcomeNoWebsite,
	}

	if place.Website != "" {
		sig := o.extractor.Extract(ctx, place.Website)
		lead.Domain = domainOf(place.Website)
		lead.Emails = sig.Emails
		lead.TechStack = sig.TechStack
		lead.HasITMention = sig.HasITMention
		lead.HasExistingMSP = sig.HasExistingMSP
		lead.ComplianceMentions = sig.ComplianceMentions
		lead.SSLValid = sig.SSLValid
		lead.Outcome = sig.Outcome

		o.enricher.Enrich(ctx, lead.Domain, creds, &lead)
	}

	lead.Score = scoring.Score(scoring.FromLead(lead), o.weights)
	return lead
}

func (o *Orchestrator) complete(ctx context.Context, jobID string, batch []leads.Lead, logger *zap.Logger) {
	if len(batch) > 0 {
		if err := o.store.InsertLeads(ctx, jobID, batch); err != nil {
			logger.Error("lead persist failed", zap.Error(err))
			o.fail(ctx, jobID, err)
			return
		}
	}
	if err := o.jobs.UpdateJobStatus(ctx, jobID, leads.JobStatusCompleted, "", len(batch)); err != nil {
		logger.Error("job complete transition failed", zap.Error(err))
	}
	metrics.ObserveJobFinished(string(leads.JobStatusCompleted))
	o.emit(jobID, events.TypeCompleted, map[string]any{"lead_count": len(batch)})
	logger.Info("job completed", zap.Int("lead_count", len(batch)))
}

// fail records the terminal failure. The job's context may already be dead,
// so the store write uses a fresh context.
func (o *Orchestrator) fail(_ context.Context, jobID string, cause error) {
	storeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg := cause.Error()
	if err := o.jobs.UpdateJobStatus(storeCtx, jobID, leads.JobStatusFailed, clip(msg, maxStoredError), 0); err != nil {
		o.logger.Error("job fail transition failed", zap.String("job_id", jobID), zap.Error(err))
	}
	metrics.ObserveJobFinished(string(leads.JobStatusFailed))
	o.emit(jobID, events.TypeFailed, map[string]any{"error": clip(msg, maxEmittedError)})
}

func (o *Orchestrator) cancel(jobID string, logger *zap.Logger) {
	storeCtx, cancelFn := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelFn()

	if err := o.jobs.UpdateJobStatus(storeCtx, jobID, leads.JobStatusCancelled, "", 0); err != nil {
		logger.Error("job cancel transition failed", zap.Error(err))
	}
	metrics.ObserveJobFinished(string(leads.JobStatusCancelled))
	o.emit(jobID, events.TypeCancelled, map[string]any{})
	logger.Info("job cancelled")
}

// FailFromPanic marks a job failed after its goroutine panicked. Wired as the
// runner's panic hook.
func (o *Orchestrator) FailFromPanic(jobID string, v any) {
	o.fail(context.Background(), jobID, panicError{v})
}

type panicError struct{ v any }

func (p panicError) Error() string { return fmt.Sprintf("job panicked: %v", p.v) }

func (o *Orchestrator) emit(jobID, eventType string, data map[string]any) {
	o.bus.Publish(events.JobChannel(jobID), events.Event{Type: eventType, Data: data})
}

// domainOf derives the bare registrable host from a website URL.
func domainOf(website string) string {
	u, err := url.Parse(website)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// deduplicate keeps the first lead per domain, falling back to the business
// name for leads without a website. Order is preserved.
func deduplicate(batch []leads.Lead) []leads.Lead {
	seenDomains := make(map[string]bool)
	seenNames := make(map[string]bool)
	unique := make([]leads.Lead, 0, len(batch))
	for _, l := range batch {
		if l.Domain != "" && seenDomains[l.Domain] {
			continue
		}
		if l.Domain == "" && seenNames[l.Name] {
			continue
		}
		if l.Domain != "" {
			seenDomains[l.Domain] = true
		}
		seenNames[l.Name] = true
		unique = append(unique, l)
	}
	return unique
}

// clip truncates s to at most max bytes without splitting a rune.
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
