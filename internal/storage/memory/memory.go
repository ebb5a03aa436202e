// Package memory provides in-process implementations of the job and lead
// stores, used in development and tests when no database is configured.
package memory

import (
	"context"
	"sync"

	"github.com/mspscout/leadscout/internal/leads"
)

// Store implements leads.JobStore and leads.LeadStore in memory.
type Store struct {
	mu    sync.RWMutex
	jobs  map[string]leads.Job
	byJob map[string][]leads.Lead
	clock leads.Clock
}

// New builds an empty Store.
func New(clock leads.Clock) *Store {
	return &Store{
		jobs:  make(map[string]leads.Job),
		byJob: make(map[string][]leads.Lead),
		clock: clock,
	}
}

// CreateJob registers a new job record.
func (s *Store) CreateJob(_ context.Context, job leads.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	return nil
}

// UpdateJobStatus transitions a job. Terminal statuses also stamp the
// completion time.
func (s *Store) UpdateJobStatus(_ context.Context, jobID string, status leads.JobStatus, errText string, leadCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return leads.ErrNotFound
	}
	job.Status = status
	job.ErrorText = errText
	job.LeadCount = leadCount
	if status.IsTerminal() {
		now := s.clock.Now()
		job.CompletedAt = &now
	}
	s.jobs[jobID] = job
	return nil
}

// GetJob returns a copy of the job record.
func (s *Store) GetJob(_ context.Context, jobID string) (leads.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return leads.Job{}, leads.ErrNotFound
	}
	return job, nil
}

// InsertLeads stores the full batch for a job.
func (s *Store) InsertLeads(_ context.Context, jobID string, batch []leads.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[jobID]; !ok {
		return leads.ErrNotFound
	}
	copied := make([]leads.Lead, len(batch))
	copy(copied, batch)
	s.byJob[jobID] = append(s.byJob[jobID], copied...)
	return nil
}

// ListLeads returns the stored leads for a job in insertion order.
func (s *Store) ListLeads(_ context.Context, jobID string) ([]leads.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.jobs[jobID]; !ok {
		return nil, leads.ErrNotFound
	}
	stored := s.byJob[jobID]
	out := make([]leads.Lead, len(stored))
	copy(out, stored)
	return out, nil
}
