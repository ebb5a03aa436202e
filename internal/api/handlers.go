package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mspscout/leadscout/internal/leads"
)

type scrapeRequest struct {
	Category     string   `json:"category"`
	Location     string   `json:"location"`
	NumResults   *int     `json:"num_results"`
	DelaySeconds *float64 `json:"delay_seconds"`
}

// submitScrape handles POST /v1/scrape. It registers a pending job, schedules
// the pipeline on the runner and returns 202 with the job id.
func (s *Server) submitScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Category == "" || req.Location == "" {
		writeError(w, http.StatusBadRequest, "category and location are required")
		return
	}

	numResults := s.cfg.Scrape.NumResultsDefault
	if req.NumResults != nil {
		if *req.NumResults <= 0 {
			writeError(w, http.StatusBadRequest, "num_results must be positive")
			return
		}
		numResults = *req.NumResults
	}

	delay := 1500 * time.Millisecond
	if req.DelaySeconds != nil {
		delay = clampDelay(*req.DelaySeconds, s.cfg.Scrape.DelaySecondsMax)
	}

	job := leads.Job{
		ID:         s.ids.NewID(),
		Category:   req.Category,
		Location:   req.Location,
		NumResults: numResults,
		Delay:      delay,
		Status:     leads.JobStatusPending,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.jobs.CreateJob(r.Context(), job); err != nil {
		s.logger.Error("create job failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	creds := s.credentials(r)
	s.runner.Submit(job.ID, func(ctx context.Context) {
		s.pipeline.Run(ctx, job, creds)
	})

	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.ID,
		"status": string(job.Status),
	})
}

// credentials merges per-request header keys over the configured defaults.
func (s *Server) credentials(r *http.Request) leads.Credentials {
	pick := func(header, def string) string {
		if v := r.Header.Get(header); v != "" {
			return v
		}
		return def
	}
	return leads.Credentials{
		SerperKey:  pick("X-Serper-Key", s.cfg.Providers.SerperKey),
		SerpAPIKey: pick("X-SerpAPI-Key", s.cfg.Providers.SerpAPIKey),
		HunterKey:  pick("X-Hunter-Key", s.cfg.Providers.HunterKey),
		ApolloKey:  pick("X-Apollo-Key", s.cfg.Providers.ApolloKey),
	}
}

// clampDelay bounds the per-lead delay to [0, max] seconds.
func clampDelay(seconds, max float64) time.Duration {
	if seconds < 0 {
		seconds = 0
	}
	if max > 0 && seconds > max {
		seconds = max
	}
	return time.Duration(seconds * float64(time.Second))
}

func (s *Server) getJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	job, err := s.jobs.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, leads.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		s.logger.Error("get job failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job": job})
}

// cancelJob handles POST /v1/scrape/{job_id}/cancel. Only pending or running
// jobs can be cancelled; the status flips here and the job goroutine stops at
// its next checkpoint.
func (s *Server) cancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	job, err := s.jobs.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, leads.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		s.logger.Error("get job failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	if job.Status.IsTerminal() {
		writeError(w, http.StatusConflict, "job already finished")
		return
	}

	if err := s.jobs.UpdateJobStatus(r.Context(), jobID, leads.JobStatusCancelled, "", 0); err != nil {
		s.logger.Error("cancel transition failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to cancel job")
		return
	}
	// Wake the job goroutine if it is mid-delay; a job that is not active in
	// this process stops at its next status read.
	s.runner.Cancel(jobID)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id": jobID,
		"status": string(leads.JobStatusCancelled),
	})
}

func (s *Server) listLeads(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if _, err := s.jobs.GetJob(r.Context(), jobID); err != nil {
		if errors.Is(err, leads.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		s.logger.Error("get job failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	batch, err := s.store.ListLeads(r.Context(), jobID)
	if err != nil && !errors.Is(err, leads.ErrNotFound) {
		s.logger.Error("list leads failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list leads")
		return
	}
	if batch == nil {
		batch = []leads.Lead{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": batch})
}
