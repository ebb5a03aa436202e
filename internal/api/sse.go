package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mspscout/leadscout/internal/events"
	"github.com/mspscout/leadscout/internal/leads"
)

// streamEvents handles GET /v1/scrape/{job_id}/events as a Server-Sent
// Events stream. The stream closes after a terminal event, on client
// disconnect, or immediately with a synthesized terminal event if the job is
// already finished. Keepalive comments hold idle proxies open.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")

	// Subscribe before the status read so no terminal event can slip
	// between the two.
	ch := s.bus.Subscribe(events.JobChannel(jobID))
	defer s.bus.Unsubscribe(events.JobChannel(jobID), ch)

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

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if job.Status.IsTerminal() {
		s.writeEvent(w, terminalSnapshot(job))
		flusher.Flush()
		return
	}

	keepalive := time.Duration(s.cfg.Server.KeepaliveSeconds) * time.Second
	if keepalive <= 0 {
		keepalive = 30 * time.Second
	}
	ticker := time.NewTicker(keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case evt, open := <-ch:
			if !open {
				return
			}
			s.writeEvent(w, evt)
			flusher.Flush()
			if evt.IsTerminal() {
				return
			}
		}
	}
}

func (s *Server) writeEvent(w http.ResponseWriter, evt events.Event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		s.logger.Error("marshal event failed", zap.Error(err))
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, payload)
}

// terminalSnapshot rebuilds the terminal event for a job that finished before
// the client connected.
func terminalSnapshot(job leads.Job) events.Event {
	switch job.Status {
	case leads.JobStatusFailed:
		return events.Event{
			Type:      events.TypeFailed,
			Data:      map[string]any{"error": job.ErrorText},
			Timestamp: time.Now().UTC(),
		}
	case leads.JobStatusCancelled:
		return events.Event{
			Type:      events.TypeCancelled,
			Data:      map[string]any{},
			Timestamp: time.Now().UTC(),
		}
	default:
		return events.Event{
			Type:      events.TypeCompleted,
			Data:      map[string]any{"lead_count": job.LeadCount},
			Timestamp: time.Now().UTC(),
		}
	}
}
