package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mspscout/leadscout/internal/config"
	"github.com/mspscout/leadscout/internal/events"
	"github.com/mspscout/leadscout/internal/leads"
	"github.com/mspscout/leadscout/internal/runner"
	memoryStorage "github.com/mspscout/leadscout/internal/storage/memory"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

// capturePipeline records Run invocations and blocks until its context dies
// when block is set.
type capturePipeline struct {
	mu    sync.Mutex
	jobs  []leads.Job
	creds []leads.Credentials
	block bool
	ran   chan struct{}
}

func newCapturePipeline(block bool) *capturePipeline {
	return &capturePipeline{block: block, ran: make(chan struct{}, 16)}
}

func (p *capturePipeline) Run(ctx context.Context, job leads.Job, creds leads.Credentials) {
	p.mu.Lock()
	p.jobs = append(p.jobs, job)
	p.creds = append(p.creds, creds)
	p.mu.Unlock()
	p.ran <- struct{}{}
	if p.block {
		<-ctx.Done()
	}
}

func (p *capturePipeline) lastCreds() leads.Credentials {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.creds[len(p.creds)-1]
}

func testConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{Port: 8080, KeepaliveSeconds: 30},
		Scrape: config.ScrapeConfig{NumResultsDefault: 20, DelaySecondsMax: 30},
		HTTP:   config.HTTPConfig{TimeoutSeconds: 10},
		Providers: config.ProvidersConfig{
			SerperKey: "config-serper",
		},
	}
}

type testEnv struct {
	server   *Server
	store    *memoryStorage.Store
	bus      *events.Bus
	runner   *runner.Background
	pipeline *capturePipeline
}

func newTestEnv(t *testing.T, block bool) *testEnv {
	t.Helper()
	store := memoryStorage.New(fixedClock{now: time.Unix(1700000000, 0).UTC()})
	bus := events.NewBus(nil)
	run := runner.NewBackground(nil, nil)
	pipe := newCapturePipeline(block)
	srv := NewServer(store, store, run, pipe, bus, &seqIDs{}, fixedClock{now: time.Unix(1700000000, 0).UTC()}, testConfig(), nil)
	return &testEnv{server: srv, store: store, bus: bus, runner: run, pipeline: pipe}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSubmitScrapeCreatesPendingJob(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, false)
	rec := doJSON(t, env.server.Handler(), http.MethodPost, "/v1/scrape", map[string]any{
		"category": "dentist",
		"location": "Austin, TX",
	}, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["job_id"])
	require.Equal(t, "pending", resp["status"])

	job, err := env.store.GetJob(context.Background(), resp["job_id"])
	require.NoError(t, err)
	require.Equal(t, "dentist", job.Category)
	require.Equal(t, 20, job.NumResults)
	require.Equal(t, 1500*time.Millisecond, job.Delay)

	select {
	case <-env.pipeline.ran:
	case <-time.After(time.Second):
		t.Fatal("pipeline never ran")
	}
}

func TestSubmitScrapeValidation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, false)
	h := env.server.Handler()

	rec := doJSON(t, h, http.MethodPost, "/v1/scrape", map[string]any{"category": "dentist"}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/v1/scrape", map[string]any{
		"category": "dentist", "location": "Austin", "num_results": -1,
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/scrape", strings.NewReader("{not json"))
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	require.Equal(t, http.StatusBadRequest, rw.Code)
}

func TestSubmitScrapeClampsDelay(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, false)
	rec := doJSON(t, env.server.Handler(), http.MethodPost, "/v1/scrape", map[string]any{
		"category": "dentist", "location": "Austin", "delay_seconds": 999.0,
	}, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	job, err := env.store.GetJob(context.Background(), resp["job_id"])
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, job.Delay)
}

func TestSubmitScrapeHeaderCredentialsOverrideConfig(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, false)
	header := http.Header{}
	header.Set("X-Hunter-Key", "header-hunter")
	rec := doJSON(t, env.server.Handler(), http.MethodPost, "/v1/scrape", map[string]any{
		"category": "dentist", "location": "Austin",
	}, header)
	require.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case <-env.pipeline.ran:
	case <-time.After(time.Second):
		t.Fatal("pipeline never ran")
	}
	creds := env.pipeline.lastCreds()
	require.Equal(t, "header-hunter", creds.HunterKey)
	require.Equal(t, "config-serper", creds.SerperKey)
}

func TestGetJobStatus(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, false)
	require.NoError(t, env.store.CreateJob(context.Background(), leads.Job{
		ID: "job-1", Status: leads.JobStatusRunning,
	}))

	rec := doJSON(t, env.server.Handler(), http.MethodGet, "/v1/scrape/job-1/status", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"running"`)

	rec = doJSON(t, env.server.Handler(), http.MethodGet, "/v1/scrape/nope/status", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelFinishedJobConflicts(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, false)
	require.NoError(t, env.store.CreateJob(context.Background(), leads.Job{
		ID: "job-1", Status: leads.JobStatusCompleted,
	}))

	rec := doJSON(t, env.server.Handler(), http.MethodPost, "/v1/scrape/job-1/cancel", nil, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelRunningJob(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, true)
	rec := doJSON(t, env.server.Handler(), http.MethodPost, "/v1/scrape", map[string]any{
		"category": "dentist", "location": "Austin",
	}, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	<-env.pipeline.ran

	rec = doJSON(t, env.server.Handler(), http.MethodPost, "/v1/scrape/"+resp["job_id"]+"/cancel", nil, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Contains(t, rec.Body.String(), "cancelled")

	job, err := env.store.GetJob(context.Background(), resp["job_id"])
	require.NoError(t, err)
	require.Equal(t, leads.JobStatusCancelled, job.Status)
}

func TestCancelInactiveJobTransitionsDirectly(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, false)
	// A pending job with no live goroutine, as after a restart.
	require.NoError(t, env.store.CreateJob(context.Background(), leads.Job{
		ID: "job-1", Status: leads.JobStatusPending,
	}))

	rec := doJSON(t, env.server.Handler(), http.MethodPost, "/v1/scrape/job-1/cancel", nil, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	job, err := env.store.GetJob(context.Background(), "job-1")
	require.NoError(t, err)
	require.Equal(t, leads.JobStatusCancelled, job.Status)
}

func TestListLeads(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, false)
	require.NoError(t, env.store.CreateJob(context.Background(), leads.Job{ID: "job-1"}))
	require.NoError(t, env.store.InsertLeads(context.Background(), "job-1", []leads.Lead{
		{ID: "l1", Name: "Acme", Score: 63},
	}))

	rec := doJSON(t, env.server.Handler(), http.MethodGet, "/v1/scrape/job-1/leads", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"Acme"`)

	rec = doJSON(t, env.server.Handler(), http.MethodGet, "/v1/scrape/nope/leads", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, false)
	h := env.server.Handler()

	rec := doJSON(t, h, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, h, http.MethodGet, "/readyz", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestStreamEventsTerminalSnapshot(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, false)
	require.NoError(t, env.store.CreateJob(context.Background(), leads.Job{
		ID: "job-1", Status: leads.JobStatusCompleted, LeadCount: 4,
	}))

	rec := doJSON(t, env.server.Handler(), http.MethodGet, "/v1/scrape/job-1/events", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), "event: completed")
	require.Contains(t, rec.Body.String(), `"lead_count":4`)
}

func TestStreamEventsUnknownJob(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, false)
	rec := doJSON(t, env.server.Handler(), http.MethodGet, "/v1/scrape/nope/events", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStreamEventsLive(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, false)
	require.NoError(t, env.store.CreateJob(context.Background(), leads.Job{
		ID: "job-1", Status: leads.JobStatusRunning,
	}))

	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/scrape/job-1/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Give the handler a moment to subscribe, then drive the job.
	time.Sleep(50 * time.Millisecond)
	env.bus.Publish(events.JobChannel("job-1"), events.Event{
		Type: events.TypeLeadProcessed,
		Data: map[string]any{"index": 1, "total": 1, "business_name": "Acme", "score": 63},
	})
	env.bus.Publish(events.JobChannel("job-1"), events.Event{
		Type: events.TypeCompleted,
		Data: map[string]any{"lead_count": 1},
	})

	var lines []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	joined := strings.Join(lines, "\n")
	require.Contains(t, joined, "event: lead_processed")
	require.Contains(t, joined, `"business_name":"Acme"`)
	require.Contains(t, joined, "event: completed")
}

func TestClampDelay(t *testing.T) {
	t.Parallel()

	require.Equal(t, time.Duration(0), clampDelay(-3, 30))
	require.Equal(t, 1500*time.Millisecond, clampDelay(1.5, 30))
	require.Equal(t, 30*time.Second, clampDelay(90, 30))
}
