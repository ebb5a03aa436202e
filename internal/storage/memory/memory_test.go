package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mspscout/leadscout/internal/leads"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func TestJobLifecycle(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0).UTC()
	s := New(fixedClock{now: now})
	ctx := context.Background()

	job := leads.Job{
		ID:         "job-1",
		Category:   "dentist",
		Location:   "Austin, TX",
		NumResults: 10,
		Status:     leads.JobStatusPending,
		CreatedAt:  now,
	}
	require.NoError(t, s.CreateJob(ctx, job))

	got, err := s.GetJob(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, leads.JobStatusPending, got.Status)
	require.Nil(t, got.CompletedAt)

	require.NoError(t, s.UpdateJobStatus(ctx, "job-1", leads.JobStatusRunning, "", 0))
	got, err = s.GetJob(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, leads.JobStatusRunning, got.Status)
	require.Nil(t, got.CompletedAt)

	require.NoError(t, s.UpdateJobStatus(ctx, "job-1", leads.JobStatusCompleted, "", 7))
	got, err = s.GetJob(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, leads.JobStatusCompleted, got.Status)
	require.Equal(t, 7, got.LeadCount)
	require.NotNil(t, got.CompletedAt)
	require.Equal(t, now, *got.CompletedAt)
}

func TestUnknownJobReturnsNotFound(t *testing.T) {
	t.Parallel()

	s := New(fixedClock{now: time.Now()})
	ctx := context.Background()

	_, err := s.GetJob(ctx, "nope")
	require.ErrorIs(t, err, leads.ErrNotFound)
	require.ErrorIs(t, s.UpdateJobStatus(ctx, "nope", leads.JobStatusRunning, "", 0), leads.ErrNotFound)
	require.ErrorIs(t, s.InsertLeads(ctx, "nope", nil), leads.ErrNotFound)
	_, err = s.ListLeads(ctx, "nope")
	require.ErrorIs(t, err, leads.ErrNotFound)
}

func TestInsertAndListLeads(t *testing.T) {
	t.Parallel()

	s := New(fixedClock{now: time.Now()})
	ctx := context.Background()

	require.NoError(t, s.CreateJob(ctx, leads.Job{ID: "job-1"}))

	batch := []leads.Lead{
		{ID: "l1", JobID: "job-1", Name: "Acme", Score: 60},
		{ID: "l2", JobID: "job-1", Name: "Beta", Score: 40},
	}
	require.NoError(t, s.InsertLeads(ctx, "job-1", batch))

	got, err := s.ListLeads(ctx, "job-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Acme", got[0].Name)

	// The stored copy is independent of the caller's slice.
	batch[0].Name = "mutated"
	got, err = s.ListLeads(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, "Acme", got[0].Name)
}
