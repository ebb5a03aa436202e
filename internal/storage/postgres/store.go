// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mspscout/leadscout/internal/leads"
)

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// Store implements leads.JobStore and leads.LeadStore over a pgx pool.
type Store struct {
	pool pgxPool
}

// New connects a pool from the DSN.
func New(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(pool pgxPool) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// CreateJob inserts a new job row.
func (s *Store) CreateJob(ctx context.Context, job leads.Job) error {
	query := `
		INSERT INTO jobs (id, category, location, num_results, delay_ms, status, lead_count, error_text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := s.pool.Exec(ctx, query,
		job.ID,
		job.Category,
		job.Location,
		job.NumResults,
		job.Delay.Milliseconds(),
		job.Status,
		job.LeadCount,
		job.ErrorText,
		job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// UpdateJobStatus transitions a job. Terminal statuses also stamp the
// completion time.
func (s *Store) UpdateJobStatus(ctx context.Context, jobID string, status leads.JobStatus, errText string, leadCount int) error {
	query := `
		UPDATE jobs
		SET status = $1, error_text = $2, lead_count = $3,
		    completed_at = CASE WHEN $4 THEN now() ELSE completed_at END
		WHERE id = $5;
	`
	tag, err := s.pool.Exec(ctx, query, status, errText, leadCount, status.IsTerminal(), jobID)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return leads.ErrNotFound
	}
	return nil
}

// GetJob loads one job row.
func (s *Store) GetJob(ctx context.Context, jobID string) (leads.Job, error) {
	query := `
		SELECT id, category, location, num_results, delay_ms, status, lead_count, error_text, created_at, completed_at
		FROM jobs WHERE id = $1;
	`
	var (
		job     leads.Job
		delayMS int64
	)
	err := s.pool.QueryRow(ctx, query, jobID).Scan(
		&job.ID,
		&job.Category,
		&job.Location,
		&job.NumResults,
		&delayMS,
		&job.Status,
		&job.LeadCount,
		&job.ErrorText,
		&job.CreatedAt,
		&job.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return leads.Job{}, leads.ErrNotFound
	}
	if err != nil {
		return leads.Job{}, fmt.Errorf("get job: %w", err)
	}
	job.Delay = time.Duration(delayMS) * time.Millisecond
	return job, nil
}

// InsertLeads writes the full batch in one transaction so a failed job never
// leaves partial rows behind.
func (s *Store) InsertLeads(ctx context.Context, jobID string, batch []leads.Lead) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin insert leads: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO leads (
			id, job_id, business_name, category, address, phone, website, domain,
			rating, reviews, maps_ref, emails, tech_stack, has_it_mention,
			has_existing_msp, compliance_mentions, ssl_valid, scrape_status,
			hunter_email, hunter_name, hunter_confidence,
			apollo_email, apollo_name, apollo_title, company_size, industry,
			score, notes, archived
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,
			$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29
		);
	`
	for _, l := range batch {
		if _, err := tx.Exec(ctx, query,
			l.ID, jobID, l.Name, l.Category, l.Address, l.Phone, l.Website, l.Domain,
			l.Rating, l.Reviews, l.MapsRef, l.Emails, l.TechStack, l.HasITMention,
			l.HasExistingMSP, l.ComplianceMentions, l.SSLValid, l.Outcome,
			l.HunterEmail, l.HunterName, l.HunterConfidence,
			l.ApolloEmail, l.ApolloName, l.ApolloTitle, l.CompanySize, l.Industry,
			l.Score, l.Notes, l.Archived,
		); err != nil {
			return fmt.Errorf("insert lead %s: %w", l.ID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit insert leads: %w", err)
	}
	return nil
}

// ListLeads returns the leads for a job in insertion order.
func (s *Store) ListLeads(ctx context.Context, jobID string) ([]leads.Lead, error) {
	query := `
		SELECT id, job_id, business_name, category, address, phone, website, domain,
		       rating, reviews, maps_ref, emails, tech_stack, has_it_mention,
		       has_existing_msp, compliance_mentions, ssl_valid, scrape_status,
		       hunter_email, hunter_name, hunter_confidence,
		       apollo_email, apollo_name, apollo_title, company_size, industry,
		       score, notes, archived
		FROM leads WHERE job_id = $1 ORDER BY score DESC, business_name;
	`
	rows, err := s.pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var out []leads.Lead
	for rows.Next() {
		var l leads.Lead
		if err := rows.Scan(
			&l.ID, &l.JobID, &l.Name, &l.Category, &l.Address, &l.Phone, &l.Website, &l.Domain,
			&l.Rating, &l.Reviews, &l.MapsRef, &l.Emails, &l.TechStack, &l.HasITMention,
			&l.HasExistingMSP, &l.ComplianceMentions, &l.SSLValid, &l.Outcome,
			&l.HunterEmail, &l.HunterName, &l.HunterConfidence,
			&l.ApolloEmail, &l.ApolloName, &l.ApolloTitle, &l.CompanySize, &l.Industry,
			&l.Score, &l.Notes, &l.Archived,
		); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return out, nil
}
