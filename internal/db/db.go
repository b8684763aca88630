// Package db provides PostgreSQL persistence for generation runs and the
// email drafts they produce. Persistence is optional: the pipeline runs fine
// without a database URL.
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/icebreaker-agent/internal/types"
)

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// CreateRun records the start of one generation run and returns its ID.
func (db *DB) CreateRun(ctx context.Context, company, jobTitle string, emailType types.EmailType, tone types.Tone, variantCount int) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO generation_runs (company, job_title, email_type, tone, variant_count, status)
		 VALUES ($1, $2, $3, $4, $5, 'running')
		 RETURNING id`,
		company, jobTitle, string(emailType), string(tone), variantCount,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// CompleteRun marks a generation run finished with the given status.
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE generation_runs SET status = $1, completed_at = NOW() WHERE id = $2`,
		status, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// SaveDraft persists one variant draft for a run.
func (db *DB) SaveDraft(ctx context.Context, runID uuid.UUID, variantIndex int, draft *types.EmailDraft) error {
	warnings, err := json.Marshal(draft.Warnings)
	if err != nil {
		return fmt.Errorf("failed to marshal draft warnings: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO email_drafts (id, run_id, variant_index, subject, body, word_count, email_type, tone, warnings, generated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (run_id, variant_index) DO UPDATE
		 SET subject = $4, body = $5, word_count = $6, warnings = $9, generated_at = $10`,
		draft.ID, runID, variantIndex, draft.Subject, draft.BodyText(),
		draft.WordCount, string(draft.EmailType), string(draft.Tone), warnings, draft.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save draft %d: %w", variantIndex, err)
	}
	return nil
}

// GetRun retrieves a generation run by ID, or nil when absent.
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, company, job_title, email_type, tone, variant_count, status, created_at, completed_at
		 FROM generation_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.Company, &run.JobTitle, &run.EmailType, &run.Tone,
		&run.VariantCount, &run.Status, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns retrieves the most recent generation runs.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, company, job_title, email_type, tone, variant_count, status, created_at, completed_at
		 FROM generation_runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Company, &run.JobTitle, &run.EmailType, &run.Tone,
			&run.VariantCount, &run.Status, &run.CreatedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// ListDrafts retrieves all drafts for a run in variant order.
func (db *DB) ListDrafts(ctx context.Context, runID uuid.UUID) ([]DraftRecord, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, variant_index, subject, body, word_count, email_type, tone, warnings, generated_at
		 FROM email_drafts WHERE run_id = $1 ORDER BY variant_index ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	defer rows.Close()

	var drafts []DraftRecord
	for rows.Next() {
		var d DraftRecord
		var warnings []byte
		if err := rows.Scan(&d.ID, &d.RunID, &d.VariantIndex, &d.Subject, &d.Body,
			&d.WordCount, &d.EmailType, &d.Tone, &warnings, &d.GeneratedAt); err != nil {
			return nil, fmt.Errorf("failed to scan draft: %w", err)
		}
		if len(warnings) > 0 {
			_ = json.Unmarshal(warnings, &d.Warnings)
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}

// DeleteRun deletes a run and its drafts (via cascade).
func (db *DB) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM generation_runs WHERE id = $1`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}
