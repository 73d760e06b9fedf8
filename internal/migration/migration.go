package migration

import (
	"context"

	"surveyclean/internal"
	"surveyclean/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the audit schema for cleaning sessions
type MigrationRunner struct {
	version string
	logger  *internal.Logger
}

// NewRunner creates a new migration runner
func NewRunner(logger *internal.Logger) *MigrationRunner {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &MigrationRunner{
		version: "1.0.0",
		logger:  logger,
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// step is one idempotent schema statement
type step struct {
	name string
	sql  string
}

// Steps lists the statements Run executes, in order
func (r *MigrationRunner) Steps() []string {
	out := make([]string, 0, len(schema))
	for _, s := range schema {
		out = append(out, s.name)
	}
	return out
}

var schema = []step{
	{"cleaning_sessions", `
		CREATE TABLE IF NOT EXISTS cleaning_sessions (
			id TEXT PRIMARY KEY,
			source_name TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			column_count INTEGER NOT NULL,
			numeric_columns JSONB NOT NULL DEFAULT '[]'::jsonb,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`},
	{"cleaning_runs", `
		CREATE TABLE IF NOT EXISTS cleaning_runs (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES cleaning_sessions(id) ON DELETE CASCADE,
			mode VARCHAR(10) NOT NULL CHECK (mode IN ('full', 'delta')),
			config JSONB NOT NULL,
			rows_processed INTEGER NOT NULL,
			imputed INTEGER NOT NULL DEFAULT 0,
			clamped INTEGER NOT NULL DEFAULT 0,
			dataset_hash VARCHAR(64) NOT NULL,
			started_at TIMESTAMP WITH TIME ZONE NOT NULL,
			completed_at TIMESTAMP WITH TIME ZONE NOT NULL
		)
	`},
	{"cleaning_operations", `
		CREATE TABLE IF NOT EXISTS cleaning_operations (
			id BIGSERIAL PRIMARY KEY,
			run_id TEXT NOT NULL REFERENCES cleaning_runs(id) ON DELETE CASCADE,
			row_index INTEGER NOT NULL,
			column_name TEXT NOT NULL,
			kind VARCHAR(16) NOT NULL,
			method VARCHAR(32) NOT NULL,
			old_value JSONB,
			new_value JSONB
		)
	`},
	{"cell_edits", `
		CREATE TABLE IF NOT EXISTS cell_edits (
			id BIGSERIAL PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES cleaning_sessions(id) ON DELETE CASCADE,
			run_id TEXT REFERENCES cleaning_runs(id) ON DELETE CASCADE,
			row_index INTEGER NOT NULL,
			column_name TEXT NOT NULL,
			old_value JSONB,
			new_value JSONB,
			edited_at TIMESTAMP WITH TIME ZONE NOT NULL
		)
	`},
	{"column_summaries", `
		CREATE TABLE IF NOT EXISTS column_summaries (
			id BIGSERIAL PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES cleaning_sessions(id) ON DELETE CASCADE,
			dataset_version INTEGER NOT NULL,
			dataset_hash VARCHAR(64) NOT NULL,
			column_name TEXT NOT NULL,
			weight_column TEXT,
			mean DOUBLE PRECISION NOT NULL,
			standard_error DOUBLE PRECISION NOT NULL,
			margin_of_error DOUBLE PRECISION NOT NULL,
			sample_size INTEGER NOT NULL,
			total_weight DOUBLE PRECISION NOT NULL,
			computed_at TIMESTAMP WITH TIME ZONE NOT NULL
		)
	`},
}

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_runs_session_started ON cleaning_runs(session_id, started_at)",
	"CREATE INDEX IF NOT EXISTS idx_operations_run_id ON cleaning_operations(run_id)",
	"CREATE INDEX IF NOT EXISTS idx_edits_session_id ON cell_edits(session_id)",
	"CREATE INDEX IF NOT EXISTS idx_summaries_session_version ON column_summaries(session_id, dataset_version)",
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, s := range schema {
		if _, err := db.ExecContext(ctx, s.sql); err != nil {
			return errors.DatabaseError("failed to create "+s.name+" table", err)
		}
		r.logger.Debug("migration step %s applied", s.name)
	}

	for _, idxSQL := range indexes {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			// Index failures are not fatal
			r.logger.Warn("failed to create index: %v", err)
		}
	}

	r.logger.Info("schema version %s ready", r.version)
	return nil
}
