package ports

import (
	"context"

	"surveyclean/domain/cleaning"
	"surveyclean/domain/core"
	"surveyclean/domain/stats"
)

// SessionRecord is the persisted header of an ingestion session
type SessionRecord struct {
	ID             core.SessionID `db:"id"`
	SourceName     string         `db:"source_name"`
	RowCount       int            `db:"row_count"`
	ColumnCount    int            `db:"column_count"`
	NumericColumns []string       `db:"-"`
}

// RunRepository persists sessions, passes, edits and summaries for audit
type RunRepository interface {
	// SaveSession records a freshly ingested dataset
	SaveSession(ctx context.Context, rec SessionRecord) error

	// SaveRun records a completed cleaning pass together with its cell corrections
	SaveRun(ctx context.Context, run cleaning.RunRecord, ops []cleaning.Operation) error

	// SaveEdits records the edits consumed by a pass
	SaveEdits(ctx context.Context, sessionID core.SessionID, runID core.RunID, edits []cleaning.EditRecord) error

	// SaveSummaries records a weighting snapshot
	SaveSummaries(ctx context.Context, snapshot stats.Snapshot) error

	// ListRuns returns a session's passes, oldest first
	ListRuns(ctx context.Context, sessionID core.SessionID) ([]cleaning.RunRecord, error)

	// DeleteSession removes a session and everything recorded for it
	DeleteSession(ctx context.Context, sessionID core.SessionID) error
}
