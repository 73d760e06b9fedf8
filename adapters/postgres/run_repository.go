package postgres

import (
	"context"
	"encoding/json"
	"time"

	"surveyclean/domain/cleaning"
	"surveyclean/domain/core"
	"surveyclean/domain/stats"
	"surveyclean/internal/errors"
	"surveyclean/ports"

	"github.com/jmoiron/sqlx"
)

// RunRepositoryImpl implements ports.RunRepository for PostgreSQL
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new PostgreSQL run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

// SaveSession inserts the session header, ignoring a repeated ID
func (r *RunRepositoryImpl) SaveSession(ctx context.Context, rec ports.SessionRecord) error {
	numeric, err := json.Marshal(nonNil(rec.NumericColumns))
	if err != nil {
		return errors.Wrap(err, "failed to encode numeric columns")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO cleaning_sessions (id, source_name, row_count, column_count, numeric_columns)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, rec.ID.String(), rec.SourceName, rec.RowCount, rec.ColumnCount, numeric)
	if err != nil {
		return errors.DatabaseError("failed to save session", err)
	}
	return nil
}

// SaveRun writes the run and its operations in one transaction
func (r *RunRepositoryImpl) SaveRun(ctx context.Context, run cleaning.RunRecord, ops []cleaning.Operation) error {
	config, err := json.Marshal(run.Config)
	if err != nil {
		return errors.Wrap(err, "failed to encode run config")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cleaning_runs (id, session_id, mode, config, rows_processed, imputed, clamped, dataset_hash, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, run.ID.String(), run.SessionID.String(), string(run.Mode), config, run.RowsProcessed,
		run.Imputed, run.Clamped, run.DatasetHash.String(), run.StartedAt, run.CompletedAt)
	if err != nil {
		return errors.DatabaseError("failed to save run", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO cleaning_operations (run_id, row_index, column_name, kind, method, old_value, new_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return errors.DatabaseError("failed to prepare operation insert", err)
	}
	defer stmt.Close()

	for _, op := range ops {
		oldValue, newValue, err := encodePair(op.OldValue, op.NewValue)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, run.ID.String(), op.Row, op.Column, string(op.Kind), op.Method, oldValue, newValue); err != nil {
			return errors.DatabaseError("failed to save operation", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit run", err)
	}
	return nil
}

// SaveEdits records the edits a pass consumed
func (r *RunRepositoryImpl) SaveEdits(ctx context.Context, sessionID core.SessionID, runID core.RunID, edits []cleaning.EditRecord) error {
	if len(edits) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	for _, e := range edits {
		oldValue, newValue, err := encodePair(e.OldValue, e.NewValue)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO cell_edits (session_id, run_id, row_index, column_name, old_value, new_value, edited_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, sessionID.String(), runID.String(), e.Row, e.Column, oldValue, newValue, e.EditedAt)
		if err != nil {
			return errors.DatabaseError("failed to save edit", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit edits", err)
	}
	return nil
}

// SaveSummaries writes one row per summarized column
func (r *RunRepositoryImpl) SaveSummaries(ctx context.Context, snapshot stats.Snapshot) error {
	if len(snapshot.Summaries) == 0 {
		return nil
	}

	rows := make([]summaryRow, 0, len(snapshot.Summaries))
	for column, s := range snapshot.Summaries {
		rows = append(rows, summaryRow{
			SessionID:      snapshot.SessionID.String(),
			DatasetVersion: snapshot.DatasetVersion,
			DatasetHash:    snapshot.DatasetHash.String(),
			ColumnName:     column,
			WeightColumn:   snapshot.Weights.WeightColumn,
			Mean:           s.Mean,
			StandardError:  s.StandardError,
			MarginOfError:  s.MarginOfError,
			SampleSize:     s.SampleSize,
			TotalWeight:    s.TotalWeight,
			ComputedAt:     snapshot.ComputedAt,
		})
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO column_summaries (session_id, dataset_version, dataset_hash, column_name, weight_column,
			mean, standard_error, margin_of_error, sample_size, total_weight, computed_at)
		VALUES (:session_id, :dataset_version, :dataset_hash, :column_name, :weight_column,
			:mean, :standard_error, :margin_of_error, :sample_size, :total_weight, :computed_at)
	`, rows)
	if err != nil {
		return errors.DatabaseError("failed to save summaries", err)
	}
	return nil
}

// ListRuns returns a session's runs ordered by start time
func (r *RunRepositoryImpl) ListRuns(ctx context.Context, sessionID core.SessionID) ([]cleaning.RunRecord, error) {
	var rows []runRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, session_id, mode, config, rows_processed, imputed, clamped, dataset_hash, started_at, completed_at
		FROM cleaning_runs
		WHERE session_id = $1
		ORDER BY started_at ASC
	`, sessionID.String())
	if err != nil {
		return nil, errors.DatabaseError("failed to list runs", err)
	}

	runs := make([]cleaning.RunRecord, 0, len(rows))
	for _, row := range rows {
		run, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// DeleteSession removes the session; dependent rows cascade
func (r *RunRepositoryImpl) DeleteSession(ctx context.Context, sessionID core.SessionID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cleaning_sessions WHERE id = $1`, sessionID.String())
	if err != nil {
		return errors.DatabaseError("failed to delete session", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.NewNotFoundError("session", sessionID.String())
	}
	return nil
}

type runRow struct {
	ID            string    `db:"id"`
	SessionID     string    `db:"session_id"`
	Mode          string    `db:"mode"`
	Config        []byte    `db:"config"`
	RowsProcessed int       `db:"rows_processed"`
	Imputed       int       `db:"imputed"`
	Clamped       int       `db:"clamped"`
	DatasetHash   string    `db:"dataset_hash"`
	StartedAt     time.Time `db:"started_at"`
	CompletedAt   time.Time `db:"completed_at"`
}

func (row runRow) toDomain() (cleaning.RunRecord, error) {
	var cfg cleaning.Config
	if len(row.Config) > 0 {
		if err := json.Unmarshal(row.Config, &cfg); err != nil {
			return cleaning.RunRecord{}, errors.Wrapf(err, "failed to decode config of run %s", row.ID)
		}
	}
	return cleaning.RunRecord{
		ID:            core.RunID(row.ID),
		SessionID:     core.SessionID(row.SessionID),
		Mode:          cleaning.Mode(row.Mode),
		Config:        cfg,
		RowsProcessed: row.RowsProcessed,
		Imputed:       row.Imputed,
		Clamped:       row.Clamped,
		DatasetHash:   core.Hash(row.DatasetHash),
		StartedAt:     row.StartedAt,
		CompletedAt:   row.CompletedAt,
	}, nil
}

type summaryRow struct {
	SessionID      string    `db:"session_id"`
	DatasetVersion int       `db:"dataset_version"`
	DatasetHash    string    `db:"dataset_hash"`
	ColumnName     string    `db:"column_name"`
	WeightColumn   string    `db:"weight_column"`
	Mean           float64   `db:"mean"`
	StandardError  float64   `db:"standard_error"`
	MarginOfError  float64   `db:"margin_of_error"`
	SampleSize     int       `db:"sample_size"`
	TotalWeight    float64   `db:"total_weight"`
	ComputedAt     time.Time `db:"computed_at"`
}

func encodePair(oldValue, newValue interface{}) ([]byte, []byte, error) {
	o, err := json.Marshal(oldValue)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to encode old value")
	}
	n, err := json.Marshal(newValue)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to encode new value")
	}
	return o, n, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
