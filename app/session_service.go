package app

import (
	"context"
	"io"
	"time"

	"surveyclean/domain/cleaning"
	"surveyclean/domain/core"
	"surveyclean/domain/dataset"
	"surveyclean/domain/stats"
	"surveyclean/internal"
	cleaner "surveyclean/internal/cleaning"
	"surveyclean/internal/errors"
	"surveyclean/internal/metrics"
	"surveyclean/internal/session"
	"surveyclean/internal/weighting"
	"surveyclean/ports"
)

// SessionService owns uploaded datasets and runs cleaning and weighting on them
type SessionService struct {
	store    *session.Store
	cleaner  *cleaner.Cleaner
	repo     ports.RunRepository
	metrics  *metrics.Metrics
	defaults cleaning.Config
	weights  stats.WeightConfig
	logger   *internal.Logger
}

// SessionServiceOptions wires the service. Repository and Metrics are optional.
type SessionServiceOptions struct {
	Cleaner    *cleaner.Cleaner
	Repository ports.RunRepository
	Metrics    *metrics.Metrics
	Defaults   cleaning.Config
	Weights    stats.WeightConfig
	Logger     *internal.Logger
}

// SessionView is a read-only snapshot of a session
type SessionView struct {
	ID             core.SessionID        `json:"id"`
	SourceName     string                `json:"source_name"`
	CreatedAt      time.Time             `json:"created_at"`
	Version        int                   `json:"version"`
	Rows           int                   `json:"rows"`
	Columns        []string              `json:"columns"`
	NumericColumns []string              `json:"numeric_columns"`
	Config         cleaning.Config       `json:"config"`
	Cleaned        bool                  `json:"cleaned"`
	PendingEdits   []cleaning.EditRecord `json:"pending_edits"`
	LastRun        *cleaning.RunRecord   `json:"last_run,omitempty"`
	Operations     []cleaning.Operation  `json:"operations,omitempty"`
	Statistics     *stats.Snapshot       `json:"statistics,omitempty"`
	Dataset        *dataset.Dataset      `json:"-"`
}

// CleanOutcome reports one completed pass
type CleanOutcome struct {
	Run        cleaning.RunRecord   `json:"run"`
	Operations []cleaning.Operation `json:"operations"`
	Baselines  cleaning.Baselines   `json:"baselines"`
}

// NewSessionService creates a session service
func NewSessionService(opts SessionServiceOptions) *SessionService {
	logger := opts.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}
	c := opts.Cleaner
	if c == nil {
		c = cleaner.NewCleaner(nil, logger)
	}
	defaults := opts.Defaults
	if defaults == (cleaning.Config{}) {
		defaults = cleaning.DefaultConfig()
	}
	return &SessionService{
		store:    session.NewStore(),
		cleaner:  c,
		repo:     opts.Repository,
		metrics:  opts.Metrics,
		defaults: defaults.Normalize(),
		weights:  opts.Weights,
		logger:   logger,
	}
}

// DefaultWeights returns the process-wide weighting settings
func (s *SessionService) DefaultWeights() stats.WeightConfig {
	return s.weights
}

// Ingest starts a session over ds. Numeric columns are classified here and
// stay fixed for the session's lifetime.
func (s *SessionService) Ingest(ctx context.Context, name string, ds *dataset.Dataset) (*SessionView, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	snapshot := ds.Clone()
	numeric := cleaner.ClassifyNumericColumns(snapshot, snapshot.Columns)
	sess := session.New(name, snapshot, numeric, s.defaults)

	if s.repo != nil {
		rec := ports.SessionRecord{
			ID:             sess.ID,
			SourceName:     name,
			RowCount:       snapshot.Len(),
			ColumnCount:    len(snapshot.Columns),
			NumericColumns: numeric.Sorted(),
		}
		if err := s.repo.SaveSession(ctx, rec); err != nil {
			return nil, errors.Wrap(err, "failed to persist session")
		}
	}

	s.store.Put(sess)
	s.logger.Info("session %s ingested from %s (%d rows, %d columns, %d numeric)",
		sess.ID, name, snapshot.Len(), len(snapshot.Columns), len(numeric))

	sess.Lock()
	defer sess.Unlock()
	return view(sess), nil
}

// Get returns a snapshot of the session
func (s *SessionService) Get(ctx context.Context, id core.SessionID) (*SessionView, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	sess.Lock()
	defer sess.Unlock()
	return view(sess), nil
}

// List returns every session, oldest first
func (s *SessionService) List(ctx context.Context) []*SessionView {
	sessions := s.store.List()
	out := make([]*SessionView, 0, len(sessions))
	for _, sess := range sessions {
		sess.Lock()
		out = append(out, view(sess))
		sess.Unlock()
	}
	return out
}

// Delete drops the session and its persisted audit trail
func (s *SessionService) Delete(ctx context.Context, id core.SessionID) error {
	if err := s.store.Delete(id); err != nil {
		return err
	}
	if s.repo != nil {
		if err := s.repo.DeleteSession(ctx, id); err != nil && !core.IsNotFoundError(err) {
			return errors.Wrap(err, "failed to delete persisted session")
		}
	}
	s.logger.Info("session %s deleted", id)
	return nil
}

// SetConfig layers override onto the session's cleaning configuration
func (s *SessionService) SetConfig(ctx context.Context, id core.SessionID, override cleaning.Override) (cleaning.Config, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return cleaning.Config{}, err
	}
	sess.Lock()
	defer sess.Unlock()

	sess.Config = override.Apply(sess.Config).Normalize()
	s.logger.Debug("session %s config now %+v", id, sess.Config)
	return sess.Config, nil
}

// EditCell overwrites one cell with raw text, coerced the same way as file
// input, and records the edit for the next delta pass.
func (s *SessionService) EditCell(ctx context.Context, id core.SessionID, row int, column, raw string) (cleaning.EditRecord, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return cleaning.EditRecord{}, err
	}
	sess.Lock()
	defer sess.Unlock()

	current := sess.Current
	if row < 0 || row >= current.Len() {
		return cleaning.EditRecord{}, core.NewRowOutOfRangeError(row, current.Len())
	}
	if !current.HasColumn(column) {
		return cleaning.EditRecord{}, core.NewUnknownColumnError(column)
	}

	rec := cleaning.EditRecord{
		Row:      row,
		Column:   column,
		OldValue: current.Cell(row, column),
		NewValue: dataset.Coerce(raw),
		EditedAt: time.Now().UTC(),
	}
	sess.Current = withCell(current, row, column, rec.NewValue)
	sess.Tracker = sess.Tracker.Record(rec)
	sess.Version++

	// the tracker keeps the oldest OldValue for a cell edited twice
	stored, _ := sess.Tracker.Get(rec.Key())
	return stored, nil
}

// Clean runs a pass. ModeAuto picks delta when the session has been cleaned
// before and has edits, full otherwise. Session state changes only when the
// pass and its persistence succeed.
func (s *SessionService) Clean(ctx context.Context, id core.SessionID, mode cleaning.Mode) (*CleanOutcome, error) {
	switch mode {
	case cleaning.ModeAuto, cleaning.ModeFull, cleaning.ModeDelta:
	case "":
		mode = cleaning.ModeAuto
	default:
		return nil, core.ErrUnknownCleanMode
	}

	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	sess.Lock()
	defer sess.Unlock()

	if mode == cleaning.ModeAuto {
		mode = cleaning.ModeFull
		if sess.Cleaned && !sess.Tracker.IsEmpty() {
			mode = cleaning.ModeDelta
		}
	}

	started := time.Now().UTC()
	pass := cleaner.Pass{
		Dataset: sess.Current,
		Columns: sess.Current.Columns,
		Numeric: sess.Numeric,
		Config:  sess.Config,
	}
	result, cleared := s.cleaner.Apply(pass, sess.Tracker, mode)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	imputed, clamped := result.Counts()
	run := cleaning.RunRecord{
		ID:            core.NewRunID(),
		SessionID:     sess.ID,
		Mode:          mode,
		Config:        sess.Config,
		RowsProcessed: result.RowsProcessed,
		Imputed:       imputed,
		Clamped:       clamped,
		DatasetHash:   result.Dataset.Hash(),
		StartedAt:     started,
		CompletedAt:   started.Add(result.Duration),
	}

	if s.repo != nil {
		if err := s.repo.SaveRun(ctx, run, result.Operations); err != nil {
			return nil, errors.Wrap(err, "failed to persist cleaning run")
		}
		if err := s.repo.SaveEdits(ctx, sess.ID, run.ID, sess.Tracker.Records()); err != nil {
			return nil, errors.Wrap(err, "failed to persist edits")
		}
	}

	sess.Current = result.Dataset
	sess.Tracker = cleared
	sess.Cleaned = true
	sess.Version++
	sess.LastRun = &run
	sess.LastOperations = result.Operations
	s.logger.Debug("session %s: %s pass over %d rows, %d imputed, %d clamped (hash %s)", sess.ID, mode, run.RowsProcessed, imputed, clamped, run.DatasetHash.Short())

	s.metrics.ObserveCleanPass(string(mode), imputed, clamped, result.Duration)
	return &CleanOutcome{Run: run, Operations: result.Operations, Baselines: result.Baselines}, nil
}

// Statistics computes weighted summaries of the current dataset. A nil
// config uses the service defaults.
func (s *SessionService) Statistics(ctx context.Context, id core.SessionID, cfg *stats.WeightConfig) (*stats.Snapshot, error) {
	weights := s.weights
	if cfg != nil {
		weights = *cfg
	}

	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	sess.Lock()
	defer sess.Unlock()

	current := sess.Current
	snapshot := &stats.Snapshot{
		SessionID:      sess.ID,
		DatasetVersion: sess.Version,
		DatasetHash:    current.Hash(),
		Weights:        weights,
		Summaries:      weighting.ComputeWeightedStatistics(current, current.Columns, weights),
		ComputedAt:     time.Now().UTC(),
	}

	if s.repo != nil {
		if err := s.repo.SaveSummaries(ctx, *snapshot); err != nil {
			return nil, errors.Wrap(err, "failed to persist summaries")
		}
	}

	sess.LastSnapshot = snapshot
	s.metrics.ObserveWeighting()
	s.logger.Debug("session %s: %d columns summarized at version %d", id, len(snapshot.Summaries), snapshot.DatasetVersion)
	return snapshot, nil
}

// Export writes the current dataset through w
func (s *SessionService) Export(ctx context.Context, id core.SessionID, out io.Writer, w ports.DatasetWriter) error {
	sess, err := s.store.Get(id)
	if err != nil {
		return err
	}
	sess.Lock()
	current := sess.Current
	sess.Unlock()

	return w.Write(ctx, out, current)
}

// withCell returns a copy of ds sharing every row except the edited one
func withCell(ds *dataset.Dataset, row int, column string, v dataset.Value) *dataset.Dataset {
	rows := make([]dataset.Row, len(ds.Rows))
	copy(rows, ds.Rows)

	edited := make(dataset.Row, len(rows[row])+1)
	for k, val := range rows[row] {
		edited[k] = val
	}
	edited[column] = v
	rows[row] = edited

	return dataset.New(ds.Columns, rows)
}

func view(sess *session.Session) *SessionView {
	return &SessionView{
		ID:             sess.ID,
		SourceName:     sess.SourceName,
		CreatedAt:      sess.CreatedAt,
		Version:        sess.Version,
		Rows:           sess.Current.Len(),
		Columns:        sess.Current.Columns,
		NumericColumns: sess.Numeric.Sorted(),
		Config:         sess.Config,
		Cleaned:        sess.Cleaned,
		PendingEdits:   sess.Tracker.Records(),
		LastRun:        sess.LastRun,
		Operations:     sess.LastOperations,
		Statistics:     sess.LastSnapshot,
		Dataset:        sess.Current,
	}
}
