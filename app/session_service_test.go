package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"testing"

	"surveyclean/domain/cleaning"
	"surveyclean/domain/core"
	"surveyclean/domain/dataset"
	"surveyclean/domain/stats"
	"surveyclean/internal"
	cleaner "surveyclean/internal/cleaning"
	"surveyclean/internal/metrics"
	"surveyclean/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) SaveSession(ctx context.Context, rec ports.SessionRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRunRepository) SaveRun(ctx context.Context, run cleaning.RunRecord, ops []cleaning.Operation) error {
	args := m.Called(ctx, run, ops)
	return args.Error(0)
}

func (m *MockRunRepository) SaveEdits(ctx context.Context, sessionID core.SessionID, runID core.RunID, edits []cleaning.EditRecord) error {
	args := m.Called(ctx, sessionID, runID, edits)
	return args.Error(0)
}

func (m *MockRunRepository) SaveSummaries(ctx context.Context, snapshot stats.Snapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockRunRepository) ListRuns(ctx context.Context, sessionID core.SessionID) ([]cleaning.RunRecord, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]cleaning.RunRecord), args.Error(1)
}

func (m *MockRunRepository) DeleteSession(ctx context.Context, sessionID core.SessionID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

type fixedNoise float64

func (f fixedNoise) Float64() float64 { return float64(f) }

type captureWriter struct{ got *dataset.Dataset }

func (w *captureWriter) Write(ctx context.Context, out io.Writer, ds *dataset.Dataset) error {
	w.got = ds
	_, err := io.WriteString(out, "ok")
	return err
}

func newService(repo ports.RunRepository) *SessionService {
	logger := internal.NewNopLogger()
	return NewSessionService(SessionServiceOptions{
		Cleaner:    cleaner.NewCleaner(fixedNoise(0.5), logger),
		Repository: repo,
		Metrics:    metrics.New(),
		Defaults:   cleaning.Config{MissingValueMethod: cleaning.MissingMedian, OutlierMethod: cleaning.OutlierIQR, OutlierThreshold: 1.5},
		Weights:    stats.WeightConfig{WeightColumn: "wt", ComputeMarginOfError: true},
		Logger:     logger,
	})
}

func ages(values ...float64) *dataset.Dataset {
	rows := make([]dataset.Row, len(values))
	for i, v := range values {
		cell := dataset.NewNumericValue(v)
		if math.IsNaN(v) {
			cell = dataset.NewMissingValue()
		}
		rows[i] = dataset.Row{"age": cell, "city": dataset.NewStringValue("x")}
	}
	return dataset.New([]string{"age", "city"}, rows)
}

func ageColumn(t *testing.T, ds *dataset.Dataset) []float64 {
	t.Helper()
	out := make([]float64, ds.Len())
	for i := range ds.Rows {
		n, ok := ds.Cell(i, "age").Float64()
		require.True(t, ok, "row %d", i)
		out[i] = n
	}
	return out
}

func TestIngestRejectsEmptyDataset(t *testing.T) {
	svc := newService(nil)
	_, err := svc.Ingest(context.Background(), "empty.csv", dataset.New([]string{"a"}, nil))
	assert.ErrorIs(t, err, core.ErrEmptyDataset)
}

func TestIngestFreezesNumericColumns(t *testing.T) {
	svc := newService(nil)
	ds := ages(20, 22, 20, 22, 20, 22, math.NaN(), 200)

	v, err := svc.Ingest(context.Background(), "wave1.csv", ds)
	require.NoError(t, err)

	assert.Equal(t, []string{"age"}, v.NumericColumns)
	assert.Equal(t, 8, v.Rows)
	assert.Equal(t, 1, v.Version)
	assert.False(t, v.Cleaned)
	assert.Empty(t, v.PendingEdits)

	ds.Rows[0]["age"] = dataset.NewNumericValue(-1)
	got, err := svc.Get(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, 20.0, got.Dataset.Cell(0, "age").Num, "the session owns its own copy")
}

func TestCleanAutoThenDeltaWorkflow(t *testing.T) {
	ctx := context.Background()
	svc := newService(nil)
	v, err := svc.Ingest(ctx, "wave1.csv", ages(20, 22, 20, 22, 20, 22, math.NaN(), 200))
	require.NoError(t, err)

	first, err := svc.Clean(ctx, v.ID, cleaning.ModeAuto)
	require.NoError(t, err)
	assert.Equal(t, cleaning.ModeFull, first.Run.Mode)
	assert.Equal(t, 8, first.Run.RowsProcessed)
	assert.Equal(t, 1, first.Run.Imputed)
	assert.Equal(t, 1, first.Run.Clamped)

	cleaned, err := svc.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, []float64{20, 22, 20, 22, 20, 22, 22, 25}, ageColumn(t, cleaned.Dataset))
	assert.True(t, cleaned.Cleaned)
	assert.Equal(t, 2, cleaned.Version)

	rec, err := svc.EditCell(ctx, v.ID, 0, "age", "500")
	require.NoError(t, err)
	assert.Equal(t, 20.0, rec.OldValue.Num)
	assert.Equal(t, 500.0, rec.NewValue.Num)

	second, err := svc.Clean(ctx, v.ID, cleaning.ModeAuto)
	require.NoError(t, err)
	assert.Equal(t, cleaning.ModeDelta, second.Run.Mode)
	assert.Equal(t, 1, second.Run.RowsProcessed)

	// baselines over 500,22,20,22,20,22,22,25: Q1 21, Q3 23.5, upper bound 27.25
	after, err := svc.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, []float64{27.25, 22, 20, 22, 20, 22, 22, 25}, ageColumn(t, after.Dataset))
	assert.Empty(t, after.PendingEdits, "a successful pass clears the tracker")
	assert.Equal(t, 4, after.Version)

	third, err := svc.Clean(ctx, v.ID, cleaning.ModeAuto)
	require.NoError(t, err)
	assert.Equal(t, cleaning.ModeFull, third.Run.Mode, "no pending edits means a full pass")
}

func TestExplicitDeltaWithoutEdits(t *testing.T) {
	ctx := context.Background()
	svc := newService(nil)
	v, err := svc.Ingest(ctx, "a.csv", ages(1, 2, 3))
	require.NoError(t, err)

	out, err := svc.Clean(ctx, v.ID, cleaning.ModeDelta)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Run.RowsProcessed)
	assert.Empty(t, out.Operations)
}

func TestCleanRejectsUnknownMode(t *testing.T) {
	svc := newService(nil)
	v, err := svc.Ingest(context.Background(), "a.csv", ages(1, 2, 3))
	require.NoError(t, err)

	_, err = svc.Clean(context.Background(), v.ID, cleaning.Mode("partial"))
	assert.ErrorIs(t, err, core.ErrUnknownCleanMode)
}

func TestEditCellPreconditions(t *testing.T) {
	ctx := context.Background()
	svc := newService(nil)
	v, err := svc.Ingest(ctx, "a.csv", ages(1, 2, 3))
	require.NoError(t, err)

	_, err = svc.EditCell(ctx, v.ID, 3, "age", "1")
	assert.ErrorIs(t, err, core.ErrRowOutOfRange)
	_, err = svc.EditCell(ctx, v.ID, -1, "age", "1")
	assert.ErrorIs(t, err, core.ErrRowOutOfRange)
	_, err = svc.EditCell(ctx, v.ID, 0, "height", "1")
	assert.ErrorIs(t, err, core.ErrUnknownColumn)
	_, err = svc.EditCell(ctx, core.NewSessionID(), 0, "age", "1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRepeatedEditKeepsFirstOldValue(t *testing.T) {
	ctx := context.Background()
	svc := newService(nil)
	v, err := svc.Ingest(ctx, "a.csv", ages(1, 2, 3))
	require.NoError(t, err)

	_, err = svc.EditCell(ctx, v.ID, 1, "age", "7")
	require.NoError(t, err)
	rec, err := svc.EditCell(ctx, v.ID, 1, "age", "")
	require.NoError(t, err)

	assert.Equal(t, 2.0, rec.OldValue.Num)
	assert.True(t, rec.NewValue.IsMissing(), "blank edits become absent")

	got, err := svc.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Len(t, got.PendingEdits, 1)
	assert.True(t, got.Dataset.Cell(1, "age").IsMissing())
}

func TestEditDoesNotMutateEarlierSnapshots(t *testing.T) {
	ctx := context.Background()
	svc := newService(nil)
	v, err := svc.Ingest(ctx, "a.csv", ages(1, 2, 3))
	require.NoError(t, err)

	before, err := svc.Get(ctx, v.ID)
	require.NoError(t, err)
	_, err = svc.EditCell(ctx, v.ID, 0, "city", "Porto")
	require.NoError(t, err)

	assert.Equal(t, "x", before.Dataset.Cell(0, "city").Str)
}

func TestSetConfigNormalizes(t *testing.T) {
	svc := newService(nil)
	v, err := svc.Ingest(context.Background(), "a.csv", ages(1, 2, 3))
	require.NoError(t, err)

	method := cleaning.OutlierMethod("zscore")
	threshold := -2.0
	cfg, err := svc.SetConfig(context.Background(), v.ID, cleaning.Override{OutlierMethod: &method, OutlierThreshold: &threshold})
	require.NoError(t, err)

	assert.Equal(t, cleaning.OutlierZScore, cfg.OutlierMethod)
	assert.Equal(t, cleaning.DefaultOutlierThreshold, cfg.OutlierThreshold)
	assert.Equal(t, cleaning.MissingMedian, cfg.MissingValueMethod)
}

func TestStatisticsUsesDefaultsAndOverride(t *testing.T) {
	ctx := context.Background()
	svc := newService(nil)
	ds := dataset.New([]string{"score", "wt"}, []dataset.Row{
		{"score": dataset.NewNumericValue(10), "wt": dataset.NewNumericValue(1)},
		{"score": dataset.NewNumericValue(20), "wt": dataset.NewNumericValue(3)},
	})
	v, err := svc.Ingest(ctx, "s.csv", ds)
	require.NoError(t, err)

	snap, err := svc.Statistics(ctx, v.ID, nil)
	require.NoError(t, err)
	assert.InDelta(t, 17.5, snap.Summaries["score"].Mean, 1e-12)
	assert.NotContains(t, snap.Summaries, "wt")
	assert.Equal(t, 1, snap.DatasetVersion)
	assert.Greater(t, snap.Summaries["score"].MarginOfError, 0.0)

	snap, err = svc.Statistics(ctx, v.ID, &stats.WeightConfig{})
	require.NoError(t, err)
	assert.InDelta(t, 15.0, snap.Summaries["score"].Mean, 1e-12)
	assert.Zero(t, snap.Summaries["score"].MarginOfError)
	assert.Contains(t, snap.Summaries, "wt")

	got, err := svc.Get(ctx, v.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Statistics)
	assert.Equal(t, snap.DatasetHash, got.Statistics.DatasetHash)
}

func TestPersistenceIsCalled(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRunRepository)
	repo.On("SaveSession", ctx, mock.MatchedBy(func(rec ports.SessionRecord) bool {
		return rec.SourceName == "a.csv" && rec.RowCount == 3 && len(rec.NumericColumns) == 1
	})).Return(nil)
	repo.On("SaveRun", ctx, mock.AnythingOfType("cleaning.RunRecord"), mock.Anything).Return(nil)
	repo.On("SaveEdits", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	repo.On("SaveSummaries", ctx, mock.AnythingOfType("stats.Snapshot")).Return(nil)
	repo.On("DeleteSession", ctx, mock.Anything).Return(core.ErrNotFound)

	svc := newService(repo)
	v, err := svc.Ingest(ctx, "a.csv", ages(1, 2, 3))
	require.NoError(t, err)
	_, err = svc.Clean(ctx, v.ID, cleaning.ModeFull)
	require.NoError(t, err)
	_, err = svc.Statistics(ctx, v.ID, nil)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, v.ID), "a session never persisted is not an error")

	repo.AssertExpectations(t)
	_, err = svc.Get(ctx, v.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestFailedPersistenceLeavesSessionUnchanged(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRunRepository)
	repo.On("SaveSession", ctx, mock.Anything).Return(nil)
	repo.On("SaveRun", ctx, mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	svc := newService(repo)
	v, err := svc.Ingest(ctx, "a.csv", ages(1, 2, 3))
	require.NoError(t, err)
	_, err = svc.EditCell(ctx, v.ID, 0, "age", "9")
	require.NoError(t, err)

	_, err = svc.Clean(ctx, v.ID, cleaning.ModeFull)
	require.Error(t, err)

	got, err := svc.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.False(t, got.Cleaned)
	assert.Len(t, got.PendingEdits, 1, "edits survive a failed pass")
	assert.Equal(t, 2, got.Version)
	assert.Nil(t, got.LastRun)
}

func TestExportWritesCurrentDataset(t *testing.T) {
	ctx := context.Background()
	svc := newService(nil)
	v, err := svc.Ingest(ctx, "a.csv", ages(1, 2, 3))
	require.NoError(t, err)

	w := &captureWriter{}
	var buf bytes.Buffer
	require.NoError(t, svc.Export(ctx, v.ID, &buf, w))
	assert.Equal(t, "ok", buf.String())
	assert.Equal(t, 3, w.got.Len())
}

func TestListOrdersSessions(t *testing.T) {
	ctx := context.Background()
	svc := newService(nil)
	_, err := svc.Ingest(ctx, "a.csv", ages(1))
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, "b.csv", ages(2))
	require.NoError(t, err)

	assert.Len(t, svc.List(ctx), 2)
}
