package cleaning

import (
	"slices"
	"time"

	"surveyclean/domain/cleaning"
	"surveyclean/domain/dataset"
	"surveyclean/internal"
	"surveyclean/ports"
)

// Pass describes one cleaning computation
type Pass struct {
	// Dataset is the reference snapshot; it is never mutated
	Dataset *dataset.Dataset
	// Columns limits which columns are considered
	Columns []string
	// Numeric overrides classification, e.g. with the set frozen at ingestion.
	// Nil classifies Dataset.
	Numeric cleaning.ColumnSet
	Config  cleaning.Config
	// Rows restricts the pass to these indices; nil means every row
	Rows []int
}

// Result is the outcome of a pass
type Result struct {
	Mode          cleaning.Mode
	Dataset       *dataset.Dataset
	Baselines     cleaning.Baselines
	Operations    []cleaning.Operation
	RowsProcessed int
	Duration      time.Duration
}

// Counts returns the number of imputed and clamped cells
func (r *Result) Counts() (imputed, clamped int) {
	for _, op := range r.Operations {
		switch op.Kind {
		case cleaning.OperationImputed:
			imputed++
		case cleaning.OperationClamped:
			clamped++
		}
	}
	return imputed, clamped
}

// Cleaner runs full and delta passes
type Cleaner struct {
	noise  ports.NoiseSource
	logger *internal.Logger
}

// NewCleaner creates a cleaner. Nil arguments fall back to DefaultNoise and
// internal.DefaultLogger.
func NewCleaner(noise ports.NoiseSource, logger *internal.Logger) *Cleaner {
	if noise == nil {
		noise = DefaultNoise()
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Cleaner{noise: noise, logger: logger}
}

// CleanFull cleans every row of a copy of ds, with baselines taken from ds
func (c *Cleaner) CleanFull(ds *dataset.Dataset, columns []string, config cleaning.Config) *dataset.Dataset {
	return c.Run(Pass{Dataset: ds, Columns: columns, Config: config}).Dataset
}

// CleanDelta cleans only rows of a copy of ds. Baselines still come from the
// whole of ds, which is normally the already-cleaned snapshot rather than the
// raw import. Other rows pass through unchanged.
func (c *Cleaner) CleanDelta(ds *dataset.Dataset, columns []string, config cleaning.Config, rows []int) *dataset.Dataset {
	if rows == nil {
		rows = []int{}
	}
	return c.Run(Pass{Dataset: ds, Columns: columns, Config: config, Rows: rows}).Dataset
}

// Run executes a pass. The baseline is frozen from p.Dataset before any row of
// the copy is touched.
func (c *Cleaner) Run(p Pass) *Result {
	start := time.Now()
	mode := cleaning.ModeFull
	if p.Rows != nil {
		mode = cleaning.ModeDelta
	}

	numeric := p.Numeric
	if numeric == nil {
		numeric = ClassifyNumericColumns(p.Dataset, p.Columns)
	}
	columns := make([]string, 0, len(p.Columns))
	for _, column := range p.Columns {
		if numeric.Has(column) && !slices.Contains(columns, column) {
			columns = append(columns, column)
		}
	}

	baselines := BuildBaseline(p.Dataset, cleaning.NewColumnSet(columns...))
	for _, column := range columns {
		if b, ok := baselines[column]; ok {
			c.logger.Debug("baseline %s: mean=%.4f median=%.4f sd=%.4f q1=%.4f q3=%.4f n=%d",
				column, b.Mean, b.Median, b.StdDev, b.Q1, b.Q3, b.Count)
		} else {
			c.logger.Debug("baseline %s: no valid values, column left untouched", column)
		}
	}

	out := p.Dataset.Clone()
	rc := NewRowCleaner(p.Config, c.noise)

	result := &Result{Mode: mode, Dataset: out, Baselines: baselines}
	for _, index := range c.rowIndices(p, out.Len()) {
		if out.Rows[index] == nil {
			out.Rows[index] = make(dataset.Row, len(columns))
		}
		ops := rc.CleanRow(index, out.Rows[index], columns, baselines)
		result.Operations = append(result.Operations, ops...)
		result.RowsProcessed++
	}
	result.Duration = time.Since(start)

	imputed, clamped := result.Counts()
	c.logger.Info("%s clean finished: rows=%d columns=%d imputed=%d clamped=%d in %s",
		mode, result.RowsProcessed, len(columns), imputed, clamped, result.Duration)
	return result
}

// rowIndices returns the rows to clean in ascending order without duplicates
func (c *Cleaner) rowIndices(p Pass, rowCount int) []int {
	if p.Rows == nil {
		all := make([]int, rowCount)
		for i := range all {
			all[i] = i
		}
		return all
	}

	indices := make([]int, 0, len(p.Rows))
	for _, i := range p.Rows {
		if i < 0 || i >= rowCount {
			c.logger.Warn("delta clean: skipping row %d outside dataset of %d rows", i, rowCount)
			continue
		}
		indices = append(indices, i)
	}
	slices.Sort(indices)
	return slices.Compact(indices)
}

// Apply runs a pass scoped by tracker and returns the result with an emptied
// tracker. ModeDelta cleans tracker.Rows(); any other mode cleans every row.
// The caller swaps in both return values only once Apply has returned.
func (c *Cleaner) Apply(p Pass, tracker EditTracker, mode cleaning.Mode) (*Result, EditTracker) {
	if mode == cleaning.ModeDelta {
		p.Rows = tracker.Rows()
	} else {
		p.Rows = nil
	}
	return c.Run(p), tracker.Clear()
}
