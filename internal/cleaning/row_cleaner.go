package cleaning

import (
	"math"

	"surveyclean/domain/cleaning"
	"surveyclean/domain/dataset"
	"surveyclean/ports"
)

// winsorizeSigmas is the fixed half-width of the winsorize band. It does not
// follow the configured threshold.
const winsorizeSigmas = 2.0

// simulatedNoiseScale scales the standard deviation for simulated imputation
const simulatedNoiseScale = 0.1

// RowCleaner applies imputation then outlier correction to single rows
// against a frozen set of baselines
type RowCleaner struct {
	config cleaning.Config
	noise  ports.NoiseSource
}

// NewRowCleaner creates a row cleaner. A nil noise source uses DefaultNoise.
func NewRowCleaner(config cleaning.Config, noise ports.NoiseSource) *RowCleaner {
	if noise == nil {
		noise = DefaultNoise()
	}
	return &RowCleaner{config: config.Normalize(), noise: noise}
}

// CleanRow corrects every column in columns that has a baseline, writing the
// results into row, and returns the corrections it made. Noise is drawn in the
// order of columns. row must be non-nil.
func (rc *RowCleaner) CleanRow(index int, row dataset.Row, columns []string, baselines cleaning.Baselines) []cleaning.Operation {
	var ops []cleaning.Operation
	for _, column := range columns {
		b, ok := baselines[column]
		if !ok {
			continue
		}

		original := row.Get(column)
		value, ok := original.Float64()
		if !ok {
			value = rc.Impute(b)
			imputed := dataset.NewNumericValue(value)
			row[column] = imputed
			ops = append(ops, cleaning.Operation{
				Row: index, Column: column, Kind: cleaning.OperationImputed,
				Method: string(rc.imputeMethod()), OldValue: original, NewValue: imputed,
			})
		}

		current := row.Get(column)
		if corrected, clamped := rc.CorrectOutlier(value, b); clamped {
			fixed := dataset.NewNumericValue(corrected)
			row[column] = fixed
			ops = append(ops, cleaning.Operation{
				Row: index, Column: column, Kind: cleaning.OperationClamped,
				Method: string(rc.config.OutlierMethod), OldValue: current, NewValue: fixed,
			})
		}
	}
	return ops
}

func (rc *RowCleaner) imputeMethod() cleaning.MissingValueMethod {
	switch rc.config.MissingValueMethod {
	case cleaning.MissingMedian, cleaning.MissingMultipleSimulated:
		return rc.config.MissingValueMethod
	}
	return cleaning.MissingMean
}

// Impute returns the replacement for a missing cell. Unknown methods fall back to the mean.
func (rc *RowCleaner) Impute(b cleaning.ColumnBaseline) float64 {
	switch rc.imputeMethod() {
	case cleaning.MissingMedian:
		return b.Median
	case cleaning.MissingMultipleSimulated:
		// approximation of multiple imputation: the median jittered by a tenth of a standard deviation
		return b.Median + (rc.noise.Float64()-0.5)*b.StdDev*simulatedNoiseScale
	}
	return b.Mean
}

// CorrectOutlier returns the clamped value and true when value is an outlier
// under the configured method. Unknown methods never clamp.
func (rc *RowCleaner) CorrectOutlier(value float64, b cleaning.ColumnBaseline) (float64, bool) {
	k := rc.config.OutlierThreshold

	switch rc.config.OutlierMethod {
	case cleaning.OutlierIQR:
		return clamp(value, b.Q1-k*b.IQR, b.Q3+k*b.IQR)

	case cleaning.OutlierZScore:
		// zero spread: every value equals the mean, nothing is an outlier
		if b.StdDev == 0 {
			return value, false
		}
		deviation := value - b.Mean
		if math.Abs(deviation)/b.StdDev > k {
			return b.Mean + sign(deviation)*k*b.StdDev, true
		}
		return value, false

	case cleaning.OutlierWinsorize:
		return clamp(value, b.Mean-winsorizeSigmas*b.StdDev, b.Mean+winsorizeSigmas*b.StdDev)
	}
	return value, false
}

func clamp(value, lower, upper float64) (float64, bool) {
	if value < lower {
		return lower, true
	}
	if value > upper {
		return upper, true
	}
	return value, false
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
