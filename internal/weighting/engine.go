// Package weighting computes weighted means with standard errors and 95%
// margins of error for the numeric columns of a cleaned dataset.
package weighting

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"surveyclean/domain/dataset"
	"surveyclean/domain/stats"
	"surveyclean/internal/cleaning"
)

// ComputeWeightedStatistics summarizes every numeric column in columns except
// the weight column. Rows whose value does not parse are excluded; a row whose
// weight does not parse weighs 1. Columns with no qualifying rows, or whose
// weights sum to zero, are left out of the result.
func ComputeWeightedStatistics(ds *dataset.Dataset, columns []string, cfg stats.WeightConfig) stats.Summaries {
	summaries := make(stats.Summaries)
	numeric := cleaning.ClassifyNumericColumns(ds, columns)
	weighted := usableWeightColumn(ds, cfg.WeightColumn)

	for _, column := range columns {
		if column == cfg.WeightColumn || !numeric.Has(column) {
			continue
		}
		if _, done := summaries[column]; done {
			continue
		}

		values, weights := collect(ds, column, cfg.WeightColumn, weighted)
		if summary, ok := summarize(values, weights, cfg.ComputeMarginOfError); ok {
			summaries[column] = summary
		}
	}
	return summaries
}

// usableWeightColumn reports whether the configured weight column exists and
// is numeric on this dataset
func usableWeightColumn(ds *dataset.Dataset, weightColumn string) bool {
	if weightColumn == "" || !ds.HasColumn(weightColumn) {
		return false
	}
	return cleaning.ClassifyNumericColumns(ds, []string{weightColumn}).Has(weightColumn)
}

func collect(ds *dataset.Dataset, column, weightColumn string, weighted bool) (values, weights []float64) {
	values = make([]float64, 0, ds.Len())
	weights = make([]float64, 0, ds.Len())
	for _, row := range ds.Rows {
		v, ok := row.Get(column).Float64()
		if !ok {
			continue
		}
		w := 1.0
		if weighted {
			if parsed, ok := row.Get(weightColumn).Float64(); ok {
				w = parsed
			}
		}
		values = append(values, v)
		weights = append(weights, w)
	}
	return values, weights
}

func summarize(values, weights []float64, withMargin bool) (stats.StatisticalSummary, bool) {
	if len(values) == 0 {
		return stats.StatisticalSummary{}, false
	}
	total := floats.Sum(weights)
	if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return stats.StatisticalSummary{}, false
	}

	mean, variance := stat.PopMeanVariance(values, weights)
	if variance < 0 {
		// compensated summation can leave a tiny negative residue for constant input
		variance = 0
	}
	n := len(values)
	se := math.Sqrt(variance / float64(n))

	summary := stats.StatisticalSummary{
		Mean:          mean,
		StandardError: se,
		SampleSize:    n,
		TotalWeight:   total,
	}
	if withMargin {
		summary.MarginOfError = stats.ZCritical95 * se
	}
	return summary, true
}
