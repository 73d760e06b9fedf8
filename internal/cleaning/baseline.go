package cleaning

import (
	"surveyclean/domain/cleaning"
	"surveyclean/domain/dataset"
	"surveyclean/internal/descriptive"
)

// ColumnValues collects every finite number in column, skipping missing and
// non-numeric cells
func ColumnValues(ds *dataset.Dataset, column string) []float64 {
	values := make([]float64, 0, ds.Len())
	for _, row := range ds.Rows {
		if n, ok := row.Get(column).Float64(); ok {
			values = append(values, n)
		}
	}
	return values
}

// BuildBaseline computes the reference statistics of every numeric column
// from ref. Columns without a single valid value get no baseline and are left
// untouched by the pass.
func BuildBaseline(ref *dataset.Dataset, numeric cleaning.ColumnSet) cleaning.Baselines {
	baselines := make(cleaning.Baselines, len(numeric))
	for column := range numeric {
		values := ColumnValues(ref, column)
		if len(values) == 0 {
			continue
		}
		q := descriptive.ComputeQuartiles(values)
		baselines[column] = cleaning.ColumnBaseline{
			Mean:   descriptive.Mean(values),
			Median: descriptive.Median(values),
			StdDev: descriptive.StandardDeviation(values),
			Q1:     q.Q1,
			Q3:     q.Q3,
			IQR:    q.IQR,
			Count:  len(values),
		}
	}
	return baselines
}
