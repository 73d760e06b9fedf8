// Package cleaning runs missing-value imputation and outlier correction over
// a dataset snapshot, either over every row or over the rows touched by
// manual edits since the previous pass.
package cleaning

import (
	"surveyclean/domain/cleaning"
	"surveyclean/domain/dataset"
)

// numericMajority is the share of rows that must parse before a column counts as numeric
const numericMajority = 0.5

// ClassifyNumericColumns returns the columns where more than half of the rows
// hold a finite number. Absent and blank cells count against the column.
func ClassifyNumericColumns(ds *dataset.Dataset, columns []string) cleaning.ColumnSet {
	numeric := make(cleaning.ColumnSet)
	rowCount := ds.Len()
	if rowCount == 0 {
		return numeric
	}

	for _, column := range columns {
		parsed := 0
		for _, row := range ds.Rows {
			if _, ok := row.Get(column).Float64(); ok {
				parsed++
			}
		}
		if float64(parsed) > numericMajority*float64(rowCount) {
			numeric[column] = struct{}{}
		}
	}
	return numeric
}
