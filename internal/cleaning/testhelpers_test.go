package cleaning

import (
	"math"

	"surveyclean/domain/dataset"
	"surveyclean/internal"
)

type fixedNoise float64

func (f fixedNoise) Float64() float64 { return float64(f) }

func numbers(column string, values ...float64) *dataset.Dataset {
	rows := make([]dataset.Row, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			rows[i] = dataset.Row{column: dataset.NewMissingValue()}
			continue
		}
		rows[i] = dataset.Row{column: dataset.NewNumericValue(v)}
	}
	return dataset.New([]string{column}, rows)
}

func column(ds *dataset.Dataset, name string) []float64 {
	out := make([]float64, ds.Len())
	for i, row := range ds.Rows {
		n, ok := row.Get(name).Float64()
		if !ok {
			n = math.NaN()
		}
		out[i] = n
	}
	return out
}

func newTestCleaner() *Cleaner {
	return NewCleaner(fixedNoise(0.5), internal.NewNopLogger())
}
