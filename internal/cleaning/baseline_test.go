package cleaning

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyclean/domain/cleaning"
	"surveyclean/domain/dataset"
)

func TestBuildBaseline(t *testing.T) {
	ds := numbers("score", 8, 7, 6, 5, math.NaN(), 4, 3, 2, 1)

	baselines := BuildBaseline(ds, cleaning.NewColumnSet("score"))
	require.Contains(t, baselines, "score")

	b := baselines["score"]
	assert.Equal(t, 8, b.Count)
	assert.Equal(t, 4.5, b.Mean)
	assert.Equal(t, 4.5, b.Median)
	assert.InDelta(t, math.Sqrt(5.25), b.StdDev, 1e-12)
	assert.Equal(t, 2.5, b.Q1)
	assert.Equal(t, 6.5, b.Q3)
	assert.Equal(t, 4.0, b.IQR)
}

func TestBuildBaselineSkipsColumnsWithoutValues(t *testing.T) {
	ds := dataset.New([]string{"empty"}, []dataset.Row{
		{"empty": dataset.NewMissingValue()},
		{"empty": dataset.NewStringValue("n/a")},
	})

	baselines := BuildBaseline(ds, cleaning.NewColumnSet("empty"))
	assert.NotContains(t, baselines, "empty")
}

func TestColumnValuesSkipsNonNumeric(t *testing.T) {
	ds := dataset.New([]string{"x"}, []dataset.Row{
		{"x": dataset.NewNumericValue(1)},
		{"x": dataset.NewStringValue("2")},
		{"x": dataset.NewStringValue("two")},
		{},
		{"x": dataset.NewNumericValue(math.Inf(1))},
	})
	assert.Equal(t, []float64{1, 2}, ColumnValues(ds, "x"))
}
