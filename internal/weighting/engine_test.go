package weighting

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyclean/domain/dataset"
	"surveyclean/domain/stats"
)

func survey(rows ...[3]interface{}) *dataset.Dataset {
	toValue := func(v interface{}) dataset.Value {
		switch x := v.(type) {
		case nil:
			return dataset.NewMissingValue()
		case float64:
			return dataset.NewNumericValue(x)
		case int:
			return dataset.NewNumericValue(float64(x))
		case string:
			return dataset.NewStringValue(x)
		}
		panic("unsupported")
	}
	out := dataset.New([]string{"score", "wt", "region"}, nil)
	for _, r := range rows {
		out.Rows = append(out.Rows, dataset.Row{
			"score":  toValue(r[0]),
			"wt":     toValue(r[1]),
			"region": toValue(r[2]),
		})
	}
	return out
}

func TestWeightedMeanExample(t *testing.T) {
	ds := survey([3]interface{}{10, 1, "n"}, [3]interface{}{20, 3, "s"})

	got := ComputeWeightedStatistics(ds, ds.Columns, stats.WeightConfig{WeightColumn: "wt", ComputeMarginOfError: true})

	require.Contains(t, got, "score")
	s := got["score"]
	assert.InDelta(t, 17.5, s.Mean, 1e-12)
	// variance = (1*7.5^2 + 3*2.5^2) / 4 = 18.75
	assert.InDelta(t, math.Sqrt(18.75/2), s.StandardError, 1e-12)
	assert.InDelta(t, 1.96*math.Sqrt(18.75/2), s.MarginOfError, 1e-12)
	assert.Equal(t, 2, s.SampleSize)
	assert.Equal(t, 4.0, s.TotalWeight)
	assert.NotContains(t, got, "wt", "the weight column is never summarized")
	assert.NotContains(t, got, "region")
}

func TestUnitWeightsEqualArithmeticMean(t *testing.T) {
	ds := survey(
		[3]interface{}{3, nil, "a"},
		[3]interface{}{5, nil, "a"},
		[3]interface{}{10, nil, "a"},
		[3]interface{}{"n/a", nil, "a"},
	)

	got := ComputeWeightedStatistics(ds, []string{"score"}, stats.WeightConfig{ComputeMarginOfError: true})

	require.Contains(t, got, "score")
	assert.InDelta(t, 6.0, got["score"].Mean, 1e-12)
	assert.Equal(t, 3, got["score"].SampleSize)
	// population variance of {3,5,10} = 26/3
	assert.InDelta(t, math.Sqrt((26.0/3.0)/3.0), got["score"].StandardError, 1e-12)
}

func TestUnparseableWeightCountsAsOne(t *testing.T) {
	ds := survey(
		[3]interface{}{10, 1, "a"},
		[3]interface{}{20, "heavy", "a"},
		[3]interface{}{30, 2, "a"},
	)

	got := ComputeWeightedStatistics(ds, ds.Columns, stats.WeightConfig{WeightColumn: "wt"})

	// weights 1, 1, 2
	assert.InDelta(t, 90.0/4.0, got["score"].Mean, 1e-12)
	assert.Zero(t, got["score"].MarginOfError, "margin not requested")
}

func TestNonNumericWeightColumnMeansUnweighted(t *testing.T) {
	ds := survey(
		[3]interface{}{10, "x", "a"},
		[3]interface{}{20, "y", "a"},
		[3]interface{}{30, 100, "a"},
	)

	got := ComputeWeightedStatistics(ds, ds.Columns, stats.WeightConfig{WeightColumn: "wt"})
	assert.InDelta(t, 20.0, got["score"].Mean, 1e-12)
}

func TestMissingWeightColumnMeansUnweighted(t *testing.T) {
	ds := survey([3]interface{}{10, 5, "a"}, [3]interface{}{20, 1, "a"})

	got := ComputeWeightedStatistics(ds, []string{"score", "wt"}, stats.WeightConfig{WeightColumn: "weight"})

	assert.InDelta(t, 15.0, got["score"].Mean, 1e-12)
	assert.Contains(t, got, "wt", "a column that is not the configured weight is summarized")
}

func TestZeroTotalWeightOmitsColumn(t *testing.T) {
	ds := survey([3]interface{}{10, 0, "a"}, [3]interface{}{20, 0, "a"})

	got := ComputeWeightedStatistics(ds, ds.Columns, stats.WeightConfig{WeightColumn: "wt"})
	assert.Empty(t, got)
}

func TestConstantColumnHasZeroError(t *testing.T) {
	ds := survey([3]interface{}{4, 1, "a"}, [3]interface{}{4, 2, "a"}, [3]interface{}{4, 3, "a"})

	got := ComputeWeightedStatistics(ds, ds.Columns, stats.WeightConfig{WeightColumn: "wt", ComputeMarginOfError: true})
	assert.InDelta(t, 4.0, got["score"].Mean, 1e-12)
	assert.InDelta(t, 0.0, got["score"].StandardError, 1e-9)
	assert.False(t, math.IsNaN(got["score"].StandardError))
}
