package cleaning

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"surveyclean/domain/dataset"
)

func TestClassifyNumericColumns(t *testing.T) {
	ds := dataset.New([]string{"age", "half", "name", "textnum"}, []dataset.Row{
		{"age": dataset.NewNumericValue(30), "half": dataset.NewNumericValue(1), "name": dataset.NewStringValue("a"), "textnum": dataset.NewStringValue("5")},
		{"age": dataset.NewNumericValue(31), "half": dataset.NewNumericValue(2), "name": dataset.NewStringValue("b"), "textnum": dataset.NewStringValue("6")},
		{"age": dataset.NewMissingValue(), "half": dataset.NewStringValue("x"), "name": dataset.NewStringValue("c"), "textnum": dataset.NewStringValue("seven")},
		{"age": dataset.NewNumericValue(33), "name": dataset.NewNumericValue(4), "textnum": dataset.NewStringValue("8")},
	})

	got := ClassifyNumericColumns(ds, ds.Columns)

	assert.True(t, got.Has("age"), "3 of 4 parse")
	assert.False(t, got.Has("half"), "exactly half is not a majority")
	assert.False(t, got.Has("name"))
	assert.True(t, got.Has("textnum"), "numeric text counts as numeric")
}

func TestClassifyOnlyRequestedColumns(t *testing.T) {
	ds := numbers("a", 1, 2, 3)
	got := ClassifyNumericColumns(ds, []string{"b"})
	assert.Empty(t, got)
}

func TestClassifyEmptyDataset(t *testing.T) {
	ds := dataset.New([]string{"a"}, nil)
	assert.Empty(t, ClassifyNumericColumns(ds, ds.Columns))
}
