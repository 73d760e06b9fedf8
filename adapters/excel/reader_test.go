package excel

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"surveyclean/domain/core"
	"surveyclean/domain/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSVCoercesCells(t *testing.T) {
	input := "id, age ,city\n1,20,Lisbon\n2,,Porto\n3,n/a\n\n4,1e2,\n"
	r := NewDataReader(DefaultReaderConfig(), nil)

	ds, err := r.Read(context.Background(), "wave1.CSV", strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "age", "city"}, ds.Columns)
	require.Equal(t, 4, ds.Len(), "the blank line is skipped")

	assert.True(t, ds.Cell(0, "age").IsNumeric())
	assert.Equal(t, 20.0, ds.Cell(0, "age").Num)
	assert.True(t, ds.Cell(1, "age").IsMissing())
	assert.Equal(t, dataset.NewStringValue("n/a"), ds.Cell(2, "age"))
	assert.True(t, ds.Cell(2, "city").IsMissing(), "short rows pad with absent cells")
	assert.Equal(t, 100.0, ds.Cell(3, "age").Num)
	assert.Equal(t, "Lisbon", ds.Cell(0, "city").Str)

	for _, row := range ds.Rows {
		assert.Len(t, row, 3, "every row carries the full column set")
	}
}

func TestReadRejectsUnknownExtension(t *testing.T) {
	r := NewDataReader(DefaultReaderConfig(), nil)
	_, err := r.Read(context.Background(), "data.json", strings.NewReader("{}"))
	assert.ErrorIs(t, err, core.ErrUnsupportedFormat)
}

func TestReadEmptyCSV(t *testing.T) {
	r := NewDataReader(DefaultReaderConfig(), nil)
	_, err := r.Read(context.Background(), "empty.csv", strings.NewReader(""))
	assert.Error(t, err)
}

func TestReadHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDataReader(DefaultReaderConfig(), nil).Read(ctx, "a.csv", strings.NewReader("a\n1\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalizeHeaders(t *testing.T) {
	got := normalizeHeaders([]string{"\ufeffid", "score", "", "score"})
	assert.Equal(t, []string{"id", "score", "column_3", "score_2"}, got)
}

func TestReadSemicolonCSV(t *testing.T) {
	cfg := DefaultReaderConfig()
	cfg.Comma = ';'
	ds, err := NewDataReader(cfg, nil).Read(context.Background(), "eu.csv", strings.NewReader("a;b\n1;2\n"))
	require.NoError(t, err)
	assert.Equal(t, 2.0, ds.Cell(0, "b").Num)
}

func TestReadWorkbookFirstSheet(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"q1", "q2"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{5, "yes"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{7.5}))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	ds, err := NewDataReader(DefaultReaderConfig(), nil).Read(context.Background(), "survey.xlsx", &buf)
	require.NoError(t, err)

	assert.Equal(t, []string{"q1", "q2"}, ds.Columns)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, 5.0, ds.Cell(0, "q1").Num)
	assert.Equal(t, "yes", ds.Cell(0, "q2").Str)
	assert.Equal(t, 7.5, ds.Cell(1, "q1").Num)
	assert.True(t, ds.Cell(1, "q2").IsMissing())
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = FormatFromName("out/clean.csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)
	assert.Equal(t, "text/csv", f.ContentType())

	_, err = ParseFormat("parquet")
	assert.ErrorIs(t, err, core.ErrUnsupportedFormat)
}
