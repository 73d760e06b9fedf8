package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"surveyclean/domain/dataset"
	"surveyclean/ports"

	"github.com/xuri/excelize/v2"
)

// DataWriter exports datasets as CSV or XLSX. Absent cells are written empty.
type DataWriter struct {
	config WriterConfig
}

var _ ports.DatasetWriter = (*DataWriter)(nil)

// NewDataWriter creates a writer for the configured format
func NewDataWriter(config WriterConfig) *DataWriter {
	if config.Format == "" {
		config.Format = FormatCSV
	}
	if config.SheetName == "" {
		config.SheetName = "Sheet1"
	}
	return &DataWriter{config: config}
}

// Write renders ds to w without modifying it
func (w *DataWriter) Write(ctx context.Context, out io.Writer, ds *dataset.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch w.config.Format {
	case FormatCSV:
		return writeCSV(out, ds)
	case FormatXLSX:
		return w.writeExcel(out, ds)
	}
	return fmt.Errorf("export as %q: unsupported format", w.config.Format)
}

func writeCSV(out io.Writer, ds *dataset.Dataset) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(ds.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	record := make([]string, len(ds.Columns))
	for _, row := range ds.Rows {
		for j, c := range ds.Columns {
			record[j] = row.Get(c).String()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (w *DataWriter) writeExcel(out io.Writer, ds *dataset.Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := w.config.SheetName
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return fmt.Errorf("failed to name sheet: %w", err)
		}
	}

	header := make([]interface{}, len(ds.Columns))
	for j, c := range ds.Columns {
		header[j] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range ds.Rows {
		cells := make([]interface{}, len(ds.Columns))
		for j, c := range ds.Columns {
			cells[j] = cellValue(row.Get(c))
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, axis, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// cellValue keeps numbers numeric in the workbook
func cellValue(v dataset.Value) interface{} {
	if n, ok := v.Float64(); ok && v.IsNumeric() {
		return n
	}
	if v.IsMissing() {
		return nil
	}
	return v.String()
}
