package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"surveyclean/domain/dataset"
	"surveyclean/internal"
	"surveyclean/ports"

	"github.com/xuri/excelize/v2"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	config ReaderConfig
	logger *internal.Logger
}

var _ ports.DatasetReader = (*DataReader)(nil)

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(config ReaderConfig, logger *internal.Logger) *DataReader {
	if config.Comma == 0 {
		config.Comma = ','
	}
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &DataReader{config: config, logger: logger}
}

// Read parses the file named name from r. The format comes from the
// extension; cells are coerced into typed values.
func (r *DataReader) Read(ctx context.Context, name string, src io.Reader) (*dataset.Dataset, error) {
	format, err := FormatFromName(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	var rows [][]string
	switch format {
	case FormatCSV:
		rows, err = r.readCSV(src)
	case FormatXLSX:
		rows, err = r.readExcel(src)
	}
	if err != nil {
		return nil, err
	}

	table, err := r.processRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	r.logger.Debug("[DataReader] %s read in %.2fms (%d columns, %d rows)",
		name, float64(time.Since(start).Nanoseconds())/1e6, len(table.Headers), len(table.Rows))

	return toDataset(table), nil
}

// readExcel reads the configured sheet, or the first one
func (r *DataReader) readExcel(src io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := r.config.SheetName
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheet, err)
	}
	return rows, nil
}

func (r *DataReader) readCSV(src io.Reader) ([][]string, error) {
	reader := csv.NewReader(src)
	reader.Comma = r.config.Comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// processRows converts raw string rows into a RawTable
func (r *DataReader) processRows(rows [][]string) (*RawTable, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("file must have a header row")
	}

	headers := normalizeHeaders(rows[0])
	table := &RawTable{Headers: headers, Rows: make([]RawRowData, 0, len(rows)-1)}

	for _, row := range rows[1:] {
		if r.config.SkipBlankRows && isBlank(row) {
			continue
		}
		rowData := make(RawRowData, len(headers))
		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = cell
			}
		}
		table.Rows = append(table.Rows, rowData)
	}
	return table, nil
}

// normalizeHeaders trims names, fills blanks positionally and suffixes duplicates
func normalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		headers[i] = name
	}
	return headers
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// toDataset coerces every cell; cells a short row lacks become absent
func toDataset(table *RawTable) *dataset.Dataset {
	rows := make([]dataset.Row, len(table.Rows))
	for i, raw := range table.Rows {
		row := make(dataset.Row, len(table.Headers))
		for _, h := range table.Headers {
			row[h] = dataset.Coerce(raw[h])
		}
		rows[i] = row
	}
	return dataset.New(table.Headers, rows)
}
