package excel

import (
	"path/filepath"
	"strings"

	"surveyclean/domain/core"
)

// RawRowData represents a row of raw cell text keyed by header
type RawRowData map[string]string

// RawTable is a file's header and rows before coercion
type RawTable struct {
	Headers []string
	Rows    []RawRowData
}

// Format is a supported tabular file type
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat maps "csv" or "xlsx" (any case, optional dot) onto a Format
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "xlsm":
		return FormatXLSX, nil
	}
	return "", core.ErrUnsupportedFormat
}

// FormatFromName picks the format from a file name's extension
func FormatFromName(name string) (Format, error) {
	return ParseFormat(filepath.Ext(name))
}

// ContentType returns the MIME type served for the format
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}
