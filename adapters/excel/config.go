package excel

// ReaderConfig controls how workbooks and CSV files are read
type ReaderConfig struct {
	// SheetName is read from workbooks; empty means the first sheet
	SheetName string `json:"sheet_name" yaml:"sheet_name"`
	// Comma is the CSV field delimiter
	Comma rune `json:"comma" yaml:"comma"`
	// SkipBlankRows drops rows whose cells are all empty
	SkipBlankRows bool `json:"skip_blank_rows" yaml:"skip_blank_rows"`
}

// DefaultReaderConfig returns sensible defaults for survey exports
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{
		Comma:         ',',
		SkipBlankRows: true,
	}
}

// WriterConfig controls exported files
type WriterConfig struct {
	Format    Format `json:"format" yaml:"format"`
	SheetName string `json:"sheet_name" yaml:"sheet_name"`
}

// DefaultWriterConfig exports CSV
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{Format: FormatCSV, SheetName: "Sheet1"}
}
