package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tiendc/go-deepcopy"

	"surveyclean/domain/core"
)

// ValueType defines the storage type of a cell
type ValueType string

const (
	ValueTypeNumeric ValueType = "numeric"
	ValueTypeString  ValueType = "string"
	ValueTypeMissing ValueType = "missing"
)

// Value is a tagged cell value: a number, a piece of text, or absent.
// The zero Value is absent.
type Value struct {
	Type ValueType `json:"type"`
	Num  float64   `json:"num,omitempty"`
	Str  string    `json:"str,omitempty"`
}

// NewNumericValue creates a numeric value
func NewNumericValue(n float64) Value {
	return Value{Type: ValueTypeNumeric, Num: n}
}

// NewStringValue creates a text value. Empty text is stored as missing.
func NewStringValue(s string) Value {
	if s == "" {
		return NewMissingValue()
	}
	return Value{Type: ValueTypeString, Str: s}
}

// NewMissingValue creates an absent value
func NewMissingValue() Value {
	return Value{Type: ValueTypeMissing}
}

// Coerce converts raw text arriving from a file or a manual edit into a Value:
// blank text is absent, text that parses as a finite number becomes numeric,
// everything else stays text.
func Coerce(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return NewMissingValue()
	}
	if n, ok := ParseNumber(trimmed); ok {
		return NewNumericValue(n)
	}
	return NewStringValue(raw)
}

// ParseNumber parses s as a finite float64
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// IsMissing reports whether the cell is absent
func (v Value) IsMissing() bool {
	return v.Type == ValueTypeMissing || v.Type == ""
}

// IsNumeric reports whether the cell is stored as a number
func (v Value) IsNumeric() bool {
	return v.Type == ValueTypeNumeric
}

// Float64 returns the cell as a finite number. Numeric cells holding NaN or
// Inf, absent cells and text that does not parse all report false.
func (v Value) Float64() (float64, bool) {
	switch v.Type {
	case ValueTypeNumeric:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return 0, false
		}
		return v.Num, true
	case ValueTypeString:
		return ParseNumber(v.Str)
	}
	return 0, false
}

// Equal compares two values by type and content
func (v Value) Equal(other Value) bool {
	if v.IsMissing() || other.IsMissing() {
		return v.IsMissing() && other.IsMissing()
	}
	if v.Type != other.Type {
		return false
	}
	if v.Type == ValueTypeNumeric {
		return v.Num == other.Num || (math.IsNaN(v.Num) && math.IsNaN(other.Num))
	}
	return v.Str == other.Str
}

// String returns the string representation of the value
func (v Value) String() string {
	switch v.Type {
	case ValueTypeNumeric:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case ValueTypeString:
		return v.Str
	}
	return ""
}

// MarshalJSON renders numbers as JSON numbers, text as strings and absent
// cells (and non-finite numbers) as null
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Type {
	case ValueTypeNumeric:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.Num)
	case ValueTypeString:
		return json.Marshal(v.Str)
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts a JSON number, string or null
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch val := raw.(type) {
	case nil:
		*v = NewMissingValue()
	case float64:
		*v = NewNumericValue(val)
	case string:
		*v = NewStringValue(val)
	default:
		return fmt.Errorf("unsupported cell value %s", string(data))
	}
	return nil
}

// Row maps a column name to its cell. Missing keys read as absent.
type Row map[string]Value

// Get returns the cell for column, absent when the key is missing
func (r Row) Get(column string) Value {
	if v, ok := r[column]; ok {
		return v
	}
	return NewMissingValue()
}

// Dataset is an ordered sequence of rows sharing one column order
type Dataset struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// New builds a dataset from a header and rows
func New(columns []string, rows []Row) *Dataset {
	return &Dataset{Columns: columns, Rows: rows}
}

// Len returns the number of rows
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// HasColumn reports whether column is part of the header
func (d *Dataset) HasColumn(column string) bool {
	for _, c := range d.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Validate checks the boundary precondition that the dataset has rows and columns
func (d *Dataset) Validate() error {
	if d == nil || len(d.Rows) == 0 || len(d.Columns) == 0 {
		return core.ErrEmptyDataset
	}
	return nil
}

// Cell returns the value at (row, column), absent when out of range
func (d *Dataset) Cell(row int, column string) Value {
	if row < 0 || row >= len(d.Rows) {
		return NewMissingValue()
	}
	return d.Rows[row].Get(column)
}

// Clone returns a structural deep copy; mutating the copy never touches d
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	out := &Dataset{}
	if err := deepcopy.Copy(out, d); err != nil {
		// deepcopy only fails on unsupported kinds; fall back to a manual copy
		out = d.cloneManual()
	}
	return out
}

func (d *Dataset) cloneManual() *Dataset {
	out := &Dataset{
		Columns: append([]string(nil), d.Columns...),
		Rows:    make([]Row, len(d.Rows)),
	}
	for i, row := range d.Rows {
		cp := make(Row, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out.Rows[i] = cp
	}
	return out
}

// Hash fingerprints the dataset content so summaries can be tied to a version
func (d *Dataset) Hash() core.Hash {
	var b strings.Builder
	for _, c := range d.Columns {
		b.WriteString(c)
		b.WriteByte(0x1f)
	}
	b.WriteByte('\n')
	for _, row := range d.Rows {
		for _, c := range d.Columns {
			v := row.Get(c)
			b.WriteString(string(v.Type))
			b.WriteByte(':')
			b.WriteString(v.String())
			b.WriteByte(0x1f)
		}
		b.WriteByte('\n')
	}
	return core.NewHash([]byte(b.String()))
}
