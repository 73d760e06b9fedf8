package cleaning

import (
	"math"
	"sort"
	"strings"
	"time"

	"surveyclean/domain/core"
	"surveyclean/domain/dataset"
)

// MissingValueMethod selects how absent or unparseable numeric cells are filled
type MissingValueMethod string

const (
	MissingMean              MissingValueMethod = "mean"
	MissingMedian            MissingValueMethod = "median"
	MissingMultipleSimulated MissingValueMethod = "multiple_simulated"
)

// OutlierMethod selects how extreme numeric cells are detected and clamped
type OutlierMethod string

const (
	OutlierIQR       OutlierMethod = "iqr"
	OutlierZScore    OutlierMethod = "zscore"
	OutlierWinsorize OutlierMethod = "winsorize"
)

// DefaultOutlierThreshold is the multiplier used when none (or a non-positive one) is configured
const DefaultOutlierThreshold = 1.5

// ParseMissingValueMethod maps user input onto a method. Unknown names are
// returned as-is and later treated as mean imputation.
func ParseMissingValueMethod(s string) MissingValueMethod {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mean":
		return MissingMean
	case "median":
		return MissingMedian
	case "multiple", "multiple_simulated", "multiplesimulated", "multiple-simulated":
		return MissingMultipleSimulated
	}
	return MissingValueMethod(strings.TrimSpace(s))
}

// ParseOutlierMethod maps user input onto a method. Unknown names are returned
// as-is and disable outlier correction.
func ParseOutlierMethod(s string) OutlierMethod {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "iqr":
		return OutlierIQR
	case "zscore", "z-score", "z_score":
		return OutlierZScore
	case "winsorize", "winsorise":
		return OutlierWinsorize
	}
	return OutlierMethod(strings.TrimSpace(s))
}

// Config controls one cleaning pass
type Config struct {
	MissingValueMethod    MissingValueMethod `json:"missing_value_method" yaml:"missing_value_method"`
	OutlierMethod         OutlierMethod      `json:"outlier_method" yaml:"outlier_method"`
	OutlierThreshold      float64            `json:"outlier_threshold" yaml:"outlier_threshold"`
	RuleValidationEnabled bool               `json:"rule_validation_enabled" yaml:"rule_validation_enabled"`
}

// DefaultConfig returns mean imputation with 1.5×IQR outlier clamping
func DefaultConfig() Config {
	return Config{
		MissingValueMethod: MissingMean,
		OutlierMethod:      OutlierIQR,
		OutlierThreshold:   DefaultOutlierThreshold,
	}
}

// Normalize replaces an unusable threshold with the default. Method names are
// left untouched; the row cleaner owns their fallbacks.
func (c Config) Normalize() Config {
	if c.OutlierThreshold <= 0 || math.IsNaN(c.OutlierThreshold) || math.IsInf(c.OutlierThreshold, 0) {
		c.OutlierThreshold = DefaultOutlierThreshold
	}
	return c
}

// Override is a partial Config. Nil fields keep the base value.
type Override struct {
	MissingValueMethod    *MissingValueMethod `json:"missing_value_method,omitempty" yaml:"missing_value_method,omitempty"`
	OutlierMethod         *OutlierMethod      `json:"outlier_method,omitempty" yaml:"outlier_method,omitempty"`
	OutlierThreshold      *float64            `json:"outlier_threshold,omitempty" yaml:"outlier_threshold,omitempty"`
	RuleValidationEnabled *bool               `json:"rule_validation_enabled,omitempty" yaml:"rule_validation_enabled,omitempty"`
}

// IsEmpty reports whether the override sets nothing
func (o Override) IsEmpty() bool {
	return o.MissingValueMethod == nil && o.OutlierMethod == nil &&
		o.OutlierThreshold == nil && o.RuleValidationEnabled == nil
}

// Apply returns base with every set field of o copied over
func (o Override) Apply(base Config) Config {
	if o.MissingValueMethod != nil {
		base.MissingValueMethod = ParseMissingValueMethod(string(*o.MissingValueMethod))
	}
	if o.OutlierMethod != nil {
		base.OutlierMethod = ParseOutlierMethod(string(*o.OutlierMethod))
	}
	if o.OutlierThreshold != nil {
		base.OutlierThreshold = *o.OutlierThreshold
	}
	if o.RuleValidationEnabled != nil {
		base.RuleValidationEnabled = *o.RuleValidationEnabled
	}
	return base
}

// ColumnSet is a set of column names
type ColumnSet map[string]struct{}

// NewColumnSet builds a set from names
func NewColumnSet(names ...string) ColumnSet {
	s := make(ColumnSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports membership
func (s ColumnSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the members in lexical order
func (s ColumnSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ColumnBaseline holds the frozen reference statistics for one numeric column
type ColumnBaseline struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Q1     float64 `json:"q1"`
	Q3     float64 `json:"q3"`
	IQR    float64 `json:"iqr"`
	Count  int     `json:"count"`
}

// Baselines maps column name to its baseline. Columns without valid values are absent.
type Baselines map[string]ColumnBaseline

// CellKey addresses one cell
type CellKey struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
}

// EditRecord is one manual cell edit since the last clean
type EditRecord struct {
	Row      int           `json:"row"`
	Column   string        `json:"column"`
	OldValue dataset.Value `json:"old_value"`
	NewValue dataset.Value `json:"new_value"`
	EditedAt time.Time     `json:"edited_at"`
}

// Key returns the cell the edit applies to
func (e EditRecord) Key() CellKey {
	return CellKey{Row: e.Row, Column: e.Column}
}

// OperationKind names the correction applied to a cell
type OperationKind string

const (
	OperationImputed OperationKind = "imputed"
	OperationClamped OperationKind = "clamped"
)

// Operation records one cell correction made during a pass
type Operation struct {
	Row      int           `json:"row"`
	Column   string        `json:"column"`
	Kind     OperationKind `json:"kind"`
	Method   string        `json:"method"`
	OldValue dataset.Value `json:"old_value"`
	NewValue dataset.Value `json:"new_value"`
}

// Mode selects full or delta recomputation
type Mode string

const (
	ModeAuto  Mode = "auto"
	ModeFull  Mode = "full"
	ModeDelta Mode = "delta"
)

// ParseMode validates a mode name; empty means auto
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeFull:
		return ModeFull, nil
	case ModeDelta:
		return ModeDelta, nil
	}
	return "", core.ErrUnknownCleanMode
}

// RunRecord is the persisted audit entry for one completed pass
type RunRecord struct {
	ID            core.RunID     `json:"id" db:"id"`
	SessionID     core.SessionID `json:"session_id" db:"session_id"`
	Mode          Mode           `json:"mode" db:"mode"`
	Config        Config         `json:"config" db:"-"`
	RowsProcessed int            `json:"rows_processed" db:"rows_processed"`
	Imputed       int            `json:"imputed" db:"imputed"`
	Clamped       int            `json:"clamped" db:"clamped"`
	DatasetHash   core.Hash      `json:"dataset_hash" db:"dataset_hash"`
	StartedAt     time.Time      `json:"started_at" db:"started_at"`
	CompletedAt   time.Time      `json:"completed_at" db:"completed_at"`
}
