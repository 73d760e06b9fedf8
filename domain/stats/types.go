package stats

import (
	"time"

	"surveyclean/domain/core"
)

// ZCritical95 is the two-sided 95% normal critical value used for margins of error
const ZCritical95 = 1.96

// WeightConfig controls the weighting engine
type WeightConfig struct {
	// WeightColumn names the column supplying per-row weights; empty means unweighted
	WeightColumn string `json:"weight_column" yaml:"weight_column"`
	// ComputeMarginOfError toggles the 95% margin of error
	ComputeMarginOfError bool `json:"compute_margin_of_error" yaml:"compute_margin_of_error"`
}

// StatisticalSummary is the weighted description of one numeric column
type StatisticalSummary struct {
	Mean          float64 `json:"mean"`
	StandardError float64 `json:"standard_error"`
	// MarginOfError is zero when the margin was not requested
	MarginOfError float64 `json:"margin_of_error"`
	SampleSize    int     `json:"sample_size"`
	TotalWeight   float64 `json:"total_weight"`
}

// Summaries maps column name to its summary
type Summaries map[string]StatisticalSummary

// Snapshot ties a summary map to the dataset version it was computed from
type Snapshot struct {
	SessionID      core.SessionID `json:"session_id"`
	DatasetVersion int            `json:"dataset_version"`
	DatasetHash    core.Hash      `json:"dataset_hash"`
	Weights        WeightConfig   `json:"weights"`
	Summaries      Summaries      `json:"summaries"`
	ComputedAt     time.Time      `json:"computed_at"`
}
