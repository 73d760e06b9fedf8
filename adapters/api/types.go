package api

import (
	"surveyclean/app"
	"surveyclean/domain/cleaning"
	"surveyclean/domain/dataset"
	"surveyclean/domain/stats"
)

// editRequest sets one cell. Value may be a JSON number, string or null.
type editRequest struct {
	Row    *int          `json:"row" validate:"required,gte=0"`
	Column string        `json:"column" validate:"required"`
	Value  dataset.Value `json:"value"`
}

// raw returns the edit as the text a user would have typed
func (e editRequest) raw() string {
	return e.Value.String()
}

type editsRequest struct {
	Edits []editRequest `json:"edits" validate:"required,min=1,dive"`
}

type editsResponse struct {
	Applied []cleaning.EditRecord `json:"applied"`
}

type cleanRequest struct {
	Mode string `json:"mode" validate:"omitempty,oneof=auto full delta"`
}

type configRequest struct {
	MissingValueMethod    *string  `json:"missing_value_method" validate:"omitempty,oneof=mean median multiple multiple_simulated"`
	OutlierMethod         *string  `json:"outlier_method" validate:"omitempty,oneof=iqr zscore z-score winsorize"`
	OutlierThreshold      *float64 `json:"outlier_threshold" validate:"omitempty,gt=0"`
	RuleValidationEnabled *bool    `json:"rule_validation_enabled"`
}

func (c configRequest) toOverride() cleaning.Override {
	var o cleaning.Override
	if c.MissingValueMethod != nil {
		m := cleaning.ParseMissingValueMethod(*c.MissingValueMethod)
		o.MissingValueMethod = &m
	}
	if c.OutlierMethod != nil {
		m := cleaning.ParseOutlierMethod(*c.OutlierMethod)
		o.OutlierMethod = &m
	}
	o.OutlierThreshold = c.OutlierThreshold
	o.RuleValidationEnabled = c.RuleValidationEnabled
	return o
}

// statisticsRequest overrides the service's default weighting per call
type statisticsRequest struct {
	WeightColumn         *string `json:"weight_column"`
	ComputeMarginOfError *bool   `json:"compute_margin_of_error"`
}

func (s statisticsRequest) apply(base stats.WeightConfig) stats.WeightConfig {
	if s.WeightColumn != nil {
		base.WeightColumn = *s.WeightColumn
	}
	if s.ComputeMarginOfError != nil {
		base.ComputeMarginOfError = *s.ComputeMarginOfError
	}
	return base
}

type sessionResponse struct {
	*app.SessionView
	Data []dataset.Row `json:"data,omitempty"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}
