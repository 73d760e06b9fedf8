package report

import (
	"surveyclean/app"
)

// FromView builds a report from a session snapshot. Weighted statistics are
// included only when they were computed at the session's current version.
func FromView(v *app.SessionView) Report {
	rep := Report{
		SourceName:     v.SourceName,
		SessionID:      v.ID.String(),
		DatasetVersion: v.Version,
		Rows:           v.Rows,
		Columns:        v.Columns,
		NumericColumns: v.NumericColumns,
		Config:         v.Config,
		LastRun:        v.LastRun,
		Operations:     v.Operations,
	}
	if v.Statistics != nil && v.Statistics.DatasetVersion == v.Version {
		rep.Weights = v.Statistics.Weights
		rep.Summaries = v.Statistics.Summaries
	}
	return rep
}
