// Package report renders a session's cleaning and weighting results as
// markdown, and as HTML through gomarkdown.
package report

import (
	"fmt"
	"sort"
	"strings"

	"surveyclean/domain/cleaning"
	"surveyclean/domain/stats"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// DefaultMaxOperations caps the corrections table
const DefaultMaxOperations = 50

// Report is everything a summary page shows
type Report struct {
	Title          string
	SourceName     string
	SessionID      string
	DatasetVersion int
	Rows           int
	Columns        []string
	NumericColumns []string
	Config         cleaning.Config
	LastRun        *cleaning.RunRecord
	Operations     []cleaning.Operation
	Weights        stats.WeightConfig
	Summaries      stats.Summaries
}

// Renderer turns a Report into markdown or HTML
type Renderer struct {
	MaxOperations int
}

// NewRenderer creates a renderer with the default corrections cap
func NewRenderer() *Renderer {
	return &Renderer{MaxOperations: DefaultMaxOperations}
}

// Markdown renders the report as GitHub-style markdown
func (r *Renderer) Markdown(rep Report) string {
	var b strings.Builder

	title := rep.Title
	if title == "" {
		title = "Cleaning report"
		if rep.SourceName != "" {
			title += ": " + rep.SourceName
		}
	}
	fmt.Fprintf(&b, "# %s\n\n", escape(title))

	if rep.SessionID != "" {
		fmt.Fprintf(&b, "- Session: `%s` (version %d)\n", rep.SessionID, rep.DatasetVersion)
	}
	fmt.Fprintf(&b, "- Rows: %d\n", rep.Rows)
	fmt.Fprintf(&b, "- Columns: %d\n", len(rep.Columns))
	fmt.Fprintf(&b, "- Numeric columns: %s\n\n", listOrNone(rep.NumericColumns))

	b.WriteString("## Configuration\n\n")
	b.WriteString("| Setting | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Missing values | %s |\n", rep.Config.MissingValueMethod)
	fmt.Fprintf(&b, "| Outliers | %s |\n", rep.Config.OutlierMethod)
	fmt.Fprintf(&b, "| Threshold | %s |\n", formatFloat(rep.Config.OutlierThreshold))
	fmt.Fprintf(&b, "| Rule validation | %t |\n\n", rep.Config.RuleValidationEnabled)

	if rep.LastRun != nil {
		run := rep.LastRun
		b.WriteString("## Last cleaning pass\n\n")
		fmt.Fprintf(&b, "- Mode: %s\n", run.Mode)
		fmt.Fprintf(&b, "- Rows processed: %d\n", run.RowsProcessed)
		fmt.Fprintf(&b, "- Imputed cells: %d\n", run.Imputed)
		fmt.Fprintf(&b, "- Clamped cells: %d\n", run.Clamped)
		if !run.CompletedAt.IsZero() {
			fmt.Fprintf(&b, "- Duration: %s\n", run.CompletedAt.Sub(run.StartedAt))
		}
		b.WriteString("\n")
	}

	r.writeSummaries(&b, rep)
	r.writeOperations(&b, rep.Operations)
	return b.String()
}

func (r *Renderer) writeSummaries(b *strings.Builder, rep Report) {
	if len(rep.Summaries) == 0 {
		return
	}
	b.WriteString("## Weighted statistics\n\n")
	if rep.Weights.WeightColumn != "" {
		fmt.Fprintf(b, "Weighted by `%s`.\n\n", rep.Weights.WeightColumn)
	} else {
		b.WriteString("Unweighted.\n\n")
	}
	b.WriteString("| Column | Mean | Std. error | Margin of error | n | Total weight |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|\n")

	columns := make([]string, 0, len(rep.Summaries))
	for c := range rep.Summaries {
		columns = append(columns, c)
	}
	sort.Strings(columns)
	for _, c := range columns {
		s := rep.Summaries[c]
		moe := "-"
		if rep.Weights.ComputeMarginOfError {
			moe = formatFloat(s.MarginOfError)
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s | %d | %s |\n",
			escape(c), formatFloat(s.Mean), formatFloat(s.StandardError), moe, s.SampleSize, formatFloat(s.TotalWeight))
	}
	b.WriteString("\n")
}

func (r *Renderer) writeOperations(b *strings.Builder, ops []cleaning.Operation) {
	if len(ops) == 0 {
		return
	}
	b.WriteString("## Corrections\n\n")
	b.WriteString("| Row | Column | Kind | Method | Before | After |\n|---:|---|---|---|---|---|\n")
	limit := len(ops)
	if r.MaxOperations > 0 && limit > r.MaxOperations {
		limit = r.MaxOperations
	}
	for _, op := range ops[:limit] {
		fmt.Fprintf(b, "| %d | %s | %s | %s | %s | %s |\n",
			op.Row, escape(op.Column), op.Kind, escape(op.Method), cell(op.OldValue.String()), cell(op.NewValue.String()))
	}
	if limit < len(ops) {
		fmt.Fprintf(b, "\n_%d more corrections not shown._\n", len(ops)-limit)
	}
	b.WriteString("\n")
}

// HTML renders the markdown as a complete HTML page
func (r *Renderer) HTML(rep Report) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(r.Markdown(rep)))

	title := rep.Title
	if title == "" {
		title = "Cleaning report"
	}
	renderer := html.NewRenderer(html.RendererOptions{
		Title: title,
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.Render(doc, renderer)
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.4g", v)
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "`" + s + "`"
	}
	return strings.Join(quoted, ", ")
}

func cell(s string) string {
	if s == "" {
		return "_absent_"
	}
	return escape(s)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
