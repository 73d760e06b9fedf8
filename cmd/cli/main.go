package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync/atomic"
	"text/tabwriter"

	"surveyclean/adapters/report"
	"surveyclean/domain/cleaning"
	"surveyclean/domain/stats"
	"surveyclean/internal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	logLevel string
	opts     cleanOptions
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:          "surveyclean",
		Short:        "Clean survey exports and compute weighted statistics",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "WARN", "Log level: ERROR|WARN|INFO|DEBUG|TRACE")
	rootCmd.PersistentFlags().StringVar(&opts.ProfilePath, "profile", os.Getenv("CLEAN_PROFILE"), "YAML cleaning profile")
	rootCmd.PersistentFlags().Int64Var(&opts.Seed, "seed", 0, "Seed for the imputation jitter (0 = random)")

	rootCmd.AddCommand(
		newCleanCmd(),
		newStatsCmd(),
		newBatchCmd(),
		newReportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func logger() *internal.Logger {
	return internal.NewLogger(internal.ParseLogLevel(logLevel), "console")
}

// addCleaningFlags registers the per-run overrides. Only flags the user set
// end up in the override.
func addCleaningFlags(cmd *cobra.Command) func() {
	var missing, outlier string
	var threshold float64
	var rules bool

	cmd.Flags().StringVar(&missing, "missing", "", "Missing value method: mean|median|mode")
	cmd.Flags().StringVar(&outlier, "outlier", "", "Outlier method: iqr|zscore|winsorize")
	cmd.Flags().Float64Var(&threshold, "threshold", cleaning.DefaultOutlierThreshold, "Outlier threshold multiplier")
	cmd.Flags().BoolVar(&rules, "rules", false, "Enable rule validation")

	return func() {
		var o cleaning.Override
		if cmd.Flags().Changed("missing") {
			m := cleaning.ParseMissingValueMethod(missing)
			o.MissingValueMethod = &m
		}
		if cmd.Flags().Changed("outlier") {
			m := cleaning.ParseOutlierMethod(outlier)
			o.OutlierMethod = &m
		}
		if cmd.Flags().Changed("threshold") {
			o.OutlierThreshold = &threshold
		}
		if cmd.Flags().Changed("rules") {
			o.RuleValidationEnabled = &rules
		}
		opts.Override = o
	}
}

func newCleanCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "clean [file]",
		Short: "Run a full cleaning pass and write the cleaned file",
		Long: `Impute missing numeric cells and correct outliers in a CSV or XLSX file.

Example: surveyclean clean wave2.xlsx --missing median --outlier zscore --threshold 3 -o wave2-clean.xlsx`,
		Args: cobra.ExactArgs(1),
	}
	collect := addCleaningFlags(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default <file>-clean.<ext>)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		collect()
		if output == "" {
			output = cleanedName("", args[0])
		}
		return runClean(cmd.Context(), cmd.OutOrStdout(), args[0], output)
	}
	return cmd
}

func runClean(ctx context.Context, out io.Writer, path, output string) error {
	p, err := newPipeline(opts, logger())
	if err != nil {
		return err
	}
	v, outcome, err := p.clean(ctx, path)
	if err != nil {
		return err
	}
	if err := p.export(ctx, v, output); err != nil {
		return err
	}

	run := outcome.Run
	fmt.Fprintf(out, "%s: %d rows, numeric columns %v\n", path, v.Rows, v.NumericColumns)
	fmt.Fprintf(out, "  %s pass: %d imputed, %d clamped\n", run.Mode, run.Imputed, run.Clamped)
	fmt.Fprintf(out, "  written to %s\n", output)
	return nil
}

func newStatsCmd() *cobra.Command {
	var weightColumn string
	var noMOE, raw, asJSON bool

	cmd := &cobra.Command{
		Use:   "stats [file]",
		Short: "Compute weighted means, standard errors and margins of error",
		Long: `Clean the file and summarize every numeric column.

Example: surveyclean stats wave2.csv --weight wt`,
		Args: cobra.ExactArgs(1),
	}
	collect := addCleaningFlags(cmd)
	cmd.Flags().StringVar(&weightColumn, "weight", os.Getenv("WEIGHT_COLUMN"), "Column holding per-row weights")
	cmd.Flags().BoolVar(&noMOE, "no-moe", false, "Skip the 95% margin of error")
	cmd.Flags().BoolVar(&raw, "raw", false, "Summarize the file without cleaning it first")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the snapshot as JSON")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		collect()
		opts.Weights = stats.WeightConfig{WeightColumn: weightColumn, ComputeMarginOfError: !noMOE}
		return runStats(cmd.Context(), cmd.OutOrStdout(), args[0], raw, asJSON)
	}
	return cmd
}

func runStats(ctx context.Context, out io.Writer, path string, raw, asJSON bool) error {
	p, err := newPipeline(opts, logger())
	if err != nil {
		return err
	}

	v, err := p.load(ctx, path)
	if err != nil {
		return err
	}
	if !raw {
		if _, err := p.service.Clean(ctx, v.ID, cleaning.ModeFull); err != nil {
			return err
		}
	}

	snapshot, err := p.service.Statistics(ctx, v.ID, nil)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snapshot)
	}
	printSummaries(out, snapshot)
	return nil
}

func printSummaries(out io.Writer, snapshot *stats.Snapshot) {
	columns := make([]string, 0, len(snapshot.Summaries))
	for name := range snapshot.Summaries {
		columns = append(columns, name)
	}
	sort.Strings(columns)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tMEAN\tSE\tMOE\tN\tWEIGHT")
	for _, name := range columns {
		s := snapshot.Summaries[name]
		moe := "-"
		if snapshot.Weights.ComputeMarginOfError {
			moe = fmt.Sprintf("%.4g", s.MarginOfError)
		}
		fmt.Fprintf(tw, "%s\t%.4g\t%.4g\t%s\t%d\t%.4g\n", name, s.Mean, s.StandardError, moe, s.SampleSize, s.TotalWeight)
	}
	tw.Flush()
}

func newBatchCmd() *cobra.Command {
	var outDir string
	var parallel int

	cmd := &cobra.Command{
		Use:   "batch [files...]",
		Short: "Clean several files concurrently",
		Long: `Run a full cleaning pass over each file, writing <name>-clean.<ext> files.

Example: surveyclean batch waves/*.csv --out-dir cleaned --parallel 4`,
		Args: cobra.MinimumNArgs(1),
	}
	collect := addCleaningFlags(cmd)
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Directory for cleaned files (default: next to each input)")
	cmd.Flags().IntVar(&parallel, "parallel", 4, "Maximum files processed at once")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		collect()
		return runBatch(cmd.Context(), cmd.OutOrStdout(), args, outDir, parallel)
	}
	return cmd
}

func runBatch(ctx context.Context, out io.Writer, files []string, outDir string, parallel int) error {
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}
	}
	if parallel < 1 {
		parallel = 1
	}

	p, err := newPipeline(opts, logger())
	if err != nil {
		return err
	}

	var imputed, clamped atomic.Int64
	lines := make([]string, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, path := range files {
		g.Go(func() error {
			v, outcome, err := p.clean(gctx, path)
			if err != nil {
				return err
			}
			target := cleanedName(outDir, path)
			if err := p.export(gctx, v, target); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			imputed.Add(int64(outcome.Run.Imputed))
			clamped.Add(int64(outcome.Run.Clamped))
			lines[i] = fmt.Sprintf("%s -> %s (%d imputed, %d clamped)", path, target, outcome.Run.Imputed, outcome.Run.Clamped)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "%d files: %d imputed, %d clamped\n", len(files), imputed.Load(), clamped.Load())
	return nil
}

func newReportCmd() *cobra.Command {
	var weightColumn, output string
	var html bool

	cmd := &cobra.Command{
		Use:   "report [file]",
		Short: "Clean a file and render a markdown or HTML report",
		Args:  cobra.ExactArgs(1),
	}
	collect := addCleaningFlags(cmd)
	cmd.Flags().StringVar(&weightColumn, "weight", os.Getenv("WEIGHT_COLUMN"), "Column holding per-row weights")
	cmd.Flags().BoolVar(&html, "html", false, "Render a standalone HTML page")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the report to a file instead of stdout")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		collect()
		opts.Weights = stats.WeightConfig{WeightColumn: weightColumn, ComputeMarginOfError: true}

		out := cmd.OutOrStdout()
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		return runReport(cmd.Context(), out, args[0], html)
	}
	return cmd
}

func runReport(ctx context.Context, out io.Writer, path string, html bool) error {
	p, err := newPipeline(opts, logger())
	if err != nil {
		return err
	}
	v, _, err := p.clean(ctx, path)
	if err != nil {
		return err
	}
	if _, err := p.service.Statistics(ctx, v.ID, nil); err != nil {
		return err
	}
	v, err = p.service.Get(ctx, v.ID)
	if err != nil {
		return err
	}

	rep := report.FromView(v)
	if html {
		_, err = out.Write(p.renderer.HTML(rep))
		return err
	}
	_, err = io.WriteString(out, p.renderer.Markdown(rep))
	return err
}
