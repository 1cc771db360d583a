package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"simvote/app"
	"simvote/domain/scenario"
	"simvote/internal/config"
	"simvote/internal/container"
	"simvote/internal/summary"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// outputOptions are the persistent flags overriding the configured output location
type outputOptions struct {
	dir       string
	overwrite bool
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using system environment variables")
	}

	opts := &outputOptions{}
	rootCmd := &cobra.Command{
		Use:   "simvote",
		Short: "Analyze voting-method simulation results",
		Long: `Summarize, plot and export the results of a voting-method simulation.

Each <csv> argument is a simulator results file. A sibling .log file with the
same base name, when present, supplies per-trial candidate regrets and
covariance matrices.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.dir, "out-dir", "", "Output directory (default from SIMVOTE_OUTPUT_DIR or ./out)")
	rootCmd.PersistentFlags().BoolVar(&opts.overwrite, "overwrite", false, "Write fixed file names instead of timestamped ones")

	rootCmd.AddCommand(
		newSummarizeCmd(),
		newPlotCmd(opts),
		newDatasetCmd(opts),
		newResultsCmd(opts),
		newReportCmd(opts),
		newInspectCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newContainer loads configuration, applies flag overrides and wires the services
func newContainer(opts *outputOptions) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts != nil {
		if opts.dir != "" {
			cfg.Output.Dir = opts.dir
		}
		if opts.overwrite {
			cfg.Output.Overwrite = true
		}
	}
	return container.New(cfg)
}

func newSummarizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summarize <csv>...",
		Short: "Print per-method regret statistics",
		Long: `Print the simulation parameters and one line per voting method with the
average regret, the percentage of non-zero regrets and the mean non-zero regret.

Example: simvote summarize results/run1.csv results/run2.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummarize(cmd.Context(), args)
		},
	}
}

func runSummarize(ctx context.Context, csvPaths []string) error {
	c, err := newContainer(nil)
	if err != nil {
		return err
	}
	scenarios, err := c.Scenarios.LoadAll(ctx, csvPaths)
	if err != nil {
		return err
	}
	for i, s := range scenarios {
		sum, err := c.Analysis.Summarize(s)
		if err != nil {
			return err
		}
		if i > 0 {
			fmt.Println()
		}
		printSummary(sum)
	}
	return nil
}

func printSummary(sum *summary.ScenarioSummary) {
	fmt.Printf("%s\n", sum.Source)
	params := make([]string, 0, len(sum.Metadata))
	for _, k := range sum.MetadataKeys() {
		params = append(params, fmt.Sprintf("%s=%s", k, sum.Metadata[k]))
	}
	if len(params) > 0 {
		fmt.Printf("  %s\n", strings.Join(params, " "))
	}
	fmt.Printf("  %d trials, %d logged trials", sum.Trials, sum.LogTrials)
	if sum.NCand > 0 {
		fmt.Printf(", %d candidates", sum.NCand)
	}
	if sum.Anomalies > 0 {
		fmt.Printf(", %d truncated rows", sum.Anomalies)
	}
	fmt.Println()
	for _, m := range sum.Methods {
		fmt.Println(m.String())
	}
	fmt.Printf("%-16s: mean %.3f  std %.3f  min %.3f  max %.3f\n",
		"SPlMargin", sum.Margin.Mean, sum.Margin.StdDev, sum.Margin.Min, sum.Margin.Max)
}

func newPlotCmd(opts *outputOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "plot <csv>",
		Short: "Render margin and regret charts as PNG files",
		Long: `Render the strategic plurality margin histogram, the regret spread of every
method and one histogram of non-zero regrets per method.

Example: simvote plot results/run1.csv --out-dir charts`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlot(cmd.Context(), opts, args[0])
		},
	}
}

func runPlot(ctx context.Context, opts *outputOptions, csvPath string) error {
	c, s, err := loadOne(ctx, opts, csvPath)
	if err != nil {
		return err
	}
	paths, err := c.Analysis.Plot(ctx, s)
	for _, p := range paths {
		fmt.Println(p)
	}
	return err
}

func newDatasetCmd(opts *outputOptions) *cobra.Command {
	var method string
	var regression bool
	var file string

	cmd := &cobra.Command{
		Use:   "dataset <csv>",
		Short: "Export a feature matrix of candidate regrets and covariances",
		Long: `Project a scenario onto one voting method: one row per logged trial with the
candidate regrets followed by the covariance matrix entries as features, and the
method's regret as target. Classification targets are "best" (zero regret) and
"suboptimal"; --regression keeps the raw regret.

The format follows the file extension: .xlsx (default) or .csv.

Example: simvote dataset results/run1.csv --method IRV --file irv.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDataset(cmd.Context(), opts, args[0], app.DatasetRequest{
				Method:     method,
				Regression: regression,
				Filename:   file,
			})
		},
	}

	cmd.Flags().StringVar(&method, "method", "", "Voting method whose regret is the target (required)")
	cmd.Flags().BoolVar(&regression, "regression", false, "Use the raw regret as target instead of best/suboptimal")
	cmd.Flags().StringVar(&file, "file", "", "Output file name inside the output directory")
	_ = cmd.MarkFlagRequired("method")

	return cmd
}

func runDataset(ctx context.Context, opts *outputOptions, csvPath string, req app.DatasetRequest) error {
	c, s, err := loadOne(ctx, opts, csvPath)
	if err != nil {
		return err
	}
	res, err := c.Analysis.ExportDataset(ctx, s, req)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d rows, %d features, %s target\n",
		res.Path, res.Manifest.Rows, res.Manifest.Columns, res.Manifest.Mode)
	return nil
}

func newResultsCmd(opts *outputOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "results <csv>",
		Short: "Export the per-trial result table",
		Long: `Write the margin and per-method regret of every trial as a table.

Example: simvote results results/run1.csv --file run1.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResults(cmd.Context(), opts, args[0], file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Output file name inside the output directory (.xlsx or .csv)")
	return cmd
}

func runResults(ctx context.Context, opts *outputOptions, csvPath, file string) error {
	c, s, err := loadOne(ctx, opts, csvPath)
	if err != nil {
		return err
	}
	path, err := c.Analysis.ExportResults(ctx, s, file)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func newReportCmd(opts *outputOptions) *cobra.Command {
	var asHTML bool
	var withCharts bool
	var title string
	var file string

	cmd := &cobra.Command{
		Use:   "report <csv>...",
		Short: "Write a markdown or HTML report over one or more scenarios",
		Long: `Write a report with the parameters, regret statistics and margin histogram of
every scenario.

Example: simvote report results/*.csv --html --charts --title "Spatial model sweep"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), opts, args, title, app.ReportOptions{
				HTML:     asHTML,
				Filename: file,
				Charts:   withCharts,
			})
		},
	}

	cmd.Flags().BoolVar(&asHTML, "html", false, "Render HTML instead of markdown")
	cmd.Flags().BoolVar(&withCharts, "charts", false, "Render each scenario's charts and link them from the report")
	cmd.Flags().StringVar(&title, "title", "Voting simulation report", "Report title")
	cmd.Flags().StringVar(&file, "file", "", "Output file name inside the output directory")

	return cmd
}

func runReport(ctx context.Context, opts *outputOptions, csvPaths []string, title string, reportOpts app.ReportOptions) error {
	c, err := newContainer(opts)
	if err != nil {
		return err
	}
	scenarios, err := c.Scenarios.LoadAll(ctx, csvPaths)
	if err != nil {
		return err
	}
	path, err := c.Analysis.Report(ctx, title, scenarios, reportOpts)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func loadOne(ctx context.Context, opts *outputOptions, csvPath string) (*container.Container, *scenario.Scenario, error) {
	c, err := newContainer(opts)
	if err != nil {
		return nil, nil, err
	}
	s, err := c.Scenarios.Load(ctx, csvPath)
	if err != nil {
		return nil, nil, err
	}
	return c, s, nil
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <dataset>",
		Short: "Show the shape and manifest of an exported dataset",
		Long: `Read back a dataset written by the dataset command and print its row count,
columns and, for xlsx files, the meta sheet.

Example: simvote inspect out/run1_IRV_classification.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), args[0])
		},
	}
}

func runInspect(ctx context.Context, path string) error {
	c, err := newContainer(nil)
	if err != nil {
		return err
	}
	info, err := c.Analysis.InspectDataset(ctx, path)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d rows, %d columns, %d bytes\n", info.Path, info.Rows, len(info.Headers), info.Size)
	for _, k := range info.MetaKeys() {
		fmt.Printf("  %-20s %s\n", k, info.Meta[k])
	}
	return nil
}
