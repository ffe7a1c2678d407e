package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"figfinder/internal/cachestore"
	"figfinder/internal/catalog"
	"figfinder/internal/config"
	"figfinder/internal/finder"
	"figfinder/internal/inventory"
	"figfinder/internal/matching"
)

type analyzeOptions struct {
	inventoryPath string
	idsPath       string
	ids           []string
	policy        string
	pricePolicy   string
	minMatch      float64
	top           int
	outputPath    string
	metricsPath   string
	showMissing   bool
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Match cached minifigures against an inventory",
		Long: `Load a BrickLink inventory export (XML or CSV) and report which minifigures
can be built from it, ordered by estimated value, followed by the closest
incomplete matches.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts.applyDefaults(cmd, cfg)
			return runAnalyze(cmd, ctx, cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.inventoryPath, "inventory", "i", "", "BrickLink inventory file (.xml, .bsx or .csv)")
	cmd.Flags().StringVar(&opts.idsPath, "ids", "", "File listing minifigure ids to check (defaults to analysis.id_list, then every cached minifigure)")
	cmd.Flags().StringSliceVar(&opts.ids, "id", nil, "Minifigure id to check (repeatable, comma separated)")
	cmd.Flags().StringVar(&opts.policy, "policy", "", "Assembly fetch policy: cache-only, fetch-if-absent, force-refresh")
	cmd.Flags().StringVar(&opts.pricePolicy, "price-policy", "", "Price fetch policy: cache-only, fetch-if-absent, force-refresh")
	cmd.Flags().Float64Var(&opts.minMatch, "min-match", 0, "Minimum match percentage for incomplete results")
	cmd.Flags().IntVar(&opts.top, "top", 0, "Maximum incomplete results to show (0 for all)")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Write the JSON report to this file")
	cmd.Flags().StringVar(&opts.metricsPath, "metrics-file", "", "Write Prometheus metrics to this textfile")
	cmd.Flags().BoolVar(&opts.showMissing, "missing", false, "List missing parts for incomplete matches")
	_ = cmd.MarkFlagRequired("inventory")

	return cmd
}

func (o *analyzeOptions) applyDefaults(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if !flags.Changed("policy") {
		o.policy = cfg.Analysis.FetchPolicy
	}
	if !flags.Changed("price-policy") {
		o.pricePolicy = cfg.Analysis.PricePolicy
	}
	if !flags.Changed("min-match") {
		o.minMatch = cfg.Analysis.MinMatchPercentage
	}
	if !flags.Changed("top") {
		o.top = cfg.Analysis.MaxIncomplete
	}
	if !flags.Changed("ids") && len(o.ids) == 0 {
		o.idsPath = cfg.Analysis.IDList
	}
	if !flags.Changed("metrics-file") {
		o.metricsPath = cfg.Metrics.TextfilePath
	}
}

func runAnalyze(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, opts analyzeOptions) error {
	policy, err := cachestore.ParseFetchPolicy(opts.policy)
	if err != nil {
		return fmt.Errorf("--policy: %w", err)
	}
	pricePolicy, err := cachestore.ParseFetchPolicy(opts.pricePolicy)
	if err != nil {
		return fmt.Errorf("--price-policy: %w", err)
	}
	if opts.minMatch < 0 || opts.minMatch > 100 {
		return errors.New("--min-match must be between 0 and 100")
	}

	inventoryPath, err := config.ExpandPath(opts.inventoryPath)
	if err != nil {
		return fmt.Errorf("resolve inventory path: %w", err)
	}
	inv, err := inventory.LoadFile(inventoryPath)
	if err != nil {
		return err
	}

	ids, err := resolveIDs(opts.idsPath, opts.ids)
	if err != nil {
		return err
	}

	store, err := ctx.openStore()
	if err != nil {
		return err
	}
	f, err := ctx.newFinder(store)
	if err != nil {
		return err
	}

	result, runErr := f.Run(cmd.Context(), finder.Request{
		IDs:         ids,
		Policy:      policy,
		PricePolicy: pricePolicy,
		Inventory:   inv,
	})
	if opts.metricsPath != "" {
		if err := ctx.recorder.WriteTextfile(opts.metricsPath); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	result = result.Filter(opts.minMatch, opts.top)

	if opts.outputPath != "" {
		outputPath, err := config.ExpandPath(opts.outputPath)
		if err != nil {
			return fmt.Errorf("resolve output path: %w", err)
		}
		if err := writeJSONFile(outputPath, result); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		if !ctx.JSONMode() {
			fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", outputPath)
		}
	}

	if ctx.JSONMode() {
		return result.WriteJSON(cmd.OutOrStdout())
	}
	renderAnalysis(cmd.OutOrStdout(), result, opts.showMissing)
	return nil
}

func resolveIDs(path string, explicit []string) ([]string, error) {
	ids := splitIDs(explicit)
	if strings.TrimSpace(path) == "" {
		return ids, nil
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve id list path: %w", err)
	}
	listed, err := catalog.LoadIDList(expanded)
	if err != nil {
		return nil, err
	}
	return append(listed, ids...), nil
}

// sumEstimatedValues adds one estimated value per report. Each report is
// scored against the whole inventory, so buildable counts are not additive
// across minifigures and are left out.
func sumEstimatedValues(reports []matching.Report) decimal.Decimal {
	total := decimal.Zero
	for _, report := range reports {
		if report.EstimatedValue != nil {
			total = total.Add(*report.EstimatedValue)
		}
	}
	return total
}

func renderAnalysis(out io.Writer, result matching.Result, showMissing bool) {
	p := newStatusPrinter(out)
	summary := result.Summary
	p.section("Summary")
	p.count("Checked", summary.TotalChecked, false)
	p.line("Complete", statusOK, strconv.Itoa(summary.CompleteMatches))
	p.count("Incomplete", summary.IncompleteMatches, false)
	p.count("Omitted", summary.Omitted, true)
	p.blank()

	if len(result.Complete) > 0 {
		p.section("Buildable minifigures")
		rows := make([][]string, 0, len(result.Complete))
		for _, report := range result.Complete {
			rows = append(rows, []string{
				report.ID,
				report.Name,
				strconv.Itoa(report.BuildableCount),
				formatMoney(report.EstimatedValue),
				formatMoney(&report.PartsValue),
				formatMoney(report.Profit),
			})
		}
		total := sumEstimatedValues(result.Complete)
		fmt.Fprintln(out, renderTable(
			[]column{left("ID"), left("Name"), right("Buildable"), right("Value"), right("Parts"), right("Profit")},
			rows,
			[]string{"", "Sum of values (independent)", "", formatMoney(&total)},
		))
		p.blank()
	}

	if len(result.Incomplete) > 0 {
		p.section("Closest incomplete matches")
		rows := make([][]string, 0, len(result.Incomplete))
		for _, report := range result.Incomplete {
			rows = append(rows, []string{
				report.ID,
				report.Name,
				formatPercent(report.MatchPercentage),
				fmt.Sprintf("%d/%d", report.MatchedParts, report.TotalParts),
				strconv.Itoa(report.MissingParts),
				formatMoney(report.EstimatedValue),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]column{left("ID"), left("Name"), right("Match"), right("Parts"), right("Missing"), right("Value")},
			rows,
			nil,
		))
		if showMissing {
			for _, report := range result.Incomplete {
				renderMissing(out, report)
			}
		}
		p.blank()
	}

	if len(result.Omissions) > 0 {
		p.section("Omitted")
		for _, omission := range result.Omissions {
			p.line(omission.ID, statusWarn, omission.Reason)
		}
	}
}

func renderMissing(out io.Writer, report matching.Report) {
	if len(report.Missing) == 0 {
		return
	}
	fmt.Fprintf(out, "\nMissing for %s (%s):\n", report.ID, report.Name)
	rows := make([][]string, 0, len(report.Missing))
	for _, part := range report.Missing {
		rows = append(rows, []string{
			part.PartID,
			part.PartName,
			part.ColorName,
			strconv.Itoa(part.Needed),
			strconv.Itoa(part.Available),
			strconv.Itoa(part.ShortBy),
			part.Remarks,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]column{left("Part"), left("Name"), left("Color"), right("Needed"), right("Have"), right("Short"), left("Remarks")},
		rows,
		nil,
	))
}
