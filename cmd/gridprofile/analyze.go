package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jgoulah/gridprofile/internal/analysis"
	"github.com/jgoulah/gridprofile/internal/cache"
	"github.com/jgoulah/gridprofile/internal/config"
	"github.com/jgoulah/gridprofile/internal/database"
	"github.com/jgoulah/gridprofile/internal/importer"
	"github.com/jgoulah/gridprofile/internal/metrics"
	"github.com/jgoulah/gridprofile/pkg/models"
)

// analyzeFlags are shared by every command that computes a profile
type analyzeFlags struct {
	user        string
	from        string
	to          string
	file        string
	noCache     bool
	metricsFile string
}

// registerInput adds the flags selecting which history is analyzed
func (f *analyzeFlags) registerInput(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.user, "user", "", "User to analyze (required)")
	cmd.Flags().StringVar(&f.from, "from", "", "First month of the analysis window (YYYY-MM)")
	cmd.Flags().StringVar(&f.to, "to", "", "Last month of the analysis window (YYYY-MM)")
	cmd.Flags().StringVar(&f.file, "file", "", "Analyze a CSV export directly instead of stored data")
	cmd.MarkFlagRequired("user")
}

func (f *analyzeFlags) register(cmd *cobra.Command) {
	f.registerInput(cmd)
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "Bypass the profile cache")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after the run")
}

var (
	analyzeOpts   analyzeFlags
	analyzeFormat string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Build a usage profile for a user",
	Long: `Analyzes a user's monthly usage history and prints the resulting profile:
statistics, data quality, seasonal pattern, classification and a 12-month projection.
Profiles are cached in the database until the input or the analysis settings change.`,
	RunE: runAnalyze,
}

func init() {
	analyzeOpts.register(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "text", "Output format (text or json)")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeFormat != "text" && analyzeFormat != "json" {
		return fmt.Errorf("unsupported format %q (use text or json)", analyzeFormat)
	}

	profile, err := computeProfile(cmd.Context(), analyzeOpts)
	if err != nil {
		return err
	}

	if analyzeFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(profile)
	}
	printProfile(profile)
	return nil
}

// computeProfile loads the requested history and runs it through the
// cached analyzer
func computeProfile(ctx context.Context, opts analyzeFlags) (*models.UsageProfile, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("configuring logging: %w", err)
	}
	logger = logger.With("run_id", uuid.NewString(), "user_id", opts.user)

	window, err := parseWindow(opts.from, opts.to)
	if err != nil {
		return nil, err
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	records, err := loadRecords(ctx, db, opts.user, opts.file)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded usage history", "months", len(records))

	collector, err := metrics.NewCollector()
	if err != nil {
		return nil, fmt.Errorf("creating metrics collector: %w", err)
	}

	analyzer := newAnalyzer(cfg, db, opts.noCache, logger, collector)
	profile, err := analyzer.Analyze(ctx, analysis.Request{UserID: opts.user, Records: records, Window: window})
	if err != nil {
		return nil, fmt.Errorf("analyzing usage for %s: %w", opts.user, err)
	}
	logger.Info("usage profile ready",
		"profile_type", profile.ProfileType,
		"projection_method", profile.Projection.Method,
		"overall_confidence", profile.OverallConfidence)

	if opts.metricsFile != "" {
		if err := collector.WriteTextfile(opts.metricsFile); err != nil {
			logger.Warn("metrics export failed", "path", opts.metricsFile, "error", err)
		}
	}
	return profile, nil
}

// loadRecords reads the user's full stored history, or a CSV file when one
// is given; the analysis window is applied by the analyzer
func loadRecords(ctx context.Context, db *database.DB, user, file string) ([]models.UsageRecord, error) {
	if file == "" {
		records, err := db.Records(ctx, user, nil)
		if err != nil {
			return nil, fmt.Errorf("loading usage for %s: %w", user, err)
		}
		if len(records) == 0 {
			return nil, fmt.Errorf("no usage data stored for %s (run import first)", user)
		}
		return records, nil
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", file, err)
	}
	defer f.Close()

	result, err := importer.ParseCSV(f, importer.Options{})
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", file, err)
	}
	return result.Records, nil
}

func newAnalyzer(cfg *config.Config, store *database.DB, noCache bool, logger *slog.Logger, collector *metrics.Collector) *cache.Analyzer {
	opts := cache.Options{
		TTL:          cfg.GetCacheTTL(),
		StoreTimeout: cfg.GetStoreTimeout(),
		Logger:       logger,
		Metrics:      collector,
	}
	if noCache || cfg.Cache.Disabled {
		return cache.NewAnalyzer(nil, cfg.AnalysisConfig(), opts)
	}
	return cache.NewAnalyzer(store, cfg.AnalysisConfig(), opts)
}

func kwh(v float64) string {
	return humanize.FormatFloat("#,###.", v) + " kWh"
}

func pct(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

func printProfile(p *models.UsageProfile) {
	fmt.Printf("\nUsage profile for %s\n", p.UserID)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Classification:      %s\n", p.ProfileType)
	fmt.Printf("                     %s\n", p.ClassificationReason)
	fmt.Printf("Overall confidence:  %s\n", pct(p.OverallConfidence))

	s := p.Statistics
	fmt.Println("\nStatistics")
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Months:              %d\n", s.Count)
	fmt.Printf("Mean / median:       %s / %s\n", kwh(s.MeanKWh), kwh(s.MedianKWh))
	fmt.Printf("Std dev (CV):        %s (%.2f)\n", kwh(s.StdDevKWh), s.CoefficientOfVariation)
	fmt.Printf("Min / max:           %s / %s\n", kwh(s.MinKWh), kwh(s.MaxKWh))
	fmt.Printf("Annual total:        %s\n", kwh(s.AnnualTotalKWh))

	q := p.DataQuality
	fmt.Println("\nData quality")
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Completeness:        %s (%d of %d months observed)\n", pct(q.Completeness), q.ObservedMonths, q.ExpectedMonths)
	fmt.Printf("Interpolated months: %d\n", q.InterpolatedMonths)
	for _, o := range q.Outliers {
		fmt.Printf("Outlier %s:      %s\n", o.Period, o.Reason)
	}
	fmt.Printf("Quality score:       %s\n", pct(q.QualityScore))

	sp := p.Seasonal
	fmt.Println("\nSeasonal pattern")
	fmt.Println(strings.Repeat("-", 60))
	for _, stat := range sp.Seasons {
		fmt.Printf("%-20s %s (%d months)\n", stat.Season+":", kwh(stat.MeanKWh), stat.Months)
	}
	fmt.Printf("Summer/winter ratio: %.2f (dominant: %s)\n", sp.SummerWinterRatio, sp.DominantSeason)
	fmt.Printf("Confidence:          %s\n", pct(sp.SeasonalConfidence))

	pr := p.Projection
	fmt.Printf("\nProjection (%s)\n", pr.Method)
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("%-8s  %12s  %12s  %12s\n", "Month", "Expected", "Low", "High")
	for _, m := range pr.Months {
		fmt.Printf("%-8s  %12s  %12s  %12s\n", m.Period,
			humanize.FormatFloat("#,###.", m.ExpectedKWh),
			humanize.FormatFloat("#,###.", m.LowerBound),
			humanize.FormatFloat("#,###.", m.UpperBound))
	}
	fmt.Printf("Projected annual:    %s\n", kwh(pr.ProjectedAnnualKWh))
	if chart := projectionChart(pr); chart != "" {
		fmt.Printf("\n%s\n", chart)
	}
	for _, a := range pr.Assumptions {
		fmt.Printf("  • %s\n", a)
	}
}
