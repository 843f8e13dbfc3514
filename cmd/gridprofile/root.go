package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jgoulah/gridprofile/internal/config"
	"github.com/jgoulah/gridprofile/internal/database"
	"github.com/jgoulah/gridprofile/internal/logging"
	"github.com/jgoulah/gridprofile/pkg/models"
)

var (
	cfgFile string
	dbPath  string
)

var rootCmd = &cobra.Command{
	Use:   "gridprofile",
	Short: "Analyze monthly electricity usage into a usage profile",
	Long: `GridProfile imports monthly (or daily) kWh history from utility exports into a
local SQLite database and analyzes it: statistics, data quality, seasonal pattern,
a profile classification and a 12-month projection with confidence intervals.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file (default from config, or ./gridprofile.db)")
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// loadConfig loads the configuration file
func loadConfig() (*config.Config, error) {
	return config.Load(getConfigPath())
}

// newLogger builds the structured logger; it writes to stderr so command
// output on stdout stays parseable
func newLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(cfg.Logging, os.Stderr)
}

// openDB opens the database connection
func openDB(cfg *config.Config) (*database.DB, error) {
	path := dbPath
	if path == "" {
		path = cfg.GetDatabase()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	return database.New(path)
}

// parseWindow turns --from/--to flags into an analysis window; both empty
// means the full stored history
func parseWindow(from, to string) (*models.Window, error) {
	if from == "" && to == "" {
		return nil, nil
	}
	if from == "" || to == "" {
		return nil, fmt.Errorf("--from and --to must be given together")
	}

	start, err := models.ParsePeriod(from)
	if err != nil {
		return nil, fmt.Errorf("parsing --from: %w", err)
	}
	end, err := models.ParsePeriod(to)
	if err != nil {
		return nil, fmt.Errorf("parsing --to: %w", err)
	}
	return &models.Window{Start: start, End: end}, nil
}
