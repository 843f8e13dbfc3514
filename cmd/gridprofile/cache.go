package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jgoulah/gridprofile/internal/analysis"
	"github.com/jgoulah/gridprofile/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the profile cache",
}

var (
	invalidateOpts analyzeFlags
	purgeAll       bool
)

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Drop the cached profile for a user's current history",
	RunE:  runCacheInvalidate,
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired cached profiles",
	RunE:  runCachePurge,
}

func init() {
	invalidateOpts.registerInput(cacheInvalidateCmd)
	cachePurgeCmd.Flags().BoolVar(&purgeAll, "all", false, "Delete every cached profile, not only expired ones")
	cacheCmd.AddCommand(cacheInvalidateCmd, cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheInvalidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("configuring logging: %w", err)
	}

	window, err := parseWindow(invalidateOpts.from, invalidateOpts.to)
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	records, err := loadRecords(cmd.Context(), db, invalidateOpts.user, invalidateOpts.file)
	if err != nil {
		return err
	}

	analyzer := cache.NewAnalyzer(db, cfg.AnalysisConfig(), cache.Options{
		StoreTimeout: cfg.GetStoreTimeout(),
		Logger:       logger,
	})
	req := analysis.Request{UserID: invalidateOpts.user, Records: records, Window: window}
	if err := analyzer.Invalidate(cmd.Context(), req); err != nil {
		return err
	}

	fmt.Printf("✓ Invalidated cached profile for %s\n", invalidateOpts.user)
	return nil
}

func runCachePurge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	var removed int64
	if purgeAll {
		removed, err = db.ClearProfiles(cmd.Context())
	} else {
		removed, err = db.PurgeExpiredProfiles(cmd.Context())
	}
	if err != nil {
		return err
	}

	fmt.Printf("✓ Removed %d cached profile(s)\n", removed)
	return nil
}
