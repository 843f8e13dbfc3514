package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jgoulah/gridprofile/internal/importer"
)

var (
	importUser        string
	importKeepPartial bool
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import usage history from a CSV export",
	Long: `Reads a CSV export with a date and a usage column. Rows dated YYYY-MM are stored
as monthly totals; daily or interval readings are summed into calendar months.
Existing months for the user are replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importUser, "user", "", "User the readings belong to (required)")
	importCmd.Flags().BoolVar(&importKeepPartial, "keep-partial", false, "Keep months not fully covered by daily readings")
	importCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer f.Close()

	result, err := importer.ParseCSV(f, importer.Options{KeepPartialMonths: importKeepPartial})
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}

	fmt.Printf("Read %s %s rows from %s", humanize.Comma(int64(result.Rows)), result.Source, args[0])
	if result.Skipped > 0 {
		fmt.Printf(" (%d skipped)", result.Skipped)
	}
	fmt.Println()

	for _, p := range result.PartialMonths {
		if importKeepPartial {
			fmt.Printf("⚠ %s is only partially covered; keeping it\n", p)
		} else {
			fmt.Printf("⚠ %s is only partially covered; skipping it (use --keep-partial to keep)\n", p)
		}
	}

	if len(result.Records) == 0 {
		fmt.Println("No complete months to import")
		return nil
	}

	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.UpsertUsage(cmd.Context(), importUser, result.Source, result.Records); err != nil {
		return fmt.Errorf("saving usage: %w", err)
	}

	first, last := result.Records[0].Period, result.Records[len(result.Records)-1].Period
	fmt.Printf("✓ Stored %d months for %s (%s to %s)\n", len(result.Records), importUser, first, last)
	return nil
}
