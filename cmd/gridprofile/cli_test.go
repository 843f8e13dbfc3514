package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/gridprofile/internal/database"
	"github.com/jgoulah/gridprofile/pkg/models"
)

func TestParseWindow(t *testing.T) {
	window, err := parseWindow("", "")
	require.NoError(t, err)
	assert.Nil(t, window)

	window, err = parseWindow("2024-01", "2024-12")
	require.NoError(t, err)
	assert.Equal(t, &models.Window{Start: models.NewPeriod(2024, time.January), End: models.NewPeriod(2024, time.December)}, window)

	_, err = parseWindow("2024-01", "")
	assert.ErrorContains(t, err, "must be given together")

	_, err = parseWindow("2024-13", "2025-01")
	assert.ErrorContains(t, err, "parsing --from")
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

func TestImportAnalyzeAndPurge(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	dbFile := filepath.Join(dir, "usage.db")
	csvPath := filepath.Join(dir, "usage.csv")
	metricsPath := filepath.Join(dir, "gridprofile.prom")

	values := []float64{800, 800, 1000, 1000, 1000, 1600, 1600, 1600, 1200, 1200, 1200, 800}
	var b strings.Builder
	b.WriteString("period,kwh\n")
	for i, v := range values {
		fmt.Fprintf(&b, "2024-%02d,%g\n", i+1, v)
	}
	require.NoError(t, os.WriteFile(csvPath, []byte(b.String()), 0600))
	require.NoError(t, os.WriteFile(cfgPath, []byte("logging:\n  level: error\n"), 0600))

	require.NoError(t, run(t, "--config", cfgPath, "--db", dbFile, "import", csvPath, "--user", "alice"))
	require.NoError(t, run(t, "--config", cfgPath, "--db", dbFile, "analyze", "--user", "alice",
		"--format", "json", "--metrics-file", metricsPath))

	db, err := database.New(dbFile)
	require.NoError(t, err)
	records, err := db.Records(context.Background(), "alice", nil)
	require.NoError(t, err)
	assert.Len(t, records, 12)
	require.NoError(t, db.Close())

	metricsBody, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(metricsBody), `gridprofile_analysis_profiles_total{profile_type="SEASONAL"} 1`)

	require.NoError(t, run(t, "--config", cfgPath, "--db", dbFile, "cache", "invalidate", "--user", "alice"))
	require.NoError(t, run(t, "--config", cfgPath, "--db", dbFile, "cache", "purge", "--all"))

	err = run(t, "--config", cfgPath, "--db", dbFile, "analyze", "--user", "nobody", "--format", "text")
	assert.ErrorContains(t, err, "no usage data stored for nobody")
}
