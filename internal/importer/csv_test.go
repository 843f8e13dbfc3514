package importer

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/gridprofile/pkg/models"
)

func TestParseCSV_Monthly(t *testing.T) {
	input := "Period,Usage (kWh)\n2024-02,\"1,020 kWh\"\n2024-01,980\n\n2024-03,  1010\n"

	result, err := ParseCSV(strings.NewReader(input), Options{})
	require.NoError(t, err)

	assert.Equal(t, models.SourceMonthly, result.Source)
	assert.Equal(t, 3, result.Rows)
	assert.Equal(t, []models.UsageRecord{
		{Period: models.NewPeriod(2024, time.January), KWh: 980},
		{Period: models.NewPeriod(2024, time.February), KWh: 1020},
		{Period: models.NewPeriod(2024, time.March), KWh: 1010},
	}, result.Records)
}

func dailyCSV(year int, month time.Month, days int, kwh float64) string {
	var b strings.Builder
	for d := 1; d <= days; d++ {
		fmt.Fprintf(&b, "%04d-%02d-%02d,%g\n", year, month, d, kwh)
	}
	return b.String()
}

func TestParseCSV_DailyAggregatesMonths(t *testing.T) {
	input := "Date,kWh\n" + dailyCSV(2024, time.February, 29, 10) + dailyCSV(2024, time.March, 31, 20)

	result, err := ParseCSV(strings.NewReader(input), Options{})
	require.NoError(t, err)

	assert.Equal(t, models.SourceDaily, result.Source)
	assert.Equal(t, 60, result.Rows)
	assert.Empty(t, result.PartialMonths)
	require.Len(t, result.Records, 2)
	assert.InDelta(t, 290, result.Records[0].KWh, 1e-9)
	assert.InDelta(t, 620, result.Records[1].KWh, 1e-9)
}

func TestParseCSV_PartialMonths(t *testing.T) {
	input := "Date,kWh\n" + dailyCSV(2024, time.April, 30, 10) + dailyCSV(2024, time.May, 12, 10)

	dropped, err := ParseCSV(strings.NewReader(input), Options{})
	require.NoError(t, err)
	assert.Equal(t, []models.Period{models.NewPeriod(2024, time.May)}, dropped.PartialMonths)
	require.Len(t, dropped.Records, 1)
	assert.Equal(t, models.NewPeriod(2024, time.April), dropped.Records[0].Period)

	kept, err := ParseCSV(strings.NewReader(input), Options{KeepPartialMonths: true})
	require.NoError(t, err)
	require.Len(t, kept.Records, 2)
	assert.InDelta(t, 120, kept.Records[1].KWh, 1e-9)
}

func TestParseCSV_IntervalReadings(t *testing.T) {
	var b strings.Builder
	b.WriteString("Date,Start Time,Usage\n")
	for d := 1; d <= 30; d++ {
		for h := 0; h < 24; h++ {
			fmt.Fprintf(&b, "2024-06-%02d %02d:00:00,ignored,0.5\n", d, h)
		}
	}

	result, err := ParseCSV(strings.NewReader(b.String()), Options{})
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.InDelta(t, 360, result.Records[0].KWh, 1e-9)
}

func TestParseCSV_SkipsUnparseableUsage(t *testing.T) {
	input := "month,kwh\n2024-01,n/a\n2024-02,900\n2024-03\n"

	result, err := ParseCSV(strings.NewReader(input), Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, []models.UsageRecord{{Period: models.NewPeriod(2024, time.February), KWh: 900}}, result.Records)
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "reading CSV header"},
		{"missing columns", "when,amount\n2024-01,5\n", "could not find required columns"},
		{"negative", "period,kwh\n2024-01,-4\n", "negative usage"},
		{"nan", "month,kwh\n2024-01,NaN\n2024-02,900\n", "row 2: non-finite usage"},
		{"infinity", "month,kwh\n2024-01,800\n2024-02,+Inf\n", "row 3: non-finite usage"},
		{"daily infinity", "date,kwh\n2024-01-01,30\n2024-01-02,-inf\n", "non-finite usage"},
		{"duplicate month", "period,kwh\n2024-01,4\n2024-01,5\n", "duplicate reading for 2024-01"},
		{"bad date", "date,kwh\nyesterday,5\n", "unable to parse date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.input), Options{})
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestParseCSV_MixedGranularity(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("date,kwh\n2024-01,900\n2024-02-01,30\n"), Options{})
	assert.True(t, errors.Is(err, ErrMixedGranularity))
}
