// Package importer reads utility usage exports into monthly usage records.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jgoulah/gridprofile/pkg/models"
)

// ErrMixedGranularity is returned when a file mixes monthly and daily rows
var ErrMixedGranularity = errors.New("file mixes monthly and daily readings")

// dailyFormats are tried in order for rows that are not a bare YYYY-MM month
var dailyFormats = []string{
	"2006-01-02 15:04:05-07:00",
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"Jan 2, 2006",
	"January 2, 2006",
}

// Options controls how daily readings are aggregated
type Options struct {
	// KeepPartialMonths keeps months whose daily readings do not cover every
	// day. By default they are dropped since their totals undercount.
	KeepPartialMonths bool
}

// Result is the outcome of one import
type Result struct {
	Records       []models.UsageRecord
	Source        string // models.SourceMonthly or models.SourceDaily
	Rows          int
	Skipped       int
	PartialMonths []models.Period
}

// ParseCSV reads a usage export with a header row. The date column may be
// named date, period or month and the usage column usage or kwh. Rows dated
// YYYY-MM are monthly totals; rows with a full date (or timestamp) are summed
// into calendar months.
func ParseCSV(r io.Reader, opts Options) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	dateCol, usageCol := findColumns(header)
	if dateCol == -1 || usageCol == -1 {
		return nil, fmt.Errorf("could not find required columns (date and usage) in CSV. Header: %v", header)
	}

	monthly := make(map[models.Period]float64)
	daily := make(map[models.Period]float64)
	days := make(map[models.Period]map[int]bool)
	result := &Result{}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("reading CSV row %d: %w", line, err)
		}
		if len(record) <= dateCol || len(record) <= usageCol {
			result.Skipped++
			continue
		}

		dateStr := strings.TrimSpace(record[dateCol])
		if dateStr == "" {
			result.Skipped++
			continue
		}

		kwh, err := parseKWh(record[usageCol])
		if err != nil {
			result.Skipped++
			continue
		}
		if math.IsNaN(kwh) || math.IsInf(kwh, 0) {
			return nil, fmt.Errorf("row %d: non-finite usage %q", line, record[usageCol])
		}
		if kwh < 0 {
			return nil, fmt.Errorf("row %d: negative usage %g kWh", line, kwh)
		}
		result.Rows++

		if period, err := models.ParsePeriod(dateStr); err == nil {
			if _, dup := monthly[period]; dup {
				return nil, fmt.Errorf("row %d: duplicate reading for %s", line, period)
			}
			monthly[period] = kwh
			continue
		}

		date, err := parseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		period := models.PeriodOf(date)
		daily[period] += kwh
		if days[period] == nil {
			days[period] = make(map[int]bool)
		}
		days[period][date.Day()] = true
	}

	switch {
	case len(monthly) > 0 && len(daily) > 0:
		return nil, ErrMixedGranularity
	case len(monthly) > 0:
		result.Source = models.SourceMonthly
		result.Records = sortedRecords(monthly)
	default:
		result.Source = models.SourceDaily
		result.PartialMonths = make([]models.Period, 0)
		for period := range daily {
			if len(days[period]) < daysIn(period) {
				result.PartialMonths = append(result.PartialMonths, period)
				if !opts.KeepPartialMonths {
					delete(daily, period)
				}
			}
		}
		sort.Slice(result.PartialMonths, func(i, j int) bool {
			return result.PartialMonths[i].Before(result.PartialMonths[j])
		})
		result.Records = sortedRecords(daily)
	}

	return result, nil
}

func findColumns(header []string) (dateCol, usageCol int) {
	dateCol, usageCol = -1, -1
	for i, col := range header {
		colLower := strings.ToLower(strings.TrimSpace(col))
		switch {
		case dateCol == -1 && (colLower == "period" || colLower == "month" ||
			(strings.Contains(colLower, "date") && !strings.Contains(colLower, "time"))):
			dateCol = i
		case usageCol == -1 && (strings.Contains(colLower, "usage") || strings.Contains(colLower, "kwh")):
			usageCol = i
		}
	}
	return dateCol, usageCol
}

func parseDate(s string) (time.Time, error) {
	for _, format := range dailyFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}

func parseKWh(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ToLower(s)
	s = strings.TrimSuffix(s, "kwh")

	if s == "" {
		return 0, fmt.Errorf("empty string")
	}
	return strconv.ParseFloat(s, 64)
}

func daysIn(p models.Period) int {
	return time.Date(p.Year, p.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func sortedRecords(totals map[models.Period]float64) []models.UsageRecord {
	records := make([]models.UsageRecord, 0, len(totals))
	for period, kwh := range totals {
		records = append(records, models.UsageRecord{Period: period, KWh: kwh})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Period.Before(records[j].Period)
	})
	return records
}
