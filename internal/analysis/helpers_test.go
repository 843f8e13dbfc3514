package analysis

import (
	"time"

	"github.com/jgoulah/gridprofile/pkg/models"
)

// monthly builds consecutive observed records starting at year/month
func monthly(year int, month time.Month, values ...float64) []models.UsageRecord {
	start := models.NewPeriod(year, month)
	records := make([]models.UsageRecord, len(values))
	for i, v := range values {
		records[i] = models.UsageRecord{Period: start.AddMonths(i), KWh: v}
	}
	return records
}

// without drops the records for the given periods
func without(records []models.UsageRecord, periods ...models.Period) []models.UsageRecord {
	drop := make(map[models.Period]bool, len(periods))
	for _, p := range periods {
		drop[p] = true
	}
	out := make([]models.UsageRecord, 0, len(records))
	for _, r := range records {
		if !drop[r.Period] {
			out = append(out, r)
		}
	}
	return out
}

func period(year int, month time.Month) models.Period {
	return models.NewPeriod(year, month)
}

func window(startYear int, startMonth time.Month, endYear int, endMonth time.Month) *models.Window {
	return &models.Window{Start: period(startYear, startMonth), End: period(endYear, endMonth)}
}

// seasonalYear is winter 800, spring 1000, summer 1600, fall 1200 for one calendar year
func seasonalYear(year int) []models.UsageRecord {
	return monthly(year, time.January,
		800, 800, // Jan, Feb
		1000, 1000, 1000, // Mar-May
		1600, 1600, 1600, // Jun-Aug
		1200, 1200, 1200, // Sep-Nov
		800, // Dec
	)
}

// baselineYear varies within ±5% of 1000 kWh
func baselineYear(year int) []models.UsageRecord {
	return monthly(year, time.January, 1000, 1030, 970, 1050, 950, 1000, 1020, 980, 1040, 960, 1010, 990)
}
