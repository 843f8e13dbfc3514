package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/jgoulah/gridprofile/pkg/models"
)

// ComputeStatistics returns descriptive statistics over every record of the
// series, observed and interpolated alike
func ComputeStatistics(series []models.UsageRecord) (models.Statistics, error) {
	if len(series) == 0 {
		return models.Statistics{}, &InsufficientDataError{Message: "cannot compute statistics over an empty series"}
	}

	values := kwhValues(series)
	mean := mean(values)
	std := stdDev(values)

	stats := models.Statistics{
		Count:     len(values),
		MeanKWh:   mean,
		MedianKWh: median(values),
		StdDevKWh: std,
		MinKWh:    values[0],
		MaxKWh:    values[0],
	}
	for _, v := range values[1:] {
		stats.MinKWh = math.Min(stats.MinKWh, v)
		stats.MaxKWh = math.Max(stats.MaxKWh, v)
	}

	// CV is undefined for a zero mean; 0 keeps the classifier on the stable branches
	if mean > 0 {
		stats.CoefficientOfVariation = std / mean
	}

	stats.AnnualTotalKWh = annualTotal(values)
	return stats, nil
}

// annualTotal scales a short series up to 12 months and uses the trailing
// 12 months of a longer one
func annualTotal(values []float64) float64 {
	switch {
	case len(values) == 12:
		return floats.Sum(values)
	case len(values) < 12:
		return floats.Sum(values) * 12 / float64(len(values))
	default:
		return floats.Sum(values[len(values)-12:])
	}
}

func kwhValues(series []models.UsageRecord) []float64 {
	values := make([]float64, len(series))
	for i, r := range series {
		values[i] = r.KWh
	}
	return values
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// stdDev is the population standard deviation
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	_, std := stat.PopMeanStdDev(values, nil)
	return std
}

// median averages the two middle values of an even-length sample.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
