// Package confidence blends component scores into the single [0, 1]
// confidence attached to a usage profile.
package confidence

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Reliability of each projection method when it feeds the overall profile
// confidence. A linear trend reports its own R² instead.
const (
	SeasonalAverageReliability = 0.90
	MovingAverageReliability   = 0.60
)

// Component is one weighted input to Blend
type Component struct {
	Score  float64
	Weight float64
}

// Blend returns the weighted mean of the clamped component scores. Components
// without a positive weight are skipped; if none remain the result is 0.
func Blend(components ...Component) float64 {
	scores := make([]float64, 0, len(components))
	weights := make([]float64, 0, len(components))
	for _, c := range components {
		if !(c.Weight > 0) || math.IsInf(c.Weight, 1) {
			continue
		}
		scores = append(scores, Clamp(c.Score))
		weights = append(weights, c.Weight)
	}
	if len(scores) == 0 {
		return 0
	}
	return Clamp(stat.Mean(scores, weights))
}

// HistoryFactor is the share of a full history that was observed, capped at 1
func HistoryFactor(observed, full int) float64 {
	if full <= 0 {
		return 1
	}
	return Clamp(float64(observed) / float64(full))
}

// Clamp bounds score to [0, 1]. NaN maps to 0.
func Clamp(score float64) float64 {
	switch {
	case math.IsNaN(score), score <= 0:
		return 0
	case score >= 1:
		return 1
	}
	return score
}
