// Package analysis turns a monthly electricity usage history into a usage
// profile: descriptive statistics, data quality, seasonal pattern,
// classification and a 12-month projection. Everything here is a pure
// function of its inputs and safe for concurrent use.
package analysis

import (
	"fmt"

	"github.com/jgoulah/gridprofile/internal/confidence"
	"github.com/jgoulah/gridprofile/pkg/models"
)

const fullHistoryMonths = 12

// Weights of seasonal confidence, data quality and method reliability in the
// overall profile confidence
const (
	seasonalWeight    = 0.3
	qualityWeight     = 0.4
	reliabilityWeight = 0.3
)

// Request is one analysis job
type Request struct {
	UserID  string
	Records []models.UsageRecord
	Window  *models.Window // optional; defaults to the observed range
}

// Analyze runs the full pipeline. Caller-supplied records are all treated as
// observations. It fails only on invalid input or an empty record list;
// short, gappy or noisy histories produce a low-confidence profile instead.
func Analyze(cfg Config, req Request) (*models.UsageProfile, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("analysis config: %w", err)
	}

	normalized, err := Normalize(cfg, req.Records, req.Window)
	if err != nil {
		return nil, err
	}

	stats, err := ComputeStatistics(normalized.Series)
	if err != nil {
		return nil, err
	}

	seasonal := DetectSeasonality(normalized)
	class := Classify(cfg, normalized.Quality.ObservedMonths, stats, seasonal)
	projection := Project(cfg, normalized, seasonal)

	return &models.UsageProfile{
		UserID:               req.UserID,
		ProfileType:          class.Type,
		ClassificationReason: class.Reason,
		Statistics:           stats,
		Seasonal:             seasonal,
		DataQuality:          normalized.Quality,
		Projection:           projection,
		OverallConfidence:    overallConfidence(normalized.Quality, seasonal, projection),
	}, nil
}

// overallConfidence blends seasonal confidence, data quality and the
// reliability of the chosen method, then scales by how much of a full year of
// history was actually observed
func overallConfidence(quality models.DataQualityReport, seasonal models.SeasonalProfile, projection models.ProjectionResult) float64 {
	var reliability float64
	switch projection.Method {
	case models.MethodSeasonalAverage:
		reliability = confidence.SeasonalAverageReliability
	case models.MethodLinearTrend:
		reliability = projection.RSquared
	default:
		reliability = confidence.MovingAverageReliability
	}

	blended := confidence.Blend(
		confidence.Component{Score: seasonal.SeasonalConfidence, Weight: seasonalWeight},
		confidence.Component{Score: quality.QualityScore, Weight: qualityWeight},
		confidence.Component{Score: reliability, Weight: reliabilityWeight},
	)
	return confidence.Clamp(blended * confidence.HistoryFactor(quality.ObservedMonths, fullHistoryMonths))
}
