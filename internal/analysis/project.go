package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/jgoulah/gridprofile/internal/confidence"
	"github.com/jgoulah/gridprofile/pkg/models"
)

// model is a fitted forecasting method: it predicts kWh for any period and
// explains itself through assumptions
type model struct {
	method      models.ProjectionMethod
	predict     func(p models.Period) float64
	rSquared    float64
	assumptions []string
}

// trendFit is an ordinary least squares line of kWh against month index
type trendFit struct {
	origin    int // month index of x = 0
	slope     float64
	intercept float64
	rSquared  float64
	ok        bool
}

func (t trendFit) at(p models.Period) float64 {
	return t.intercept + t.slope*float64(p.Index()-t.origin)
}

// Project forecasts the months following the normalized series. The method is
// chosen by fixed predicates in priority order: seasonal average when the
// seasonal pattern is trusted, then a linear trend when the fit is good,
// otherwise a trailing moving average.
func Project(cfg Config, n *Normalized, seasonal models.SeasonalProfile) models.ProjectionResult {
	history := n.fitRecords()
	trend := fitTrend(history)

	var m model
	switch selectMethod(cfg, seasonal, trend) {
	case models.MethodSeasonalAverage:
		m = seasonalAverageModel(cfg, history, seasonal)
	case models.MethodLinearTrend:
		m = linearTrendModel(cfg, seasonal, trend)
	default:
		m = movingAverageModel(cfg, n, history, seasonal, trend)
	}

	residuals := make([]float64, len(history))
	for i, r := range history {
		residuals[i] = r.KWh - m.predict(r.Period)
	}
	residualStd := stdDev(residuals)
	margin := cfg.ConfidenceZ * residualStd

	result := models.ProjectionResult{
		Months:         make([]models.ProjectedMonth, 0, cfg.ProjectionMonths),
		Method:         m.method,
		ResidualStdDev: residualStd,
		RSquared:       m.rSquared,
		Assumptions:    m.assumptions,
	}

	clamped := false
	start := n.Series[len(n.Series)-1].Period.Next()
	for i := 0; i < cfg.ProjectionMonths; i++ {
		p := start.AddMonths(i)
		expected := m.predict(p)
		if expected < 0 {
			expected = 0
			clamped = true
		}
		result.Months = append(result.Months, models.ProjectedMonth{
			Period:      p,
			ExpectedKWh: expected,
			LowerBound:  math.Max(0, expected-margin),
			UpperBound:  expected + margin,
		})
		result.ProjectedAnnualKWh += expected
	}

	if outliers := len(n.Series) - len(history); outliers > 0 {
		result.Assumptions = append(result.Assumptions, fmt.Sprintf("%d outlier month(s) excluded from the fit", outliers))
	}
	if n.Quality.InterpolatedMonths > 0 {
		result.Assumptions = append(result.Assumptions, fmt.Sprintf("%d interpolated month(s) included in the fit", n.Quality.InterpolatedMonths))
	}
	if clamped {
		result.Assumptions = append(result.Assumptions, "negative projected values clamped to 0 kWh")
	}
	result.Assumptions = append(result.Assumptions,
		fmt.Sprintf("interval is expected ± %.2f × residual std of %.1f kWh over %d months", cfg.ConfidenceZ, residualStd, len(history)))

	return result
}

// selectMethod is the explicit, ordered method predicate
func selectMethod(cfg Config, seasonal models.SeasonalProfile, trend trendFit) models.ProjectionMethod {
	if seasonal.SeasonalConfidence > cfg.SeasonalConfidenceThreshold {
		return models.MethodSeasonalAverage
	}
	if trend.ok && trend.rSquared > cfg.TrendR2Threshold {
		return models.MethodLinearTrend
	}
	return models.MethodMovingAverage
}

func seasonalAverageModel(cfg Config, history []models.UsageRecord, seasonal models.SeasonalProfile) model {
	bySeason := make(map[models.Season][]float64)
	for _, r := range history {
		bySeason[r.Period.Season()] = append(bySeason[r.Period.Season()], r.KWh)
	}
	overall := mean(kwhValues(history))

	assumptions := []string{
		fmt.Sprintf("seasonal average: seasonal pattern confidence %.2f > %.2f threshold",
			seasonal.SeasonalConfidence, cfg.SeasonalConfidenceThreshold),
	}
	means := make(map[models.Season]float64, len(models.Seasons))
	for _, s := range models.Seasons {
		if values := bySeason[s]; len(values) > 0 {
			means[s] = mean(values)
			continue
		}
		means[s] = overall
		assumptions = append(assumptions, fmt.Sprintf("no %s history; using overall mean of %.1f kWh", s, overall))
	}

	return model{
		method: models.MethodSeasonalAverage,
		predict: func(p models.Period) float64 {
			return means[p.Season()]
		},
		assumptions: assumptions,
	}
}

func linearTrendModel(cfg Config, seasonal models.SeasonalProfile, trend trendFit) model {
	return model{
		method:   models.MethodLinearTrend,
		predict:  trend.at,
		rSquared: trend.rSquared,
		assumptions: []string{
			fmt.Sprintf("linear trend: seasonal pattern confidence %.2f <= %.2f threshold and trend R² %.2f > %.2f threshold",
				seasonal.SeasonalConfidence, cfg.SeasonalConfidenceThreshold, trend.rSquared, cfg.TrendR2Threshold),
			fmt.Sprintf("usage changes by %+.1f kWh per month", trend.slope),
		},
	}
}

func movingAverageModel(cfg Config, n *Normalized, history []models.UsageRecord, seasonal models.SeasonalProfile, trend trendFit) model {
	window := cfg.MovingAverageWindow
	if observed := n.Quality.ObservedMonths; observed < window {
		window = observed
	}
	if window > len(history) {
		window = len(history)
	}
	level := mean(kwhValues(history[len(history)-window:]))

	reason := fmt.Sprintf("moving average: seasonal pattern confidence %.2f <= %.2f threshold", seasonal.SeasonalConfidence, cfg.SeasonalConfidenceThreshold)
	if trend.ok {
		reason += fmt.Sprintf(" and trend R² %.2f <= %.2f threshold", trend.rSquared, cfg.TrendR2Threshold)
	} else {
		reason += "; no usable trend fit"
	}

	return model{
		method: models.MethodMovingAverage,
		predict: func(models.Period) float64 {
			return level
		},
		assumptions: []string{
			reason,
			fmt.Sprintf("trailing %d-month mean of %.1f kWh held flat", window, level),
		},
	}
}

// fitTrend regresses kWh on month index. A fit needs three points and some
// spread in both axes; otherwise it is reported as not ok with R² = 0.
func fitTrend(history []models.UsageRecord) trendFit {
	if len(history) < 3 {
		return trendFit{}
	}

	origin := history[0].Period.Index()
	xs := make([]float64, len(history))
	ys := kwhValues(history)
	for i, r := range history {
		xs[i] = float64(r.Period.Index() - origin)
	}

	if stdDev(xs) == 0 || stdDev(ys) == 0 {
		return trendFit{}
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	return trendFit{
		origin:    origin,
		slope:     slope,
		intercept: intercept,
		rSquared:  confidence.Clamp(stat.RSquared(xs, ys, nil, intercept, slope)),
		ok:        true,
	}
}
