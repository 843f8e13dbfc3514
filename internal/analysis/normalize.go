package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/jgoulah/gridprofile/internal/confidence"
	"github.com/jgoulah/gridprofile/pkg/models"
)

const (
	madToSigma        = 1.4826 // MAD of a normal distribution → standard deviation
	meanADToSigma     = 1.2533 // mean absolute deviation → standard deviation
	minRelativeSpread = 0.01   // dispersion floor as a fraction of the median
	minSeasonSample   = 3      // observed months a season needs for its median to be the baseline
)

// Normalized is a contiguous, outlier-flagged usage series and its quality report
type Normalized struct {
	Series  []models.UsageRecord
	Quality models.DataQualityReport

	outliers map[int]bool // by period index
}

// IsOutlier reports whether the observed value for p was flagged
func (n *Normalized) IsOutlier(p models.Period) bool {
	return n.outliers[p.Index()]
}

// Sufficient reports whether enough months were observed for the series to
// be interpolated and analyzed
func (n *Normalized) Sufficient(cfg Config) bool {
	return n.Quality.ObservedMonths >= cfg.MinObservedMonths
}

// fitRecords returns the records eligible for model fitting: everything
// except flagged outliers
func (n *Normalized) fitRecords() []models.UsageRecord {
	out := make([]models.UsageRecord, 0, len(n.Series))
	for _, r := range n.Series {
		if !n.outliers[r.Period.Index()] {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return n.Series
	}
	return out
}

// Normalize builds a new chronologically contiguous series from raw records.
// Gaps inside the expected range are linearly interpolated, edges are
// extrapolated flat, and anomalous observed values are flagged but kept.
// The input slice is not modified.
func Normalize(cfg Config, records []models.UsageRecord, window *models.Window) (*Normalized, error) {
	if len(records) == 0 {
		return nil, &InsufficientDataError{Message: "no usage records supplied"}
	}
	if err := validateRecords(records); err != nil {
		return nil, err
	}
	if err := validateWindow(window); err != nil {
		return nil, err
	}

	observed := make([]models.UsageRecord, 0, len(records))
	for _, r := range records {
		if window != nil && !window.Contains(r.Period) {
			continue
		}
		observed = append(observed, models.UsageRecord{Period: r.Period, KWh: r.KWh})
	}
	if len(observed) == 0 {
		return nil, &ValidationError{Field: "window", Message: "no usage records fall inside the requested window"}
	}
	sort.Slice(observed, func(i, j int) bool {
		return observed[i].Period.Index() < observed[j].Period.Index()
	})

	expected := models.Window{Start: observed[0].Period, End: observed[len(observed)-1].Period}
	if window != nil {
		expected = *window
	}

	byIndex := make(map[int]bool, len(observed))
	for _, r := range observed {
		byIndex[r.Period.Index()] = true
	}
	missing := make([]models.Period, 0)
	for idx := expected.Start.Index(); idx <= expected.End.Index(); idx++ {
		if !byIndex[idx] {
			missing = append(missing, models.PeriodFromIndex(idx))
		}
	}

	n := &Normalized{
		outliers: make(map[int]bool),
		Quality: models.DataQualityReport{
			ExpectedMonths: expected.Months(),
			ObservedMonths: len(observed),
			MissingPeriods: missing,
			Outliers:       make([]models.Outlier, 0),
		},
	}
	n.Quality.Completeness = confidence.Clamp(float64(len(observed)) / float64(expected.Months()))

	// A near-empty history is passed through as-is rather than filled in
	if len(observed) < cfg.MinObservedMonths {
		n.Series = observed
		n.Quality.QualityScore = n.Quality.Completeness
		return n, nil
	}

	n.Series = fillGaps(observed, expected)
	n.Quality.InterpolatedMonths = len(n.Series) - len(observed)

	n.Quality.Outliers = detectOutliers(cfg, observed, n.Series)
	for _, o := range n.Quality.Outliers {
		n.outliers[o.Period.Index()] = true
	}

	// clean observed months over expected months
	clean := len(observed) - len(n.Quality.Outliers)
	n.Quality.QualityScore = confidence.Clamp(float64(clean) / float64(expected.Months()))
	return n, nil
}

// fillGaps returns one record per period of the window. observed must be
// sorted and non-empty.
func fillGaps(observed []models.UsageRecord, window models.Window) []models.UsageRecord {
	series := make([]models.UsageRecord, 0, window.Months())
	next := 0 // first observed record at or after the current period

	for idx := window.Start.Index(); idx <= window.End.Index(); idx++ {
		for next < len(observed) && observed[next].Period.Index() < idx {
			next++
		}
		if next < len(observed) && observed[next].Period.Index() == idx {
			series = append(series, observed[next])
			continue
		}

		var kwh float64
		switch {
		case next == 0:
			kwh = observed[0].KWh
		case next == len(observed):
			kwh = observed[len(observed)-1].KWh
		default:
			prev, following := observed[next-1], observed[next]
			span := float64(following.Period.Index() - prev.Period.Index())
			offset := float64(idx - prev.Period.Index())
			kwh = prev.KWh + (following.KWh-prev.KWh)*offset/span
		}
		series = append(series, models.UsageRecord{
			Period:         models.PeriodFromIndex(idx),
			KWh:            kwh,
			IsInterpolated: true,
		})
	}
	return series
}

// detectOutliers flags observed values whose robust z-score exceeds the
// configured threshold. Each value is compared against a baseline for its own
// season, so a regular summer peak is not mistaken for an anomaly: the season
// median when the season is well sampled, otherwise the season value closest
// to the overall median.
//
// The dispersion is measured over every month of the filled series, not just
// the observed ones. An interpolated month inside the observed range
// contributes its distance from its season baseline; a month extrapolated past
// either edge, or in a season with no observations, contributes zero. The
// sample size is therefore fixed by the window, and a missing month can only
// move the scale toward what its interpolated value implies.
func detectOutliers(cfg Config, observed, series []models.UsageRecord) []models.Outlier {
	values := kwhValues(observed)
	overall := median(values)

	bySeason := make(map[models.Season][]float64)
	for _, r := range observed {
		s := r.Period.Season()
		bySeason[s] = append(bySeason[s], r.KWh)
	}
	baseline := make(map[models.Season]float64)
	for _, s := range models.Seasons {
		values := bySeason[s]
		switch {
		case len(values) >= minSeasonSample:
			baseline[s] = median(values)
		case len(values) > 0:
			baseline[s] = nearest(values, overall)
		}
	}

	first, last := observed[0].Period.Index(), observed[len(observed)-1].Period.Index()
	deviations := make([]float64, 0, len(series))
	for _, r := range series {
		idx := r.Period.Index()
		base, ok := baseline[r.Period.Season()]
		if !ok || (r.IsInterpolated && (idx < first || idx > last)) {
			deviations = append(deviations, 0)
			continue
		}
		deviations = append(deviations, math.Abs(r.KWh-base))
	}

	scale := madToSigma * median(deviations)
	if scale == 0 {
		scale = meanADToSigma * mean(deviations)
	}
	if floor := minRelativeSpread * math.Abs(overall); scale < floor {
		scale = floor
	}

	outliers := make([]models.Outlier, 0)
	if scale == 0 {
		return outliers
	}
	for _, r := range observed {
		z := math.Abs(r.KWh-baseline[r.Period.Season()]) / scale
		if z <= cfg.OutlierZScore {
			continue
		}
		direction := "above"
		if r.KWh < baseline[r.Period.Season()] {
			direction = "below"
		}
		outliers = append(outliers, models.Outlier{
			Period: r.Period,
			KWh:    r.KWh,
			ZScore: z,
			Reason: fmt.Sprintf("%.1f kWh is %.1f robust deviations %s the %s baseline of %.1f kWh (threshold %.1f)",
				r.KWh, z, direction, r.Period.Season(), baseline[r.Period.Season()], cfg.OutlierZScore),
		})
	}
	return outliers
}

// nearest returns the value closest to target, preferring the earliest on ties
func nearest(values []float64, target float64) float64 {
	best := values[0]
	for _, v := range values[1:] {
		if math.Abs(v-target) < math.Abs(best-target) {
			best = v
		}
	}
	return best
}
