package analysis

import (
	"time"

	"github.com/jgoulah/gridprofile/internal/confidence"
	"github.com/jgoulah/gridprofile/pkg/models"
)

const (
	winterFloorKWh       = 1.0  // keeps the summer/winter ratio finite
	singleYearCeiling    = 0.75 // confidence ceiling while repetition across years is unverified
	unpairedSeasonCap    = 0.5  // confidence cap when summer or winter was never observed
	consistencyWeight    = 0.25 // share of confidence earned by year-over-year agreement
	minYearsForRepeating = 2
)

// DetectSeasonality groups the normalized series by calendar season and
// scores how much the resulting pattern can be trusted
func DetectSeasonality(n *Normalized) models.SeasonalProfile {
	profile := models.SeasonalProfile{
		Seasons:      make([]models.SeasonStat, 0, len(models.Seasons)),
		YearlyRatios: make([]float64, 0),
	}

	fit := make(map[models.Season][]float64)
	all := make(map[models.Season][]float64)
	for _, r := range n.Series {
		s := r.Period.Season()
		all[s] = append(all[s], r.KWh)
		if !n.IsOutlier(r.Period) {
			fit[s] = append(fit[s], r.KWh)
		}
	}

	for _, s := range models.Seasons {
		values := fit[s]
		if len(values) == 0 {
			values = all[s]
		}
		profile.Seasons = append(profile.Seasons, models.SeasonStat{
			Season:  s,
			MeanKWh: mean(values),
			Months:  len(values),
		})
	}

	best := -1.0
	for _, stat := range profile.Seasons {
		if stat.Months > 0 && stat.MeanKWh > best {
			best = stat.MeanKWh
			profile.DominantSeason = stat.Season
		}
	}

	summer, hasSummer := profile.Mean(models.SeasonSummer)
	winter, hasWinter := profile.Mean(models.SeasonWinter)
	profile.SummerWinterRatio = 1.0
	if hasSummer && hasWinter {
		profile.SummerWinterRatio = summerWinterRatio(summer, winter)
	}

	profile.Coverage = summerWinterCoverage(n.Series)
	profile.YearlyRatios = yearlyRatios(n)

	score := profile.Coverage * singleYearCeiling
	if len(profile.YearlyRatios) >= minYearsForRepeating {
		cv := 0.0
		if m := mean(profile.YearlyRatios); m > 0 {
			cv = stdDev(profile.YearlyRatios) / m
		}
		consistency := 1 / (1 + cv)
		score = profile.Coverage * (1 - consistencyWeight + consistencyWeight*consistency)
	}
	if !observedSeason(n.Series, models.SeasonSummer) || !observedSeason(n.Series, models.SeasonWinter) {
		if score > unpairedSeasonCap {
			score = unpairedSeasonCap
		}
	}
	profile.SeasonalConfidence = confidence.Clamp(score)

	return profile
}

func summerWinterRatio(summer, winter float64) float64 {
	if winter < winterFloorKWh {
		winter = winterFloorKWh
	}
	return summer / winter
}

// summerWinterCoverage averages, over summer and winter, the fraction of the
// season's three calendar months observed at least once. Spring and fall do
// not feed the summer/winter ratio, so they do not count.
func summerWinterCoverage(series []models.UsageRecord) float64 {
	seen := make(map[models.Season]map[time.Month]bool, 2)
	for _, r := range series {
		s := r.Period.Season()
		if r.IsInterpolated || (s != models.SeasonSummer && s != models.SeasonWinter) {
			continue
		}
		if seen[s] == nil {
			seen[s] = make(map[time.Month]bool, 3)
		}
		seen[s][r.Period.Month] = true
	}
	return float64(len(seen[models.SeasonSummer])+len(seen[models.SeasonWinter])) / 6
}

func observedSeason(series []models.UsageRecord, season models.Season) bool {
	for _, r := range series {
		if !r.IsInterpolated && r.Period.Season() == season {
			return true
		}
	}
	return false
}

// yearlyRatios computes one summer/winter ratio per calendar year in which
// both seasons were observed. Winter of year Y is January, February and
// December of Y.
func yearlyRatios(n *Normalized) []float64 {
	type yearSeasons struct {
		summer, winter                 []float64
		summerObserved, winterObserved bool
	}
	years := make(map[int]*yearSeasons)
	order := make([]int, 0)

	for _, r := range n.Series {
		s := r.Period.Season()
		if s != models.SeasonSummer && s != models.SeasonWinter {
			continue
		}
		y, ok := years[r.Period.Year]
		if !ok {
			y = &yearSeasons{}
			years[r.Period.Year] = y
			order = append(order, r.Period.Year)
		}
		if n.IsOutlier(r.Period) {
			continue
		}
		if s == models.SeasonSummer {
			y.summer = append(y.summer, r.KWh)
			y.summerObserved = y.summerObserved || !r.IsInterpolated
		} else {
			y.winter = append(y.winter, r.KWh)
			y.winterObserved = y.winterObserved || !r.IsInterpolated
		}
	}

	ratios := make([]float64, 0, len(order))
	for _, year := range order {
		y := years[year]
		if !y.summerObserved || !y.winterObserved {
			continue
		}
		ratios = append(ratios, summerWinterRatio(mean(y.summer), mean(y.winter)))
	}
	return ratios
}
