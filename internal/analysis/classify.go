package analysis

import (
	"fmt"

	"github.com/jgoulah/gridprofile/pkg/models"
)

// Classification is the profile type together with the rule that produced it
type Classification struct {
	Type   models.ProfileType
	Reason string
}

// Classify applies the ordered decision list; the first matching rule wins.
// Seasonality is checked before dispersion so a stable but strongly seasonal
// user is not reported as VARIABLE.
func Classify(cfg Config, observedMonths int, stats models.Statistics, seasonal models.SeasonalProfile) Classification {
	switch {
	case observedMonths < cfg.MinObservedMonths:
		return Classification{
			Type:   models.ProfileInsufficientData,
			Reason: fmt.Sprintf("%d observed months, %d required", observedMonths, cfg.MinObservedMonths),
		}

	case seasonal.SeasonalConfidence > cfg.SeasonalConfidenceThreshold &&
		seasonal.SummerWinterRatio >= cfg.SeasonalRatioThreshold:
		return Classification{
			Type: models.ProfileSeasonal,
			Reason: fmt.Sprintf("summer/winter ratio %.2f >= %.2f with seasonal confidence %.2f",
				seasonal.SummerWinterRatio, cfg.SeasonalRatioThreshold, seasonal.SeasonalConfidence),
		}

	case stats.MeanKWh > cfg.HighUserMeanKWh && stats.CoefficientOfVariation < cfg.HighUserMaxCV:
		return Classification{
			Type: models.ProfileHighUser,
			Reason: fmt.Sprintf("mean %.1f kWh > %.0f kWh with CV %.3f < %.2f",
				stats.MeanKWh, cfg.HighUserMeanKWh, stats.CoefficientOfVariation, cfg.HighUserMaxCV),
		}

	case stats.CoefficientOfVariation >= cfg.VariableMinCV:
		return Classification{
			Type:   models.ProfileVariable,
			Reason: fmt.Sprintf("CV %.3f >= %.2f", stats.CoefficientOfVariation, cfg.VariableMinCV),
		}

	default:
		return Classification{
			Type: models.ProfileBaseline,
			Reason: fmt.Sprintf("stable usage: mean %.1f kWh, CV %.3f, summer/winter ratio %.2f",
				stats.MeanKWh, stats.CoefficientOfVariation, seasonal.SummerWinterRatio),
		}
	}
}
