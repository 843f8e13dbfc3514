package models

// ProfileType is the primary classification of consumption behavior
type ProfileType string

const (
	ProfileBaseline         ProfileType = "BASELINE"
	ProfileSeasonal         ProfileType = "SEASONAL"
	ProfileHighUser         ProfileType = "HIGH_USER"
	ProfileVariable         ProfileType = "VARIABLE"
	ProfileInsufficientData ProfileType = "INSUFFICIENT_DATA"
)

// Season is a fixed calendar grouping of months
type Season string

const (
	SeasonWinter Season = "winter" // Dec-Feb
	SeasonSpring Season = "spring" // Mar-May
	SeasonSummer Season = "summer" // Jun-Aug
	SeasonFall   Season = "fall"   // Sep-Nov
)

// Seasons lists all seasons in their fixed reporting order
var Seasons = []Season{SeasonWinter, SeasonSpring, SeasonSummer, SeasonFall}

// ProjectionMethod identifies the forecasting method used for a projection
type ProjectionMethod string

const (
	MethodSeasonalAverage ProjectionMethod = "SEASONAL_AVERAGE"
	MethodLinearTrend     ProjectionMethod = "LINEAR_TREND"
	MethodMovingAverage   ProjectionMethod = "MOVING_AVERAGE"
)

// Statistics holds descriptive statistics over a usage series
type Statistics struct {
	Count                  int     `json:"count"`
	MeanKWh                float64 `json:"mean_kwh"`
	MedianKWh              float64 `json:"median_kwh"`
	StdDevKWh              float64 `json:"std_dev_kwh"`
	CoefficientOfVariation float64 `json:"coefficient_of_variation"`
	MinKWh                 float64 `json:"min_kwh"`
	MaxKWh                 float64 `json:"max_kwh"`
	AnnualTotalKWh         float64 `json:"annual_total_kwh"`
}

// SeasonStat summarizes one season of a usage series
type SeasonStat struct {
	Season  Season  `json:"season"`
	MeanKWh float64 `json:"mean_kwh"`
	Months  int     `json:"months"`
}

// SeasonalProfile describes the seasonal shape of a usage series
type SeasonalProfile struct {
	Seasons            []SeasonStat `json:"seasons"`
	SummerWinterRatio  float64      `json:"summer_winter_ratio"`
	DominantSeason     Season       `json:"dominant_season"`
	SeasonalConfidence float64      `json:"seasonal_confidence"`
	Coverage           float64      `json:"coverage"`      // observed share of the six summer and winter calendar months
	YearlyRatios       []float64    `json:"yearly_ratios"` // one per year with both summer and winter data
}

// Mean returns the mean kWh of the season, and whether the season had data
func (s SeasonalProfile) Mean(season Season) (float64, bool) {
	for _, stat := range s.Seasons {
		if stat.Season == season && stat.Months > 0 {
			return stat.MeanKWh, true
		}
	}
	return 0, false
}

// Outlier is an observed month whose value deviates from the rest of the series
type Outlier struct {
	Period Period  `json:"period"`
	KWh    float64 `json:"kwh"`
	ZScore float64 `json:"z_score"`
	Reason string  `json:"reason"`
}

// DataQualityReport describes gaps and anomalies in the input series
type DataQualityReport struct {
	Completeness       float64   `json:"completeness"`
	ExpectedMonths     int       `json:"expected_months"`
	ObservedMonths     int       `json:"observed_months"`
	InterpolatedMonths int       `json:"interpolated_months"`
	MissingPeriods     []Period  `json:"missing_periods"`
	Outliers           []Outlier `json:"outliers"`
	QualityScore       float64   `json:"quality_score"`
}

// ProjectedMonth is one forecast month with its confidence interval
type ProjectedMonth struct {
	Period      Period  `json:"period"`
	ExpectedKWh float64 `json:"expected_kwh"`
	LowerBound  float64 `json:"lower_bound"`
	UpperBound  float64 `json:"upper_bound"`
}

// ProjectionResult is the forward 12-month forecast
type ProjectionResult struct {
	Months             []ProjectedMonth `json:"months"`
	Method             ProjectionMethod `json:"method"`
	ProjectedAnnualKWh float64          `json:"projected_annual_kwh"`
	ResidualStdDev     float64          `json:"residual_std_dev"`
	RSquared           float64          `json:"r_squared"`
	Assumptions        []string         `json:"assumptions"`
}

// UsageProfile is the complete result of analyzing a usage series.
// Profiles are shared between cache readers and must be treated as read-only.
type UsageProfile struct {
	UserID               string            `json:"user_id"`
	ProfileType          ProfileType       `json:"profile_type"`
	ClassificationReason string            `json:"classification_reason"`
	Statistics           Statistics        `json:"statistics"`
	Seasonal             SeasonalProfile   `json:"seasonal"`
	DataQuality          DataQualityReport `json:"data_quality"`
	Projection           ProjectionResult  `json:"projection"`
	OverallConfidence    float64           `json:"overall_confidence"`
}
