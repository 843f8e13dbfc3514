package analysis

import "fmt"

// Config holds the thresholds that drive the analysis pipeline. A Config is
// passed by value and never modified by the pipeline.
type Config struct {
	SeasonalRatioThreshold      float64 // summer/winter ratio for SEASONAL
	HighUserMeanKWh             float64 // mean monthly kWh above which a stable user is HIGH_USER
	HighUserMaxCV               float64 // CV ceiling for HIGH_USER
	VariableMinCV               float64 // CV floor for VARIABLE
	SeasonalConfidenceThreshold float64 // seasonal confidence needed for SEASONAL and the seasonal projection
	TrendR2Threshold            float64 // R² needed for the linear trend projection
	OutlierZScore               float64 // robust z-score above which an observed month is an outlier
	ConfidenceZ                 float64 // z-value of the projection confidence interval
	MinObservedMonths           int     // observed months needed for anything but INSUFFICIENT_DATA
	ProjectionMonths            int     // forecast horizon
	MovingAverageWindow         int     // trailing months for the moving average fallback
}

// DefaultConfig returns the documented default thresholds
func DefaultConfig() Config {
	return Config{
		SeasonalRatioThreshold:      1.35,
		HighUserMeanKWh:             1500,
		HighUserMaxCV:               0.25,
		VariableMinCV:               0.25,
		SeasonalConfidenceThreshold: 0.5,
		TrendR2Threshold:            0.5,
		OutlierZScore:               3.0,
		ConfidenceZ:                 1.96,
		MinObservedMonths:           3,
		ProjectionMonths:            12,
		MovingAverageWindow:         3,
	}
}

// Validate checks that every threshold is usable
func (c Config) Validate() error {
	checks := []struct {
		field string
		ok    bool
	}{
		{"seasonal_ratio_threshold", c.SeasonalRatioThreshold > 0},
		{"high_user_mean_kwh", c.HighUserMeanKWh >= 0},
		{"high_user_max_cv", c.HighUserMaxCV >= 0},
		{"variable_min_cv", c.VariableMinCV >= 0},
		{"seasonal_confidence_threshold", c.SeasonalConfidenceThreshold >= 0 && c.SeasonalConfidenceThreshold <= 1},
		{"trend_r2_threshold", c.TrendR2Threshold >= 0 && c.TrendR2Threshold <= 1},
		{"outlier_z_score", c.OutlierZScore > 0},
		{"confidence_z", c.ConfidenceZ >= 0},
		{"min_observed_months", c.MinObservedMonths >= 1},
		{"projection_months", c.ProjectionMonths >= 1},
		{"moving_average_window", c.MovingAverageWindow >= 1},
	}
	for _, check := range checks {
		if !check.ok {
			return &ValidationError{Field: check.field, Message: "value out of range"}
		}
	}
	return nil
}

// Fingerprint returns a stable textual form of the configuration, used to
// keep cached profiles from surviving a threshold change
func (c Config) Fingerprint() string {
	return fmt.Sprintf("%g|%g|%g|%g|%g|%g|%g|%g|%d|%d|%d",
		c.SeasonalRatioThreshold, c.HighUserMeanKWh, c.HighUserMaxCV, c.VariableMinCV,
		c.SeasonalConfidenceThreshold, c.TrendR2Threshold, c.OutlierZScore, c.ConfidenceZ,
		c.MinObservedMonths, c.ProjectionMonths, c.MovingAverageWindow)
}
