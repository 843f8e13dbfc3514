package analysis

import (
	"math"

	"github.com/jgoulah/gridprofile/pkg/models"
)

// validateRecords rejects malformed input before anything is computed
func validateRecords(records []models.UsageRecord) error {
	seen := make(map[int]bool, len(records))
	for _, r := range records {
		p := r.Period
		if !p.Valid() {
			return &ValidationError{Field: "period", Period: &p, Message: "month out of range"}
		}
		if math.IsNaN(r.KWh) || math.IsInf(r.KWh, 0) {
			return &ValidationError{Field: "kwh", Period: &p, Message: "must be a finite number"}
		}
		if r.KWh < 0 {
			return &ValidationError{Field: "kwh", Period: &p, Message: "must not be negative"}
		}
		if seen[p.Index()] {
			return &ValidationError{Field: "period", Period: &p, Message: "duplicate period"}
		}
		seen[p.Index()] = true
	}
	return nil
}

func validateWindow(w *models.Window) error {
	if w == nil {
		return nil
	}
	if !w.Start.Valid() || !w.End.Valid() {
		return &ValidationError{Field: "window", Message: "month out of range"}
	}
	if w.End.Before(w.Start) {
		return &ValidationError{Field: "window", Message: "end precedes start"}
	}
	return nil
}
