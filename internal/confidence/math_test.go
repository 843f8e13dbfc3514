package confidence

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlend(t *testing.T) {
	tests := []struct {
		name       string
		components []Component
		want       float64
	}{
		{"equal weights", []Component{{0.2, 1}, {0.8, 1}}, 0.5},
		{"skewed weights", []Component{{1, 3}, {0, 1}}, 0.75},
		{"profile weights", []Component{{0.75, 0.3}, {1, 0.4}, {0.9, 0.3}}, 0.895},
		{"none", nil, 0},
		{"zero weights", []Component{{1, 0}, {1, 0}}, 0},
		{"non-positive weight skipped", []Component{{0.4, 1}, {1, -2}, {1, math.NaN()}}, 0.4},
		{"scores clamped first", []Component{{1.5, 1}, {-1, 1}}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Blend(tt.components...), 1e-12)
		})
	}
}

func TestHistoryFactor(t *testing.T) {
	assert.InDelta(t, 0.25, HistoryFactor(3, 12), 1e-12)
	assert.Equal(t, 1.0, HistoryFactor(12, 12))
	assert.Equal(t, 1.0, HistoryFactor(30, 12))
	assert.Equal(t, 1.0, HistoryFactor(5, 0))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-0.1))
	assert.Equal(t, 1.0, Clamp(1.7))
	assert.Equal(t, 0.42, Clamp(0.42))
	assert.Equal(t, 0.0, Clamp(math.NaN()))
	assert.Equal(t, 1.0, Clamp(math.Inf(1)))
}
