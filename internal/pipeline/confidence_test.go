package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOverall_EmptyDefaultsToHalf(t *testing.T) {
	assert.Equal(t, 0.5, Overall(nil))
	assert.Equal(t, 0.5, Overall(map[string]float64{}))
}

func TestOverall_Mean(t *testing.T) {
	scores := map[string]float64{
		scoreHeader:    0.85,
		scoreFinancial: 0.90,
		scoreLineItems: 0.80,
	}
	assert.InDelta(t, 0.85, Overall(scores), 0.0001)
}

func TestOverall_IgnoresExistingOverall(t *testing.T) {
	scores := map[string]float64{
		scoreHeader:  0.8,
		scoreOverall: 0.1,
	}
	assert.InDelta(t, 0.8, Overall(scores), 0.0001)
}

func TestOverall_Clamped(t *testing.T) {
	assert.Equal(t, 1.0, Overall(map[string]float64{"a": 1.5}))
	assert.Equal(t, 0.0, Overall(map[string]float64{"a": -0.5}))
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-1))
	assert.Equal(t, 0.5, clamp01(0.5))
	assert.Equal(t, 1.0, clamp01(2))
}
