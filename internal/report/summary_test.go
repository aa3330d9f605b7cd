package report

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rampfit/internal/jump"
)

func TestSummarize(t *testing.T) {
	slopes := []float64{10, 12, 11, math.NaN(), 9, math.Inf(1), 10}
	jumps := []int{0, 2, 0, 0, 2, 0, 0}

	summary, err := Summarize(slopes, jumps, 5, jump.DefaultThreshold())
	require.NoError(t, err)

	assert.Equal(t, 7, summary.Pixels)
	assert.Equal(t, 5, summary.FinitePixels)
	assert.Equal(t, 2, summary.JumpPixels)
	assert.Equal(t, 4, summary.JumpCount)
	assert.InDelta(t, 10.4, summary.MeanSlope, 1e-9)
	assert.InDelta(t, 10, summary.MedianSlope, 1e-9)
	assert.Greater(t, summary.StdDevSlope, 0.0)
	assert.LessOrEqual(t, summary.P05Slope, summary.MedianSlope)
	assert.GreaterOrEqual(t, summary.P95Slope, summary.MedianSlope)

	// At a ~5 sigma threshold over 35 tests, chance jumps are rare.
	assert.Less(t, summary.ExpectedFalseJumps, 0.01)
	assert.Greater(t, summary.ExpectedFalseJumps, 0.0)
}

func TestSummarize_SmallExposures(t *testing.T) {
	// Percentiles must be defined down to a single finite pixel.
	summary, err := Summarize([]float64{10}, nil, 3, jump.DefaultThreshold())
	require.NoError(t, err)
	assert.InDelta(t, 10, summary.P05Slope, 1e-9)
	assert.InDelta(t, 10, summary.P95Slope, 1e-9)

	slopes := []float64{9, 10, 11, 12}
	summary, err = Summarize(slopes, nil, 3, jump.DefaultThreshold())
	require.NoError(t, err)
	assert.InDelta(t, 9, summary.P05Slope, 1e-9)
	assert.InDelta(t, 12, summary.P95Slope, 1e-9)
}

func TestSummarize_AllNonFinite(t *testing.T) {
	summary, err := Summarize([]float64{math.NaN(), math.Inf(-1)}, nil, 3, jump.DefaultThreshold())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.FinitePixels)
	assert.Zero(t, summary.MeanSlope)
}

func TestSummarize_Validation(t *testing.T) {
	_, err := Summarize(nil, nil, 3, jump.DefaultThreshold())
	assert.Error(t, err)

	_, err = Summarize([]float64{1, 2}, []int{0}, 3, jump.DefaultThreshold())
	assert.Error(t, err)
}
