package app

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rampfit/domain/core"
	"rampfit/domain/ramp"
	"rampfit/internal/jump"
)

func testExposure(t *testing.T, pixels int) *Exposure {
	t.Helper()

	pattern, err := ramp.NewReadPattern([][]int{{1}, {2}, {3}, {4}, {5}, {6}}, 1)
	require.NoError(t, err)

	exposure := &Exposure{
		ID:         core.ExposureID(core.NewID()),
		Pattern:    pattern,
		Resultants: make([][]float64, pixels),
		ReadNoise:  make([]float64, pixels),
	}
	for i := 0; i < pixels; i++ {
		// Pixel i ramps with slope i+1.
		slope := float64(i + 1)
		row := make([]float64, pattern.Len())
		for j, tb := range pattern.TBar {
			row[j] = 100 + slope*tb
		}
		exposure.Resultants[i] = row
		exposure.ReadNoise[i] = 5
	}
	return exposure
}

func TestPipeline_FitImage(t *testing.T) {
	exposure := testExposure(t, 37)
	pipeline := NewPipeline(jump.DefaultThreshold(), true, 4, nil)

	imageFit, err := pipeline.FitImage(context.Background(), exposure)
	require.NoError(t, err)

	require.Len(t, imageFit.Slopes, 37)
	for i, slope := range imageFit.Slopes {
		assert.InDelta(t, float64(i+1), slope, 1e-9, "pixel %d", i)
		assert.Empty(t, imageFit.Jumps[i], "pixel %d", i)
		assert.Greater(t, imageFit.ReadVars[i], 0.0, "pixel %d", i)
	}
}

func TestPipeline_FitImage_FlagsJumps(t *testing.T) {
	exposure := testExposure(t, 3)
	// Corrupt pixel 1 with a large discontinuity after resultant 2.
	for j := 3; j < len(exposure.Resultants[1]); j++ {
		exposure.Resultants[1][j] += 500
	}

	pipeline := NewPipeline(jump.DefaultThreshold(), true, 2, nil)
	imageFit, err := pipeline.FitImage(context.Background(), exposure)
	require.NoError(t, err)

	assert.Empty(t, imageFit.Jumps[0])
	assert.NotEmpty(t, imageFit.Jumps[1])
	assert.Empty(t, imageFit.Jumps[2])
	assert.InDelta(t, 2.0, imageFit.Slopes[1], 1e-6, "slope recovered after jump exclusion")
}

func TestPipeline_FitImage_MoreWorkersThanPixels(t *testing.T) {
	exposure := testExposure(t, 2)
	pipeline := NewPipeline(jump.DefaultThreshold(), false, 16, nil)

	imageFit, err := pipeline.FitImage(context.Background(), exposure)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, imageFit.Slopes[0], 1e-9)
	assert.InDelta(t, 2.0, imageFit.Slopes[1], 1e-9)
}

func TestPipeline_FitImage_Cancellation(t *testing.T) {
	exposure := testExposure(t, 8)
	pipeline := NewPipeline(jump.DefaultThreshold(), false, 2, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.FitImage(ctx, exposure)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipeline_FitImage_Validation(t *testing.T) {
	pipeline := NewPipeline(jump.DefaultThreshold(), false, 1, nil)

	_, err := pipeline.FitImage(context.Background(), nil)
	assert.Error(t, err)

	exposure := testExposure(t, 2)
	exposure.ReadNoise = exposure.ReadNoise[:1]
	_, err = pipeline.FitImage(context.Background(), exposure)
	assert.ErrorIs(t, err, core.ErrLengthMismatch)
}

func TestPipeline_Summarize(t *testing.T) {
	exposure := testExposure(t, 10)
	pipeline := NewPipeline(jump.DefaultThreshold(), true, 2, nil)

	imageFit, err := pipeline.FitImage(context.Background(), exposure)
	require.NoError(t, err)

	summary, err := pipeline.Summarize(imageFit, exposure.Pattern.Len()-1)
	require.NoError(t, err)

	assert.Equal(t, 10, summary.Pixels)
	assert.Equal(t, 10, summary.FinitePixels)
	assert.Equal(t, 0, summary.JumpPixels)
	assert.InDelta(t, 5.5, summary.MeanSlope, 1e-9)

	_, err = pipeline.Summarize(nil, 5)
	assert.Error(t, err)

	if math.IsNaN(summary.ExpectedFalseJumps) {
		t.Error("expected finite false-jump estimate")
	}
}
