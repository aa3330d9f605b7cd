// Package report condenses a fitted image into exposure-level statistics
// for operators and for persistence.
package report

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"rampfit/domain/core"
	"rampfit/internal/jump"
)

// Summary describes the slope image of one fitted exposure.
type Summary struct {
	Pixels       int     `json:"pixels"`
	FinitePixels int     `json:"finite_pixels"`
	JumpPixels   int     `json:"jump_pixels"`
	JumpCount    int     `json:"jump_count"`
	MeanSlope    float64 `json:"mean_slope"`
	MedianSlope  float64 `json:"median_slope"`
	StdDevSlope  float64 `json:"stddev_slope"`
	P05Slope     float64 `json:"p05_slope"`
	P95Slope     float64 `json:"p95_slope"`

	// ExpectedFalseJumps estimates how many jump statistics would clear the
	// threshold by chance alone across the whole exposure, from the
	// Gaussian tail at the median-slope threshold.
	ExpectedFalseJumps float64 `json:"expected_false_jumps"`
}

// Summarize computes the exposure summary. slopes holds one entry per
// pixel; jumpsPerPixel the number of flagged resultants per pixel (may be
// nil); columns is the number of difference columns per pixel, used to
// count the jump tests performed.
func Summarize(slopes []float64, jumpsPerPixel []int, columns int, threshold jump.Threshold) (*Summary, error) {
	if len(slopes) == 0 {
		return nil, core.ErrInsufficientData
	}
	if jumpsPerPixel != nil && len(jumpsPerPixel) != len(slopes) {
		return nil, core.NewLengthMismatchError("jumps_per_pixel", len(slopes), len(jumpsPerPixel))
	}

	finite := make([]float64, 0, len(slopes))
	for _, s := range slopes {
		if !math.IsNaN(s) && !math.IsInf(s, 0) {
			finite = append(finite, s)
		}
	}

	out := &Summary{
		Pixels:       len(slopes),
		FinitePixels: len(finite),
	}
	for _, n := range jumpsPerPixel {
		if n > 0 {
			out.JumpPixels++
		}
		out.JumpCount += n
	}

	if len(finite) == 0 {
		return out, nil
	}

	var err error
	if out.MeanSlope, err = stats.Mean(finite); err != nil {
		return nil, err
	}
	if out.MedianSlope, err = stats.Median(finite); err != nil {
		return nil, err
	}
	if out.StdDevSlope, err = stats.StandardDeviation(finite); err != nil {
		return nil, err
	}
	// Nearest-rank percentiles are defined for any non-empty sample; the
	// interpolated variant rejects samples of 20 pixels or fewer.
	if out.P05Slope, err = stats.PercentileNearestRank(finite, 5); err != nil {
		return nil, err
	}
	if out.P95Slope, err = stats.PercentileNearestRank(finite, 95); err != nil {
		return nil, err
	}

	// One jump test per difference column per pixel.
	tests := float64(len(slopes) * columns)
	tail := distuv.Normal{Mu: 0, Sigma: 1}.Survival(threshold.At(out.MedianSlope))
	out.ExpectedFalseJumps = tests * tail

	return out, nil
}
