// Package jump turns the per-pair slope and variance tables into cosmic-ray
// jump statistics and threshold decisions for a fitted ramp segment.
package jump

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"rampfit/domain/ramp"
)

// Threshold is the slope-dependent decision boundary for the jump statistic.
// Brighter pixels get a lower threshold because their Poisson noise makes
// moderate statistics more suspicious.
type Threshold struct {
	Intercept float64
	Constant  float64
}

// DefaultThreshold returns the standard boundary used for detector ramps.
func DefaultThreshold() Threshold {
	return Threshold{Intercept: 5.5, Constant: 1.0 / 3.0}
}

// At evaluates the boundary for a segment slope estimate. The slope is
// clamped to [1, 1e4] so the logarithm stays bounded for faint and
// saturated pixels alike.
func (t Threshold) At(slope float64) float64 {
	s := math.Min(math.Max(math.Abs(slope), 1), 1e4)
	return t.Intercept - t.Constant*math.Log10(s)
}

// statistic is the normalized excess of one local slope over the segment
// slope estimate. varSlopeVal carries the tau-based slope-variance baseline
// from the fixed table; scaled by the slope it approximates the Poisson
// contribution.
func statistic(localSlope, varReadNoise, tBarDiffSqr, varSlopeVal, slope float64) float64 {
	delta := localSlope - slope
	v := (varReadNoise + slope*varSlopeVal) / tBarDiffSqr
	return delta / math.Sqrt(v)
}

// Statistic returns the jump statistic for column col given the segment's
// slope estimate: the larger of the single-step and double-step statistics,
// or the single-step one alone where the double-step pair is undefined
// (NaN by the table convention).
func Statistic(pixel *ramp.PixelStats, fixed *ramp.FixedStats, slope float64, col int) float64 {
	single := statistic(
		pixel.At(ramp.SingleLocalSlope, col),
		pixel.At(ramp.SingleVarReadNoise, col),
		fixed.At(ramp.SingleTBarDiffSqr, col),
		fixed.At(ramp.SingleVarSlopeVal, col),
		slope,
	)
	double := statistic(
		pixel.At(ramp.DoubleLocalSlope, col),
		pixel.At(ramp.DoubleVarReadNoise, col),
		fixed.At(ramp.DoubleTBarDiffSqr, col),
		fixed.At(ramp.DoubleVarSlopeVal, col),
		slope,
	)
	if math.IsNaN(double) {
		return single
	}
	return math.Max(single, double)
}

// ArgmaxStat scans the columns [start, end) and returns the column with the
// largest jump statistic together with that statistic. NaN statistics
// (degenerate pairs) are skipped. Returns (-1, NaN) when every column is
// degenerate or the range is empty.
func ArgmaxStat(pixel *ramp.PixelStats, fixed *ramp.FixedStats, slope float64, start, end int) (int, float64) {
	argmax := -1
	max := math.NaN()
	for col := start; col < end; col++ {
		stat := Statistic(pixel, fixed, slope, col)
		if math.IsNaN(stat) {
			continue
		}
		if argmax < 0 || stat > max {
			argmax = col
			max = stat
		}
	}
	return argmax, max
}

// SegmentArgmax returns the column with the largest jump statistic inside
// the segment of resultants [start, end] (inclusive), and that statistic.
// The segment's final column may only use its single-step pair: the
// double-step pair would reach the resultant past the segment end, which a
// prior split may have excluded. Returns (-1, NaN) for segments with fewer
// than two resultants.
func SegmentArgmax(pixel *ramp.PixelStats, fixed *ramp.FixedStats, slope float64, start, end int) (int, float64) {
	argmax := -1
	max := math.NaN()
	for col := start; col < end; col++ {
		var stat float64
		if col == end-1 {
			stat = statistic(
				pixel.At(ramp.SingleLocalSlope, col),
				pixel.At(ramp.SingleVarReadNoise, col),
				fixed.At(ramp.SingleTBarDiffSqr, col),
				fixed.At(ramp.SingleVarSlopeVal, col),
				slope,
			)
		} else {
			stat = Statistic(pixel, fixed, slope, col)
		}
		if math.IsNaN(stat) {
			continue
		}
		if argmax < 0 || stat > max {
			argmax = col
			max = stat
		}
	}
	return argmax, max
}

// TailProb converts a jump statistic into the one-sided Gaussian tail
// probability of seeing a value at least that large by chance. The
// statistic is approximately standard normal for jump-free ramps.
func TailProb(stat float64) float64 {
	return distuv.Normal{Mu: 0, Sigma: 1}.Survival(stat)
}
