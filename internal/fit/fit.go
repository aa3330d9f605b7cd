// Package fit implements the generalized weighted least-squares ramp fit
// with iterative jump rejection over up-the-ramp resultants.
package fit

import (
	"math"

	"rampfit/domain/core"
	"rampfit/domain/ramp"
	"rampfit/internal/jump"
)

// Signal-to-noise breakpoints and the weighting exponents between them.
// Faint pixels get near-uniform weights; bright pixels weight the endpoints.
var (
	powerBreaks = [5]float64{5, 10, 20, 50, 100}
	powerValues = [6]float64{0, 0.4, 1, 3, 6, 10}
)

func weightPower(snr float64) float64 {
	p := powerValues[0]
	for i, brk := range powerBreaks {
		if snr >= brk {
			p = powerValues[i+1]
		}
	}
	return p
}

// SegmentFit is the fit of a single jump-free segment.
type SegmentFit struct {
	Segment    Segment
	Slope      float64
	ReadVar    float64
	PoissonVar float64
}

// PixelFit is the combined fit for one pixel: the inverse-read-variance
// weighted mean over its surviving segments, plus the resultants excluded
// as jumps. Segments carries the per-segment fits for diagnostics.
type PixelFit struct {
	Slope      float64
	ReadVar    float64
	PoissonVar float64
	Jumps      []int
	Segments   []SegmentFit
}

// Fitter fits pixels that share one read pattern. It owns the per-pixel
// scratch buffers (pixel table, weight coefficients, segment queue), so one
// Fitter serves one worker goroutine; the fixed table it references is
// shared read-only across all workers.
type Fitter struct {
	pattern   *ramp.ReadPattern
	fixed     *ramp.FixedStats
	threshold jump.Threshold
	useJump   bool

	pixel *ramp.PixelStats
	coeff []float64
	queue []Segment
}

// NewFitter prepares a fitter for the given pattern and its filled fixed
// table. useJump disables the jump search entirely when false; thresholds
// are then unused.
func NewFitter(pattern *ramp.ReadPattern, fixed *ramp.FixedStats, threshold jump.Threshold, useJump bool) (*Fitter, error) {
	if pattern == nil {
		return nil, core.NewValidationError("pattern", "read pattern is nil")
	}
	if fixed == nil {
		return nil, core.NewValidationError("fixed", "table is nil")
	}
	if fixed.Cols() != pattern.Len()-1 {
		return nil, core.ErrBufferMismatch
	}

	pixel, err := ramp.NewPixelStats(pattern.Len())
	if err != nil {
		return nil, err
	}
	return &Fitter{
		pattern:   pattern,
		fixed:     fixed,
		threshold: threshold,
		useJump:   useJump,
		pixel:     pixel,
		coeff:     make([]float64, pattern.Len()),
	}, nil
}

// FitPixel fits one pixel's resultants. dq optionally flags resultants to
// exclude before fitting (saturation, bad pixel); nil means all usable.
func (f *Fitter) FitPixel(resultants []float64, readNoise float64, dq []bool) (PixelFit, error) {
	n := f.pattern.Len()
	if len(resultants) != n {
		return PixelFit{}, core.NewLengthMismatchError("resultants", n, len(resultants))
	}
	if dq != nil && len(dq) != n {
		return PixelFit{}, core.NewLengthMismatchError("dq", n, len(dq))
	}

	if f.useJump {
		if _, err := ramp.FillPixel(f.pixel, resultants, readNoise, f.fixed); err != nil {
			return PixelFit{}, err
		}
	}

	f.queue = append(f.queue[:0], InitSegments(dq, n)...)

	var out PixelFit
	for len(f.queue) > 0 {
		seg := f.queue[len(f.queue)-1]
		f.queue = f.queue[:len(f.queue)-1]

		sf := f.fitSegment(resultants, readNoise, seg)

		if f.useJump && seg.End > seg.Start {
			col, stat := jump.SegmentArgmax(f.pixel, f.fixed, sf.Slope, seg.Start, seg.End)
			if col >= 0 && stat > f.threshold.At(sf.Slope) {
				// Drop both resultants of the offending pair and refit
				// the pieces on either side.
				out.Jumps = append(out.Jumps, col, col+1)
				if col-1 >= seg.Start {
					f.queue = append(f.queue, Segment{Start: seg.Start, End: col - 1})
				}
				if col+2 <= seg.End {
					f.queue = append(f.queue, Segment{Start: col + 2, End: seg.End})
				}
				continue
			}
		}

		out.Segments = append(out.Segments, sf)
	}

	f.combine(&out)
	return out, nil
}

// fitSegment computes the weighted least-squares slope of one segment with
// the signal-dependent power weighting. Degenerate segments (one resultant,
// zero determinant) fit to zeros.
func (f *Fitter) fitSegment(resultants []float64, readNoise float64, seg Segment) SegmentFit {
	out := SegmentFit{Segment: seg}
	start, end := seg.Start, seg.End
	if end <= start {
		return out
	}

	tBar, tau, nReads := f.pattern.TBar, f.pattern.Tau, f.pattern.NReads

	tBarMid := (tBar[start] + tBar[end]) / 2

	// Crude signal-to-noise estimate sets the weighting exponent.
	s := math.Max(resultants[end]-resultants[start], 0)
	s /= math.Sqrt(readNoise*readNoise + s)
	power := weightPower(s)

	tScale := (tBar[end] - tBar[start]) / 2
	if tScale == 0 {
		tScale = 1
	}

	coeff := f.coeff[:seg.Len()]
	var f0, f1, f2 float64
	for i := start; i <= end; i++ {
		h := math.Abs((tBar[i] - tBarMid) / tScale)
		nr := float64(nReads[i])
		w := (1 + power) * nr / (1 + power*nr) * math.Pow(h, power)
		coeff[i-start] = w
		f0 += w
		f1 += w * tBar[i]
		f2 += w * tBar[i] * tBar[i]
	}

	det := f2*f0 - f1*f1
	if det == 0 {
		return out
	}

	readVarUnit := readNoise * readNoise
	for k, w := range coeff {
		i := start + k
		c := (f0*tBar[i] - f1) * w / det
		coeff[k] = c

		out.Slope += c * resultants[i]
		out.ReadVar += c * c * readVarUnit / float64(nReads[i])
		out.PoissonVar += c * c * tau[i]
	}
	for k := range coeff {
		for j := k + 1; j < len(coeff); j++ {
			out.PoissonVar += 2 * coeff[k] * coeff[j] * tBar[start+k]
		}
	}

	return out
}

// combine folds the surviving segment fits into the pixel's final slope as
// an inverse-read-variance weighted mean. Segments with zero read variance
// (single resultants) carry no weight.
func (f *Fitter) combine(out *PixelFit) {
	var totalWeight float64
	for _, sf := range out.Segments {
		if sf.ReadVar > 0 {
			totalWeight += 1 / sf.ReadVar
		}
	}
	if totalWeight == 0 {
		return
	}

	for _, sf := range out.Segments {
		if sf.ReadVar <= 0 {
			continue
		}
		w := (1 / sf.ReadVar) / totalWeight
		out.Slope += w * sf.Slope
		out.ReadVar += w * w * sf.ReadVar
		out.PoissonVar += w * w * sf.PoissonVar
	}
}
