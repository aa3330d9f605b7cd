package fit

import (
	"math"
	"testing"

	"rampfit/domain/ramp"
	"rampfit/internal/jump"
)

const tol = 1e-9

func fitterFor(t *testing.T, readPattern [][]int, readTime float64, useJump bool) (*Fitter, *ramp.ReadPattern) {
	t.Helper()

	pattern, err := ramp.NewReadPattern(readPattern, readTime)
	if err != nil {
		t.Fatalf("NewReadPattern failed: %v", err)
	}
	fixed, err := ramp.NewFixedStats(pattern.Len())
	if err != nil {
		t.Fatalf("NewFixedStats failed: %v", err)
	}
	if _, err := ramp.FillFixed(fixed, pattern); err != nil {
		t.Fatalf("FillFixed failed: %v", err)
	}
	fitter, err := NewFitter(pattern, fixed, jump.DefaultThreshold(), useJump)
	if err != nil {
		t.Fatalf("NewFitter failed: %v", err)
	}
	return fitter, pattern
}

func TestInitSegments(t *testing.T) {
	segments := InitSegments(nil, 5)
	if len(segments) != 1 || segments[0] != (Segment{Start: 0, End: 4}) {
		t.Errorf("nil dq: expected one full segment, got %v", segments)
	}

	dq := []bool{false, false, true, false, false, true}
	segments = InitSegments(dq, len(dq))
	want := []Segment{{Start: 0, End: 1}, {Start: 3, End: 4}}
	if len(segments) != len(want) {
		t.Fatalf("expected %d segments, got %v", len(want), segments)
	}
	for i := range want {
		if segments[i] != want[i] {
			t.Errorf("segment %d: expected %v, got %v", i, want[i], segments[i])
		}
	}

	if segments := InitSegments([]bool{true, true}, 2); len(segments) != 0 {
		t.Errorf("all-flagged dq: expected no segments, got %v", segments)
	}
}

func TestWeightPower(t *testing.T) {
	cases := []struct {
		snr  float64
		want float64
	}{
		{0, 0}, {4.9, 0}, {5, 0.4}, {10, 1}, {20, 3}, {50, 6}, {100, 10}, {1e6, 10},
	}
	for _, c := range cases {
		if got := weightPower(c.snr); got != c.want {
			t.Errorf("weightPower(%g): expected %g, got %g", c.snr, c.want, got)
		}
	}
}

func TestFitPixel_ExactLinearRamp(t *testing.T) {
	// A noiseless linear ramp must be recovered exactly: the weighted
	// least-squares coefficients reproduce any affine signal.
	fitter, pattern := fitterFor(t, [][]int{{1}, {2}, {3}, {4}, {5}}, 1, false)

	const slope = 7.25
	resultants := make([]float64, pattern.Len())
	for i, tb := range pattern.TBar {
		resultants[i] = 3 + slope*tb
	}

	fit, err := fitter.FitPixel(resultants, 5, nil)
	if err != nil {
		t.Fatalf("FitPixel failed: %v", err)
	}
	if math.Abs(fit.Slope-slope) > tol {
		t.Errorf("expected slope %g, got %g", slope, fit.Slope)
	}
	if fit.ReadVar <= 0 {
		t.Errorf("expected positive read variance, got %g", fit.ReadVar)
	}
	if len(fit.Jumps) != 0 {
		t.Errorf("expected no jumps, got %v", fit.Jumps)
	}
}

func TestFitPixel_AveragedResultantsExactRamp(t *testing.T) {
	// Multi-read resultants: t_bar is the mean read time, so an affine
	// signal in time is still affine in t_bar.
	fitter, pattern := fitterFor(t, [][]int{{1, 2}, {3, 4}, {5, 6, 7}, {8}}, 2.5, false)

	const slope = 4.0
	resultants := make([]float64, pattern.Len())
	for i, tb := range pattern.TBar {
		resultants[i] = 100 + slope*tb
	}

	fit, err := fitter.FitPixel(resultants, 8, nil)
	if err != nil {
		t.Fatalf("FitPixel failed: %v", err)
	}
	if math.Abs(fit.Slope-slope) > tol {
		t.Errorf("expected slope %g, got %g", slope, fit.Slope)
	}
}

func TestFitPixel_JumpSplitRecoversSlope(t *testing.T) {
	// A 200-count jump between resultants 2 and 3 on an otherwise clean
	// slope-10 ramp. The fitter should exclude the offending pair and the
	// surviving segments should fit back to the true slope.
	fitter, _ := fitterFor(t, [][]int{{1}, {2}, {3}, {4}, {5}, {6}}, 1, true)

	resultants := []float64{10, 20, 30, 240, 250, 260}

	fit, err := fitter.FitPixel(resultants, 5, nil)
	if err != nil {
		t.Fatalf("FitPixel failed: %v", err)
	}
	if len(fit.Jumps) == 0 {
		t.Fatal("expected a jump to be flagged")
	}
	if math.Abs(fit.Slope-10) > 1e-6 {
		t.Errorf("expected recovered slope 10, got %g", fit.Slope)
	}

	flagged := make(map[int]bool)
	for _, j := range fit.Jumps {
		flagged[j] = true
	}
	if !flagged[2] && !flagged[3] {
		t.Errorf("expected the jump pair (2,3) to be flagged, got %v", fit.Jumps)
	}
}

func TestFitPixel_CleanRampNotFlagged(t *testing.T) {
	fitter, pattern := fitterFor(t, [][]int{{1}, {2}, {3}, {4}, {5}, {6}}, 1, true)

	resultants := make([]float64, pattern.Len())
	for i, tb := range pattern.TBar {
		resultants[i] = 50 + 10*tb
	}

	fit, err := fitter.FitPixel(resultants, 5, nil)
	if err != nil {
		t.Fatalf("FitPixel failed: %v", err)
	}
	if len(fit.Jumps) != 0 {
		t.Errorf("clean ramp flagged jumps: %v", fit.Jumps)
	}
	if math.Abs(fit.Slope-10) > tol {
		t.Errorf("expected slope 10, got %g", fit.Slope)
	}
}

func TestFitPixel_FlaggedResultantsExcluded(t *testing.T) {
	// The corrupted resultant is pre-flagged in dq, so even without jump
	// detection the fit only sees the clean runs.
	fitter, _ := fitterFor(t, [][]int{{1}, {2}, {3}, {4}, {5}}, 1, false)

	resultants := []float64{10, 20, 99999, 40, 50}
	dq := []bool{false, false, true, false, false}

	fit, err := fitter.FitPixel(resultants, 5, dq)
	if err != nil {
		t.Fatalf("FitPixel failed: %v", err)
	}
	if math.Abs(fit.Slope-10) > tol {
		t.Errorf("expected slope 10 from unflagged runs, got %g", fit.Slope)
	}
	if len(fit.Segments) != 2 {
		t.Errorf("expected 2 segments, got %d", len(fit.Segments))
	}
}

func TestFitPixel_SingleResultantSegment(t *testing.T) {
	// All but one resultant flagged: nothing to fit, everything zero.
	fitter, _ := fitterFor(t, [][]int{{1}, {2}, {3}}, 1, false)

	fit, err := fitter.FitPixel([]float64{5, 10, 15}, 5, []bool{true, false, true})
	if err != nil {
		t.Fatalf("FitPixel failed: %v", err)
	}
	if fit.Slope != 0 || fit.ReadVar != 0 || fit.PoissonVar != 0 {
		t.Errorf("expected zero fit for single-resultant segment, got %+v", fit)
	}
}

func TestFitPixel_LengthValidation(t *testing.T) {
	fitter, _ := fitterFor(t, [][]int{{1}, {2}, {3}}, 1, false)

	if _, err := fitter.FitPixel([]float64{1, 2}, 5, nil); err == nil {
		t.Error("expected error for short resultants, got nil")
	}
	if _, err := fitter.FitPixel([]float64{1, 2, 3}, 5, []bool{false}); err == nil {
		t.Error("expected error for short dq, got nil")
	}
}
