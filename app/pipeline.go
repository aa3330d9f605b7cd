package app

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"rampfit/domain/core"
	"rampfit/domain/ramp"
	"rampfit/internal"
	"rampfit/internal/fit"
	"rampfit/internal/jump"
	"rampfit/internal/report"
)

// Exposure is one detector exposure prepared for fitting: a read pattern
// shared by every pixel plus each pixel's resultants, read noise, and
// optional data-quality flags.
type Exposure struct {
	ID         core.ExposureID
	Pattern    *ramp.ReadPattern
	Resultants [][]float64 // [pixel][resultant]
	ReadNoise  []float64   // per pixel
	DQ         [][]bool    // optional, per pixel per resultant
}

// Pixels returns the pixel count.
func (e *Exposure) Pixels() int { return len(e.Resultants) }

// ImageFit is the fitted exposure: one slope and variance pair per pixel
// plus the resultant indices excluded as jumps.
type ImageFit struct {
	ExposureID  core.ExposureID `json:"exposure_id"`
	Slopes      []float64       `json:"slopes"`
	ReadVars    []float64       `json:"read_vars"`
	PoissonVars []float64       `json:"poisson_vars"`
	Jumps       [][]int         `json:"jumps"`
	RuntimeMs   int64           `json:"runtime_ms"`
}

// Pipeline fits whole exposures. The fixed statistics table is computed
// once per read pattern and then shared read-only across a bounded set of
// workers, each of which owns its own fitter scratch state; no locking is
// needed anywhere in the sweep.
type Pipeline struct {
	threshold jump.Threshold
	useJump   bool
	workers   int
	logger    *internal.Logger
}

// NewPipeline creates a pipeline. workers <= 0 means one worker per CPU.
func NewPipeline(threshold jump.Threshold, useJump bool, workers int, logger *internal.Logger) *Pipeline {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Pipeline{
		threshold: threshold,
		useJump:   useJump,
		workers:   workers,
		logger:    logger,
	}
}

// FitImage fits every pixel of the exposure. Pixel rows are partitioned
// across workers in disjoint index ranges, so results are written without
// synchronization. Cancelling ctx aborts the sweep.
func (p *Pipeline) FitImage(ctx context.Context, exposure *Exposure) (*ImageFit, error) {
	if exposure == nil || exposure.Pattern == nil {
		return nil, core.NewValidationError("exposure", "exposure or read pattern is nil")
	}
	if err := exposure.Pattern.Validate(); err != nil {
		return nil, err
	}
	n := exposure.Pattern.Len()
	if n < 2 {
		return nil, core.ErrTooFewResultants
	}
	pixels := exposure.Pixels()
	if pixels == 0 {
		return nil, core.ErrInsufficientData
	}
	if len(exposure.ReadNoise) != pixels {
		return nil, core.NewLengthMismatchError("read_noise", pixels, len(exposure.ReadNoise))
	}
	if exposure.DQ != nil && len(exposure.DQ) != pixels {
		return nil, core.NewLengthMismatchError("dq", pixels, len(exposure.DQ))
	}

	started := time.Now()

	fixed, err := ramp.NewFixedStats(n)
	if err != nil {
		return nil, err
	}
	if _, err := ramp.FillFixed(fixed, exposure.Pattern); err != nil {
		return nil, err
	}

	out := &ImageFit{
		ExposureID:  exposure.ID,
		Slopes:      make([]float64, pixels),
		ReadVars:    make([]float64, pixels),
		PoissonVars: make([]float64, pixels),
		Jumps:       make([][]int, pixels),
	}

	workers := p.workers
	if workers > pixels {
		workers = pixels
	}
	chunk := (pixels + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > pixels {
			end = pixels
		}
		if start >= end {
			break
		}

		g.Go(func() error {
			fitter, err := fit.NewFitter(exposure.Pattern, fixed, p.threshold, p.useJump)
			if err != nil {
				return err
			}
			for i := start; i < end; i++ {
				if i%1024 == 0 {
					select {
					case <-ctx.Done():
						return ctx.Err()
					default:
					}
				}

				var dq []bool
				if exposure.DQ != nil {
					dq = exposure.DQ[i]
				}
				pixelFit, err := fitter.FitPixel(exposure.Resultants[i], exposure.ReadNoise[i], dq)
				if err != nil {
					return err
				}
				out.Slopes[i] = pixelFit.Slope
				out.ReadVars[i] = pixelFit.ReadVar
				out.PoissonVars[i] = pixelFit.PoissonVar
				out.Jumps[i] = pixelFit.Jumps
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.RuntimeMs = time.Since(started).Milliseconds()
	p.logger.Info("fit exposure %s: %d pixels in %dms with %d workers",
		exposure.ID.String(), pixels, out.RuntimeMs, workers)
	return out, nil
}

// Summarize condenses a fitted image into an exposure summary.
func (p *Pipeline) Summarize(imageFit *ImageFit, columns int) (*report.Summary, error) {
	if imageFit == nil {
		return nil, core.NewValidationError("image_fit", "fit is nil")
	}
	jumpsPerPixel := make([]int, len(imageFit.Jumps))
	for i, jumps := range imageFit.Jumps {
		jumpsPerPixel[i] = len(jumps)
	}
	return report.Summarize(imageFit.Slopes, jumpsPerPixel, columns, p.threshold)
}
