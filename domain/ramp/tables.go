package ramp

import (
	"math"

	"rampfit/domain/core"
)

// FixedRow indexes a row of the FixedStats table. The row order is a stable
// schema shared with the jump-detection stage; do not reorder.
type FixedRow int

const (
	// SingleTBarDiff is t_bar[i+1] - t_bar[i]
	SingleTBarDiff FixedRow = iota
	// DoubleTBarDiff is t_bar[i+2] - t_bar[i]
	DoubleTBarDiff
	// SingleTBarDiffSqr is the square of SingleTBarDiff
	SingleTBarDiffSqr
	// DoubleTBarDiffSqr is the square of DoubleTBarDiff
	DoubleTBarDiffSqr
	// SingleReadRecip is 1/n_reads[i+1] + 1/n_reads[i]
	SingleReadRecip
	// DoubleReadRecip is 1/n_reads[i+2] + 1/n_reads[i]
	DoubleReadRecip
	// SingleVarSlopeVal is tau[i+1] + tau[i] - 2*min(t_bar[i+1], t_bar[i])
	SingleVarSlopeVal
	// DoubleVarSlopeVal is tau[i+2] + tau[i] - 2*min(t_bar[i+2], t_bar[i])
	DoubleVarSlopeVal

	// NumFixedRows is the row count of the FixedStats table
	NumFixedRows
)

// PixelRow indexes a row of the PixelStats table.
type PixelRow int

const (
	// SingleLocalSlope is (resultants[i+1] - resultants[i]) / SingleTBarDiff[i]
	SingleLocalSlope PixelRow = iota
	// DoubleLocalSlope is (resultants[i+2] - resultants[i]) / DoubleTBarDiff[i]
	DoubleLocalSlope
	// SingleVarReadNoise is read_noise^2 * SingleReadRecip[i]
	SingleVarReadNoise
	// DoubleVarReadNoise is read_noise^2 * DoubleReadRecip[i]
	DoubleVarReadNoise

	// NumPixelRows is the row count of the PixelStats table
	NumPixelRows
)

// FixedStats holds the read-pattern-scoped statistics for adjacent
// (single-step) and skip-one (double-step) resultant pairs. It depends only
// on timing metadata, so one filled table is shared read-only by every pixel
// exposed with the same read pattern. The backing buffer is a single
// contiguous row-major block of NumFixedRows x (nResultants-1) values.
//
// The last column's double-step entries are NaN for every valid pattern:
// no resultant two steps ahead exists there.
type FixedStats struct {
	cols int
	buf  []float64
}

// NewFixedStats allocates a FixedStats table sized for a read pattern of
// nResultants resultants. nResultants must be at least 2.
func NewFixedStats(nResultants int) (*FixedStats, error) {
	if nResultants < 2 {
		return nil, core.ErrTooFewResultants
	}
	cols := nResultants - 1
	return &FixedStats{
		cols: cols,
		buf:  make([]float64, int(NumFixedRows)*cols),
	}, nil
}

// Cols returns the number of columns (nResultants - 1).
func (f *FixedStats) Cols() int { return f.cols }

// Row returns the backing slice for one statistic row. The slice aliases the
// table's buffer; callers other than FillFixed must treat it as read-only.
func (f *FixedStats) Row(r FixedRow) []float64 {
	return f.buf[int(r)*f.cols : (int(r)+1)*f.cols]
}

// At returns a single entry of the table.
func (f *FixedStats) At(r FixedRow, col int) float64 {
	return f.buf[int(r)*f.cols+col]
}

// PixelStats holds one pixel's local slope and read-noise variance for the
// same single/double pairing as FixedStats. Each worker fitting pixels owns
// its own PixelStats and may refill it pixel after pixel; a fill performs no
// allocation.
type PixelStats struct {
	cols int
	buf  []float64
}

// NewPixelStats allocates a PixelStats table sized for a read pattern of
// nResultants resultants. nResultants must be at least 2.
func NewPixelStats(nResultants int) (*PixelStats, error) {
	if nResultants < 2 {
		return nil, core.ErrTooFewResultants
	}
	cols := nResultants - 1
	return &PixelStats{
		cols: cols,
		buf:  make([]float64, int(NumPixelRows)*cols),
	}, nil
}

// Cols returns the number of columns (nResultants - 1).
func (p *PixelStats) Cols() int { return p.cols }

// Row returns the backing slice for one statistic row.
func (p *PixelStats) Row(r PixelRow) []float64 {
	return p.buf[int(r)*p.cols : (int(r)+1)*p.cols]
}

// At returns a single entry of the table.
func (p *PixelStats) At(r PixelRow, col int) float64 {
	return p.buf[int(r)*p.cols+col]
}

// FillFixed populates fixed from the read pattern's timing metadata and
// returns the same table. Inputs are validated once at this boundary; the
// loop itself never branches on numeric degeneracy, so a pattern with
// coincident or zero-read resultants propagates Inf/NaN downstream rather
// than being clamped.
func FillFixed(fixed *FixedStats, pattern *ReadPattern) (*FixedStats, error) {
	if fixed == nil {
		return nil, core.NewValidationError("fixed", "table is nil")
	}
	if pattern == nil {
		return nil, core.NewValidationError("pattern", "read pattern is nil")
	}
	n := fixed.cols
	if pattern.Len() != n+1 {
		return nil, core.NewLengthMismatchError("pattern", n+1, pattern.Len())
	}

	tBar, tau, nReads := pattern.TBar, pattern.Tau, pattern.NReads

	singleT := fixed.Row(SingleTBarDiff)
	doubleT := fixed.Row(DoubleTBarDiff)
	singleTSqr := fixed.Row(SingleTBarDiffSqr)
	doubleTSqr := fixed.Row(DoubleTBarDiffSqr)
	singleRecip := fixed.Row(SingleReadRecip)
	doubleRecip := fixed.Row(DoubleReadRecip)
	singleVar := fixed.Row(SingleVarSlopeVal)
	doubleVar := fixed.Row(DoubleVarSlopeVal)

	for i := 0; i < n; i++ {
		dt := tBar[i+1] - tBar[i]
		singleT[i] = dt
		singleTSqr[i] = dt * dt
		singleRecip[i] = 1/float64(nReads[i+1]) + 1/float64(nReads[i])
		// min() guards patterns whose resultant times are non-decreasing
		// but not strictly increasing.
		singleVar[i] = tau[i+1] + tau[i] - 2*math.Min(tBar[i+1], tBar[i])

		if i < n-1 {
			dt2 := tBar[i+2] - tBar[i]
			doubleT[i] = dt2
			doubleTSqr[i] = dt2 * dt2
			doubleRecip[i] = 1/float64(nReads[i+2]) + 1/float64(nReads[i])
			doubleVar[i] = tau[i+2] + tau[i] - 2*math.Min(tBar[i+2], tBar[i])
		} else {
			// No resultant two steps ahead: the pair does not exist.
			doubleT[i] = math.NaN()
			doubleTSqr[i] = math.NaN()
			doubleRecip[i] = math.NaN()
			doubleVar[i] = math.NaN()
		}
	}

	return fixed, nil
}

// FillPixel populates pixel from one pixel's resultants and read noise plus
// the already-filled fixed table, and returns the same table. readNoise is
// the pixel's read-noise scalar; its square is hoisted out of the loop. The
// fixed table is only read, so many FillPixel calls may share it
// concurrently as long as each call owns its own PixelStats.
func FillPixel(pixel *PixelStats, resultants []float64, readNoise float64, fixed *FixedStats) (*PixelStats, error) {
	if pixel == nil {
		return nil, core.NewValidationError("pixel", "table is nil")
	}
	if fixed == nil {
		return nil, core.NewValidationError("fixed", "table is nil")
	}
	n := pixel.cols
	if fixed.cols != n {
		return nil, core.ErrBufferMismatch
	}
	if len(resultants) != n+1 {
		return nil, core.NewLengthMismatchError("resultants", n+1, len(resultants))
	}

	readVar := readNoise * readNoise

	singleT := fixed.Row(SingleTBarDiff)
	doubleT := fixed.Row(DoubleTBarDiff)
	singleRecip := fixed.Row(SingleReadRecip)
	doubleRecip := fixed.Row(DoubleReadRecip)

	singleSlope := pixel.Row(SingleLocalSlope)
	doubleSlope := pixel.Row(DoubleLocalSlope)
	singleVar := pixel.Row(SingleVarReadNoise)
	doubleVar := pixel.Row(DoubleVarReadNoise)

	for i := 0; i < n; i++ {
		singleSlope[i] = (resultants[i+1] - resultants[i]) / singleT[i]
		singleVar[i] = readVar * singleRecip[i]

		if i < n-1 {
			doubleSlope[i] = (resultants[i+2] - resultants[i]) / doubleT[i]
			doubleVar[i] = readVar * doubleRecip[i]
		} else {
			doubleSlope[i] = math.NaN()
			doubleVar[i] = math.NaN()
		}
	}

	return pixel, nil
}
