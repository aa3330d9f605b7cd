package ramp

import (
	"fmt"

	"rampfit/domain/core"
)

// ReadPattern describes the timing of the resultants of an exposure: for
// each resultant, the mean time of its reads (TBar), a time-variance
// contribution term (Tau), and how many reads were averaged into it
// (NReads). One ReadPattern is shared by every pixel of an exposure.
type ReadPattern struct {
	TBar   []float64
	Tau    []float64
	NReads []int
}

// Len returns the number of resultants.
func (p *ReadPattern) Len() int { return len(p.TBar) }

// NewReadPattern derives the timing metadata from the exposure's read
// pattern: readPattern[i] lists the 1-based indices of the individual reads
// averaged into resultant i, and readTime is the interval between
// consecutive reads.
//
// For a resultant built from N reads r_0..r_{N-1}:
//
//	t_bar = readTime * mean(r)
//	tau   = readTime * sum_k (2*(N-k) - 1) * r_k / N^2   (k = 0..N-1)
func NewReadPattern(readPattern [][]int, readTime float64) (*ReadPattern, error) {
	if len(readPattern) == 0 {
		return nil, fmt.Errorf("%w: no resultants", core.ErrInvalidPattern)
	}
	if readTime <= 0 {
		return nil, core.NewValidationError("read_time", fmt.Sprintf("must be positive, got %g", readTime))
	}

	p := &ReadPattern{
		TBar:   make([]float64, len(readPattern)),
		Tau:    make([]float64, len(readPattern)),
		NReads: make([]int, len(readPattern)),
	}

	for i, reads := range readPattern {
		n := len(reads)
		if n == 0 {
			return nil, fmt.Errorf("%w: resultant %d has no reads", core.ErrInvalidPattern, i)
		}

		sum := 0.0
		tau := 0.0
		for k, read := range reads {
			if read < 1 {
				return nil, fmt.Errorf("%w: resultant %d contains read index %d", core.ErrInvalidPattern, i, read)
			}
			sum += float64(read)
			tau += float64(2*(n-k)-1) * float64(read)
		}

		nf := float64(n)
		p.TBar[i] = readTime * sum / nf
		p.Tau[i] = readTime * tau / (nf * nf)
		p.NReads[i] = n
	}

	return p, nil
}

// Validate checks the internal consistency of a caller-built pattern:
// matching sequence lengths, positive read counts, non-negative tau, and
// non-decreasing t_bar.
func (p *ReadPattern) Validate() error {
	n := len(p.TBar)
	if len(p.Tau) != n {
		return core.NewLengthMismatchError("tau", n, len(p.Tau))
	}
	if len(p.NReads) != n {
		return core.NewLengthMismatchError("n_reads", n, len(p.NReads))
	}
	for i := 0; i < n; i++ {
		if p.NReads[i] < 1 {
			return fmt.Errorf("%w: resultant %d has n_reads %d", core.ErrInvalidPattern, i, p.NReads[i])
		}
		if p.Tau[i] < 0 {
			return fmt.Errorf("%w: resultant %d has negative tau %g", core.ErrInvalidPattern, i, p.Tau[i])
		}
		if i > 0 && p.TBar[i] < p.TBar[i-1] {
			return fmt.Errorf("%w: t_bar decreases at resultant %d", core.ErrInvalidPattern, i)
		}
	}
	return nil
}
