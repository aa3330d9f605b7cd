package fit

// Segment is an inclusive range of resultant indices fitted as one ramp.
type Segment struct {
	Start int
	End   int
}

// Len returns the number of resultants in the segment.
func (s Segment) Len() int { return s.End - s.Start + 1 }

// InitSegments builds the initial fit queue for one pixel from its
// data-quality flags: each contiguous run of unflagged resultants becomes
// one segment. A nil dq yields a single segment covering all n resultants.
func InitSegments(dq []bool, n int) []Segment {
	if dq == nil {
		return []Segment{{Start: 0, End: n - 1}}
	}

	segments := make([]Segment, 0, 1)
	start := -1
	for i := 0; i < n; i++ {
		if dq[i] {
			if start >= 0 {
				segments = append(segments, Segment{Start: start, End: i - 1})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		segments = append(segments, Segment{Start: start, End: n - 1})
	}
	return segments
}
