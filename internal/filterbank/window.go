package filterbank

import "math"

// Windows holds the window slopes of a stream's short and long blocks.
//
// A block of size n is windowed by a rising slope, a flat top and a falling
// slope. A long block next to a short one takes the short slope on that
// side, centred on n/4 or 3n/4 and padded with zeros towards the block
// edge, so that the slopes of neighbouring blocks always match.
type Windows struct {
	sizes  [2]int
	slopes [2][]float32 // rising slope over half of each block size
}

// NewWindows computes the slopes for the two block sizes.
func NewWindows(short, long int) *Windows {
	w := &Windows{sizes: [2]int{short, long}}
	for i, n := range w.sizes {
		w.slopes[i] = slope(n / 2)
	}
	return w
}

// slope returns sin(pi/2 * sin^2((i + 1/2)/n * pi/2)) for i < n.
func slope(n int) []float32 {
	s := make([]float32, n)
	for i := range s {
		x := math.Sin((float64(i) + 0.5) / float64(n) * math.Pi / 2)
		s[i] = float32(math.Sin(math.Pi / 2 * x * x))
	}
	return s
}

// Shape is the window of one block.
type Shape struct {
	LeftStart, LeftN   int // rising slope over [LeftStart, LeftStart+LeftN)
	RightStart, RightN int // falling slope over [RightStart, RightStart+RightN)
}

// Shape returns the window of a block. prevLong and nextLong only matter
// for long blocks.
func (w *Windows) Shape(long, prevLong, nextLong bool) Shape {
	if !long {
		n := w.sizes[0]
		return Shape{LeftStart: 0, LeftN: n / 2, RightStart: n / 2, RightN: n / 2}
	}
	n, short := w.sizes[1], w.sizes[0]
	s := Shape{LeftStart: 0, LeftN: n / 2, RightStart: n / 2, RightN: n / 2}
	if !prevLong {
		s.LeftStart, s.LeftN = n/4-short/4, short/2
	}
	if !nextLong {
		s.RightStart, s.RightN = 3*n/4-short/4, short/2
	}
	return s
}

func (w *Windows) slopeOf(n int) []float32 {
	if n == w.sizes[0]/2 {
		return w.slopes[0]
	}
	return w.slopes[1]
}

// Apply multiplies the block v by the window s.
func (w *Windows) Apply(v []float32, s Shape) {
	clear(v[:s.LeftStart])
	left := w.slopeOf(s.LeftN)
	for i, g := range left {
		v[s.LeftStart+i] *= g
	}
	right := w.slopeOf(s.RightN)
	for i := range right {
		v[s.RightStart+i] *= right[s.RightN-1-i]
	}
	clear(v[s.RightStart+s.RightN:])
}
