package spectrum

import (
	"sort"

	"github.com/llehouerou/go-vorbis/internal/bits"
	"github.com/llehouerou/go-vorbis/internal/huffman"
	"github.com/llehouerou/go-vorbis/internal/tables"
	"github.com/pkg/errors"
)

// maxFloor1Posts is the largest number of X positions a floor 1 may list,
// including the two implicit end points.
const maxFloor1Posts = 65

// unusedPost flags a post whose Y value was predicted rather than coded.
const unusedPost = 0x8000

// Floor1 is a piecewise-linear floor.
type Floor1 struct {
	partitionClass []int
	classDims      []int
	classSubs      []int
	classBooks     []*huffman.Codebook
	subBooks       [][]*huffman.Codebook // nil entries code a zero

	mult int
	x    []int // post X positions in header order

	sorted    []int // post indices by ascending X
	low, high []int // neighbours of each post among the earlier ones
}

func (*Floor1) floor() {}

func readFloor1(r *bits.Reader, books []*huffman.Codebook) (*Floor1, error) {
	f := &Floor1{}
	partitions := r.ReadInt(5)
	maxClass := -1
	f.partitionClass = make([]int, partitions)
	for i := range f.partitionClass {
		f.partitionClass[i] = r.ReadInt(4)
		maxClass = max(maxClass, f.partitionClass[i])
	}

	n := maxClass + 1
	f.classDims = make([]int, n)
	f.classSubs = make([]int, n)
	f.classBooks = make([]*huffman.Codebook, n)
	f.subBooks = make([][]*huffman.Codebook, n)
	for c := 0; c < n; c++ {
		f.classDims[c] = r.ReadInt(3) + 1
		f.classSubs[c] = r.ReadInt(2)
		if f.classSubs[c] > 0 {
			b, err := book(books, r.ReadInt(8), ErrBadFloor, "floor 1 class")
			if err != nil {
				return nil, err
			}
			f.classBooks[c] = b
		}
		f.subBooks[c] = make([]*huffman.Codebook, 1<<f.classSubs[c])
		for k := range f.subBooks[c] {
			i := r.ReadInt(8) - 1
			if i < 0 {
				continue
			}
			b, err := book(books, i, ErrBadFloor, "floor 1 subclass")
			if err != nil {
				return nil, err
			}
			f.subBooks[c][k] = b
		}
	}

	f.mult = r.ReadInt(2) + 1
	rangeBits := r.ReadInt(4)
	f.x = []int{0, 1 << rangeBits}
	for _, c := range f.partitionClass {
		for k := 0; k < f.classDims[c]; k++ {
			if len(f.x) == maxFloor1Posts {
				return nil, errors.Wrap(ErrBadFloor, "spectrum: too many floor 1 posts")
			}
			f.x = append(f.x, r.ReadInt(rangeBits))
		}
	}
	if r.IsShort() {
		return nil, errors.Wrap(ErrBadFloor, "spectrum: floor 1 header truncated")
	}

	f.sorted = make([]int, len(f.x))
	for i := range f.sorted {
		f.sorted[i] = i
	}
	sort.SliceStable(f.sorted, func(a, b int) bool {
		return f.x[f.sorted[a]] < f.x[f.sorted[b]]
	})
	for i := 1; i < len(f.sorted); i++ {
		if f.x[f.sorted[i]] == f.x[f.sorted[i-1]] {
			return nil, errors.Wrapf(ErrBadFloor, "spectrum: duplicate floor 1 post at %d", f.x[f.sorted[i]])
		}
	}

	f.low = make([]int, len(f.x))
	f.high = make([]int, len(f.x))
	for i := 2; i < len(f.x); i++ {
		lo, hi := 0, 1
		lx, hx := 0, 1<<rangeBits
		for j := 0; j < i; j++ {
			x := f.x[j]
			if x > lx && x < f.x[i] {
				lo, lx = j, x
			}
			if x < hx && x > f.x[i] {
				hi, hx = j, x
			}
		}
		f.low[i], f.high[i] = lo, hi
	}
	return f, nil
}

// Decode implements Floor.
func (f *Floor1) Decode(r *bits.Reader, d *FloorData) (energy, ok bool) {
	if !r.ReadBit() {
		return false, !r.IsShort()
	}

	rng := tables.Floor1Range[f.mult-1]
	yBits := tables.ILog(rng - 1)
	if cap(d.posts) < len(f.x) {
		d.posts = make([]int, maxFloor1Posts)
	}
	y := d.posts[:len(f.x)]
	d.posts = y
	y[0] = r.ReadInt(yBits)
	y[1] = r.ReadInt(yBits)

	j := 2
	for _, c := range f.partitionClass {
		dims := f.classDims[c]
		subBits := f.classSubs[c]
		mask := 1<<subBits - 1
		cval := 0
		if subBits > 0 {
			if cval = f.classBooks[c].DecodeScalar(r); cval < 0 {
				return false, false
			}
		}
		for k := 0; k < dims; k++ {
			b := f.subBooks[c][cval&mask]
			cval >>= subBits
			if b == nil {
				y[j+k] = 0
				continue
			}
			if y[j+k] = b.DecodeScalar(r); y[j+k] < 0 {
				return false, false
			}
		}
		j += dims
	}
	if r.IsShort() {
		return false, false
	}

	// Turn the coded offsets into absolute Y values.
	for i := 2; i < len(y); i++ {
		lo, hi := f.low[i], f.high[i]
		predicted := renderPoint(f.x[lo], y[lo], f.x[hi], y[hi], f.x[i])
		hiRoom := rng - predicted
		loRoom := predicted
		room := min(hiRoom, loRoom) * 2

		val := y[i]
		if val == 0 {
			y[i] = predicted | unusedPost
			continue
		}
		switch {
		case val >= room && hiRoom > loRoom:
			val -= loRoom
		case val >= room:
			val = -1 - (val - hiRoom)
		case val&1 != 0:
			val = -((val + 1) >> 1)
		default:
			val >>= 1
		}
		y[i] = (val + predicted) & 0x7fff
		y[lo] &= 0x7fff
		y[hi] &= 0x7fff
	}
	return true, true
}

// Apply implements Floor.
func (f *Floor1) Apply(d *FloorData, v []float32) {
	n := len(v)
	y := d.posts
	lx, hx := 0, 0
	ly := clampAmp(y[0] * f.mult)
	for _, i := range f.sorted[1:] {
		if y[i]&unusedPost != 0 {
			continue
		}
		hx = f.x[i]
		hy := clampAmp(y[i] * f.mult)
		renderLine(v, n, lx, hx, ly, hy)
		lx, ly = hx, hy
	}
	for i := hx; i < n; i++ {
		v[i] *= tables.InverseDB[ly]
	}
}

func clampAmp(y int) int {
	return max(0, min(y, 255))
}

// renderPoint predicts the Y value at x on the line between two posts.
func renderPoint(x0, y0, x1, y1, x int) int {
	y0 &= 0x7fff
	y1 &= 0x7fff
	dy := y1 - y0
	adx := x1 - x0
	ady := dy
	if ady < 0 {
		ady = -ady
	}
	off := ady * (x - x0) / adx
	if dy < 0 {
		return y0 - off
	}
	return y0 + off
}

// renderLine multiplies v[x0:min(x1, n)] by the integer line from (x0, y0)
// to (x1, y1), stepping with Bresenham's error term.
func renderLine(v []float32, n, x0, x1, y0, y1 int) {
	dy := y1 - y0
	adx := x1 - x0
	base := dy / adx
	sy := base + 1
	if dy < 0 {
		sy = base - 1
	}
	ady := dy
	if ady < 0 {
		ady = -ady
	}
	b := base * adx
	if b < 0 {
		b = -b
	}
	ady -= b

	n = min(n, x1)
	x, y, e := x0, y0, 0
	if x < n {
		v[x] *= tables.InverseDB[y]
	}
	for x++; x < n; x++ {
		e += ady
		if e >= adx {
			e -= adx
			y += sy
		} else {
			y += base
		}
		v[x] *= tables.InverseDB[y]
	}
}
