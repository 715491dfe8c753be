package spectrum

import (
	"math"

	"github.com/llehouerou/go-vorbis/internal/bits"
	"github.com/llehouerou/go-vorbis/internal/huffman"
	"github.com/llehouerou/go-vorbis/internal/tables"
	"github.com/pkg/errors"
)

// Floor0 is a line spectral pair floor mapped onto the Bark scale.
type Floor0 struct {
	order     int
	rate      int
	barkSize  int
	ampBits   int
	ampOffset int
	books     []*huffman.Codebook

	// maps holds, for each block size, the Bark band of every spectral
	// line of the first half of the block.
	maps [2][]int
}

func (*Floor0) floor() {}

func readFloor0(r *bits.Reader, books []*huffman.Codebook, blockSizes [2]int) (*Floor0, error) {
	f := &Floor0{
		order:     r.ReadInt(8),
		rate:      r.ReadInt(16),
		barkSize:  r.ReadInt(16),
		ampBits:   r.ReadInt(6),
		ampOffset: r.ReadInt(8),
	}
	n := r.ReadInt(4) + 1
	if f.order < 1 || f.rate < 1 || f.barkSize < 1 {
		return nil, errors.Wrapf(ErrBadFloor, "spectrum: floor 0 order %d rate %d bark map %d", f.order, f.rate, f.barkSize)
	}
	for i := 0; i < n; i++ {
		b, err := book(books, r.ReadInt(8), ErrBadFloor, "floor 0")
		if err != nil {
			return nil, err
		}
		if !b.HasLookup() || b.Dimensions < 1 {
			return nil, errors.Wrap(ErrBadFloor, "spectrum: floor 0 book without lookup")
		}
		f.books = append(f.books, b)
	}
	if r.IsShort() {
		return nil, errors.Wrap(ErrBadFloor, "spectrum: floor 0 header truncated")
	}

	for i, bs := range blockSizes {
		f.maps[i] = f.barkMap(bs / 2)
	}
	return f, nil
}

// barkMap computes the Bark band of each of the n lines of a half block.
func (f *Floor0) barkMap(n int) []int {
	nyquist := float64(f.rate) / 2
	scale := float64(f.barkSize) / tables.Bark(nyquist)
	m := make([]int, n+1)
	for i := 0; i < n; i++ {
		v := int(math.Floor(tables.Bark(nyquist/float64(n)*float64(i)) * scale))
		m[i] = min(v, f.barkSize-1)
	}
	m[n] = -1
	return m
}

// Decode implements Floor.
func (f *Floor0) Decode(r *bits.Reader, d *FloorData) (energy, ok bool) {
	raw := r.ReadInt(f.ampBits)
	if r.IsShort() {
		return false, false
	}
	if raw == 0 {
		return false, true
	}
	maxVal := 1<<f.ampBits - 1
	d.amp = float32(raw) / float32(maxVal) * float32(f.ampOffset)

	i := r.ReadInt(tables.ILog(len(f.books)))
	if r.IsShort() {
		return false, false
	}
	if i >= len(f.books) {
		return false, false
	}
	b := f.books[i]

	d.lsp = d.lsp[:0]
	var last float32
	for len(d.lsp) < f.order {
		v := b.DecodeVector(r)
		if v == nil {
			return false, false
		}
		start := len(d.lsp)
		d.lsp = append(d.lsp, v...)
		for j := start; j < len(d.lsp); j++ {
			d.lsp[j] += last
		}
		last = d.lsp[len(d.lsp)-1]
	}
	d.lsp = d.lsp[:f.order]
	return true, true
}

// Apply implements Floor.
func (f *Floor0) Apply(d *FloorData, v []float32) {
	n := len(v)
	var m []int
	for _, bm := range f.maps {
		if len(bm) == n+1 {
			m = bm
			break
		}
	}
	if m == nil {
		m = f.barkMap(n)
	}
	lspToCurve(v, m, n, f.barkSize, d.lsp, d.amp, float32(f.ampOffset))
}

// lspToCurve evaluates the LSP filter response at the Bark band of every
// line and multiplies the line by it.
func lspToCurve(curve []float32, m []int, n, ln int, lsp []float32, amp, ampOffset float32) {
	order := len(lsp)
	w2 := make([]float32, order)
	for i, c := range lsp {
		w2[i] = 2 * float32(math.Cos(float64(c)))
	}
	wdel := math.Pi / float64(ln)

	for i := 0; i < n; {
		k := m[i]
		p, q := float32(0.5), float32(0.5)
		w := 2 * float32(math.Cos(wdel*float64(k)))
		j := 1
		for ; j < order; j += 2 {
			q *= w - w2[j-1]
			p *= w - w2[j]
		}
		if j == order {
			// Odd order.
			q *= w - w2[j-1]
			p *= p * (4 - w*w)
			q *= q
		} else {
			p *= p * (2 - w)
			q *= q * (2 + w)
		}

		g := fromDB(amp/float32(math.Sqrt(float64(p+q))) - ampOffset)
		curve[i] *= g
		for i++; m[i] == k; i++ {
			curve[i] *= g
		}
	}
}

func fromDB(x float32) float32 {
	return float32(math.Exp(float64(x) * 0.11512925))
}
