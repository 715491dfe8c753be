// Package mdct implements the inverse modified discrete cosine transform
// used to turn a block's spectrum back into samples.
package mdct

import (
	"fmt"
	"math"

	"github.com/llehouerou/go-vorbis/internal/fft"
)

// MDCT is an inverse transform of a fixed block size. The transform is
// carried out as a DCT-IV of n/2 points on top of an n/4-point complex FFT,
// with one table of rotations shared by the pre- and post-twiddle steps.
// An MDCT is immutable and may be shared between goroutines.
type MDCT struct {
	N  int // block size
	N2 int // N/2, the number of spectral lines
	N4 int // N/4, the FFT size

	fft    *fft.FFT
	sincos []fft.Complex // cos and sin of 2*pi*(k+1/8)/N
}

// New builds the transform for block size n, a power of two of at least 16.
func New(n int) *MDCT {
	if n < 16 || n&(n-1) != 0 {
		panic(fmt.Sprintf("mdct: block size %d is not a power of two >= 16", n))
	}
	m := &MDCT{
		N:      n,
		N2:     n / 2,
		N4:     n / 4,
		fft:    fft.New(n / 4),
		sincos: make([]fft.Complex, n/4),
	}
	for k := range m.sincos {
		s, c := math.Sincos(2 * math.Pi * (float64(k) + 0.125) / float64(n))
		m.sincos[k] = fft.Complex{Re: float32(c), Im: float32(s)}
	}
	return m
}

// Inverse computes
//
//	out[i] = sum over k of in[k] * cos(2*pi/N * (i + 1/2 + N/4) * (k + 1/2))
//
// for the N/2 lines of in and the N samples of out, without scaling. work
// must hold at least N/4 values; it is overwritten.
func (m *MDCT) Inverse(in, out []float32, work []fft.Complex) {
	n2, n4 := m.N2, m.N4
	in, out, z := in[:n2], out[:m.N], work[:n4]

	// Pack even lines and reversed odd lines into complex values and
	// rotate them.
	for k := range z {
		tw := m.sincos[k]
		z[k].Re, z[k].Im = fft.ComplexMult(in[2*k], in[n2-1-2*k], tw.Re, tw.Im)
	}

	m.fft.Forward(z)

	// After the post-rotation, z[p] holds DCT-IV output u[2p] in its real
	// part and -u[n2-1-2p] in its imaginary part. The DCT-IV output folds
	// into the block with the symmetries of the MDCT basis.
	n34 := 3 * n4
	for p := range z {
		tw := m.sincos[p]
		re, im := fft.ComplexMult(z[p].Re, z[p].Im, tw.Re, tw.Im)
		m.fold(out, 2*p, re, n4, n34)
		m.fold(out, n2-1-2*p, -im, n4, n34)
	}
}

// fold writes DCT-IV output u[j] = v to the two samples it determines.
func (m *MDCT) fold(out []float32, j int, v float32, n4, n34 int) {
	if j < n4 {
		out[n34-1-j] = -v
		out[n34+j] = -v
		return
	}
	out[j-n4] = v
	out[n34-1-j] = -v
}
