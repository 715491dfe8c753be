package fft

import (
	"fmt"
	"math"
	"math/bits"
)

// FFT is a radix-2 decimation-in-time transform of a fixed power-of-two
// size. It is immutable once built and may be shared between goroutines.
type FFT struct {
	n       int
	rev     []int32   // bit-reversal permutation
	twiddle []Complex // exp(-2*pi*i*k/n) for k < n/2
}

// New builds a transform of size n. n must be a power of two, at least 4.
func New(n int) *FFT {
	if n < 4 || n&(n-1) != 0 {
		panic(fmt.Sprintf("fft: size %d is not a power of two >= 4", n))
	}
	f := &FFT{
		n:       n,
		rev:     make([]int32, n),
		twiddle: make([]Complex, n/2),
	}

	shift := 32 - bits.TrailingZeros(uint(n))
	for i := range f.rev {
		f.rev[i] = int32(bits.Reverse32(uint32(i)) >> shift)
	}
	for k := range f.twiddle {
		s, c := math.Sincos(-2 * math.Pi * float64(k) / float64(n))
		f.twiddle[k] = Complex{Re: float32(c), Im: float32(s)}
	}
	return f
}

// Size returns the transform size.
func (f *FFT) Size() int { return f.n }

// Forward computes X[p] = sum x[k] exp(-2*pi*i*p*k/n) in place. len(x) must
// be the transform size.
func (f *FFT) Forward(x []Complex) {
	n := f.n
	x = x[:n]
	for i, j := range f.rev {
		if i < int(j) {
			x[i], x[j] = x[j], x[i]
		}
	}

	// Stages of size 2 and 4 need no multiplications.
	for i := 0; i < n; i += 2 {
		a, b := x[i], x[i+1]
		x[i] = Complex{a.Re + b.Re, a.Im + b.Im}
		x[i+1] = Complex{a.Re - b.Re, a.Im - b.Im}
	}
	for i := 0; i < n; i += 4 {
		a0, a1, b0, b1 := x[i], x[i+1], x[i+2], x[i+3]
		t := Complex{b1.Im, -b1.Re} // b1 * -i
		x[i] = Complex{a0.Re + b0.Re, a0.Im + b0.Im}
		x[i+2] = Complex{a0.Re - b0.Re, a0.Im - b0.Im}
		x[i+1] = Complex{a1.Re + t.Re, a1.Im + t.Im}
		x[i+3] = Complex{a1.Re - t.Re, a1.Im - t.Im}
	}

	for size := 8; size <= n; size <<= 1 {
		half, step := size/2, n/size
		for start := 0; start < n; start += size {
			for k := 0; k < half; k++ {
				w := f.twiddle[k*step]
				a, b := x[start+k], x[start+k+half]
				t := Complex{b.Re*w.Re - b.Im*w.Im, b.Re*w.Im + b.Im*w.Re}
				x[start+k] = Complex{a.Re + t.Re, a.Im + t.Im}
				x[start+k+half] = Complex{a.Re - t.Re, a.Im - t.Im}
			}
		}
	}
}
