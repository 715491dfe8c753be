// Package fft implements the complex FFT behind the inverse MDCT.
package fft

// Complex is a single-precision complex number.
type Complex struct {
	Re float32
	Im float32
}

// ComplexMult rotates (x1, x2) by the angle whose cosine and sine are c1
// and c2, in the negative direction:
//
//	y1 = x1*c1 + x2*c2
//	y2 = x2*c1 - x1*c2
//
// That is (x1 + i*x2) * (c1 - i*c2).
func ComplexMult(x1, x2, c1, c2 float32) (y1, y2 float32) {
	y1 = x1*c1 + x2*c2
	y2 = x2*c1 - x1*c2
	return
}
