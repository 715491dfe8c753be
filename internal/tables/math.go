package tables

import "math"

// ILog returns the number of bits needed to hold v, and 0 for v <= 0.
func ILog(v int) int {
	n := 0
	for v > 0 {
		n++
		v >>= 1
	}
	return n
}

// Lookup1Values returns the largest r such that r^dims <= entries, the
// number of values per dimension of a lattice VQ codebook.
func Lookup1Values(entries, dims int) int {
	if entries <= 0 || dims <= 0 {
		return 0
	}
	r := int(math.Floor(math.Exp(math.Log(float64(entries)) / float64(dims))))
	// Floating point may land one off in either direction.
	for pow(r+1, dims) <= entries {
		r++
	}
	for r > 0 && pow(r, dims) > entries {
		r--
	}
	return r
}

// pow computes b^e, saturating well above any 24-bit entry count.
func pow(b, e int) int {
	v := 1
	for i := 0; i < e; i++ {
		v *= b
		if v > 1<<30 {
			return 1 << 30
		}
	}
	return v
}

// Bark maps a frequency in Hz onto the Bark scale.
func Bark(f float64) float64 {
	return 13.1*math.Atan(0.00074*f) + 2.24*math.Atan(f*f*1.85e-8) + 1e-4*f
}

// Float32Unpack decodes the packed float format used in codebook headers:
// a 21-bit mantissa, a 10-bit biased exponent and a sign bit.
func Float32Unpack(x uint32) float32 {
	mant := float64(x & 0x1fffff)
	exp := int((x >> 21) & 0x3ff)
	if x&0x80000000 != 0 {
		mant = -mant
	}
	return float32(math.Ldexp(mant, exp-788))
}
