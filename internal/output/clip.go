// Package output converts decoded float samples: clipping, interleaving and
// integer PCM.
package output

import "math"

// Clip threshold: the largest float32 below 1.
const (
	maxBits = 0x3f7fffff
	absMask = 0x7fffffff
	signBit = 0x80000000
)

// Max is the largest sample magnitude Clip lets through.
var Max = math.Float32frombits(maxBits)

// Clip limits v to [-Max, Max]. The magnitude is compared on the bit
// pattern, so NaN clips to Max with the sign it carries.
func Clip(v float32) (float32, bool) {
	b := math.Float32bits(v)
	if b&absMask > maxBits {
		return math.Float32frombits(b&signBit | maxBits), true
	}
	return v, false
}

// ClipSlice clips every sample of v in place and returns how many were
// clipped.
func ClipSlice(v []float32) int {
	n := 0
	for i, s := range v {
		b := math.Float32bits(s)
		if b&absMask > maxBits {
			v[i] = math.Float32frombits(b&signBit | maxBits)
			n++
		}
	}
	return n
}

// Interleave writes frames samples of every planar channel into out as
// interleaved frames. out must hold frames*len(planar) values.
func Interleave(out []float32, planar [][]float32, frames int) {
	ch := len(planar)
	for c, p := range planar {
		p = p[:frames]
		for i, s := range p {
			out[i*ch+c] = s
		}
	}
}
