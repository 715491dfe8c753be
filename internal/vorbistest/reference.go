package vorbistest

import "math"

// Decode returns, per channel, the samples a decoder must produce for
// blocks. It works from the definitions in float64: residue values are
// decoupled, each block is transformed by direct summation of the inverse
// MDCT, windowed, and overlapped with its neighbours centre to centre.
func (c Config) Decode(blocks []Block) [][]float64 {
	out := make([][]float64, c.Channels)
	var prev [][]float64
	prevSize := 0
	for _, b := range blocks {
		n := c.Size(b)
		spectra := c.spectra(b)
		win := c.window(b)
		cur := make([][]float64, c.Channels)
		for ch := range cur {
			cur[ch] = inverseMDCT(spectra[ch], n)
			for i := range cur[ch] {
				cur[ch][i] *= win[i]
			}
		}
		if prev != nil {
			// cur starts where the 3/4 point of prev meets its 1/4 point.
			off := 3*prevSize/4 - n/4
			for ch := range out {
				for i := prevSize / 2; i < off+n/2; i++ {
					v := 0.0
					if i < prevSize {
						v += prev[ch][i]
					}
					if j := i - off; j >= 0 {
						v += cur[ch][j]
					}
					out[ch] = append(out[ch], v)
				}
			}
		}
		prev, prevSize = cur, n
	}
	return out
}

// spectra returns the spectra of b after undoing the channel coupling.
func (c Config) spectra(b Block) [][]float64 {
	n := c.Size(b) / 2
	s := make([][]float64, c.Channels)
	for ch := range s {
		s[ch] = make([]float64, n)
		for i := range b.Spectra[ch] {
			s[ch][i] = float64(b.Spectra[ch][i])
		}
	}
	if c.Coupled {
		decouple(s[0], s[1])
	}
	// A channel without a floor stays silent whatever its residue.
	for ch := range s {
		if b.Spectra[ch] == nil {
			clear(s[ch])
		}
	}
	return s
}

func decouple(mag, ang []float64) {
	for i := range mag {
		m, a := mag[i], ang[i]
		switch {
		case m > 0 && a > 0:
			mag[i], ang[i] = m, m-a
		case m > 0:
			mag[i], ang[i] = m+a, m
		case a > 0:
			mag[i], ang[i] = m, m+a
		default:
			mag[i], ang[i] = m-a, m
		}
	}
}

// window returns the window of b.
func (c Config) window(b Block) []float64 {
	n := c.Size(b)
	short := c.BlockSizes[0]
	leftStart, leftN := 0, n/2
	rightStart, rightN := n/2, n/2
	if b.Long && !b.PrevLong {
		leftStart, leftN = n/4-short/4, short/2
	}
	if b.Long && !b.NextLong {
		rightStart, rightN = 3*n/4-short/4, short/2
	}

	w := make([]float64, n)
	for i := range w {
		switch {
		case i < leftStart:
		case i < leftStart+leftN:
			x := math.Sin((float64(i-leftStart) + 0.5) / float64(leftN) * math.Pi / 2)
			w[i] = math.Sin(math.Pi / 2 * x * x)
		case i < rightStart:
			w[i] = 1
		case i < rightStart+rightN:
			x := math.Sin((float64(i-rightStart)+0.5)/float64(rightN)*math.Pi/2 + math.Pi/2)
			w[i] = math.Sin(math.Pi / 2 * x * x)
		}
	}
	return w
}

// inverseMDCT computes the n samples of a block from its n/2 lines.
func inverseMDCT(x []float64, n int) []float64 {
	y := make([]float64, n)
	for k, v := range x {
		if v == 0 {
			continue
		}
		for i := range y {
			y[i] += v * math.Cos(2*math.Pi/float64(n)*(float64(i)+0.5+float64(n)/4)*(float64(k)+0.5))
		}
	}
	return y
}
