package huffman

import "github.com/llehouerou/go-vorbis/internal/bits"

// DecodeScalar reads one codeword and returns its entry number, or -1 when
// the bits match no codeword or the packet ends inside the codeword.
func (c *Codebook) DecodeScalar(r *bits.Reader) int {
	if c.single >= 0 {
		r.SkipBits(int(c.Lengths[c.single]))
		return c.single
	}
	if c.maxLen == 0 {
		return -1
	}

	v, got := r.TryPeekBits(c.prefixBits)
	if e := c.prefix[v]; e.length > 0 {
		if int(e.length) > got {
			r.SkipBits(int(e.length))
			return -1
		}
		r.SkipBits(int(e.length))
		return int(e.entry)
	}

	v, got = r.TryPeekBits(c.maxLen)
	for _, o := range c.overflow {
		if v&(1<<o.length-1) != uint64(o.code) {
			continue
		}
		r.SkipBits(int(o.length))
		if int(o.length) > got {
			return -1
		}
		return int(o.entry)
	}
	return -1
}

// DecodeVector reads one codeword and returns its VQ vector, or nil when
// decoding fails. The slice must not be modified.
func (c *Codebook) DecodeVector(r *bits.Reader) []float32 {
	e := c.DecodeScalar(r)
	if e < 0 || c.lookup == nil {
		return nil
	}
	return c.Vector(e)
}
