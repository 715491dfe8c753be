package huffman

import (
	"math/bits"
	"sort"

	"github.com/pkg/errors"
)

// assignCodewords gives every used entry its canonical codeword.
//
// marker[l] holds the next free codeword of length l, MSB first. Taking a
// codeword advances the markers of its length and of every shorter length
// that shares the branch, then moves longer markers that pointed below the
// taken branch onto the next free one.
func (c *Codebook) assignCodewords() error {
	var marker [33]uint32
	c.codes = make([]uint32, len(c.Lengths))
	used := 0
	for i, l := range c.Lengths {
		if l <= 0 {
			continue
		}
		if l > 32 {
			return errors.Wrapf(ErrBadLengths, "huffman: entry %d has length %d", i, l)
		}
		length := int(l)
		entry := marker[length]
		if length < 32 && entry>>length != 0 {
			return errors.Wrapf(ErrOverspecified, "huffman: no codeword left for entry %d", i)
		}
		c.codes[i] = entry
		used++
		c.single = i

		for j := length; j > 0; j-- {
			if marker[j]&1 != 0 {
				if j == 1 {
					marker[1]++
				} else {
					marker[j] = marker[j-1] << 1
				}
				break
			}
			marker[j]++
		}
		for j := length + 1; j < 33; j++ {
			if marker[j]>>1 != entry {
				break
			}
			entry = marker[j]
			marker[j] = marker[j-1] << 1
		}
	}

	// A lone entry leaves the tree half empty and is allowed.
	if used == 1 && marker[2] == 2 {
		c.reverseCodes()
		return nil
	}
	c.single = -1
	for l := 1; l < 33; l++ {
		if marker[l]&(0xffffffff>>(32-l)) != 0 {
			return ErrUnderspecified
		}
	}
	c.reverseCodes()
	return nil
}

func (c *Codebook) reverseCodes() {
	for i, l := range c.Lengths {
		if l > 0 {
			c.codes[i] = bits.Reverse32(c.codes[i]) >> (32 - int(l))
		}
	}
}

// buildTable fills the direct prefix table and the overflow list.
func (c *Codebook) buildTable() {
	for _, l := range c.Lengths {
		c.maxLen = max(c.maxLen, int(l))
	}
	c.prefixBits = min(c.maxLen, prefixCap)
	c.prefix = make([]prefixEntry, 1<<c.prefixBits)

	for i, l := range c.Lengths {
		if l <= 0 {
			continue
		}
		code := c.codes[i]
		if int(l) > c.prefixBits {
			c.overflow = append(c.overflow, overflowEntry{code: code, length: uint8(l), entry: int32(i)})
			continue
		}
		// Replicate the code across every value of the unused high bits.
		for v := code; v < uint32(len(c.prefix)); v += 1 << l {
			c.prefix[v] = prefixEntry{entry: int32(i), length: uint8(l)}
		}
	}
	sort.SliceStable(c.overflow, func(a, b int) bool {
		return c.overflow[a].length < c.overflow[b].length
	})
}

// expandLookup computes the VQ vector of every entry.
func (c *Codebook) expandLookup(lk *Lookup) error {
	dims := c.Dimensions
	mults := lk.Multiplicands
	switch lk.Type {
	case MapLattice:
		if len(mults) == 0 {
			return errors.Wrap(ErrBadDimensions, "huffman: empty lattice")
		}
	case MapExplicit:
		if len(mults) < c.Entries*dims {
			return errors.Wrap(ErrShortHeader, "huffman: missing multiplicands")
		}
	default:
		return errors.Wrapf(ErrBadMapType, "huffman: lookup type %d", lk.Type)
	}

	c.MapType = lk.Type
	c.lookup = make([]float32, c.Entries*dims)
	for e := 0; e < c.Entries; e++ {
		var last float32
		div := 1
		for i := 0; i < dims; i++ {
			var m uint32
			if lk.Type == MapLattice {
				m = mults[(e/div)%len(mults)]
				div *= len(mults)
			} else {
				m = mults[e*dims+i]
			}
			v := float32(m)*lk.Delta + lk.Min + last
			if lk.Sequence {
				last = v
			}
			c.lookup[e*dims+i] = v
		}
	}
	return nil
}
