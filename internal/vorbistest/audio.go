package vorbistest

import (
	"fmt"
	"slices"

	"github.com/llehouerou/go-vorbis/internal/bits"
	"github.com/llehouerou/go-vorbis/internal/huffman"
)

var (
	plainClassBook = mustBook(huffman.New(1, []int8{1, 1}, nil))
	spareClassBook = mustBook(huffman.New(1, []int8{2, 2, 2, 2}, nil))
	valueBook      = mustBook(huffman.New(1, []int8{2, 2, 2, 2}, valueLookup()))
)

func (c Config) classBook() *huffman.Codebook {
	if c.SpareClassCodes {
		return spareClassBook
	}
	return plainClassBook
}

func mustBook(cb *huffman.Codebook, err error) *huffman.Codebook {
	if err != nil {
		panic(err)
	}
	return cb
}

func writeEntry(w *bits.Writer, cb *huffman.Codebook, e int) {
	code, n := cb.Codeword(e)
	w.WriteBits(uint64(code), n)
}

// AudioPacket encodes one audio packet. It panics when a spectrum does not
// fit the block or holds a value outside [MinValue, MaxValue].
func (c Config) AudioPacket(b Block) []byte {
	n := c.Size(b) / 2
	if len(b.Spectra) != c.Channels {
		panic(fmt.Sprintf("vorbistest: %d spectra for %d channels", len(b.Spectra), c.Channels))
	}

	var w bits.Writer
	nonzero := c.writeFloors(&w, b)

	value := func(ch, i int) int {
		if b.Spectra[ch] == nil {
			return 0
		}
		return b.Spectra[ch][i]
	}

	if c.ResidueType == 2 {
		if slices.Contains(nonzero, true) {
			ch := c.Channels
			writeResidue(&w, c.classBook(), 1, ch*n, func(_, k int) int { return value(k%ch, k/ch) })
		}
		return w.Bytes()
	}

	var used []int
	for ch, nz := range nonzero {
		if nz {
			used = append(used, ch)
		}
	}
	if len(used) > 0 {
		writeResidue(&w, c.classBook(), len(used), n, func(i, k int) int { return value(used[i], k) })
	}
	return w.Bytes()
}

// writeFloors writes the packet header and the floor of every channel, and
// returns which channels carry residue.
func (c Config) writeFloors(w *bits.Writer, b Block) []bool {
	n := c.Size(b) / 2
	w.WriteBit(false)
	w.WriteBit(b.Long)
	if b.Long {
		w.WriteBit(b.PrevLong)
		w.WriteBit(b.NextLong)
	}

	nonzero := make([]bool, c.Channels)
	for ch, s := range b.Spectra {
		if s == nil {
			w.WriteBit(false)
			continue
		}
		if len(s) != n {
			panic(fmt.Sprintf("vorbistest: channel %d has %d values, want %d", ch, len(s), n))
		}
		w.WriteBit(true)
		w.WriteBits(255, 8)
		w.WriteBits(255, 8)
		nonzero[ch] = true
	}
	if c.Coupled && (nonzero[0] || nonzero[1]) {
		nonzero[0], nonzero[1] = true, true
	}
	return nonzero
}

// CorruptPacket encodes the header and floors of b followed by a residue
// classification code that names no class, so the residue of the packet
// cannot be decoded. It needs SpareClassCodes and a block with a non-silent
// channel.
func (c Config) CorruptPacket(b Block) []byte {
	if !c.SpareClassCodes {
		panic("vorbistest: CorruptPacket needs SpareClassCodes")
	}
	if len(b.Spectra) != c.Channels {
		panic(fmt.Sprintf("vorbistest: %d spectra for %d channels", len(b.Spectra), c.Channels))
	}
	var w bits.Writer
	if !slices.Contains(c.writeFloors(&w, b), true) {
		panic("vorbistest: CorruptPacket needs a channel with energy")
	}
	writeEntry(&w, spareClassBook, 3)
	w.WriteBits(0, 64)
	return w.Bytes()
}

// writeResidue codes vectors of length n in partitions: per partition the
// class word of every vector, then the values of the vectors of class 1.
func writeResidue(w *bits.Writer, cb *huffman.Codebook, vectors, n int, value func(v, k int) int) {
	classes := make([]int, vectors)
	for off := 0; off+PartitionSize <= n; off += PartitionSize {
		for v := range classes {
			classes[v] = 0
			for k := off; k < off+PartitionSize; k++ {
				if value(v, k) != 0 {
					classes[v] = 1
					break
				}
			}
			writeEntry(w, cb, classes[v])
		}
		for v, class := range classes {
			if class == 0 {
				continue
			}
			for k := off; k < off+PartitionSize; k++ {
				x := value(v, k)
				if x < MinValue || x > MaxValue {
					panic(fmt.Sprintf("vorbistest: value %d out of range", x))
				}
				writeEntry(w, valueBook, x-MinValue)
			}
		}
	}
}

// Granules returns the granule position reached after each block: the
// first block yields no samples and every later one a quarter of each of
// the two block sizes around the boundary.
func (c Config) Granules(blocks []Block) []int64 {
	out := make([]int64, len(blocks))
	var pos int64
	prev := 0
	for i, b := range blocks {
		n := c.Size(b)
		if i > 0 {
			pos += int64(prev/4 + n/4)
		}
		out[i] = pos
		prev = n
	}
	return out
}
