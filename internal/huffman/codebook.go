// Package huffman builds Vorbis codebooks and decodes the entropy-coded
// symbols and vectors they describe.
//
// A codebook header lists a code length per entry. Codewords are assigned
// canonically in entry order, and an optional vector quantization table
// maps each entry to a vector of floats.
//
// # Decoding
//
// Codewords are stored bit-reversed so they can be matched directly against
// the LSB-first bitstream. The first min(maxLength, 10) bits index a direct
// table; longer codes fall back to a linear scan of an overflow list sorted
// by length.
package huffman

import (
	"github.com/llehouerou/go-vorbis/internal/bits"
	"github.com/llehouerou/go-vorbis/internal/tables"
	"github.com/pkg/errors"
)

// Sync is the 24-bit pattern that opens every codebook header ("BCV").
const Sync = 0x564342

// Map types.
const (
	MapNone     = 0 // scalar codebook
	MapLattice  = 1 // values derived from a lattice of multiplicands
	MapExplicit = 2 // one multiplicand per entry and dimension
)

// prefixCap bounds the width of the direct decode table.
const prefixCap = 10

// Codebook is an immutable Vorbis codebook.
type Codebook struct {
	Dimensions int
	Entries    int
	Lengths    []int8 // code length per entry, -1 when unused
	MapType    int

	codes  []uint32  // LSB-first codeword per entry
	lookup []float32 // Entries*Dimensions values, nil without lookup

	maxLen     int
	prefixBits int
	prefix     []prefixEntry
	overflow   []overflowEntry

	// single is the only used entry of a one-entry codebook, or -1.
	single int
}

type prefixEntry struct {
	entry  int32
	length uint8 // 0 marks a miss
}

type overflowEntry struct {
	code   uint32
	length uint8
	entry  int32
}

// Lookup holds the vector quantization parameters of a codebook.
type Lookup struct {
	Type          int // MapLattice or MapExplicit
	Min, Delta    float32
	Sequence      bool // each dimension accumulates the previous one
	Multiplicands []uint32
}

// Read parses a codebook header.
func Read(r *bits.Reader) (*Codebook, error) {
	if r.ReadBits(24) != Sync {
		return nil, ErrBadSync
	}
	dims := r.ReadInt(16)
	entries := r.ReadInt(24)
	if tables.ILog(dims)+tables.ILog(entries) > 24 {
		return nil, errors.Wrapf(ErrBadDimensions, "huffman: %d entries of %d dimensions", entries, dims)
	}

	lengths, err := readLengths(r, entries)
	if err != nil {
		return nil, err
	}

	var lk *Lookup
	switch mt := r.ReadInt(4); mt {
	case MapNone:
	case MapLattice, MapExplicit:
		if dims == 0 {
			return nil, errors.Wrap(ErrBadDimensions, "huffman: lookup on a zero-dimension codebook")
		}
		lk = &Lookup{
			Type:  mt,
			Min:   tables.Float32Unpack(r.ReadUint32()),
			Delta: tables.Float32Unpack(r.ReadUint32()),
		}
		valueBits := r.ReadInt(4) + 1
		lk.Sequence = r.ReadBit()

		n := entries * dims
		if mt == MapLattice {
			n = tables.Lookup1Values(entries, dims)
		}
		if int64(n)*int64(valueBits) > r.Remaining() {
			return nil, ErrShortHeader
		}
		lk.Multiplicands = make([]uint32, n)
		for i := range lk.Multiplicands {
			lk.Multiplicands[i] = uint32(r.ReadBits(valueBits))
		}
	default:
		return nil, errors.Wrapf(ErrBadMapType, "huffman: lookup type %d", mt)
	}

	if r.IsShort() {
		return nil, ErrShortHeader
	}
	return New(dims, lengths, lk)
}

// readLengths reads the per-entry code lengths in ordered or unordered
// (optionally sparse) form.
func readLengths(r *bits.Reader, entries int) ([]int8, error) {
	ordered := r.ReadBit()
	if !ordered {
		// Every entry costs at least one bit.
		if int64(entries) > r.Remaining() {
			return nil, ErrShortHeader
		}
		lengths := make([]int8, entries)
		sparse := r.ReadBit()
		for i := range lengths {
			if sparse && !r.ReadBit() {
				lengths[i] = -1
				continue
			}
			lengths[i] = int8(r.ReadInt(5) + 1)
		}
		return lengths, nil
	}

	lengths := make([]int8, entries)
	length := r.ReadInt(5) + 1
	for i := 0; i < entries; {
		if length > 32 {
			return nil, ErrBadLengths
		}
		n := r.ReadInt(tables.ILog(entries - i))
		if i+n > entries {
			return nil, errors.Wrapf(ErrBadLengths, "huffman: run of %d at entry %d of %d", n, i, entries)
		}
		for j := i; j < i+n; j++ {
			lengths[j] = int8(length)
		}
		i += n
		length++
		if r.IsShort() {
			return nil, ErrShortHeader
		}
	}
	return lengths, nil
}

// New builds a codebook from its code lengths and optional lookup.
func New(dims int, lengths []int8, lk *Lookup) (*Codebook, error) {
	c := &Codebook{
		Dimensions: dims,
		Entries:    len(lengths),
		Lengths:    lengths,
		single:     -1,
	}
	if err := c.assignCodewords(); err != nil {
		return nil, err
	}
	c.buildTable()
	if lk != nil {
		if err := c.expandLookup(lk); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// FromLengths builds a scalar codebook of one dimension.
func FromLengths(lengths []int8) (*Codebook, error) {
	return New(1, lengths, nil)
}

// HasLookup reports whether the codebook carries a VQ table.
func (c *Codebook) HasLookup() bool { return c.lookup != nil }

// Vector returns the VQ values of an entry. The slice must not be modified.
func (c *Codebook) Vector(entry int) []float32 {
	d := c.Dimensions
	return c.lookup[entry*d : (entry+1)*d]
}

// Codeword returns the codeword of an entry as an LSB-first bit pattern and
// its length. The length is 0 for an unused entry.
func (c *Codebook) Codeword(entry int) (uint32, int) {
	if c.Lengths[entry] <= 0 {
		return 0, 0
	}
	return c.codes[entry], int(c.Lengths[entry])
}
