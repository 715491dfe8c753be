// Package vorbistest builds synthetic Vorbis streams for tests.
//
// Every stream uses the same small setup: two codebooks, a floor 1 with only
// its two implicit posts, one residue whose stage book codes the values -1,
// 0, 1 and 2 in partitions of 16, and one mapping shared by a short mode
// (mode 0) and a long mode (mode 1). Coded floors are flat at unity gain, so
// a block's spectrum equals its residue after decoupling.
package vorbistest

import (
	"math"

	"github.com/llehouerou/go-vorbis/internal/bits"
	"github.com/llehouerou/go-vorbis/internal/huffman"
	"github.com/llehouerou/go-vorbis/internal/tables"
)

// PartitionSize is the residue partition size of the generated setup.
const PartitionSize = 16

// MinValue and MaxValue bound the residue values a block may carry.
const (
	MinValue = -1
	MaxValue = 2
)

const codebookSync = 0x564342

// Config describes a synthetic stream.
type Config struct {
	Channels   int
	SampleRate int
	BlockSizes [2]int // powers of two, 64 to 8192

	// ResidueType selects residue 0, 1 or 2.
	ResidueType int

	// Coupled couples channel 1, the angle, to channel 0, the magnitude.
	Coupled bool

	// SpareClassCodes gives the classification book four entries instead
	// of two. Entries 2 and 3 name no class; CorruptPacket uses them.
	SpareClassCodes bool

	NominalBitrate int32
	Vendor         string
	Comments       []string
}

// Block describes one audio packet.
type Block struct {
	Long               bool
	PrevLong, NextLong bool

	// Spectra holds, per channel, the coded residue values over the first
	// half of the block. A nil channel is silent.
	Spectra [][]int
}

// Size returns the block size of b.
func (c Config) Size(b Block) int {
	if b.Long {
		return c.BlockSizes[1]
	}
	return c.BlockSizes[0]
}

// Headers returns the identification, comment and setup packets.
func (c Config) Headers() [3][]byte {
	return [3][]byte{c.IdentPacket(), c.CommentPacket(), c.SetupPacket()}
}

func writeMagic(w *bits.Writer, typ byte) {
	w.WriteBits(uint64(typ), 8)
	w.WriteBytes([]byte("vorbis"))
}

// IdentPacket returns the identification header.
func (c Config) IdentPacket() []byte {
	var w bits.Writer
	writeMagic(&w, 1)
	w.WriteUint32(0)
	w.WriteBits(uint64(c.Channels), 8)
	w.WriteUint32(uint32(c.SampleRate))
	w.WriteUint32(0)
	w.WriteUint32(uint32(c.NominalBitrate))
	w.WriteUint32(0)
	w.WriteBits(uint64(tables.ILog(c.BlockSizes[0]-1)), 4)
	w.WriteBits(uint64(tables.ILog(c.BlockSizes[1]-1)), 4)
	w.WriteBit(true)
	return w.Bytes()
}

// CommentPacket returns the comment header.
func (c Config) CommentPacket() []byte {
	var w bits.Writer
	writeMagic(&w, 3)
	w.WriteUint32(uint32(len(c.Vendor)))
	w.WriteBytes([]byte(c.Vendor))
	w.WriteUint32(uint32(len(c.Comments)))
	for _, s := range c.Comments {
		w.WriteUint32(uint32(len(s)))
		w.WriteBytes([]byte(s))
	}
	w.WriteBit(true)
	return w.Bytes()
}

// SetupPacket returns the setup header.
func (c Config) SetupPacket() []byte {
	var w bits.Writer
	writeMagic(&w, 5)

	w.WriteBits(1, 8) // two codebooks
	writeCodebook(&w, 1, c.classBook().Lengths, nil)
	writeCodebook(&w, 1, []int8{2, 2, 2, 2}, valueLookup())

	w.WriteBits(0, 6) // one time placeholder
	w.WriteBits(0, 16)

	w.WriteBits(0, 6) // one floor 1
	w.WriteBits(1, 16)
	w.WriteBits(0, 5)
	w.WriteBits(0, 2)
	w.WriteBits(uint64(tables.ILog(c.BlockSizes[1]/2-1)), 4)

	w.WriteBits(0, 6) // one residue
	w.WriteBits(uint64(c.ResidueType), 16)
	w.WriteBits(0, 24)
	w.WriteBits(uint64(c.residueEnd()), 24)
	w.WriteBits(PartitionSize-1, 24)
	w.WriteBits(1, 6)
	w.WriteBits(0, 8)
	w.WriteBits(0, 3) // class 0 codes nothing
	w.WriteBit(false)
	w.WriteBits(1, 3) // class 1 codes stage 0
	w.WriteBit(false)
	w.WriteBits(1, 8)

	w.WriteBits(0, 6) // one mapping
	w.WriteBits(0, 16)
	w.WriteBit(false)
	if c.Coupled {
		chBits := tables.ILog(c.Channels - 1)
		w.WriteBit(true)
		w.WriteBits(0, 8)
		w.WriteBits(0, chBits)
		w.WriteBits(1, chBits)
	} else {
		w.WriteBit(false)
	}
	w.WriteBits(0, 2)
	w.WriteBits(0, 8)
	w.WriteBits(0, 8)
	w.WriteBits(0, 8)

	w.WriteBits(1, 6) // two modes
	for _, long := range []bool{false, true} {
		w.WriteBit(long)
		w.WriteBits(0, 16)
		w.WriteBits(0, 16)
		w.WriteBits(0, 8)
	}
	w.WriteBit(true)
	return w.Bytes()
}

func (c Config) residueEnd() int {
	if c.ResidueType == 2 {
		return c.Channels * c.BlockSizes[1] / 2
	}
	return c.BlockSizes[1] / 2
}

func valueLookup() *huffman.Lookup {
	return &huffman.Lookup{
		Type:          huffman.MapLattice,
		Min:           MinValue,
		Delta:         1,
		Multiplicands: []uint32{0, 1, 2, 3},
	}
}

func writeCodebook(w *bits.Writer, dims int, lengths []int8, lk *huffman.Lookup) {
	w.WriteBits(codebookSync, 24)
	w.WriteBits(uint64(dims), 16)
	w.WriteBits(uint64(len(lengths)), 24)
	w.WriteBit(false) // unordered
	w.WriteBit(false) // not sparse
	for _, l := range lengths {
		w.WriteBits(uint64(l-1), 5)
	}
	if lk == nil {
		w.WriteBits(huffman.MapNone, 4)
		return
	}
	maxMult := uint32(0)
	for _, m := range lk.Multiplicands {
		maxMult = max(maxMult, m)
	}
	valueBits := max(1, tables.ILog(int(maxMult)))
	w.WriteBits(uint64(lk.Type), 4)
	w.WriteUint32(packFloat(lk.Min))
	w.WriteUint32(packFloat(lk.Delta))
	w.WriteBits(uint64(valueBits-1), 4)
	w.WriteBit(lk.Sequence)
	for _, m := range lk.Multiplicands {
		w.WriteBits(uint64(m), valueBits)
	}
}

// packFloat encodes v in the codebook float format.
func packFloat(v float32) uint32 {
	if v == 0 {
		return 0
	}
	var sign uint32
	if v < 0 {
		sign = 0x80000000
		v = -v
	}
	frac, exp := math.Frexp(float64(v))
	mant := uint32(frac * (1 << 21))
	return sign | uint32(exp-21+788)<<21 | mant
}
