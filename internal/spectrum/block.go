package spectrum

import "github.com/llehouerou/go-vorbis/internal/bits"

// Block is the scratch space for decoding one audio packet. It is reused
// from packet to packet.
type Block struct {
	// PCM holds one buffer per channel, long enough for the largest block.
	// After Mapping.Decode the first half of each buffer holds the
	// channel's spectrum.
	PCM [][]float32

	// Energy reports, per channel, whether the floor carried any energy.
	// Silent channels have an all-zero spectrum.
	Energy []bool

	// Corrupt is set when a codeword failed to decode.
	Corrupt bool

	// Short is set when the packet ended before decoding did.
	Short bool

	floors  []FloorData
	nonzero []bool
	bundle  [][]float32
	bundleZ []bool
	used    [][]float32
	vecs    [][]float32
	classes [][]int
}

// NewBlock allocates scratch space for the given channel count and largest
// block size.
func NewBlock(channels, maxBlockSize int) *Block {
	b := &Block{
		PCM:     make([][]float32, channels),
		Energy:  make([]bool, channels),
		floors:  make([]FloorData, channels),
		nonzero: make([]bool, channels),
	}
	for i := range b.PCM {
		b.PCM[i] = make([]float32, maxBlockSize)
	}
	return b
}

// Reset clears the per-packet flags.
func (b *Block) Reset() {
	b.Corrupt = false
	b.Short = false
	clear(b.Energy)
}

// fail records a decoding failure, telling a short packet apart from a
// corrupt one.
func (b *Block) fail(r *bits.Reader) {
	if r.IsShort() {
		b.Short = true
	} else {
		b.Corrupt = true
	}
}

// classScratch returns a channels x n class table.
func (b *Block) classScratch(channels, n int) [][]int {
	for len(b.classes) < channels {
		b.classes = append(b.classes, nil)
	}
	for i := 0; i < channels; i++ {
		if cap(b.classes[i]) < n {
			b.classes[i] = make([]int, n)
		}
		b.classes[i] = b.classes[i][:n]
	}
	return b.classes[:channels]
}
