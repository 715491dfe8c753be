package spectrum

import (
	"github.com/llehouerou/go-vorbis/internal/bits"
	"github.com/llehouerou/go-vorbis/internal/huffman"
	"github.com/pkg/errors"
)

// Floor is a floor configuration, either *Floor0 or *Floor1.
type Floor interface {
	// Decode reads one channel's floor into d. energy is false when the
	// channel is silent in this packet; ok is false when the packet is
	// corrupt or too short.
	Decode(r *bits.Reader, d *FloorData) (energy, ok bool)

	// Apply multiplies v, the first half of a block, by the curve in d.
	Apply(d *FloorData, v []float32)

	floor()
}

// FloorData is the per-packet result of decoding one channel's floor.
type FloorData struct {
	posts []int     // floor 1 Y values, 0x8000 marks an unused post
	lsp   []float32 // floor 0 coefficients
	amp   float32   // floor 0 amplitude
}

// ReadFloor parses one floor configuration. blockSizes are needed by
// floor 0, which precomputes its Bark map per block size.
func ReadFloor(r *bits.Reader, books []*huffman.Codebook, blockSizes [2]int) (Floor, error) {
	switch t := r.ReadInt(16); t {
	case 0:
		return readFloor0(r, books, blockSizes)
	case 1:
		return readFloor1(r, books)
	default:
		return nil, errors.Wrapf(ErrBadFloor, "spectrum: floor type %d", t)
	}
}

// book returns books[i] or an error naming the field.
func book(books []*huffman.Codebook, i int, what error, field string) (*huffman.Codebook, error) {
	if i < 0 || i >= len(books) {
		return nil, errors.Wrapf(what, "spectrum: %s book %d of %d", field, i, len(books))
	}
	return books[i], nil
}
