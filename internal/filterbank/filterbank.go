// Package filterbank turns decoded spectra into overlapped sample blocks:
// inverse MDCT, windowing and overlap-add.
package filterbank

import (
	"github.com/llehouerou/go-vorbis/internal/fft"
	"github.com/llehouerou/go-vorbis/internal/mdct"
)

// FilterBank synthesises the blocks of one stream. It owns a work buffer
// and must not be shared between decoders.
type FilterBank struct {
	*Windows
	mdct [2]*mdct.MDCT
	work []fft.Complex
}

// New creates a filter bank for the given short and long block sizes.
func New(blockSizes [2]int) *FilterBank {
	return &FilterBank{
		Windows: NewWindows(blockSizes[0], blockSizes[1]),
		mdct:    [2]*mdct.MDCT{mdct.Get(blockSizes[0]), mdct.Get(blockSizes[1])},
		work:    make([]fft.Complex, blockSizes[1]/4),
	}
}

// Synthesize transforms the spectrum of a block into out, which receives
// the whole windowed block.
func (fb *FilterBank) Synthesize(spectrum, out []float32, long bool, s Shape) {
	m := fb.mdct[0]
	if long {
		m = fb.mdct[1]
	}
	m.Inverse(spectrum, out, fb.work)
	fb.Apply(out[:m.N], s)
}
