package syntax

import (
	"github.com/llehouerou/go-vorbis/internal/bits"
	"github.com/pkg/errors"
)

// Block size limits.
const (
	MinBlockSize = 64
	MaxBlockSize = 8192
)

// Ident is the identification header.
type Ident struct {
	Channels   int
	SampleRate int

	// Bitrate hints in bits per second; 0 when unset.
	BitrateMax     int32
	BitrateNominal int32
	BitrateMin     int32

	// BlockSizes holds the short and the long block size.
	BlockSizes [2]int
}

// ParseIdent parses an identification header.
func ParseIdent(r *bits.Reader) (*Ident, error) {
	if !readSignature(r, TypeIdent) {
		return nil, ErrNotHeader
	}
	if v := r.ReadUint32(); v != 0 {
		return nil, errors.Wrapf(ErrBadIdent, "syntax: version %d", v)
	}
	id := &Ident{
		Channels:   r.ReadInt(8),
		SampleRate: int(r.ReadUint32()),
	}
	id.BitrateMax = r.ReadInt32()
	id.BitrateNominal = r.ReadInt32()
	id.BitrateMin = r.ReadInt32()
	id.BlockSizes[0] = 1 << r.ReadInt(4)
	id.BlockSizes[1] = 1 << r.ReadInt(4)
	framed := r.ReadBit()
	if r.IsShort() {
		return nil, errors.Wrap(ErrBadIdent, "syntax: identification header truncated")
	}

	switch {
	case id.Channels == 0:
		return nil, errors.Wrap(ErrBadIdent, "syntax: no channels")
	case id.SampleRate <= 0:
		return nil, errors.Wrap(ErrBadIdent, "syntax: no sample rate")
	case id.BlockSizes[0] < MinBlockSize || id.BlockSizes[1] > MaxBlockSize || id.BlockSizes[0] > id.BlockSizes[1]:
		return nil, errors.Wrapf(ErrBadIdent, "syntax: block sizes %d and %d", id.BlockSizes[0], id.BlockSizes[1])
	case !framed:
		return nil, errors.Wrap(ErrBadIdent, "syntax: framing bit not set")
	}
	return id, nil
}
