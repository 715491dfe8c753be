package spectrum

import (
	"github.com/llehouerou/go-vorbis/internal/bits"
	"github.com/llehouerou/go-vorbis/internal/tables"
	"github.com/pkg/errors"
)

// Mode selects a block size and a mapping.
type Mode struct {
	Long    bool // block flag: the long block size
	Mapping *Mapping
}

// ReadMode parses one mode configuration.
func ReadMode(r *bits.Reader, mappings []*Mapping) (*Mode, error) {
	long := r.ReadBit()
	window, transform := r.ReadInt(16), r.ReadInt(16)
	mi := r.ReadInt(8)
	if window != 0 || transform != 0 {
		return nil, errors.Wrapf(ErrBadModeConfig, "spectrum: window type %d, transform type %d", window, transform)
	}
	if mi >= len(mappings) {
		return nil, errors.Wrapf(ErrBadModeConfig, "spectrum: mode uses mapping %d of %d", mi, len(mappings))
	}
	if r.IsShort() {
		return nil, errors.Wrap(ErrBadModeConfig, "spectrum: mode header truncated")
	}
	return &Mode{Long: long, Mapping: mappings[mi]}, nil
}

// PacketHeader is the header of an audio packet.
type PacketHeader struct {
	Mode     *Mode
	Size     int  // block size
	PrevLong bool // the previous block is long (long blocks only)
	NextLong bool // the next block is long (long blocks only)
}

// ReadPacketHeader reads the packet type bit, the mode number and, for long
// blocks, the neighbouring window flags.
func ReadPacketHeader(r *bits.Reader, modes []*Mode, blockSizes [2]int) (PacketHeader, error) {
	if r.ReadBit() {
		return PacketHeader{}, ErrNotAudio
	}
	i := r.ReadInt(tables.ILog(len(modes) - 1))
	if r.IsShort() || i >= len(modes) {
		return PacketHeader{}, ErrBadMode
	}
	h := PacketHeader{Mode: modes[i], Size: blockSizes[0]}
	if h.Mode.Long {
		h.Size = blockSizes[1]
		h.PrevLong = r.ReadBit()
		h.NextLong = r.ReadBit()
		if r.IsShort() {
			return PacketHeader{}, ErrBadMode
		}
	}
	return h, nil
}

// PacketBlockSize returns the block size of an audio packet without
// decoding it. ok is false for packets that carry no audio.
func PacketBlockSize(r *bits.Reader, modes []*Mode, blockSizes [2]int) (size int, ok bool) {
	if r.ReadBit() {
		return 0, false
	}
	i := r.ReadInt(tables.ILog(len(modes) - 1))
	if r.IsShort() || i >= len(modes) {
		return 0, false
	}
	if modes[i].Long {
		return blockSizes[1], true
	}
	return blockSizes[0], true
}
