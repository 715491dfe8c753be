package vorbis

import (
	"io"
	"time"

	"github.com/llehouerou/go-vorbis/internal/bits"
	"github.com/llehouerou/go-vorbis/internal/ogg"
	"github.com/llehouerou/go-vorbis/internal/spectrum"
	"github.com/pkg/errors"
)

// Seek moves to a sample frame. whence is io.SeekStart, io.SeekCurrent or
// io.SeekEnd, as for io.Seeker, and offset counts frames. It returns the
// new position.
//
// Decoding resumes one packet before the target so that the first block
// returned is fully overlapped; samples between that packet and the
// target are decoded and dropped.
func (d *Decoder) Seek(offset int64, whence int) (int64, error) {
	if d.closed {
		return 0, ErrClosed
	}
	if !d.stream.Seekable() {
		return 0, ErrNotSeekable
	}

	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = d.pos + offset
	case io.SeekEnd:
		total := d.TotalSamples()
		if total < 0 {
			return 0, ErrNotSeekable
		}
		target = total + offset
	default:
		return 0, errors.Wrapf(ErrSeekOutOfRange, "vorbis: whence %d", whence)
	}
	if target < 0 {
		return 0, errors.Wrapf(ErrSeekOutOfRange, "vorbis: position %d", target)
	}
	if total := d.TotalSamples(); total >= 0 && target > total {
		return 0, errors.Wrapf(ErrSeekOutOfRange, "vorbis: position %d past %d", target, total)
	}

	granule, err := d.stream.SeekTo(target, 1, d.packetSize)
	if err != nil {
		d.err = containerError(err)
		return 0, d.err
	}

	d.prevSize = 0
	d.pcmStart, d.pcmEnd = 0, 0
	d.rederive = false
	d.eos = false
	d.err = nil
	d.next = granule
	d.pos = max(target, granule)

	d.log.WithField("target", target).
		WithField("granule", granule).
		Debug("vorbis: seek")
	return d.pos, nil
}

// SeekTime moves to the sample frame at t and returns the new time.
func (d *Decoder) SeekTime(t time.Duration) (time.Duration, error) {
	rate := int64(d.ident.SampleRate)
	target := int64(t/time.Second)*rate + int64(t%time.Second)*rate/int64(time.Second)
	if _, err := d.Seek(target, io.SeekStart); err != nil {
		return 0, err
	}
	return d.Time(), nil
}

// packetSize reports the block size of an audio packet from its mode
// number alone.
func (d *Decoder) packetSize(p *ogg.Packet) (int, bool) {
	var r bits.Reader
	r.Reset(p.Parts()...)
	return spectrum.PacketBlockSize(&r, d.setup.Modes, d.ident.BlockSizes)
}
