package vorbis

import (
	"errors"
	"io"
	"time"

	"github.com/llehouerou/go-vorbis/internal/bits"
	"github.com/llehouerou/go-vorbis/internal/filterbank"
	"github.com/llehouerou/go-vorbis/internal/ogg"
	"github.com/llehouerou/go-vorbis/internal/spectrum"
	"github.com/llehouerou/go-vorbis/internal/syntax"
	"github.com/sirupsen/logrus"
)

// Decoder decodes one Vorbis logical stream into float samples.
//
// The last packet is cut to the final granule position, but the start of
// the stream is never trimmed: frames decoded before the first page's
// granule are returned, where vorbisfile would discard them.
//
// A Decoder is not safe for concurrent use.
type Decoder struct {
	cfg Config
	log logrus.FieldLogger

	c      *Container
	owns   bool // Close also closes c
	stream *ogg.Stream

	ident   *syntax.Ident
	comment *syntax.Comment
	setup   *syntax.Setup

	fb  *filterbank.FilterBank
	blk *spectrum.Block
	br  bits.Reader

	// Windowed blocks, one buffer per channel. blocks[prev] holds the
	// block decoded last; prevSize is 0 when there is none.
	blocks   [2][][]float32
	prev     int
	prevSize int

	// Finished samples not yet returned, pcm[ch][pcmStart:pcmEnd].
	pcm              [][]float32
	view             [][]float32
	pcmStart, pcmEnd int

	next     int64 // granule position of the next decoded sample
	pos      int64 // granule position of the next returned sample
	rederive bool  // next is unknown until a page granule position arrives
	eos      bool
	clipped  bool
	packets  int64

	total      int64
	totalKnown bool

	stats  Stats
	err    error // sticky
	closed bool
}

// NewDecoder reads the headers of the first Vorbis stream of r and returns
// a decoder for it. Other logical streams in r are ignored. When r
// implements io.Seeker the decoder supports Seek and TotalSamples.
func NewDecoder(r io.Reader, cfg Config) (*Decoder, error) {
	c, err := Open(r, cfg)
	if err != nil {
		return nil, err
	}
	d, err := c.NextStream()
	if err == io.EOF {
		err = ErrNotVorbis
	}
	if err != nil {
		c.Close()
		return nil, err
	}
	d.owns = true
	return d, nil
}

// newDecoder reads the three header packets of s.
func newDecoder(c *Container, s *ogg.Stream) (*Decoder, error) {
	d := &Decoder{
		cfg:    c.cfg,
		log:    c.log.WithField("serial", s.Serial()),
		c:      c,
		stream: s,
	}
	if err := d.readHeaders(); err != nil {
		return nil, err
	}

	id := d.ident
	d.fb = filterbank.New(id.BlockSizes)
	d.blk = spectrum.NewBlock(id.Channels, id.BlockSizes[1])
	for i := range d.blocks {
		d.blocks[i] = make([][]float32, id.Channels)
		for ch := range d.blocks[i] {
			d.blocks[i][ch] = make([]float32, id.BlockSizes[1])
		}
	}
	d.pcm = make([][]float32, id.Channels)
	for ch := range d.pcm {
		d.pcm[ch] = make([]float32, id.BlockSizes[1]/2)
	}
	d.view = make([][]float32, id.Channels)

	d.log.WithFields(logrus.Fields{
		"channels": id.Channels,
		"rate":     id.SampleRate,
		"blocks":   id.BlockSizes,
	}).Debug("vorbis: stream headers read")
	return d, nil
}

func (d *Decoder) readHeaders() error {
	pkt, err := d.headerPacket()
	if err != nil {
		return err
	}
	d.ident, err = syntax.ParseIdent(&d.br)
	pkt.Finish()
	switch {
	case errors.Is(err, syntax.ErrNotHeader):
		return wrap(ErrNotVorbis, err)
	case err != nil:
		return wrap(ErrBadIdentification, err)
	}

	if pkt, err = d.headerPacket(); err != nil {
		return err
	}
	d.comment, err = syntax.ParseComment(&d.br)
	pkt.Finish()
	switch {
	case errors.Is(err, syntax.ErrNotHeader):
		return wrap(ErrMissingHeader, err)
	case err != nil:
		return wrap(ErrBadComment, err)
	}

	if pkt, err = d.headerPacket(); err != nil {
		return err
	}
	d.setup, err = syntax.ParseSetup(&d.br, d.ident)
	pkt.Finish()
	switch {
	case errors.Is(err, syntax.ErrNotHeader):
		return wrap(ErrMissingHeader, err)
	case err != nil:
		return wrap(ErrMalformedSetup, err)
	}
	return nil
}

// headerPacket reads the next packet and points the bit reader at it.
func (d *Decoder) headerPacket() (*ogg.Packet, error) {
	pkt, err := d.stream.NextPacket()
	if err == io.EOF {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, containerError(err)
	}
	d.account(pkt)
	d.br.Reset(pkt.Parts()...)
	return pkt, nil
}

// account adds the size of a packet to the statistics.
func (d *Decoder) account(pkt *ogg.Packet) {
	d.stats.PacketBits += int64(pkt.Len()) * 8
	d.stats.OverheadBits += int64(pkt.OverheadBits)
}

// containerError maps a framing error to an error code.
func containerError(err error) error {
	switch {
	case errors.Is(err, ogg.ErrGranuleRegression):
		return wrap(ErrGranuleRegression, err)
	case errors.Is(err, ogg.ErrNotSeekable):
		return wrap(ErrNotSeekable, err)
	case errors.Is(err, ogg.ErrStreamClosed):
		return wrap(ErrClosed, err)
	}
	return wrap(ErrMalformedContainer, err)
}

// Channels returns the number of channels.
func (d *Decoder) Channels() int { return d.ident.Channels }

// SampleRate returns the sample rate in Hz.
func (d *Decoder) SampleRate() int { return d.ident.SampleRate }

// BlockSizes returns the short and the long block size.
func (d *Decoder) BlockSizes() [2]int { return d.ident.BlockSizes }

// Bitrate returns the bitrate hints of the stream.
func (d *Decoder) Bitrate() Bitrate {
	return Bitrate{
		Max:     int(max(d.ident.BitrateMax, 0)),
		Nominal: int(max(d.ident.BitrateNominal, 0)),
		Min:     int(max(d.ident.BitrateMin, 0)),
	}
}

// Comments returns the comment header payload following the "vorbis"
// signature: vendor string, comment list and framing bit, uninterpreted.
func (d *Decoder) Comments() []byte { return d.comment.Raw }

// Serial returns the serial number of the logical stream.
func (d *Decoder) Serial() uint32 { return d.stream.Serial() }

// Position returns the index of the next sample frame Read returns.
func (d *Decoder) Position() int64 { return d.pos }

// Time returns Position as a duration.
func (d *Decoder) Time() time.Duration { return d.duration(d.pos) }

// TotalSamples returns the number of sample frames in the stream, as given
// by the granule position of its last page, or -1 when it is not known.
// On a seekable input the first call reads every remaining page header of
// the stream; on forward-only input the count is known once the stream has
// been read to its end.
func (d *Decoder) TotalSamples() int64 {
	if d.totalKnown {
		return d.total
	}
	switch {
	case d.closed:
		return -1
	case d.stream.Seekable():
		d.total, d.totalKnown = -1, true
		if g, err := d.stream.GranuleCount(); err == nil {
			d.total = g
		} else {
			d.log.WithError(err).Debug("vorbis: granule count unavailable")
		}
	case d.eos && d.pcmStart == d.pcmEnd:
		d.total, d.totalKnown = d.next, true
	default:
		return -1
	}
	return d.total
}

// Duration returns TotalSamples as a duration, or 0 when it is not known.
func (d *Decoder) Duration() time.Duration {
	n := d.TotalSamples()
	if n < 0 {
		return 0
	}
	return d.duration(n)
}

func (d *Decoder) duration(samples int64) time.Duration {
	rate := int64(d.ident.SampleRate)
	secs := samples / rate
	rem := samples % rate
	return time.Duration(secs)*time.Second + time.Duration(rem)*time.Second/time.Duration(rate)
}

// Clipped reports whether any returned sample had to be clipped. The flag
// stays set once raised.
func (d *Decoder) Clipped() bool { return d.clipped }

// Stats returns the decoding statistics.
func (d *Decoder) Stats() Stats {
	s := d.stats
	s.WasteBits = d.c.WasteBits()
	return s
}

// Close releases the pages held by the decoder. When the decoder was
// created by NewDecoder, the underlying container is closed too.
func (d *Decoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	err := d.stream.Close()
	if d.owns {
		if cerr := d.c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
