package vorbis

import "io"

// Reader plays the Vorbis streams of an Ogg input one after the other, as
// for chained files and internet radio.
//
// When a stream ends the next one is opened. If its channel count or sample
// rate differs from the previous stream, Read returns ErrFormatChange once;
// the caller reads the new format from Channels and SampleRate and keeps
// reading.
//
// Unlike vorbisfile, a Reader does not trim the start of a stream whose
// first page granule is below the number of frames decoded up to it. Every
// decoded frame is played; only the end of each stream is cut to its last
// granule position.
type Reader struct {
	c   *Container
	dec *Decoder

	channels int
	rate     int
	base     int64 // position of the current stream's first frame
	err      error
}

// NewReader opens the first Vorbis stream of r.
func NewReader(r io.Reader, cfg Config) (*Reader, error) {
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
	return &Reader{
		c:        c,
		dec:      d,
		channels: d.Channels(),
		rate:     d.SampleRate(),
	}, nil
}

// Read decodes interleaved samples into p, moving to the next stream when
// the current one ends. It returns 0, io.EOF after the last stream.
func (r *Reader) Read(p []float32) (int, error) {
	for {
		if r.err != nil {
			return 0, r.err
		}
		n, err := r.dec.Read(p)
		if err != io.EOF {
			return n, err
		}
		if err := r.advance(); err != nil {
			return 0, err
		}
	}
}

// advance replaces the finished decoder with the next stream's.
func (r *Reader) advance() error {
	next, err := r.c.NextStream()
	if err != nil {
		// The finished decoder stays current so that Position and the
		// format accessors keep answering.
		r.err = err
		return err
	}
	r.base += r.dec.Position()
	r.dec.Close()
	r.dec = next

	if next.Channels() != r.channels || next.SampleRate() != r.rate {
		r.c.log.WithField("serial", next.Serial()).
			WithField("channels", next.Channels()).
			WithField("rate", next.SampleRate()).
			Debug("vorbis: stream format changed")
		r.channels, r.rate = next.Channels(), next.SampleRate()
		return ErrFormatChange
	}
	return nil
}

// Decoder returns the decoder of the current stream.
func (r *Reader) Decoder() *Decoder { return r.dec }

// Channels returns the channel count of the current stream.
func (r *Reader) Channels() int { return r.channels }

// SampleRate returns the sample rate of the current stream.
func (r *Reader) SampleRate() int { return r.rate }

// Position returns the number of frames returned since the start or the
// last ResetPosition, across streams.
func (r *Reader) Position() int64 { return r.base + r.dec.Position() }

// ResetPosition makes Position count from the current frame.
func (r *Reader) ResetPosition() { r.base = -r.dec.Position() }

// Clipped reports whether any sample of the current stream was clipped.
func (r *Reader) Clipped() bool { return r.dec.Clipped() }

// Close releases the current decoder and the container.
func (r *Reader) Close() error {
	err := r.dec.Close()
	if cerr := r.c.Close(); err == nil {
		err = cerr
	}
	return err
}
