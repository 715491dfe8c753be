package vorbis

import (
	"errors"
	"io"

	"github.com/llehouerou/go-vorbis/internal/ogg"
	"github.com/sirupsen/logrus"
)

// Container gives access to the logical streams of an Ogg physical stream,
// whether multiplexed or chained.
//
// Decoders returned by NextStream share the container's input. They may be
// read in any order but not concurrently.
type Container struct {
	cfg    Config
	log    logrus.FieldLogger
	framer *ogg.Framer
	closed bool
}

// Open starts reading an Ogg physical stream. It fails with ErrNotOgg when
// no page is found within the resync window.
func Open(r io.Reader, cfg Config) (*Container, error) {
	c := &Container{cfg: cfg, log: cfg.logger()}
	c.framer = ogg.NewFramer(r, ogg.Options{
		ResyncLimit: cfg.ResyncLimit,
		Accept:      cfg.AcceptStream,
		Logger:      c.log,
	})
	if err := c.framer.Prime(); err != nil {
		if err == io.EOF || errors.Is(err, ogg.ErrNoSync) {
			return nil, wrap(ErrNotOgg, err)
		}
		return nil, containerError(err)
	}
	return c, nil
}

// NextStream returns a decoder for the next Vorbis logical stream, in the
// order streams begin in the input. Streams of other codecs and streams
// rejected by Config.AcceptStream are skipped. It returns io.EOF when no
// stream remains.
func (c *Container) NextStream() (*Decoder, error) {
	if c.closed {
		return nil, ErrClosed
	}
	for {
		s, err := c.framer.NextStream()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, containerError(err)
		}
		d, err := newDecoder(c, s)
		if errors.Is(err, ErrNotVorbis) {
			c.log.WithField("serial", s.Serial()).Debug("vorbis: skipped non-vorbis stream")
			s.Close()
			continue
		}
		if err != nil {
			s.Close()
			return nil, err
		}
		return d, nil
	}
}

// Seekable reports whether the input supports seeking.
func (c *Container) Seekable() bool { return c.framer.Seekable() }

// WasteBits returns the number of bits skipped so far while looking for
// pages.
func (c *Container) WasteBits() int64 { return c.framer.WasteBits() }

// Pages returns the number of valid pages read so far.
func (c *Container) Pages() int64 { return c.framer.Pages() }

// Close releases every page held by the container and its decoders.
func (c *Container) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.framer.Close()
}
