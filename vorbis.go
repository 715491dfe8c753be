package vorbis

import (
	"io"

	"github.com/llehouerou/go-vorbis/internal/ogg"
	"github.com/sirupsen/logrus"
)

// Config contains decoder configuration options.
type Config struct {
	// Logger receives decode events: resyncs, ignored and short packets at
	// debug level, corrupt packets and granule regressions at warn level.
	// Nil discards them.
	Logger logrus.FieldLogger

	// ClipSamples limits decoded samples to (-1, 1) and records whether any
	// sample had to be clipped.
	ClipSamples bool

	// ResyncLimit bounds the number of bytes skipped while looking for an
	// Ogg page. Zero selects 1 MiB.
	ResyncLimit int

	// AcceptStream, when set, is called for every new logical stream before
	// it is decoded. Returning false ignores the stream.
	AcceptStream func(serial uint32) bool
}

// DefaultConfig returns the default decoder configuration.
func DefaultConfig() Config {
	return Config{
		ClipSamples: true,
		ResyncLimit: ogg.DefaultResyncLimit,
	}
}

// logger returns the configured logger or one that discards everything.
func (c *Config) logger() logrus.FieldLogger {
	if c.Logger != nil {
		return c.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Bitrate holds the bitrate hints of the identification header, in bits
// per second. Zero means the hint is not set.
type Bitrate struct {
	Max     int
	Nominal int
	Min     int
}
