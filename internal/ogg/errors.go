package ogg

import "errors"

// Framing errors.
var (
	// ErrNoSync indicates that no valid page was found within the resync window.
	ErrNoSync = errors.New("ogg: no page found within resync window")

	// ErrBadPage indicates a page that could not be re-read at a recorded offset.
	ErrBadPage = errors.New("ogg: invalid page")

	// ErrBadCRC indicates a page whose checksum does not match its contents.
	ErrBadCRC = errors.New("ogg: page checksum mismatch")
)

// Stream errors.
var (
	// ErrGranuleRegression indicates a page granule position lower than an
	// earlier one without an intervening loss of sync.
	ErrGranuleRegression = errors.New("ogg: granule position went backwards")

	// ErrNotSeekable indicates a seek on a forward-only input.
	ErrNotSeekable = errors.New("ogg: input is not seekable")

	// ErrStreamClosed indicates use of a closed logical stream.
	ErrStreamClosed = errors.New("ogg: stream closed")
)
