package huffman

import "errors"

// Codebook header errors.
var (
	// ErrBadSync indicates a codebook that does not start with the sync pattern.
	ErrBadSync = errors.New("huffman: bad codebook sync pattern")

	// ErrBadDimensions indicates an impossible dimension or entry count.
	ErrBadDimensions = errors.New("huffman: bad codebook dimensions")

	// ErrOverspecified indicates code lengths that do not fit a prefix code.
	ErrOverspecified = errors.New("huffman: code lengths overspecified")

	// ErrUnderspecified indicates code lengths that leave part of the code
	// space unassigned.
	ErrUnderspecified = errors.New("huffman: code lengths underspecified")

	// ErrBadLengths indicates an ordered length list that runs past the
	// entry count or the maximum code length.
	ErrBadLengths = errors.New("huffman: bad code length list")

	// ErrBadMapType indicates an unknown VQ lookup type.
	ErrBadMapType = errors.New("huffman: bad lookup type")

	// ErrShortHeader indicates a codebook header cut short.
	ErrShortHeader = errors.New("huffman: codebook header truncated")
)
