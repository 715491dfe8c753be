// Package syntax parses the three Vorbis header packets.
package syntax

import "errors"

// Header errors.
var (
	// ErrNotHeader indicates a packet without the header type byte and
	// "vorbis" signature expected at its position.
	ErrNotHeader = errors.New("syntax: not a vorbis header")

	// ErrBadIdent indicates an identification header with invalid fields.
	ErrBadIdent = errors.New("syntax: invalid identification header")

	// ErrBadComment indicates a truncated or unframed comment header.
	ErrBadComment = errors.New("syntax: invalid comment header")

	// ErrBadSetup indicates a setup header that cannot be decoded.
	ErrBadSetup = errors.New("syntax: invalid setup header")
)
