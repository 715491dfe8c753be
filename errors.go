package vorbis

import "errors"

// Error is a decoder error code.
type Error int

// Error codes.
const (
	ErrNone               Error = 0
	ErrNotOgg             Error = 1
	ErrNotVorbis          Error = 2
	ErrMalformedContainer Error = 3
	ErrMissingHeader      Error = 4
	ErrBadIdentification  Error = 5
	ErrBadComment         Error = 6
	ErrMalformedSetup     Error = 7
	ErrGranuleRegression  Error = 8
	ErrNotSeekable        Error = 9
	ErrSeekOutOfRange     Error = 10
	ErrFormatChange       Error = 11
	ErrClosed             Error = 12
	ErrShortBuffer        Error = 13
)

// errMessages holds the message of each error code.
var errMessages = [14]string{
	"No error",
	"No Ogg page found",
	"Not a Vorbis stream",
	"Malformed Ogg container",
	"Missing Vorbis header packet",
	"Invalid identification header",
	"Invalid comment header",
	"Invalid setup header",
	"Granule position went backwards",
	"Input is not seekable",
	"Seek position out of range",
	"Stream format changed",
	"Decoder closed",
	"Buffer smaller than one sample frame",
}

// Error implements the error interface.
func (e Error) Error() string {
	if e >= 0 && int(e) < len(errMessages) {
		return errMessages[e]
	}
	return "unknown error"
}

// codeError attaches an error code to the error that caused it, so that
// errors.Is matches both.
type codeError struct {
	code  Error
	cause error
}

func (e *codeError) Error() string {
	return e.code.Error() + ": " + e.cause.Error()
}

func (e *codeError) Unwrap() []error { return []error{e.code, e.cause} }

// wrap returns err tagged with code. A nil err yields nil and an error that
// already carries code is returned unchanged.
func wrap(code Error, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, code) {
		return err
	}
	return &codeError{code: code, cause: err}
}
