package syntax

import (
	"github.com/llehouerou/go-vorbis/internal/bits"
	"github.com/pkg/errors"
)

// Comment is the comment header. Its fields are not interpreted: Raw holds
// the payload after the signature (vendor string, comment list and framing
// bit) as stored in the stream.
type Comment struct {
	Raw []byte
}

// ParseComment checks the comment header signature and keeps its payload.
func ParseComment(r *bits.Reader) (*Comment, error) {
	if !readSignature(r, TypeComment) {
		return nil, ErrNotHeader
	}
	n := r.Remaining() / 8
	if n == 0 {
		return nil, errors.Wrap(ErrBadComment, "syntax: empty comment header")
	}
	return &Comment{Raw: r.ReadBytes(int(n))}, nil
}
