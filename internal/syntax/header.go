package syntax

import (
	"github.com/llehouerou/go-vorbis/internal/bits"
)

// Header packet types.
const (
	TypeIdent   = 1
	TypeComment = 3
	TypeSetup   = 5
)

var signature = [6]byte{'v', 'o', 'r', 'b', 'i', 's'}

// readSignature consumes the packet type and the signature and reports
// whether they match typ.
func readSignature(r *bits.Reader, typ int) bool {
	if r.ReadInt(8) != typ {
		return false
	}
	for _, c := range signature {
		if r.ReadUint8() != c {
			return false
		}
	}
	return !r.IsShort()
}

// IsHeader reports whether a packet starting with b is a header packet of
// any type. Audio packets start with a zero bit.
func IsHeader(b []byte) bool {
	return len(b) > 0 && b[0]&1 == 1
}
