// Package bits reads Vorbis packet payloads one bit field at a time.
//
// Vorbis packs fields least-significant bit first. A packet payload may be
// split across several Ogg pages, so the Reader consumes a list of byte
// slices and hides the boundaries between them.
package bits

// Reader reads bits from a packet payload.
//
// Bits are buffered in a 64-bit shift register whose bit 0 is the next bit
// of the stream. The register is refilled a byte at a time from the current
// part, moving to the next part transparently.
type Reader struct {
	parts [][]byte
	part  int // index of the part holding the next unbuffered byte
	pos   int // offset of that byte within parts[part]

	bucket uint64 // buffered bits, next bit in bit 0
	count  int    // number of valid bits in bucket

	read  int64 // bits consumed so far
	total int64 // payload length in bits
	short bool  // a read ran past the end of the payload
}

// NewReader creates a Reader over the concatenation of parts.
func NewReader(parts ...[]byte) *Reader {
	r := &Reader{}
	r.Reset(parts...)
	return r
}

// Reset points the reader at a new payload and clears all state.
func (r *Reader) Reset(parts ...[]byte) {
	var total int64
	for _, p := range parts {
		total += int64(len(p))
	}
	*r = Reader{parts: parts, total: total * 8}
}

// Rewind moves back to the first bit of the current payload.
func (r *Reader) Rewind() {
	r.Reset(r.parts...)
}

func mask(n int) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(n) - 1
}

// nextByte returns the next unbuffered byte, stepping over exhausted parts.
func (r *Reader) nextByte() (byte, bool) {
	for r.part < len(r.parts) {
		p := r.parts[r.part]
		if r.pos < len(p) {
			b := p[r.pos]
			r.pos++
			return b, true
		}
		r.part++
		r.pos = 0
	}
	return 0, false
}

// peekByte returns the next unbuffered byte without consuming it.
func (r *Reader) peekByte() (byte, bool) {
	part, pos := r.part, r.pos
	for part < len(r.parts) {
		if p := r.parts[part]; pos < len(p) {
			return p[pos], true
		}
		part++
		pos = 0
	}
	return 0, false
}

func (r *Reader) fill() {
	for r.count <= 56 {
		b, ok := r.nextByte()
		if !ok {
			return
		}
		r.bucket |= uint64(b) << uint(r.count)
		r.count += 8
	}
}

func (r *Reader) consume(n int) {
	if n >= 64 {
		r.bucket = 0
	} else {
		r.bucket >>= uint(n)
	}
	r.count -= n
	r.read += int64(n)
}

// TryPeekBits returns the next n bits (0 <= n <= 64) without consuming them.
// got is smaller than n only when the payload ends first; the missing high
// bits of the value are zero.
func (r *Reader) TryPeekBits(n int) (v uint64, got int) {
	if n < 0 || n > 64 {
		panic("bits: peek width out of range")
	}
	if n == 0 {
		return 0, 0
	}
	r.fill()
	if n <= r.count {
		return r.bucket & mask(n), n
	}

	// The register holds at least 57 bits unless the payload is exhausted,
	// so at most one more byte can contribute.
	v, got = r.bucket, r.count
	if b, ok := r.peekByte(); ok {
		v |= uint64(b) << uint(r.count)
		got += 8
	}
	if got > n {
		got = n
	}
	return v & mask(got), got
}

// SkipBits advances n bits. Skipping past the end marks the reader short.
func (r *Reader) SkipBits(n int) {
	for n > 0 {
		r.fill()
		if r.count == 0 {
			r.short = true
			return
		}
		k := n
		if k > r.count {
			k = r.count
		}
		r.consume(k)
		n -= k
	}
}

// ReadBits reads n bits (0 <= n <= 64). Bits past the end of the payload
// read as zero and mark the reader short.
func (r *Reader) ReadBits(n int) uint64 {
	v, _ := r.TryPeekBits(n)
	r.SkipBits(n)
	return v
}

// ReadBit reads a single bit.
func (r *Reader) ReadBit() bool {
	return r.ReadBits(1) == 1
}

// ReadUint8 reads 8 bits. It never fails; see IsShort.
func (r *Reader) ReadUint8() byte {
	return byte(r.ReadBits(8))
}

// ReadBytes reads n 8-bit values.
func (r *Reader) ReadBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = r.ReadUint8()
	}
	return b
}

// ReadUint32 reads a 32-bit unsigned field.
func (r *Reader) ReadUint32() uint32 {
	return uint32(r.ReadBits(32))
}

// ReadInt32 reads a 32-bit two's complement field.
func (r *Reader) ReadInt32() int32 {
	return int32(r.ReadBits(32))
}

// ReadInt reads an n-bit unsigned field as an int.
func (r *Reader) ReadInt(n int) int {
	return int(r.ReadBits(n))
}

// Position returns the number of bits consumed.
func (r *Reader) Position() int64 { return r.read }

// Length returns the payload length in bits.
func (r *Reader) Length() int64 { return r.total }

// Remaining returns the number of unread bits.
func (r *Reader) Remaining() int64 { return r.total - r.read }

// IsShort reports whether a read ran past the end of the payload.
func (r *Reader) IsShort() bool { return r.short }
