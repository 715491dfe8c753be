package bits

// Writer packs bit fields least-significant bit first, producing payloads
// a Reader reads back.
type Writer struct {
	buf []byte
	n   int // bits written
}

// WriteBits appends the low n bits of v.
func (w *Writer) WriteBits(v uint64, n int) {
	for i := 0; i < n; i++ {
		if w.n%8 == 0 {
			w.buf = append(w.buf, 0)
		}
		if v>>i&1 != 0 {
			w.buf[len(w.buf)-1] |= 1 << (w.n % 8)
		}
		w.n++
	}
}

// WriteBit appends a single bit.
func (w *Writer) WriteBit(b bool) {
	var v uint64
	if b {
		v = 1
	}
	w.WriteBits(v, 1)
}

// WriteUint32 appends a 32-bit little-endian value.
func (w *Writer) WriteUint32(v uint32) { w.WriteBits(uint64(v), 32) }

// WriteBytes appends whole bytes.
func (w *Writer) WriteBytes(p []byte) {
	for _, b := range p {
		w.WriteBits(uint64(b), 8)
	}
}

// Len returns the number of bits written.
func (w *Writer) Len() int { return w.n }

// Bytes returns the packed payload, zero-padded to a whole byte.
func (w *Writer) Bytes() []byte { return w.buf }
