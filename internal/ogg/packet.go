package ogg

// Packet is one logical-stream packet. Its payload is a list of slices
// into page buffers; call Finish once the payload is no longer needed.
type Packet struct {
	parts [][]byte
	bufs  []*pageBuffer

	// Granule is the granule position of the page this packet completes,
	// or -1 when another packet completes that page.
	Granule int64

	// Resync is set on the first packet after data was lost.
	Resync bool

	// EOS is set on the last packet of the logical stream.
	EOS bool

	// Truncated is set when the input ended before the packet did.
	Truncated bool

	// OverheadBits counts the page header bits first read for this packet.
	OverheadBits int
}

func (p *Packet) add(b *pageBuffer, s span) {
	b.retain()
	p.bufs = append(p.bufs, b)
	p.parts = append(p.parts, b.data[s.start:s.start+s.size])
}

// Parts returns the payload slices in order.
func (p *Packet) Parts() [][]byte { return p.parts }

// Len returns the payload length in bytes.
func (p *Packet) Len() int {
	n := 0
	for _, part := range p.parts {
		n += len(part)
	}
	return n
}

// Bytes returns a copy of the payload as one slice.
func (p *Packet) Bytes() []byte {
	b := make([]byte, 0, p.Len())
	for _, part := range p.parts {
		b = append(b, part...)
	}
	return b
}

// Finish releases the page buffers behind the packet. The payload must not
// be used afterwards.
func (p *Packet) Finish() {
	for _, b := range p.bufs {
		b.release()
	}
	p.bufs = nil
	p.parts = nil
}
