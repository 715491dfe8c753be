// Package ogg demultiplexes Ogg physical streams into logical-stream packets.
//
// A Framer scans a byte stream for pages, verifies them and hands each page
// to the Stream registered for its serial number. A Stream reassembles the
// packets of one logical stream, keeps a per-page granule index and
// implements granule-accurate seeking on seekable inputs.
package ogg

import (
	"encoding/binary"
	"errors"
)

// Page flags.
const (
	FlagContinued byte = 0x01 // first packet continues from the previous page
	FlagFirst     byte = 0x02 // first page of a logical stream
	FlagLast      byte = 0x04 // last page of a logical stream
)

const (
	// HeaderSize is the size of the fixed part of a page header.
	HeaderSize = 27

	// MaxSegments is the largest number of lacing values in a page.
	MaxSegments = 255

	// MaxPageSize is the size of the largest legal page.
	MaxPageSize = HeaderSize + MaxSegments + MaxSegments*255

	crcOffset = 22
)

var capture = [4]byte{'O', 'g', 'g', 'S'}

// Header is the header of one Ogg page.
type Header struct {
	Flags    byte
	Granule  int64 // -1 when no packet completes on the page
	Serial   uint32
	Sequence uint32
	CRC      uint32
	Segments []byte // lacing values
}

// Continued reports whether the page starts with the tail of a packet.
func (h *Header) Continued() bool { return h.Flags&FlagContinued != 0 }

// First reports whether the page opens its logical stream.
func (h *Header) First() bool { return h.Flags&FlagFirst != 0 }

// Last reports whether the page closes its logical stream.
func (h *Header) Last() bool { return h.Flags&FlagLast != 0 }

// BodySize returns the body length described by the lacing values.
func (h *Header) BodySize() int {
	n := 0
	for _, l := range h.Segments {
		n += int(l)
	}
	return n
}

// parseHeader decodes a page header. b must hold the fixed header and the
// whole lacing table.
func parseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize || [4]byte(b[:4]) != capture || b[4] != 0 {
		return Header{}, ErrBadPage
	}
	nseg := int(b[26])
	if len(b) < HeaderSize+nseg {
		return Header{}, ErrBadPage
	}
	return Header{
		Flags:    b[5],
		Granule:  int64(binary.LittleEndian.Uint64(b[6:])),
		Serial:   binary.LittleEndian.Uint32(b[14:]),
		Sequence: binary.LittleEndian.Uint32(b[18:]),
		CRC:      binary.LittleEndian.Uint32(b[crcOffset:]),
		Segments: b[HeaderSize : HeaderSize+nseg],
	}, nil
}

// Page is a complete page, used to build streams.
type Page struct {
	Header
	Body []byte
}

// Encode serialises the page and fills in its checksum.
func (p *Page) Encode() ([]byte, error) {
	if len(p.Segments) > MaxSegments {
		return nil, errors.New("ogg: too many segments")
	}
	if p.BodySize() != len(p.Body) {
		return nil, errors.New("ogg: lacing does not match body size")
	}

	buf := make([]byte, HeaderSize+len(p.Segments)+len(p.Body))
	copy(buf, capture[:])
	buf[4] = 0
	buf[5] = p.Flags
	binary.LittleEndian.PutUint64(buf[6:], uint64(p.Granule))
	binary.LittleEndian.PutUint32(buf[14:], p.Serial)
	binary.LittleEndian.PutUint32(buf[18:], p.Sequence)
	buf[26] = byte(len(p.Segments))
	copy(buf[HeaderSize:], p.Segments)
	copy(buf[HeaderSize+len(p.Segments):], p.Body)

	p.CRC = pageChecksum(buf)
	binary.LittleEndian.PutUint32(buf[crcOffset:], p.CRC)
	return buf, nil
}

// Lacing returns the lacing values for a packet of size n. When the packet
// ends on this page a terminating value below 255 is included, so a packet
// whose size is a multiple of 255 gets a trailing zero.
func Lacing(n int, complete bool) []byte {
	lacing := make([]byte, 0, n/255+1)
	for n >= 255 {
		lacing = append(lacing, 255)
		n -= 255
	}
	if complete {
		lacing = append(lacing, byte(n))
	}
	return lacing
}

// span locates one packet, or one fragment of a packet, inside a page body.
type span struct {
	start    int
	size     int
	complete bool // false when the packet continues on the next page
}

// splitSegments turns a lacing table into packet spans. A value of 255
// continues the current packet; anything smaller ends it. A trailing run of
// 255 values leaves the last span incomplete.
func splitSegments(lacing []byte) []span {
	var spans []span
	start, size := 0, 0
	open := false
	for _, l := range lacing {
		size += int(l)
		open = true
		if l < 255 {
			spans = append(spans, span{start: start, size: size, complete: true})
			start += size
			size = 0
			open = false
		}
	}
	if open {
		spans = append(spans, span{start: start, size: size})
	}
	return spans
}
