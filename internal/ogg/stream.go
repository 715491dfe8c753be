package ogg

import (
	"errors"
	"io"
)

// errLostTail reports a packet whose continuation was lost to a gap.
var errLostTail = errors.New("ogg: packet continuation lost")

// pageRecord is everything a stream remembers about one of its pages. The
// body may be dropped and read back later on seekable input.
type pageRecord struct {
	Header

	offset     int64 // page offset relative to the start of the input
	size       int   // header, lacing and body
	headerSize int
	spans      []span
	buf        *pageBuffer

	resync    bool // a sequence gap precedes this page
	regressed bool // granule lower than an earlier page
	counted   bool // header bits already attributed to a packet
}

func newPageRecord(hdr Header, offset int64) *pageRecord {
	headerSize := HeaderSize + len(hdr.Segments)
	return &pageRecord{
		Header:     hdr,
		offset:     offset,
		size:       headerSize + hdr.BodySize(),
		headerSize: headerSize,
		spans:      splitSegments(hdr.Segments),
	}
}

// lastComplete returns the index of the last packet completed on the page,
// or -1.
func (r *pageRecord) lastComplete() int {
	for i := len(r.spans) - 1; i >= 0; i-- {
		if r.spans[i].complete {
			return i
		}
	}
	return -1
}

// Stream is one logical stream inside an Ogg physical stream.
type Stream struct {
	f      *Framer
	serial uint32

	pages []*pageRecord
	page  int // cursor: the next packet starts at pages[page].spans[span]
	span  int

	lastSeq     uint32
	seqKnown    bool
	lastGranule int64
	eos         bool
	closed      bool
}

func newStream(f *Framer, serial uint32) *Stream {
	return &Stream{f: f, serial: serial, lastGranule: -1}
}

// Serial returns the serial number of the stream.
func (s *Stream) Serial() uint32 { return s.serial }

// Seekable reports whether the stream supports SeekTo and GranuleCount.
func (s *Stream) Seekable() bool { return s.f.Seekable() }

func (s *Stream) addPage(rec *pageRecord, buf *pageBuffer) {
	if s.closed || s.eos {
		buf.release()
		return
	}
	if s.seqKnown && rec.Sequence != s.lastSeq+1 {
		rec.resync = true
		s.f.log.WithField("serial", s.serial).
			WithField("sequence", rec.Sequence).
			Debug("ogg: page sequence gap")
	}
	s.lastSeq, s.seqKnown = rec.Sequence, true

	if rec.Granule != -1 {
		if rec.Granule < s.lastGranule && !rec.resync {
			rec.regressed = true
		}
		s.lastGranule = rec.Granule
	}
	if rec.Last() {
		s.eos = true
	}

	if s.f.seeker != nil && len(s.pages) > s.page+residentPages {
		buf.release()
		buf = nil
	}
	rec.buf = buf
	s.pages = append(s.pages, rec)
}

// pageLocked returns page i with its body loaded, reading further into the
// input when the page has not been seen yet. It returns io.EOF past the
// last page of the stream.
func (s *Stream) pageLocked(i int) (*pageRecord, error) {
	for i >= len(s.pages) {
		if s.closed {
			return nil, ErrStreamClosed
		}
		if s.eos {
			return nil, io.EOF
		}
		if err := s.f.readNextLocked(); err != nil {
			return nil, err
		}
	}
	rec := s.pages[i]
	if rec.buf == nil {
		buf, err := s.f.readPageAtLocked(rec)
		if err != nil {
			return nil, err
		}
		rec.buf = buf
	}
	return rec, nil
}

// assembleLocked collects the packet starting at pages[page].spans[idx]
// and returns where it ends.
func (s *Stream) assembleLocked(page, idx int) (*Packet, int, int, error) {
	rec, err := s.pageLocked(page)
	if err != nil {
		return nil, 0, 0, err
	}
	sp := rec.spans[idx]
	pkt := &Packet{Granule: -1}
	pkt.add(rec.buf, sp)

	end, endIdx := page, idx
	for !sp.complete {
		next, err := s.pageLocked(end + 1)
		if err == io.EOF {
			pkt.Truncated = true
			break
		}
		if err != nil {
			pkt.Finish()
			return nil, 0, 0, err
		}
		if next.resync || !next.Continued() || len(next.spans) == 0 {
			pkt.Finish()
			return nil, end + 1, 0, errLostTail
		}
		end, endIdx = end+1, 0
		sp = next.spans[0]
		pkt.add(next.buf, sp)
	}

	last := s.pages[end]
	switch {
	case pkt.Truncated:
		pkt.EOS = true
	case endIdx == last.lastComplete():
		pkt.Granule = last.Granule
		pkt.EOS = last.Last()
	}
	return pkt, end, endIdx, nil
}

// NextPacket returns the next packet of the stream, or io.EOF after the
// last one.
func (s *Stream) NextPacket() (*Packet, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if s.closed {
		return nil, ErrStreamClosed
	}

	resync := false
	for {
		rec, err := s.pageLocked(s.page)
		if err != nil {
			return nil, err
		}
		if rec.regressed {
			return nil, ErrGranuleRegression
		}
		if s.span == 0 {
			if rec.resync {
				resync = true
			}
			// A continued page at the cursor carries the tail of a packet
			// whose head was never seen.
			if rec.Continued() && len(rec.spans) > 0 {
				resync = true
				s.span = 1
			}
		}
		if s.span >= len(rec.spans) {
			s.advanceLocked(s.page+1, 0)
			continue
		}

		start := s.page
		pkt, end, endIdx, err := s.assembleLocked(s.page, s.span)
		if errors.Is(err, errLostTail) {
			s.f.log.WithField("serial", s.serial).Debug("ogg: dropped packet with lost continuation")
			resync = true
			s.advanceLocked(end, 0)
			continue
		}
		if err != nil {
			return nil, err
		}
		for i := start; i <= end; i++ {
			if rec := s.pages[i]; !rec.counted {
				rec.counted = true
				pkt.OverheadBits += rec.headerSize * 8
			}
		}
		pkt.Resync = resync
		s.advanceLocked(end, endIdx+1)
		return pkt, nil
	}
}

// advanceLocked moves the cursor forward and lets go of the pages behind it.
func (s *Stream) advanceLocked(page, idx int) {
	for i := s.page; i < page && i < len(s.pages); i++ {
		if b := s.pages[i].buf; b != nil {
			b.release()
			s.pages[i].buf = nil
		}
	}
	s.page, s.span = page, idx
	if s.f.seeker == nil && s.page > 0 {
		n := copy(s.pages, s.pages[min(s.page, len(s.pages)):])
		clear(s.pages[n:])
		s.pages = s.pages[:n]
		s.page = 0
	}
}

// moveLocked places the cursor anywhere and keeps only the pages around it
// resident.
func (s *Stream) moveLocked(page, idx int) {
	s.page, s.span = page, idx
	for i, rec := range s.pages {
		if rec.buf != nil && (i < page || i > page+residentPages) {
			rec.buf.release()
			rec.buf = nil
		}
	}
}

// GranuleCount reads the rest of the stream's pages and returns the last
// granule position found. It needs a seekable input.
func (s *Stream) GranuleCount() (int64, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if s.f.seeker == nil {
		return -1, ErrNotSeekable
	}
	if s.closed {
		return -1, ErrStreamClosed
	}
	for !s.eos && !s.f.eof {
		if err := s.f.readNextLocked(); err != nil && err != io.EOF {
			return -1, err
		}
	}
	for i := len(s.pages) - 1; i >= 0; i-- {
		if g := s.pages[i].Granule; g != -1 {
			return g, nil
		}
	}
	return 0, nil
}

// Ended reports whether the last page of the stream has been read.
func (s *Stream) Ended() bool {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	return s.eos
}

// Close releases the pages held by the stream. Later pages with the same
// serial number are dropped.
func (s *Stream) Close() error {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	s.closeLocked()
	return nil
}

func (s *Stream) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	for _, rec := range s.pages {
		if rec.buf != nil {
			rec.buf.release()
			rec.buf = nil
		}
	}
	s.pages = nil
	delete(s.f.streams, s.serial)
	s.f.rejected[s.serial] = true
}
