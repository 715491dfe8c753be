package ogg

import (
	"bufio"
	"bytes"
	"io"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultResyncLimit is the default number of bytes the framer skips while
// looking for a page before it gives up.
const DefaultResyncLimit = 1 << 20

// residentPages is how many pages past a stream's cursor keep their body in
// memory on seekable input. Pages further ahead are re-read on demand.
const residentPages = 8

// Options configures a Framer.
type Options struct {
	// ResyncLimit bounds the number of consecutive bytes skipped while
	// searching for the next page. Zero selects DefaultResyncLimit.
	ResyncLimit int

	// Accept is called once for every new serial number, without the
	// framer lock held. Returning false drops the logical stream.
	Accept func(serial uint32) bool

	// Logger receives resync and stream discovery events.
	Logger logrus.FieldLogger
}

// Framer finds pages in a physical Ogg stream and routes them to the
// logical streams they belong to.
//
// Inputs implementing io.Seeker are read in seekable mode: the framer
// records page offsets, drops bodies it does not need soon and reads them
// back with ReadPageAt. Other inputs are read forward-only and every page
// body is queued until its packets are consumed.
type Framer struct {
	mu sync.Mutex

	r       io.Reader
	src     *bufio.Reader
	seeker  io.Seeker // nil for forward-only input
	base    int64     // input offset when the framer was created
	srcPos  int64     // offset of the next byte in src, relative to base
	scanPos int64     // offset where the page scan resumes

	opts Options
	log  logrus.FieldLogger
	pool bufferPool

	streams  map[uint32]*Stream
	pending  map[uint32][]pendingPage // pages of serials awaiting Accept
	rejected map[uint32]bool
	fresh    []*Stream // streams not yet returned by NextStream

	eof   bool
	err   error // sticky scan failure
	waste int64 // bits skipped while searching for pages
	pages int64 // pages accepted
}

type pendingPage struct {
	rec *pageRecord
	buf *pageBuffer
}

// NewFramer creates a Framer reading from r.
func NewFramer(r io.Reader, opts Options) *Framer {
	if opts.ResyncLimit <= 0 {
		opts.ResyncLimit = DefaultResyncLimit
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	f := &Framer{
		r:        r,
		src:      bufio.NewReaderSize(r, 1<<16),
		opts:     opts,
		log:      log,
		streams:  make(map[uint32]*Stream),
		pending:  make(map[uint32][]pendingPage),
		rejected: make(map[uint32]bool),
	}
	if s, ok := r.(io.Seeker); ok {
		if pos, err := s.Seek(0, io.SeekCurrent); err == nil {
			f.seeker = s
			f.base = pos
		}
	}
	return f
}

// Seekable reports whether the framer reads a seekable input.
func (f *Framer) Seekable() bool { return f.seeker != nil }

// WasteBits returns the number of bits skipped while searching for pages.
func (f *Framer) WasteBits() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waste
}

// Pages returns the number of valid pages read so far.
func (f *Framer) Pages() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pages
}

// Prime reads the first page if nothing has been read yet. It reports
// ErrNoSync or io.EOF when the input holds no page at all.
func (f *Framer) Prime() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pages > 0 {
		return nil
	}
	return f.readNextLocked()
}

// NextStream returns the next logical stream in order of discovery,
// reading pages until one appears. It returns io.EOF once the input is
// exhausted.
func (f *Framer) NextStream() (*Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.fresh) == 0 {
		if err := f.readNextLocked(); err != nil {
			return nil, err
		}
	}
	s := f.fresh[0]
	f.fresh = f.fresh[1:]
	return s, nil
}

// Close releases every page held by the framer and its streams.
func (f *Framer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.streams {
		s.closeLocked()
	}
	for serial, q := range f.pending {
		for _, p := range q {
			p.buf.release()
		}
		delete(f.pending, serial)
	}
	f.fresh = nil
	return nil
}

// readNextLocked scans one page and dispatches it. It returns io.EOF at the
// end of the input.
func (f *Framer) readNextLocked() error {
	if f.err != nil {
		return f.err
	}
	if f.eof {
		return io.EOF
	}
	rec, buf, err := f.scanLocked()
	switch {
	case err == io.EOF:
		f.eof = true
		return io.EOF
	case err != nil:
		f.err = err
		return err
	}
	f.pages++
	f.dispatchLocked(rec, buf)
	return nil
}

func (f *Framer) seekSrc(pos int64) error {
	if f.srcPos == pos {
		return nil
	}
	if f.seeker == nil {
		return ErrNotSeekable
	}
	if _, err := f.seeker.Seek(f.base+pos, io.SeekStart); err != nil {
		return errors.Wrap(err, "ogg: seek")
	}
	f.src.Reset(f.r)
	f.srcPos = pos
	return nil
}

func (f *Framer) discard(n int) {
	d, _ := f.src.Discard(n)
	f.srcPos += int64(d)
}

// scanLocked looks for the next valid page starting at scanPos.
func (f *Framer) scanLocked() (*pageRecord, *pageBuffer, error) {
	if err := f.seekSrc(f.scanPos); err != nil {
		return nil, nil, err
	}

	skipped := 0
	skip := func(n int) error {
		f.discard(n)
		f.waste += int64(n) * 8
		skipped += n
		if skipped > f.opts.ResyncLimit {
			return ErrNoSync
		}
		return nil
	}
	defer func() {
		f.scanPos = f.srcPos
		if skipped > 0 {
			f.log.WithFields(logrus.Fields{
				"bytes":  skipped,
				"offset": f.srcPos,
			}).Debug("ogg: lost sync")
		}
	}()

	for {
		b, err := f.src.Peek(HeaderSize)
		if len(b) < HeaderSize {
			if err != nil && err != io.EOF {
				return nil, nil, errors.Wrap(err, "ogg: read")
			}
			// The tail of the input cannot hold another page.
			f.discard(len(b))
			f.waste += int64(len(b)) * 8
			return nil, nil, io.EOF
		}

		if [4]byte(b[:4]) != capture || b[4] != 0 {
			n := len(b)
			if i := bytes.IndexByte(b[1:], capture[0]); i >= 0 {
				n = i + 1
			}
			if err := skip(n); err != nil {
				return nil, nil, err
			}
			continue
		}

		nseg := int(b[26])
		b, err = f.src.Peek(HeaderSize + nseg)
		if len(b) < HeaderSize+nseg {
			if err != nil && err != io.EOF {
				return nil, nil, errors.Wrap(err, "ogg: read")
			}
			if err := skip(1); err != nil {
				return nil, nil, err
			}
			continue
		}
		hdr, _ := parseHeader(b)
		size := HeaderSize + nseg + hdr.BodySize()

		page, err := f.src.Peek(size)
		if len(page) < size {
			if err != nil && err != io.EOF {
				return nil, nil, errors.Wrap(err, "ogg: read")
			}
			if err := skip(1); err != nil {
				return nil, nil, err
			}
			continue
		}
		if pageChecksum(page) != hdr.CRC {
			f.log.WithFields(logrus.Fields{
				"serial":   hdr.Serial,
				"sequence": hdr.Sequence,
				"offset":   f.srcPos,
			}).Debug("ogg: page checksum mismatch")
			if err := skip(1); err != nil {
				return nil, nil, err
			}
			continue
		}

		hdr.Segments = append([]byte(nil), hdr.Segments...)
		rec := newPageRecord(hdr, f.srcPos)
		buf := f.pool.get(size - rec.headerSize)
		copy(buf.data, page[rec.headerSize:])
		f.discard(size)
		return rec, buf, nil
	}
}

// readPageAtLocked re-reads the body of a page recorded earlier.
func (f *Framer) readPageAtLocked(rec *pageRecord) (*pageBuffer, error) {
	if err := f.seekSrc(rec.offset); err != nil {
		return nil, err
	}
	page, err := f.src.Peek(rec.size)
	if len(page) < rec.size {
		if err == nil || err == io.EOF {
			err = ErrBadPage
		}
		return nil, errors.Wrapf(err, "ogg: page at offset %d", rec.offset)
	}
	hdr, err := parseHeader(page)
	if err != nil || hdr.Serial != rec.Serial || hdr.Sequence != rec.Sequence {
		return nil, errors.Wrapf(ErrBadPage, "ogg: page at offset %d", rec.offset)
	}
	if pageChecksum(page) != hdr.CRC {
		return nil, errors.Wrapf(ErrBadCRC, "ogg: page at offset %d", rec.offset)
	}
	buf := f.pool.get(rec.size - rec.headerSize)
	copy(buf.data, page[rec.headerSize:])
	f.discard(rec.size)
	return buf, nil
}

// ReadPageAt reads the page starting at offset, relative to where the input
// was when the framer was created. It is only available on seekable input.
func (f *Framer) ReadPageAt(offset int64) (Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.seekSrc(offset); err != nil {
		return Page{}, err
	}
	b, _ := f.src.Peek(HeaderSize)
	if len(b) < HeaderSize {
		return Page{}, errors.Wrapf(ErrBadPage, "ogg: page at offset %d", offset)
	}
	b, _ = f.src.Peek(HeaderSize + int(b[26]))
	hdr, err := parseHeader(b)
	if err != nil {
		return Page{}, errors.Wrapf(err, "ogg: page at offset %d", offset)
	}
	hdr.Segments = append([]byte(nil), hdr.Segments...)
	rec := newPageRecord(hdr, offset)
	buf, err := f.readPageAtLocked(rec)
	if err != nil {
		return Page{}, err
	}
	defer buf.release()
	return Page{Header: hdr, Body: append([]byte(nil), buf.data...)}, nil
}

// dispatchLocked hands a page to its logical stream, discovering new
// streams on the way. The Accept callback runs with the lock released;
// pages of the same serial arriving meanwhile are queued behind it.
func (f *Framer) dispatchLocked(rec *pageRecord, buf *pageBuffer) {
	serial := rec.Serial
	if s := f.streams[serial]; s != nil {
		s.addPage(rec, buf)
		return
	}
	if f.rejected[serial] {
		buf.release()
		return
	}
	if q, ok := f.pending[serial]; ok {
		f.pending[serial] = append(q, pendingPage{rec, buf})
		return
	}

	f.pending[serial] = []pendingPage{{rec, buf}}
	accepted := true
	if f.opts.Accept != nil {
		f.mu.Unlock()
		accepted = f.opts.Accept(serial)
		f.mu.Lock()
	}
	queue := f.pending[serial]
	delete(f.pending, serial)

	log := f.log.WithField("serial", serial)
	if !accepted {
		log.Debug("ogg: logical stream rejected")
		f.rejected[serial] = true
		for _, p := range queue {
			p.buf.release()
		}
		return
	}

	log.Debug("ogg: new logical stream")
	s := newStream(f, serial)
	f.streams[serial] = s
	f.fresh = append(f.fresh, s)
	for _, p := range queue {
		s.addPage(p.rec, p.buf)
	}
}
