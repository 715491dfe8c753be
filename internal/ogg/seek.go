package ogg

import (
	"errors"
	"io"
	"sort"
)

// BlockSizer reports the block size of an audio packet. ok is false for
// packets that produce no audio, such as headers.
type BlockSizer func(p *Packet) (size int, ok bool)

// packetRef locates a packet by its first and last span.
type packetRef struct {
	page, span       int
	endPage, endSpan int
}

// walkItem is one packet visited while walking backwards.
type walkItem struct {
	ref   packetRef
	size  int
	audio bool
}

// SeekTo positions the stream so that decoding resumes near granule target.
//
// The page holding the target is found by bisection over the page granule
// positions read so far, reading ahead when needed. Packet sample counts
// are then reconstructed backwards from that page's granule position using
// sizer, and the cursor is placed preRoll packets before the packet holding
// the target. The returned value is the granule position of the first
// sample produced once the preroll packets have been decoded.
//
// A target past the end positions the stream after its last packet and
// returns the final granule position.
func (s *Stream) SeekTo(target int64, preRoll int, sizer BlockSizer) (int64, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if s.closed {
		return 0, ErrStreamClosed
	}
	if s.f.seeker == nil {
		return 0, ErrNotSeekable
	}
	target = max(target, 0)

	for s.lastGranule <= target && !s.eos && !s.f.eof {
		if err := s.f.readNextLocked(); err != nil && err != io.EOF {
			return 0, err
		}
	}

	idx := s.findPageLocked(target)
	if idx < 0 {
		s.moveLocked(len(s.pages), 0)
		return max(s.lastGranule, 0), nil
	}

	granule, ref, err := s.locateLocked(idx, target, preRoll, sizer)
	if err != nil {
		return 0, err
	}
	s.moveLocked(ref.page, ref.span)
	return granule, nil
}

// findPageLocked returns the first page whose granule position is past
// target, or -1.
func (s *Stream) findPageLocked(target int64) int {
	idx := make([]int, 0, len(s.pages))
	for i, rec := range s.pages {
		if rec.Granule != -1 {
			idx = append(idx, i)
		}
	}
	k := sort.Search(len(idx), func(k int) bool {
		return s.pages[idx[k]].Granule > target
	})
	if k == len(idx) {
		return -1
	}
	return idx[k]
}

// locateLocked walks packets backwards from the last one completed on page
// idx, whose end granule is known, until it finds the packet holding
// target.
func (s *Stream) locateLocked(idx int, target int64, preRoll int, sizer BlockSizer) (int64, packetRef, error) {
	w := &backwalk{s: s, page: idx, refs: s.packetsEndingLocked(idx), sizer: sizer}
	if _, ok, err := w.get(0); err != nil || !ok {
		return s.pages[idx].Granule, packetRef{page: idx + 1}, err
	}
	end, err := s.fullEndLocked(w, idx)
	if err != nil {
		return 0, packetRef{}, err
	}

	for i := 0; ; i++ {
		cur := w.items[i]
		prev, ok, err := w.get(i + 1)
		if err != nil {
			return 0, packetRef{}, err
		}
		if !ok || !prev.audio || !cur.audio {
			// cur opens the audio and decodes to nothing.
			return end, cur.ref, nil
		}

		start := end - int64(prev.size/4+cur.size/4)
		if start > target {
			end = start
			continue
		}
		if preRoll <= 0 {
			return end, cur.ref, nil
		}
		ref, refEnd := prev.ref, start
		for n := 1; n < preRoll; n++ {
			pp, ok, err := w.get(i + 1 + n)
			if err != nil {
				return 0, packetRef{}, err
			}
			if !ok || !pp.audio {
				break
			}
			refEnd -= int64(pp.size/4 + w.items[i+n].size/4)
			ref = pp.ref
		}
		return refEnd, ref, nil
	}
}

// fullEndLocked returns the granule position at which the last packet
// completed on page idx ends once decoded in full. The granule position of
// the last page of a stream may cut that packet short; its full end is then
// counted from the previous granule position, or from the start of the
// audio when no earlier page carries one.
func (s *Stream) fullEndLocked(w *backwalk, idx int) (int64, error) {
	g := s.pages[idx].Granule
	if !s.pages[idx].Last() {
		return g, nil
	}
	var rel int64 // end of w.items[i] relative to the end of the page
	for i := 0; ; i++ {
		cur := w.items[i]
		prev, ok, err := w.get(i + 1)
		if err != nil {
			return 0, err
		}
		switch {
		case !ok || !cur.audio:
			return g, nil
		case !prev.audio:
			// cur is the first audio packet and ends at sample 0.
			return -rel, nil
		}
		rel -= int64(prev.size/4 + cur.size/4)
		if p := prev.ref.endPage; p < idx {
			if s.pages[p].Granule == -1 {
				return g, nil
			}
			return s.pages[p].Granule - rel, nil
		}
	}
}

// backwalk yields the packets of a stream from the newest to the oldest.
// Visited packets are kept in items.
type backwalk struct {
	s     *Stream
	page  int
	refs  []packetRef
	sizer BlockSizer
	items []walkItem
}

// get returns the i'th packet before the walk's starting point, counting
// from 0.
func (w *backwalk) get(i int) (walkItem, bool, error) {
	for len(w.items) <= i {
		it, ok, err := w.next()
		if err != nil || !ok {
			return walkItem{}, false, err
		}
		w.items = append(w.items, it)
	}
	return w.items[i], true, nil
}

func (w *backwalk) next() (walkItem, bool, error) {
	for len(w.refs) == 0 {
		if w.s.pages[w.page].resync {
			// Sample counts do not carry across a gap.
			return walkItem{}, false, nil
		}
		w.page--
		if w.page < 0 {
			return walkItem{}, false, nil
		}
		w.refs = w.s.packetsEndingLocked(w.page)
	}
	ref := w.refs[len(w.refs)-1]
	w.refs = w.refs[:len(w.refs)-1]

	pkt, _, _, err := w.s.assembleLocked(ref.page, ref.span)
	if errors.Is(err, errLostTail) {
		return walkItem{ref: ref}, true, nil
	}
	if err != nil {
		return walkItem{}, false, err
	}
	defer pkt.Finish()
	size, audio := w.sizer(pkt)
	return walkItem{ref: ref, size: size, audio: audio}, true, nil
}

// packetsEndingLocked lists the packets completed on page j, oldest first.
func (s *Stream) packetsEndingLocked(j int) []packetRef {
	rec := s.pages[j]
	var refs []packetRef
	for k, sp := range rec.spans {
		if !sp.complete {
			continue
		}
		ref := packetRef{page: j, span: k, endPage: j, endSpan: k}
		if k == 0 && rec.Continued() {
			start, ok := s.packetStartLocked(j)
			if !ok {
				continue
			}
			ref.page, ref.span = start.page, start.span
		}
		refs = append(refs, ref)
	}
	return refs
}

// packetStartLocked finds where the packet continued onto page j began.
func (s *Stream) packetStartLocked(j int) (packetRef, bool) {
	for m := j - 1; m >= 0; m-- {
		if s.pages[m+1].resync {
			return packetRef{}, false
		}
		p := s.pages[m]
		n := len(p.spans)
		if n == 0 || p.spans[n-1].complete {
			return packetRef{}, false
		}
		if n == 1 && p.Continued() {
			continue
		}
		return packetRef{page: m, span: n - 1}, true
	}
	return packetRef{}, false
}
