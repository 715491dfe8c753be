package vorbistest

import "github.com/llehouerou/go-vorbis/internal/ogg"

// Mux frames a logical stream into Ogg pages. The identification header
// gets a page of its own, the comment and setup headers share the next one
// and the audio packets follow on pages of at most segs lacing values
// (255 when segs is 0). granules[i] is the granule position of audio[i].
func Mux(serial uint32, headers [3][]byte, audio [][]byte, granules []int64, segs int) []byte {
	p := &pager{serial: serial, segs: segs, flags: ogg.FlagFirst}
	if p.segs <= 0 || p.segs > ogg.MaxSegments {
		p.segs = ogg.MaxSegments
	}
	p.reset()
	p.add(headers[0], 0)
	p.flush(false)
	p.add(headers[1], 0)
	p.add(headers[2], 0)
	if len(audio) == 0 {
		p.flush(true)
		return p.out
	}
	p.flush(false)
	for i, a := range audio {
		p.add(a, granules[i])
	}
	p.flush(true)
	return p.out
}

// Stream builds a complete single-stream file from blocks.
func (c Config) Stream(serial uint32, blocks []Block, segs int) []byte {
	return c.TrimmedStream(serial, blocks, segs, 0)
}

// TrimmedStream is Stream with the granule position of the last page
// reduced by trim, the way an encoder marks a final block that runs past
// the end of the audio.
func (c Config) TrimmedStream(serial uint32, blocks []Block, segs int, trim int64) []byte {
	audio := make([][]byte, len(blocks))
	for i, b := range blocks {
		audio[i] = c.AudioPacket(b)
	}
	granules := c.Granules(blocks)
	if n := len(granules); n > 0 {
		granules[n-1] -= trim
	}
	return Mux(serial, c.Headers(), audio, granules, segs)
}

type pager struct {
	serial uint32
	seq    uint32
	segs   int
	flags  byte
	cur    ogg.Page
	out    []byte
}

func (p *pager) reset() {
	p.cur = ogg.Page{Header: ogg.Header{Flags: p.flags, Granule: -1, Serial: p.serial}}
	p.flags = 0
}

func (p *pager) add(packet []byte, granule int64) {
	off := 0
	for j, l := range ogg.Lacing(len(packet), true) {
		if len(p.cur.Segments) == p.segs {
			p.flush(false)
			if j > 0 {
				p.cur.Flags |= ogg.FlagContinued
			}
		}
		p.cur.Segments = append(p.cur.Segments, l)
		p.cur.Body = append(p.cur.Body, packet[off:off+int(l)]...)
		off += int(l)
	}
	p.cur.Granule = granule
}

func (p *pager) flush(last bool) {
	if last {
		p.cur.Flags |= ogg.FlagLast
	}
	p.cur.Sequence = p.seq
	p.seq++
	b, err := p.cur.Encode()
	if err != nil {
		panic(err)
	}
	p.out = append(p.out, b...)
	p.reset()
}

// Pages splits a physical stream produced by Mux into its raw pages. A
// truncated last page is returned as is.
func Pages(data []byte) [][]byte {
	var pages [][]byte
	for len(data) >= ogg.HeaderSize {
		segs := int(data[ogg.HeaderSize-1])
		n := ogg.HeaderSize + segs
		if n > len(data) {
			return append(pages, data)
		}
		for _, l := range data[ogg.HeaderSize:n] {
			n += int(l)
		}
		if n > len(data) {
			return append(pages, data)
		}
		pages = append(pages, data[:n])
		data = data[n:]
	}
	return pages
}

// Interleave merges the pages of several physical streams, taking one page
// from each in turn.
func Interleave(streams ...[]byte) []byte {
	split := make([][][]byte, len(streams))
	for i, s := range streams {
		split[i] = Pages(s)
	}
	var out []byte
	for more := true; more; {
		more = false
		for i, pages := range split {
			if len(pages) == 0 {
				continue
			}
			out = append(out, pages[0]...)
			split[i] = pages[1:]
			more = true
		}
	}
	return out
}
