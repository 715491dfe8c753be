package vorbis

import (
	"errors"
	"io"

	"github.com/llehouerou/go-vorbis/internal/filterbank"
	"github.com/llehouerou/go-vorbis/internal/ogg"
	"github.com/llehouerou/go-vorbis/internal/output"
	"github.com/llehouerou/go-vorbis/internal/spectrum"
)

// Read decodes interleaved samples into p and returns the number of values
// written, always a whole number of frames. At the end of the stream it
// returns 0, io.EOF.
func (d *Decoder) Read(p []float32) (int, error) {
	if d.closed {
		return 0, ErrClosed
	}
	ch := d.ident.Channels
	if len(p) == 0 {
		return 0, nil
	}
	if len(p) < ch {
		return 0, ErrShortBuffer
	}

	n := 0
	for n+ch <= len(p) {
		if d.pcmStart == d.pcmEnd {
			if err := d.fill(); err != nil {
				if n > 0 {
					return n, nil
				}
				return 0, err
			}
		}
		frames := min(d.pcmEnd-d.pcmStart, (len(p)-n)/ch)
		for c := range d.view {
			d.view[c] = d.pcm[c][d.pcmStart:]
		}
		output.Interleave(p[n:], d.view, frames)
		d.consume(frames)
		n += frames * ch
	}
	return n, nil
}

// ReadPlanar decodes samples into one slice per channel and returns the
// number of frames written. p must hold at least Channels slices; the
// frame count is bounded by the shortest of them.
func (d *Decoder) ReadPlanar(p [][]float32) (int, error) {
	if d.closed {
		return 0, ErrClosed
	}
	ch := d.ident.Channels
	if len(p) < ch {
		return 0, ErrShortBuffer
	}
	want := len(p[0])
	for _, s := range p[1:ch] {
		want = min(want, len(s))
	}

	n := 0
	for n < want {
		if d.pcmStart == d.pcmEnd {
			if err := d.fill(); err != nil {
				if n > 0 {
					return n, nil
				}
				return 0, err
			}
		}
		frames := min(d.pcmEnd-d.pcmStart, want-n)
		for c := 0; c < ch; c++ {
			copy(p[c][n:n+frames], d.pcm[c][d.pcmStart:])
		}
		d.consume(frames)
		n += frames
	}
	return n, nil
}

func (d *Decoder) consume(frames int) {
	d.pcmStart += frames
	d.pos += int64(frames)
}

// fill decodes packets until some samples are ready. Errors are sticky
// until the next seek.
func (d *Decoder) fill() error {
	for d.pcmStart == d.pcmEnd {
		if d.err != nil {
			return d.err
		}
		if d.eos {
			d.err = io.EOF
			continue
		}
		pkt, err := d.stream.NextPacket()
		switch {
		case err == io.EOF:
			d.eos = true
			continue
		case errors.Is(err, ogg.ErrGranuleRegression):
			d.log.WithField("packet", d.packets).Warn("vorbis: granule position went backwards")
			d.err = wrap(ErrGranuleRegression, err)
			continue
		case err != nil:
			d.err = containerError(err)
			continue
		}
		d.decodePacket(pkt)
	}
	return nil
}

// decodePacket decodes one packet, joins it to the previous block and
// leaves the finished samples in pcm.
func (d *Decoder) decodePacket(pkt *ogg.Packet) {
	defer pkt.Finish()
	d.account(pkt)
	log := d.log.WithField("packet", d.packets).
		WithField("granule", pkt.Granule).
		WithField("bytes", pkt.Len())
	d.packets++
	if pkt.EOS {
		d.eos = true
	}
	if pkt.Resync {
		d.stats.Resyncs++
		d.prevSize = 0
		d.rederive = true
		log.Debug("vorbis: resync")
	}

	d.br.Reset(pkt.Parts()...)
	h, err := spectrum.ReadPacketHeader(&d.br, d.setup.Modes, d.ident.BlockSizes)
	switch {
	case errors.Is(err, spectrum.ErrNotAudio):
		d.stats.IgnoredPackets++
		log.Debug("vorbis: ignored non-audio packet")
		return
	case err != nil && d.br.IsShort():
		d.stats.ShortPackets++
		log.Debug("vorbis: packet too short for its header")
		return
	case err != nil:
		d.stats.CorruptPackets++
		log.WithError(err).Warn("vorbis: corrupt packet")
		return
	}

	d.stats.AudioPackets++
	d.blk.Reset()
	h.Mode.Mapping.Decode(&d.br, d.blk, h.Size)
	if d.blk.Corrupt {
		d.stats.CorruptPackets++
		log.Warn("vorbis: corrupt packet")
	}
	if d.blk.Short || pkt.Truncated {
		d.stats.ShortPackets++
		log.Debug("vorbis: short packet")
	}

	cur := 1 - d.prev
	shape := d.fb.Shape(h.Mode.Long, h.PrevLong, h.NextLong)
	for ch, out := range d.blocks[cur] {
		d.fb.Synthesize(d.blk.PCM[ch][:h.Size/2], out[:h.Size], h.Mode.Long, shape)
	}

	n := 0
	if d.prevSize > 0 {
		ov := filterbank.NewOverlap(d.prevSize, h.Size)
		ps, pe := ov.Prev()
		cs, ce := ov.Cur()
		for ch, pcm := range d.pcm {
			prev, blk := d.blocks[d.prev][ch], d.blocks[cur][ch]
			ov.Add(prev, blk)
			k := copy(pcm, prev[ps:pe])
			copy(pcm[k:], blk[cs:ce])
		}
		n = ov.Samples()
	}
	d.prev, d.prevSize = cur, h.Size
	d.emit(pkt, n)
}

// emit publishes the n samples left in pcm by a packet, after placing them
// on the granule axis.
func (d *Decoder) emit(pkt *ogg.Packet, n int) {
	start := d.next
	if pkt.Granule >= 0 {
		if d.rederive {
			start = max(pkt.Granule-int64(n), 0)
			d.pos += start - d.next
			d.rederive = false
		}
		// The last page may end before the last block does.
		if pkt.EOS && start+int64(n) > pkt.Granule {
			n = int(max(pkt.Granule-start, 0))
			d.log.WithField("granule", pkt.Granule).Debug("vorbis: last packet truncated to its granule position")
		}
	}
	d.next = start + int64(n)
	d.stats.Samples += int64(n)

	d.pcmStart, d.pcmEnd = 0, n
	if skip := d.pos - start; skip > 0 {
		d.pcmStart = int(min(skip, int64(n)))
	}
	if d.pos < start {
		d.pos = start
	}
	if !d.cfg.ClipSamples {
		return
	}
	for _, pcm := range d.pcm {
		if c := output.ClipSlice(pcm[d.pcmStart:d.pcmEnd]); c > 0 {
			d.stats.ClippedSamples += int64(c)
			d.clipped = true
		}
	}
}
