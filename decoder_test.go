package vorbis

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"testing"
	"time"

	"github.com/llehouerou/go-vorbis/internal/ogg"
	"github.com/llehouerou/go-vorbis/internal/output"
	"github.com/llehouerou/go-vorbis/internal/vorbistest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDecoderHeaders(t *testing.T) {
	d := newTestDecoder(t, stereo.Stream(0x1234, blocks(stereo, 3), 0), testConfig())

	assert.Equal(t, 2, d.Channels())
	assert.Equal(t, 44100, d.SampleRate())
	assert.Equal(t, [2]int{64, 512}, d.BlockSizes())
	assert.Equal(t, Bitrate{Nominal: 128000}, d.Bitrate())
	assert.Equal(t, uint32(0x1234), d.Serial())
	assert.Equal(t, int64(0), d.Position())
	assert.False(t, d.Clipped())

	raw := d.Comments()
	require.Greater(t, len(raw), 4+len(stereo.Vendor))
	assert.Equal(t, []byte{byte(len(stereo.Vendor)), 0, 0, 0}, raw[:4])
	assert.Equal(t, stereo.Vendor, string(raw[4:4+len(stereo.Vendor)]))
}

func TestDecodeMatchesReference(t *testing.T) {
	for _, residue := range []int{0, 1, 2} {
		for _, coupled := range []bool{false, true} {
			t.Run(fmt.Sprintf("residue%d/coupled=%v", residue, coupled), func(t *testing.T) {
				c := stereo
				c.ResidueType = residue
				c.Coupled = coupled
				bs := blocks(c, 24)

				d := newTestDecoder(t, c.Stream(1, bs, 0), testConfig())
				got := readAll(t, d, 100)
				assertSamples(t, c.Decode(bs), got, 1e-3)

				g := c.Granules(bs)
				assert.Equal(t, g[len(g)-1], d.Position())
			})
		}
	}
}

func TestDecodeMono(t *testing.T) {
	c := vorbistest.Config{Channels: 1, SampleRate: 8000, BlockSizes: [2]int{128, 1024}, ResidueType: 1}
	bs := blocks(c, 12)
	d := newTestDecoder(t, c.Stream(9, bs, 4), testConfig())
	assertSamples(t, c.Decode(bs), readAll(t, d, 333), 1e-3)
}

func TestDecodeSilence(t *testing.T) {
	bs := silent(stereo, 10)
	d := newTestDecoder(t, stereo.Stream(1, bs, 0), DefaultConfig())
	got := readAll(t, d, 64)
	g := stereo.Granules(bs)
	for ch := range got {
		require.Len(t, got[ch], int(g[len(g)-1]))
		for i, v := range got[ch] {
			require.Zero(t, v, "channel %d sample %d", ch, i)
		}
	}
	st := d.Stats()
	assert.Equal(t, int64(10), st.AudioPackets)
	assert.Equal(t, g[len(g)-1], st.Samples)
	assert.Zero(t, st.ShortPackets)
	assert.Zero(t, st.CorruptPackets)
	assert.Positive(t, st.PacketBits)
	assert.Positive(t, st.OverheadBits)
}

func TestReadPlanar(t *testing.T) {
	bs := blocks(stereo, 16)
	data := stereo.Stream(1, bs, 0)
	want := readAll(t, newTestDecoder(t, data, testConfig()), 512)

	d := newTestDecoder(t, data, testConfig())
	got := make([][]float32, 2)
	buf := [][]float32{make([]float32, 70), make([]float32, 90)}
	for {
		n, err := d.ReadPlanar(buf)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		require.LessOrEqual(t, n, 70)
		for ch := range got {
			got[ch] = append(got[ch], buf[ch][:n]...)
		}
	}
	assert.Equal(t, want, got)

	_, err := d.ReadPlanar(buf[:1])
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestReadBufferSizes(t *testing.T) {
	d := newTestDecoder(t, stereo.Stream(1, blocks(stereo, 4), 0), testConfig())

	n, err := d.Read(nil)
	assert.NoError(t, err)
	assert.Zero(t, n)

	_, err = d.Read(make([]float32, 1))
	assert.ErrorIs(t, err, ErrShortBuffer)

	// An odd-sized buffer only receives whole frames.
	n, err = d.Read(make([]float32, 7))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, int64(3), d.Position())
}

func TestPositionAndTime(t *testing.T) {
	c := stereo
	c.SampleRate = 8000
	bs := blocks(c, 20)
	d := newTestDecoder(t, c.Stream(1, bs, 0), testConfig())

	buf := make([]float32, 2*50)
	var frames int64
	for {
		n, err := d.Read(buf)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		frames += int64(n / 2)
		require.Equal(t, frames, d.Position())
	}
	g := c.Granules(bs)
	assert.Equal(t, g[len(g)-1], frames)
	assert.Equal(t, time.Duration(frames)*time.Second/8000, d.Time())
	assert.Equal(t, d.Time(), d.Duration())
}

func TestTotalSamples(t *testing.T) {
	bs := blocks(stereo, 12)
	g := stereo.Granules(bs)
	data := stereo.Stream(1, bs, 3)

	t.Run("seekable", func(t *testing.T) {
		d := newTestDecoder(t, data, testConfig())
		assert.Equal(t, g[len(g)-1], d.TotalSamples())
		assert.InDelta(t, float64(g[len(g)-1])/44100, d.Duration().Seconds(), 1e-6)
		// Counting does not disturb decoding.
		assert.Len(t, readAll(t, d, 128)[0], int(g[len(g)-1]))
	})

	t.Run("forward only", func(t *testing.T) {
		d, err := NewDecoder(forwardOnly{bytes.NewReader(data)}, testConfig())
		require.NoError(t, err)
		defer d.Close()
		assert.Equal(t, int64(-1), d.TotalSamples())
		assert.Zero(t, d.Duration())
		readAll(t, d, 128)
		assert.Equal(t, g[len(g)-1], d.TotalSamples())
	})
}

func TestLastPacketTruncatedToGranule(t *testing.T) {
	bs := blocks(stereo, 10)
	audio := make([][]byte, len(bs))
	for i, b := range bs {
		audio[i] = stereo.AudioPacket(b)
	}
	g := stereo.Granules(bs)
	full := g[len(g)-1]
	g[len(g)-1] -= 10
	data := vorbistest.Mux(1, stereo.Headers(), audio, g, 0)

	d := newTestDecoder(t, data, testConfig())
	got := readAll(t, d, 100)

	want := stereo.Decode(bs)
	for ch := range want {
		require.Len(t, want[ch], int(full))
		want[ch] = want[ch][:full-10]
	}
	assertSamples(t, want, got, 1e-3)
	assert.Equal(t, full-10, d.Position())
	assert.Equal(t, full-10, d.TotalSamples())
}

func TestStartNotTrimmed(t *testing.T) {
	bs := blocks(stereo, 16)
	audio := make([][]byte, len(bs))
	for i, b := range bs {
		audio[i] = stereo.AudioPacket(b)
	}
	// Every granule lags the decoded count, as in a stream cut from a
	// longer one.
	const lag = 40
	g := stereo.Granules(bs)
	for i := range g {
		g[i] = max(g[i]-lag, 0)
	}
	data := vorbistest.Mux(1, stereo.Headers(), audio, g, 1)

	d := newTestDecoder(t, data, testConfig())
	got := readAll(t, d, 100)
	want := stereo.Decode(bs)
	total := g[len(g)-1]
	for ch := range want {
		want[ch] = want[ch][:total]
	}
	// The leading frames are played and only the end is cut.
	assertSamples(t, want, got, 1e-3)
	assert.Equal(t, total, d.Position())
}

func TestClipping(t *testing.T) {
	c := vorbistest.Config{Channels: 1, SampleRate: 8000, BlockSizes: [2]int{64, 256}}
	bs := silent(c, 6)
	for i := range bs {
		s := make([]int, 32)
		for k := range s {
			s[k] = 2
		}
		bs[i].Spectra[0] = s
	}
	data := c.Stream(1, bs, 0)

	d := newTestDecoder(t, data, DefaultConfig())
	got := readAll(t, d, 64)
	assert.True(t, d.Clipped())
	assert.Positive(t, d.Stats().ClippedSamples)
	for _, v := range got[0] {
		require.LessOrEqual(t, math.Abs(float64(v)), float64(output.Max))
	}

	d = newTestDecoder(t, data, testConfig())
	got = readAll(t, d, 64)
	assert.False(t, d.Clipped())
	assert.Zero(t, d.Stats().ClippedSamples)
	peak := 0.0
	for _, v := range got[0] {
		peak = math.Max(peak, math.Abs(float64(v)))
	}
	assert.Greater(t, peak, 1.0)
}

func TestIgnoredAndEmptyPackets(t *testing.T) {
	bs := blocks(stereo, 8)
	g := stereo.Granules(bs)
	var audio [][]byte
	var granules []int64
	for i, b := range bs {
		audio = append(audio, stereo.AudioPacket(b))
		granules = append(granules, g[i])
		if i == 3 {
			audio = append(audio, []byte{0x01, 0xff}, []byte{})
			granules = append(granules, g[i], g[i])
		}
	}
	data := vorbistest.Mux(1, stereo.Headers(), audio, granules, 0)

	d := newTestDecoder(t, data, testConfig())
	assertSamples(t, stereo.Decode(bs), readAll(t, d, 100), 1e-3)
	st := d.Stats()
	assert.Equal(t, int64(1), st.IgnoredPackets)
	assert.Equal(t, int64(1), st.ShortPackets)
	assert.Equal(t, int64(8), st.AudioPackets)
}

func TestCorruptPacket(t *testing.T) {
	c := stereo
	c.SpareClassCodes = true
	bs := blocks(c, 20)
	audio := make([][]byte, len(bs))
	for i, b := range bs {
		audio[i] = c.AudioPacket(b)
	}
	const bad = 7
	audio[bad] = c.CorruptPacket(bs[bad])
	g := c.Granules(bs)
	data := vorbistest.Mux(1, c.Headers(), audio, g, 0)

	d := newTestDecoder(t, data, testConfig())
	got := readAll(t, d, 100)
	total := g[len(g)-1]
	assert.Equal(t, total, d.Position())

	st := d.Stats()
	assert.Equal(t, int64(1), st.CorruptPackets)
	assert.Equal(t, int64(len(bs)), st.AudioPackets)
	assert.Equal(t, total, st.Samples)

	// Only the two overlaps the damaged block takes part in differ.
	want := c.Decode(bs)
	for ch := range want {
		require.Len(t, got[ch], int(total))
		for _, span := range [][2]int64{{0, g[bad-1]}, {g[bad+1], total}} {
			for i := span[0]; i < span[1]; i++ {
				if diff := float64(got[ch][i]) - want[ch][i]; diff > 1e-3 || diff < -1e-3 {
					t.Fatalf("channel %d sample %d = %v, want %v", ch, i, got[ch][i], want[ch][i])
				}
			}
		}
	}
}

func TestTruncatedInput(t *testing.T) {
	c := vorbistest.Config{Channels: 1, SampleRate: 8000, BlockSizes: [2]int{256, 4096}}
	bs := silent(c, 5)
	// A dense long block spans several pages.
	s := make([]int, 2048)
	for k := range s {
		s[k] = 1 - k%3
	}
	bs = append(bs, vorbistest.Block{Long: true, Spectra: [][]int{s}})
	data := c.Stream(1, bs, 1)
	data = data[:len(data)-40]

	d := newTestDecoder(t, data, DefaultConfig())
	got := readAll(t, d, 256)
	assert.NotEmpty(t, got[0])
	assert.Positive(t, d.Stats().ShortPackets)

	n, err := d.Read(make([]float32, 16))
	assert.Zero(t, n)
	assert.Equal(t, io.EOF, err)
}

func TestResync(t *testing.T) {
	bs := blocks(stereo, 40)
	g := stereo.Granules(bs)
	pages := vorbistest.Pages(stereo.Stream(1, bs, 1))
	drop := len(pages) / 2
	data := bytes.Join(append(pages[:drop:drop], pages[drop+1:]...), nil)

	d := newTestDecoder(t, data, testConfig())
	got := readAll(t, d, 100)

	assert.Positive(t, d.Stats().Resyncs)
	assert.Less(t, int64(len(got[0])), g[len(g)-1])
	// The position follows the granule positions past the gap.
	assert.Equal(t, g[len(g)-1], d.Position())
}

func TestGranuleRegression(t *testing.T) {
	bs := blocks(stereo, 30)
	audio := make([][]byte, len(bs))
	for i, b := range bs {
		audio[i] = stereo.AudioPacket(b)
	}
	g := stereo.Granules(bs)
	g[20] = 1
	data := vorbistest.Mux(1, stereo.Headers(), audio, g, 1)

	d := newTestDecoder(t, data, testConfig())
	buf := make([]float32, 256)
	var err error
	for err == nil {
		_, err = d.Read(buf)
	}
	assert.ErrorIs(t, err, ErrGranuleRegression)
	assert.ErrorIs(t, err, ogg.ErrGranuleRegression)

	// The error is sticky.
	_, err2 := d.Read(buf)
	assert.Equal(t, err, err2)
}

func TestClose(t *testing.T) {
	d, err := NewDecoder(bytes.NewReader(stereo.Stream(1, blocks(stereo, 4), 0)), testConfig())
	require.NoError(t, err)
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	_, err = d.Read(make([]float32, 16))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = d.ReadPlanar([][]float32{{0}, {0}})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = d.Seek(0, io.SeekStart)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, int64(-1), d.TotalSamples())
}

func TestNewDecoderErrors(t *testing.T) {
	ident := stereo.IdentPacket()
	badIdent := append([]byte(nil), ident...)
	badIdent[11] = 0 // no channels
	badSetup := stereo.SetupPacket()
	badSetup = append([]byte(nil), badSetup[:len(badSetup)/2]...)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrNotOgg},
		{"garbage", bytes.Repeat([]byte("not an ogg file "), 64), ErrNotOgg},
		{"other codec", vorbistest.Mux(1, [3][]byte{[]byte("OpusHead\x01\x02"), []byte("OpusTags"), {1}}, nil, nil, 0), ErrNotVorbis},
		{"bad identification", vorbistest.Mux(1, [3][]byte{badIdent, stereo.CommentPacket(), stereo.SetupPacket()}, nil, nil, 0), ErrBadIdentification},
		{"missing comment", vorbistest.Mux(1, [3][]byte{ident, stereo.SetupPacket(), stereo.SetupPacket()}, nil, nil, 0), ErrMissingHeader},
		{"bad setup", vorbistest.Mux(1, [3][]byte{ident, stereo.CommentPacket(), badSetup}, nil, nil, 0), ErrMalformedSetup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.ResyncLimit = 256
			_, err := NewDecoder(bytes.NewReader(tt.data), cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestMissingSetupPacket(t *testing.T) {
	// The stream ends after the comment header.
	p := vorbistest.Pages(vorbistest.Mux(1, stereo.Headers(), nil, nil, 1))
	data := bytes.Join(p[:2], nil)
	_, err := NewDecoder(bytes.NewReader(data), testConfig())
	assert.ErrorIs(t, err, ErrMissingHeader)
}
