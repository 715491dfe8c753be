package output

import (
	"math"

	"github.com/go-audio/audio"
)

// clip16 rounds a sample already scaled to the 16-bit range, ties to even,
// and saturates it.
func clip16(sample float32) int16 {
	if sample >= 32767.0 {
		return 32767
	}
	if sample <= -32768.0 {
		return -32768
	}
	return int16(math.RoundToEven(float64(sample)))
}

// clip24 does the same for the 24-bit range.
func clip24(sample float32) int32 {
	if sample >= 8388607.0 {
		return 8388607
	}
	if sample <= -8388608.0 {
		return -8388608
	}
	return int32(math.RoundToEven(float64(sample)))
}

// ToPCM16 converts frames planar float samples to interleaved 16-bit PCM.
// out must hold frames*len(planar) values.
func ToPCM16(out []int16, planar [][]float32, frames int) {
	ch := len(planar)
	for c, p := range planar {
		for i, s := range p[:frames] {
			out[i*ch+c] = clip16(s * 32768)
		}
	}
}

// AppendIntBuffer converts interleaved float samples to integers of the
// buffer's bit depth (16 or 24) and appends them to buf.Data.
func AppendIntBuffer(buf *audio.IntBuffer, interleaved []float32) {
	switch buf.SourceBitDepth {
	case 24:
		for _, s := range interleaved {
			buf.Data = append(buf.Data, int(clip24(s*8388608)))
		}
	default:
		for _, s := range interleaved {
			buf.Data = append(buf.Data, int(clip16(s*32768)))
		}
	}
}

// NewIntBuffer returns an empty integer buffer for the given format.
func NewIntBuffer(channels, sampleRate, bitDepth, capacity int) *audio.IntBuffer {
	return &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: bitDepth,
		Data:           make([]int, 0, capacity),
	}
}
