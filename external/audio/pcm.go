package audio

import (
	"github.com/foxseedlab/latticed/internal/audio"
	goaudio "github.com/go-audio/audio"
)

// clipFromBuffer keeps channel 0 of buf and rescales it to 16-bit range.
func clipFromBuffer(buf *goaudio.IntBuffer, truncated bool) audio.Clip {
	channels := 1
	sampleRate := 0
	if buf.Format != nil {
		channels = max(buf.Format.NumChannels, 1)
		sampleRate = buf.Format.SampleRate
	}
	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = 16
	}

	frames := len(buf.Data) / channels
	samples := make([]float32, frames)
	for i := range frames {
		samples[i] = toInt16Scale(buf.Data[i*channels], depth)
	}
	return audio.Clip{
		SampleRate: sampleRate,
		Channels:   channels,
		Samples:    samples,
		Truncated:  truncated,
	}
}

func toInt16Scale(v, bitDepth int) float32 {
	switch {
	case bitDepth == 8:
		return float32((v - 128) << 8)
	case bitDepth > 16:
		return float32(v >> (bitDepth - 16))
	default:
		return float32(v)
	}
}
