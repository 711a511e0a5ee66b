//go:build opus

package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/foxseedlab/latticed/internal/audio"
	goaudio "github.com/go-audio/audio"
	"github.com/hraban/opus"
)

const (
	opusSampleRate = 48000
	opusFrameMs    = 120
)

// OpusReader decodes an Ogg/Opus stream. libopusfile always yields 48 kHz;
// the channel count is taken from configuration.
type OpusReader struct {
	channels int
}

func NewOpusReader(channels int) audio.Reader {
	return &OpusReader{channels: max(channels, 1)}
}

func (r *OpusReader) Read(src io.Reader, _ int64) (audio.Clip, error) {
	stream, err := opus.NewStream(src)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("%w: %v", audio.ErrMalformedHeader, err)
	}
	defer func() {
		_ = stream.Close()
	}()

	pcm := make([]int16, opusSampleRate*opusFrameMs/1000*r.channels)
	var data []int
	for {
		n, err := stream.Read(pcm)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return audio.Clip{}, fmt.Errorf("decode opus: %w", err)
		}
		for _, v := range pcm[:n*r.channels] {
			data = append(data, int(v))
		}
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: r.channels, SampleRate: opusSampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	return clipFromBuffer(buf, false), nil
}

func OpusAvailable() bool {
	return true
}
