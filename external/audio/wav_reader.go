package audio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/foxseedlab/latticed/internal/audio"
	"github.com/go-audio/wav"
)

type WAVReader struct{}

func NewWAVReader() audio.Reader {
	return &WAVReader{}
}

// Read buffers the upload because the RIFF decoder needs to seek.
func (r *WAVReader) Read(src io.Reader, _ int64) (audio.Clip, error) {
	body, err := io.ReadAll(src)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("read wav body: %w", err)
	}
	dec := wav.NewDecoder(bytes.NewReader(body))
	if !dec.IsValidFile() {
		return audio.Clip{}, fmt.Errorf("%w: not a PCM wav file", audio.ErrMalformedHeader)
	}
	if dec.WavAudioFormat != 1 {
		return audio.Clip{}, fmt.Errorf("%w: wav encoding %d is not PCM", audio.ErrUnsupportedFormat, dec.WavAudioFormat)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return audio.Clip{}, fmt.Errorf("%w: %v", audio.ErrMalformedHeader, err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 {
		return audio.Clip{}, fmt.Errorf("%w: missing sample rate", audio.ErrMalformedHeader)
	}
	return clipFromBuffer(buf, false), nil
}
