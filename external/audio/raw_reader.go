package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/foxseedlab/latticed/internal/audio"
	goaudio "github.com/go-audio/audio"
)

const rawBlockAlign = 2

// RawReader decodes headerless mono signed 16-bit little-endian PCM at a
// fixed sample rate.
type RawReader struct {
	sampleRate int
}

func NewRawReader(sampleRate int) audio.Reader {
	return &RawReader{sampleRate: sampleRate}
}

// Read consumes declaredBytes bytes, or everything when declaredBytes is
// negative. A payload shorter than declared is decoded as far as it goes and
// flagged as truncated.
func (r *RawReader) Read(src io.Reader, declaredBytes int64) (audio.Clip, error) {
	var (
		body      []byte
		truncated bool
	)
	if declaredBytes < 0 {
		b, err := io.ReadAll(src)
		if err != nil {
			return audio.Clip{}, fmt.Errorf("read raw body: %w", err)
		}
		body = b
	} else {
		body = make([]byte, declaredBytes)
		n, err := io.ReadFull(src, body)
		switch {
		case errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF):
			slog.Warn("raw audio shorter than declared; decoding what was read",
				"expected_bytes", declaredBytes,
				"actual_bytes", n)
			truncated = true
		case err != nil:
			return audio.Clip{}, fmt.Errorf("read raw body: %w", err)
		}
		body = body[:n]
	}

	frames := len(body) / rawBlockAlign
	data := make([]int, frames)
	for i := range frames {
		data[i] = int(int16(binary.LittleEndian.Uint16(body[i*rawBlockAlign:])))
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: r.sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	return clipFromBuffer(buf, truncated), nil
}
