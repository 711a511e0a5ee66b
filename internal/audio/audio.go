package audio

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

var (
	ErrMalformedHeader   = errors.New("audio: malformed header")
	ErrUnsupportedFormat = errors.New("audio: unsupported format")
)

type Format string

const (
	FormatWAV  Format = "wav"
	FormatRaw  Format = "raw"
	FormatOpus Format = "opus"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatWAV, FormatRaw, FormatOpus:
		return f, nil
	case "":
		return FormatWAV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Clip is decoded mono audio. Samples stay in 16-bit integer scale; only the
// first channel of the source is kept. Channels records the source layout.
type Clip struct {
	SampleRate int
	Channels   int
	Samples    []float32
	Truncated  bool
}

func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// Reader decodes one container format. declaredBytes is the payload size the
// caller announced, or -1 when unknown.
type Reader interface {
	Read(r io.Reader, declaredBytes int64) (Clip, error)
}

type Readers map[Format]Reader

func (rs Readers) Read(format Format, r io.Reader, declaredBytes int64) (Clip, error) {
	reader, ok := rs[format]
	if !ok {
		return Clip{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return reader.Read(r, declaredBytes)
}
