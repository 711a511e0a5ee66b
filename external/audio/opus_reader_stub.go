//go:build !opus

package audio

import (
	"fmt"
	"io"

	"github.com/foxseedlab/latticed/internal/audio"
)

type OpusReader struct{}

func NewOpusReader(_ int) audio.Reader {
	return &OpusReader{}
}

func (r *OpusReader) Read(_ io.Reader, _ int64) (audio.Clip, error) {
	return audio.Clip{}, fmt.Errorf("%w: opus support requires building with -tags opus", audio.ErrUnsupportedFormat)
}

func OpusAvailable() bool {
	return false
}
