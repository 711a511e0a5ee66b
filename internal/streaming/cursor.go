package streaming

import (
	"math"

	"github.com/foxseedlab/latticed/internal/session"
)

// ChunkLength converts a chunk duration into samples. A non-positive
// duration means the whole stream goes in one chunk.
func ChunkLength(sampleRate int, chunkSeconds float64, total int) int {
	if chunkSeconds <= 0 {
		return max(total, 1)
	}
	return max(int(math.Round(float64(sampleRate)*chunkSeconds)), 1)
}

// Cursor walks a sample buffer in fixed-length chunks. The last chunk may be
// shorter.
type Cursor struct {
	sampleRate int
	chunkLen   int
	offset     int
}

func NewCursor(sampleRate int, chunkSeconds float64, total int) *Cursor {
	return &Cursor{
		sampleRate: sampleRate,
		chunkLen:   ChunkLength(sampleRate, chunkSeconds, total),
	}
}

func (c *Cursor) ChunkLen() int {
	return c.chunkLen
}

// Next returns the next chunk of samples, or false once samples is exhausted.
func (c *Cursor) Next(samples []float32) (session.Chunk, bool) {
	if c.offset >= len(samples) {
		return session.Chunk{}, false
	}
	end := min(c.offset+c.chunkLen, len(samples))
	chunk := session.Chunk{
		Offset:     int64(c.offset),
		SampleRate: c.sampleRate,
		Samples:    samples[c.offset:end],
	}
	c.offset = end
	return chunk, true
}
