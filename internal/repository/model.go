package repository

import "time"

type DecodeRecord struct {
	ID           string
	Format       string
	SampleRate   int
	Channels     int
	Samples      int
	Truncated    bool
	Chunks       int
	NBest        int
	ChunkSeconds float64
	DurationMs   int64
	Alternatives []AlternativeRecord
	CreatedAt    time.Time
}

type AlternativeRecord struct {
	Rank       int
	Transcript string
	Confidence float64
	AMScore    float64
	LMScore    float64
}
