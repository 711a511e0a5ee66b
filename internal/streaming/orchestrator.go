// Package streaming feeds whole audio clips to pooled decoding sessions in
// fixed-duration chunks and finalizes them into ranked results.
package streaming

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/foxseedlab/latticed/internal/audio"
	"github.com/foxseedlab/latticed/internal/hypothesis"
	"github.com/foxseedlab/latticed/internal/session"
	"github.com/foxseedlab/latticed/internal/telemetry"
)

var ErrInvalidOptions = errors.New("streaming: invalid decode options")

// Pool is the part of session.Pool the orchestrator needs.
type Pool interface {
	With(ctx context.Context, fn func(*session.Session) error) error
}

type Options struct {
	RequestID    string
	NBest        int
	ChunkSeconds float64
}

type Outcome struct {
	Result     hypothesis.Result
	SampleRate int
	Samples    int
	Channels   int
	Truncated  bool
	Chunks     int
}

type Orchestrator struct {
	pool            Pool
	readers         audio.Readers
	finalizeTimeout time.Duration
	recorder        *telemetry.Recorder
}

func NewOrchestrator(pool Pool, readers audio.Readers, finalizeTimeout time.Duration, recorder *telemetry.Recorder) *Orchestrator {
	return &Orchestrator{
		pool:            pool,
		readers:         readers,
		finalizeTimeout: finalizeTimeout,
		recorder:        recorder,
	}
}

// DecodeStream parses r in the given format and decodes it. Parsing finishes
// before a session is acquired.
func (o *Orchestrator) DecodeStream(ctx context.Context, r io.Reader, format audio.Format, declaredBytes int64, opts Options) (Outcome, error) {
	if err := opts.validate(); err != nil {
		o.recorder.RecordRejected()
		return Outcome{}, err
	}
	clip, err := o.readers.Read(format, r, declaredBytes)
	if err != nil {
		o.recorder.RecordRejected()
		return Outcome{}, fmt.Errorf("parse %s audio: %w", format, err)
	}
	return o.Decode(ctx, clip, opts)
}

// Decode feeds clip to one pooled session chunk by chunk, then finalizes.
// Empty audio is finalized without any feed and yields an empty result.
func (o *Orchestrator) Decode(ctx context.Context, clip audio.Clip, opts Options) (Outcome, error) {
	if err := opts.validate(); err != nil {
		return Outcome{}, err
	}
	if len(clip.Samples) > 0 && clip.SampleRate <= 0 {
		return Outcome{}, fmt.Errorf("%w: audio has no sample rate", ErrInvalidOptions)
	}

	out := Outcome{
		SampleRate: clip.SampleRate,
		Samples:    len(clip.Samples),
		Channels:   clip.Channels,
		Truncated:  clip.Truncated,
	}
	metrics := o.recorder.StartDecode(opts.RequestID)
	defer func() {
		metrics.Finish(len(out.Result.Alternatives))
	}()
	if clip.Truncated {
		metrics.RecordTruncated()
	}

	waitStarted := time.Now()
	err := o.pool.With(ctx, func(s *session.Session) error {
		metrics.RecordPoolWait(time.Since(waitStarted))

		cursor := NewCursor(clip.SampleRate, opts.ChunkSeconds, len(clip.Samples))
		for {
			chunk, ok := cursor.Next(clip.Samples)
			if !ok {
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.Feed(chunk); err != nil {
				return fmt.Errorf("feed chunk at sample %d: %w", chunk.Offset, err)
			}
			metrics.RecordFeed(len(chunk.Samples))
			out.Chunks++
		}

		finalizeCtx, cancel := context.WithTimeout(ctx, o.finalizeTimeout)
		defer cancel()
		out.Result = s.Finalize(finalizeCtx, opts.NBest)
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	return out, nil
}

func (opts Options) validate() error {
	if opts.NBest < 1 {
		return fmt.Errorf("%w: n-best must be at least 1, got %d", ErrInvalidOptions, opts.NBest)
	}
	return nil
}
