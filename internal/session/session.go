package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/foxseedlab/latticed/internal/engine"
	"github.com/foxseedlab/latticed/internal/hypothesis"
)

type State int32

const (
	StateIdle State = iota
	StateStreaming
	StateFinalizing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateFinalizing:
		return "finalizing"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Chunk is a contiguous run of mono samples. Offset is the index of the
// first sample within the utterance.
type Chunk struct {
	Offset     int64
	SampleRate int
	Samples    []float32
}

// Session is one reusable decoding context. It is not safe for concurrent
// use; the pool hands it to one caller at a time.
type Session struct {
	id      int
	res     *Resources
	factory *Factory
	pool    *Pool
	leased  atomic.Bool

	state      State
	stream     engine.Stream
	sampleRate int
	fed        int64
}

func (s *Session) ID() int {
	return s.id
}

func (s *Session) State() State {
	return s.state
}

// Fed reports how many samples the current utterance has received.
func (s *Session) Fed() int64 {
	return s.fed
}

func (s *Session) Feed(chunk Chunk) error {
	if s.state == StateFinalizing {
		return fmt.Errorf("session %d: feed while finalizing", s.id)
	}
	if chunk.SampleRate <= 0 {
		return fmt.Errorf("session %d: invalid sample rate %d", s.id, chunk.SampleRate)
	}
	if chunk.Offset != s.fed {
		return fmt.Errorf("%w: expected offset %d, got %d", ErrOutOfOrder, s.fed, chunk.Offset)
	}
	if s.state == StateStreaming && chunk.SampleRate != s.sampleRate {
		return fmt.Errorf("%w: %d -> %d", ErrSampleRateChanged, s.sampleRate, chunk.SampleRate)
	}

	if s.state == StateIdle {
		stream, err := s.res.Model.NewStream(chunk.SampleRate)
		if err != nil {
			return fmt.Errorf("session %d: open stream: %w", s.id, err)
		}
		s.stream = stream
		s.sampleRate = chunk.SampleRate
		s.state = StateStreaming
	}

	if err := s.stream.AcceptWaveform(chunk.SampleRate, chunk.Samples); err != nil {
		return fmt.Errorf("session %d: accept waveform: %w", s.id, err)
	}
	if fw, ok := s.stream.(engine.FrameWeighter); ok {
		if err := fw.UpdateFrameWeights(); err != nil {
			return fmt.Errorf("session %d: update frame weights: %w", s.id, err)
		}
	}
	if err := s.stream.AdvanceDecoding(); err != nil {
		return fmt.Errorf("session %d: advance decoding: %w", s.id, err)
	}
	s.fed += int64(len(chunk.Samples))
	return nil
}

// Finalize ends the utterance and returns up to nBest alternatives. Engine
// and extraction failures are logged and yield an empty result. The session
// is Idle afterwards in every case.
func (s *Session) Finalize(ctx context.Context, nBest int) hypothesis.Result {
	if s.state == StateIdle {
		return hypothesis.Result{}
	}
	s.state = StateFinalizing
	defer s.Reset()

	result, err := s.finalize(ctx, nBest)
	if err != nil {
		uerr := &UtteranceError{Kind: classify(err), SessionID: s.id, Err: err}
		s.factory.failures.Add(1)
		slog.Error("utterance failed; returning empty result",
			"session_id", s.id,
			"kind", uerr.Kind,
			"samples", s.fed,
			"error", uerr)
		return hypothesis.Result{}
	}
	return result
}

func (s *Session) finalize(ctx context.Context, nBest int) (result hypothesis.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()
	if err := s.stream.InputFinished(); err != nil {
		return hypothesis.Result{}, fmt.Errorf("input finished: %w", err)
	}
	lat, err := s.stream.Lattice(ctx)
	if err != nil {
		return hypothesis.Result{}, fmt.Errorf("get lattice: %w", err)
	}
	return hypothesis.Extract(s.res.Symbols, lat, nBest)
}

func classify(err error) UtteranceKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, engine.ErrTimeout) {
		return UtteranceTimeout
	}
	return UtteranceExtraction
}

// Reset drops any in-progress utterance and returns the session to Idle.
func (s *Session) Reset() {
	if s.stream != nil {
		if err := s.stream.Close(); err != nil {
			slog.Warn("failed to close engine stream", "session_id", s.id, "error", err)
		}
		s.stream = nil
	}
	s.state = StateIdle
	s.sampleRate = 0
	s.fed = 0
}
