package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/foxseedlab/latticed/internal/engine"
	"github.com/foxseedlab/latticed/internal/lattice"
)

const (
	stubFrameMs        = 10
	stubVoicedRMS      = 300.0
	stubWordGraphCost  = 1.0
	stubFrameAcoustic  = 0.5
	stubAlternatesEach = 2
)

// StubBackend is a pure Go engine for development and tests. It segments the
// signal on frame energy and emits one word slot per voiced run, with
// competing words inside the lattice beam. It needs no native libraries.
type StubBackend struct{}

func NewStubBackend() engine.Backend {
	return &StubBackend{}
}

func (b *StubBackend) Name() string {
	return "stub"
}

func (b *StubBackend) Load(req engine.LoadRequest) (engine.Model, error) {
	if req.Symbols == nil {
		return nil, fmt.Errorf("stub engine: symbol table is required")
	}
	words := req.Symbols.WordIDs()
	if len(words) == 0 {
		return nil, fmt.Errorf("stub engine: vocabulary has no words")
	}
	return &stubModel{words: words, params: req.Params}, nil
}

type stubModel struct {
	words  []int
	params engine.SearchParams
}

func (m *stubModel) NewStream(sampleRate int) (engine.Stream, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("stub engine: invalid sample rate %d", sampleRate)
	}
	return &stubStream{
		model:      m,
		frameLen:   max(sampleRate*stubFrameMs/1000, 1),
		sampleRate: sampleRate,
	}, nil
}

func (m *stubModel) Close() error {
	return nil
}

type stubFrame struct {
	rms    float64
	voiced bool
}

type stubStream struct {
	model      *stubModel
	frameLen   int
	sampleRate int

	pending  []float32
	frames   []stubFrame
	finished bool
	closed   bool
}

func (s *stubStream) AcceptWaveform(sampleRate int, samples []float32) error {
	if s.closed || s.finished {
		return fmt.Errorf("stub engine: stream no longer accepts audio")
	}
	if sampleRate != s.sampleRate {
		return fmt.Errorf("stub engine: stream opened at %d Hz, got %d Hz", s.sampleRate, sampleRate)
	}
	s.pending = append(s.pending, samples...)
	return nil
}

// UpdateFrameWeights labels every complete pending frame voiced or silent.
func (s *stubStream) UpdateFrameWeights() error {
	for len(s.pending) >= s.frameLen {
		s.frames = append(s.frames, measureFrame(s.pending[:s.frameLen]))
		s.pending = s.pending[s.frameLen:]
	}
	return nil
}

func (s *stubStream) AdvanceDecoding() error {
	return s.UpdateFrameWeights()
}

func (s *stubStream) InputFinished() error {
	if err := s.UpdateFrameWeights(); err != nil {
		return err
	}
	if len(s.pending) > 0 {
		s.frames = append(s.frames, measureFrame(s.pending))
		s.pending = nil
	}
	s.finished = true
	return nil
}

func (s *stubStream) Lattice(ctx context.Context) (*lattice.Lattice, error) {
	if !s.finished {
		return nil, fmt.Errorf("stub engine: lattice requested before input finished")
	}
	segments := voicedRuns(s.frames, s.model.params.FrameSubsamplingFactor)
	l := lattice.New()
	if len(segments) == 0 {
		return l, nil
	}

	prev := l.AddState()
	l.SetStart(prev)
	for _, seg := range segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next := l.AddState()
		for alt, word := range s.model.pickWords(seg, s.frames) {
			w := lattice.Weight{
				Graph:    stubWordGraphCost,
				Acoustic: s.model.params.AcousticScale * stubFrameAcoustic * float64(seg.length()),
			}
			w.Acoustic += float64(alt) * s.model.params.LatticeBeam / stubAlternatesEach
			l.AddArc(prev, lattice.Arc{ILabel: seg.start + 1, OLabel: word, Weight: w, Next: next})
		}
		prev = next
	}
	l.SetFinal(prev, lattice.Weight{})
	return l, nil
}

func (s *stubStream) Close() error {
	s.closed = true
	s.pending = nil
	s.frames = nil
	return nil
}

type run struct {
	start, end int
}

func (r run) length() int {
	return r.end - r.start
}

// voicedRuns returns maximal runs of voiced frames at least minFrames long.
func voicedRuns(frames []stubFrame, minFrames int) []run {
	var out []run
	start := -1
	for i := 0; i <= len(frames); i++ {
		voiced := i < len(frames) && frames[i].voiced
		switch {
		case voiced && start < 0:
			start = i
		case !voiced && start >= 0:
			if i-start >= minFrames {
				out = append(out, run{start: start, end: i})
			}
			start = -1
		}
	}
	return out
}

// pickWords chooses the competing words of a segment from its mean energy,
// so identical audio always decodes to identical text.
func (m *stubModel) pickWords(seg run, frames []stubFrame) []int {
	var energy float64
	for _, f := range frames[seg.start:seg.end] {
		energy += f.rms
	}
	idx := int(energy/float64(seg.length())) + seg.length()
	n := min(stubAlternatesEach, len(m.words))
	out := make([]int, 0, n)
	for i := range n {
		out = append(out, m.words[(idx+i)%len(m.words)])
	}
	return out
}

func measureFrame(samples []float32) stubFrame {
	var sum float64
	for _, v := range samples {
		sum += float64(v) * float64(v)
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	return stubFrame{rms: rms, voiced: rms >= stubVoicedRMS}
}
