//go:build vosk

package engine

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	vosk "github.com/alphacep/vosk-api/go"
	"github.com/foxseedlab/latticed/internal/engine"
	"github.com/foxseedlab/latticed/internal/lattice"
)

const voskMaxAlternatives = 10

func VoskAvailable() bool {
	return true
}

// VoskBackend drives a Kaldi model through libvosk. Each endpointed segment
// becomes a set of parallel word chains; segments are joined in series.
type VoskBackend struct{}

func NewVoskBackend() (engine.Backend, error) {
	return &VoskBackend{}, nil
}

func (b *VoskBackend) Name() string {
	return "vosk"
}

func (b *VoskBackend) Load(req engine.LoadRequest) (engine.Model, error) {
	vosk.SetLogLevel(-1)
	model, err := vosk.NewModel(req.Paths.Dir)
	if err != nil {
		return nil, fmt.Errorf("vosk: load model: %w", err)
	}
	return &voskModel{model: model, symbols: req.Symbols, params: req.Params}, nil
}

type voskModel struct {
	model   *vosk.VoskModel
	symbols *lattice.SymbolTable
	params  engine.SearchParams
}

func (m *voskModel) NewStream(sampleRate int) (engine.Stream, error) {
	rec, err := vosk.NewRecognizer(m.model, float64(sampleRate))
	if err != nil {
		return nil, fmt.Errorf("vosk: new recognizer: %w", err)
	}
	rec.SetMaxAlternatives(voskMaxAlternatives)
	return &voskStream{model: m, rec: rec}, nil
}

func (m *voskModel) Close() error {
	m.model.Free()
	return nil
}

type voskAlternative struct {
	Confidence float64 `json:"confidence"`
	Text       string  `json:"text"`
}

type voskResult struct {
	Alternatives []voskAlternative `json:"alternatives"`
}

type voskStream struct {
	model    *voskModel
	rec      *vosk.VoskRecognizer
	pcm      []byte
	segments [][]voskAlternative
}

func (s *voskStream) AcceptWaveform(_ int, samples []float32) error {
	s.pcm = s.pcm[:0]
	for _, v := range samples {
		clamped := max(math.MinInt16, min(math.MaxInt16, float64(v)))
		s.pcm = binary.LittleEndian.AppendUint16(s.pcm, uint16(int16(clamped)))
	}
	return nil
}

// AdvanceDecoding pushes the buffered chunk and collects a segment whenever
// the recognizer reports an endpoint.
func (s *voskStream) AdvanceDecoding() error {
	if len(s.pcm) == 0 {
		return nil
	}
	if s.rec.AcceptWaveform(s.pcm) == 1 {
		if err := s.collect([]byte(s.rec.Result())); err != nil {
			return err
		}
	}
	s.pcm = s.pcm[:0]
	return nil
}

func (s *voskStream) InputFinished() error {
	return s.collect([]byte(s.rec.FinalResult()))
}

func (s *voskStream) collect(raw []byte) error {
	var res voskResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return fmt.Errorf("vosk: decode result: %w", err)
	}
	alts := res.Alternatives[:0:0]
	for _, a := range res.Alternatives {
		if strings.TrimSpace(a.Text) != "" {
			alts = append(alts, a)
		}
	}
	if len(alts) > 0 {
		s.segments = append(s.segments, alts)
	}
	return nil
}

func (s *voskStream) Lattice(ctx context.Context) (*lattice.Lattice, error) {
	l := lattice.New()
	if len(s.segments) == 0 {
		return l, nil
	}
	prev := l.AddState()
	l.SetStart(prev)
	for _, seg := range s.segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next := l.AddState()
		for _, alt := range seg {
			ids, err := s.wordIDs(alt.Text)
			if err != nil {
				return nil, err
			}
			w := lattice.Weight{Acoustic: -alt.Confidence * s.model.params.AcousticScale}
			l.AddChain(prev, next, ids, w)
		}
		prev = next
	}
	l.SetFinal(prev, lattice.Weight{})
	return l, nil
}

func (s *voskStream) wordIDs(text string) ([]int, error) {
	fields := strings.Fields(text)
	ids := make([]int, 0, len(fields))
	for _, w := range fields {
		id, ok := s.model.symbols.ID(w)
		if !ok {
			return nil, fmt.Errorf("vosk: word %q missing from symbol table", w)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *voskStream) Close() error {
	s.rec.Free()
	s.segments = nil
	return nil
}
