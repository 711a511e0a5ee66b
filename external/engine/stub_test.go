package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/foxseedlab/latticed/internal/engine"
	"github.com/foxseedlab/latticed/internal/hypothesis"
	"github.com/foxseedlab/latticed/internal/lattice"
)

func testSymbols(t *testing.T) *lattice.SymbolTable {
	t.Helper()
	table := lattice.NewSymbolTable()
	for i, w := range []string{"<eps>", "alpha", "bravo", "charlie"} {
		if err := table.Add(w, i); err != nil {
			t.Fatalf("failed to add symbol: %v", err)
		}
	}
	return table
}

func loadStub(t *testing.T) (engine.Model, *lattice.SymbolTable) {
	t.Helper()
	symbols := testSymbols(t)
	model, err := NewStubBackend().Load(engine.LoadRequest{Params: engine.DefaultSearchParams(), Symbols: symbols})
	if err != nil {
		t.Fatalf("failed to load stub: %v", err)
	}
	return model, symbols
}

// tone returns n samples alternating between +amp and -amp.
func tone(n int, amp float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		if i%2 == 0 {
			out[i] = amp
		} else {
			out[i] = -amp
		}
	}
	return out
}

func decode(t *testing.T, model engine.Model, sampleRate int, chunks ...[]float32) *lattice.Lattice {
	t.Helper()
	stream, err := model.NewStream(sampleRate)
	if err != nil {
		t.Fatalf("failed to open stream: %v", err)
	}
	defer func() { _ = stream.Close() }()
	for _, c := range chunks {
		if err := stream.AcceptWaveform(sampleRate, c); err != nil {
			t.Fatalf("accept failed: %v", err)
		}
		if err := stream.AdvanceDecoding(); err != nil {
			t.Fatalf("advance failed: %v", err)
		}
	}
	if err := stream.InputFinished(); err != nil {
		t.Fatalf("input finished failed: %v", err)
	}
	l, err := stream.Lattice(context.Background())
	if err != nil {
		t.Fatalf("lattice failed: %v", err)
	}
	return l
}

func TestStub_SilenceYieldsEmptyLattice(t *testing.T) {
	model, _ := loadStub(t)
	l := decode(t, model, 8000, make([]float32, 8000))
	if l.NumStates() != 0 {
		t.Fatalf("expected empty lattice, got %d states", l.NumStates())
	}
}

func TestStub_VoicedRunsBecomeWords(t *testing.T) {
	model, symbols := loadStub(t)
	silence := make([]float32, 1600)
	l := decode(t, model, 8000, tone(2400, 1000), silence, tone(2400, 3000), silence)

	result, err := hypothesis.Extract(symbols, l, 5)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(result.Alternatives) != 4 {
		t.Fatalf("expected 2x2 alternatives, got %d", len(result.Alternatives))
	}
	best, _ := result.Best()
	if n := len(strings.Fields(best.Transcript)); n != 2 {
		t.Fatalf("expected two words, got %q", best.Transcript)
	}
	for i := 1; i < len(result.Alternatives); i++ {
		prev := result.Alternatives[i-1]
		cur := result.Alternatives[i]
		if prev.AMScore+prev.LMScore > cur.AMScore+cur.LMScore {
			t.Fatalf("alternatives out of order at %d", i)
		}
	}
}

func TestStub_ChunkingDoesNotChangeResult(t *testing.T) {
	model, symbols := loadStub(t)
	audio := append(tone(4000, 2000), make([]float32, 800)...)

	whole, err := hypothesis.Extract(symbols, decode(t, model, 8000, audio), 3)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	chunked, err := hypothesis.Extract(symbols, decode(t, model, 8000, audio[:1234], audio[1234:3001], audio[3001:]), 3)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(whole.Alternatives) != len(chunked.Alternatives) {
		t.Fatalf("alternative count differs: %d vs %d", len(whole.Alternatives), len(chunked.Alternatives))
	}
	for i := range whole.Alternatives {
		if whole.Alternatives[i] != chunked.Alternatives[i] {
			t.Fatalf("alternative %d differs: %+v vs %+v", i, whole.Alternatives[i], chunked.Alternatives[i])
		}
	}
}

func TestStub_RejectsSampleRateChange(t *testing.T) {
	model, _ := loadStub(t)
	stream, err := model.NewStream(8000)
	if err != nil {
		t.Fatalf("failed to open stream: %v", err)
	}
	if err := stream.AcceptWaveform(16000, tone(10, 1)); err == nil {
		t.Fatal("expected error for mismatched sample rate")
	}
}

func TestStub_LatticeHonorsContext(t *testing.T) {
	model, _ := loadStub(t)
	stream, _ := model.NewStream(8000)
	_ = stream.AcceptWaveform(8000, tone(2400, 1000))
	_ = stream.InputFinished()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := stream.Lattice(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewBackend(t *testing.T) {
	b, err := NewBackend("stub")
	if err != nil || b.Name() != "stub" {
		t.Fatalf("expected stub backend, got %v %v", b, err)
	}
	if !VoskAvailable() {
		if _, err := NewBackend("vosk"); !errors.Is(err, ErrVoskUnavailable) {
			t.Fatalf("expected ErrVoskUnavailable, got %v", err)
		}
	}
}
