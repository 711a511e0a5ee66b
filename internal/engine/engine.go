// Package engine describes the speech-decoding engine the service drives. The
// engine owns feature extraction, acoustic scoring and graph search; callers
// only feed audio and read back a lattice.
package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/foxseedlab/latticed/internal/lattice"
)

// ErrTimeout is returned by Stream.Lattice when the engine could not complete
// the search before its deadline.
var ErrTimeout = errors.New("engine: decoding did not complete in time")

const (
	GraphFile         = "HCLG.fst"
	WordsFile         = "words.txt"
	ModelFile         = "final.mdl"
	MFCCConfigFile    = "mfcc.conf"
	IvectorConfigFile = "ivector_extractor.conf"
)

type ModelPaths struct {
	Dir           string
	Graph         string
	Words         string
	Model         string
	MFCCConfig    string
	IvectorConfig string
}

func PathsFromDir(dir string) ModelPaths {
	return ModelPaths{
		Dir:           dir,
		Graph:         filepath.Join(dir, GraphFile),
		Words:         filepath.Join(dir, WordsFile),
		Model:         filepath.Join(dir, ModelFile),
		MFCCConfig:    filepath.Join(dir, MFCCConfigFile),
		IvectorConfig: filepath.Join(dir, IvectorConfigFile),
	}
}

// Files lists every path the engine needs, in load order.
func (p ModelPaths) Files() []string {
	return []string{p.Graph, p.Words, p.Model, p.MFCCConfig, p.IvectorConfig}
}

// SearchParams tune the lattice search. They apply uniformly to every session.
type SearchParams struct {
	Beam                   float64 `yaml:"beam"`
	MaxActive              int     `yaml:"max_active"`
	MinActive              int     `yaml:"min_active"`
	LatticeBeam            float64 `yaml:"lattice_beam"`
	AcousticScale          float64 `yaml:"acoustic_scale"`
	FrameSubsamplingFactor int     `yaml:"frame_subsampling_factor"`
}

func DefaultSearchParams() SearchParams {
	return SearchParams{
		Beam:                   13.0,
		MaxActive:              7000,
		MinActive:              200,
		LatticeBeam:            6.0,
		AcousticScale:          1.0,
		FrameSubsamplingFactor: 3,
	}
}

func (p SearchParams) Validate() error {
	if p.Beam <= 0 {
		return fmt.Errorf("beam must be positive, got %v", p.Beam)
	}
	if p.LatticeBeam <= 0 {
		return fmt.Errorf("lattice beam must be positive, got %v", p.LatticeBeam)
	}
	if p.MinActive < 0 || p.MaxActive <= 0 {
		return fmt.Errorf("active state bounds must be positive, got min=%d max=%d", p.MinActive, p.MaxActive)
	}
	if p.MinActive > p.MaxActive {
		return fmt.Errorf("min active %d exceeds max active %d", p.MinActive, p.MaxActive)
	}
	if p.AcousticScale <= 0 {
		return fmt.Errorf("acoustic scale must be positive, got %v", p.AcousticScale)
	}
	if p.FrameSubsamplingFactor < 1 {
		return fmt.Errorf("frame subsampling factor must be at least 1, got %d", p.FrameSubsamplingFactor)
	}
	return nil
}

type LoadRequest struct {
	Paths   ModelPaths
	Params  SearchParams
	Symbols *lattice.SymbolTable
}

// Backend loads models. Load is called exactly once per process.
type Backend interface {
	Name() string
	Load(req LoadRequest) (Model, error)
}

// Model is the loaded, read-only graph and acoustic model. It must be safe to
// open streams from several goroutines.
type Model interface {
	NewStream(sampleRate int) (Stream, error)
	Close() error
}

// Stream is the per-utterance decoding state. It is used by one goroutine at
// a time.
type Stream interface {
	AcceptWaveform(sampleRate int, samples []float32) error
	AdvanceDecoding() error
	InputFinished() error
	Lattice(ctx context.Context) (*lattice.Lattice, error)
	Close() error
}

// FrameWeighter is implemented by streams that down-weight silent frames
// before the search advances.
type FrameWeighter interface {
	UpdateFrameWeights() error
}
