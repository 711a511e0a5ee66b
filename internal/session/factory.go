package session

import (
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/foxseedlab/latticed/internal/engine"
	"github.com/foxseedlab/latticed/internal/lattice"
)

// Resources is the model state shared by every session of a pool. It is
// never mutated after NewFactory returns.
type Resources struct {
	Paths   engine.ModelPaths
	Params  engine.SearchParams
	Symbols *lattice.SymbolTable
	Model   engine.Model
	Backend string
}

type Factory struct {
	res      *Resources
	nextID   atomic.Int64
	failures atomic.Int64
}

// NewFactory loads the vocabulary and the model exactly once. Any missing or
// unreadable file fails with a *LoadError naming it.
func NewFactory(backend engine.Backend, paths engine.ModelPaths, params engine.SearchParams) (*Factory, error) {
	started := time.Now()
	if err := params.Validate(); err != nil {
		return nil, &LoadError{Path: paths.Dir, Op: "validate search parameters", Err: err}
	}
	for _, f := range paths.Files() {
		info, err := os.Stat(f)
		if err != nil {
			return nil, &LoadError{Path: f, Op: "stat", Err: err}
		}
		if info.IsDir() {
			return nil, &LoadError{Path: f, Op: "stat", Err: fmt.Errorf("is a directory")}
		}
	}

	symbols, err := lattice.LoadSymbolTable(paths.Words)
	if err != nil {
		return nil, &LoadError{Path: paths.Words, Op: "read symbol table", Err: err}
	}
	model, err := backend.Load(engine.LoadRequest{Paths: paths, Params: params, Symbols: symbols})
	if err != nil {
		return nil, &LoadError{Path: paths.Dir, Op: "load " + backend.Name() + " model", Err: err}
	}

	slog.Info("model resources loaded",
		"backend", backend.Name(),
		"model_dir", paths.Dir,
		"words", symbols.Len(),
		"beam", params.Beam,
		"lattice_beam", params.LatticeBeam,
		"elapsed_ms", time.Since(started).Milliseconds())

	return &Factory{res: &Resources{
		Paths:   paths,
		Params:  params,
		Symbols: symbols,
		Model:   model,
		Backend: backend.Name(),
	}}, nil
}

func (f *Factory) Resources() *Resources {
	return f.res
}

// Produce builds a fresh Idle session bound to the shared resources.
func (f *Factory) Produce() *Session {
	return &Session{
		id:      int(f.nextID.Add(1) - 1),
		res:     f.res,
		factory: f,
	}
}

// RecoveredFailures counts utterances that failed and were turned into empty
// results across every session produced here.
func (f *Factory) RecoveredFailures() int64 {
	return f.failures.Load()
}

func (f *Factory) Close() error {
	return f.res.Model.Close()
}
