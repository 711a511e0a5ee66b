package engine

import (
	"errors"
	"log/slog"

	"github.com/foxseedlab/latticed/internal/config"
	"github.com/foxseedlab/latticed/internal/engine"
	"github.com/samber/do/v2"
)

// ErrVoskUnavailable is returned when the binary was built without libvosk.
var ErrVoskUnavailable = errors.New("engine: vosk backend unavailable; rebuild with -tags vosk")

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (engine.Backend, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewBackend(cfg.EngineBackend)
	})
}

func NewBackend(name string) (engine.Backend, error) {
	if name == config.EngineBackendVosk {
		return NewVoskBackend()
	}
	slog.Warn("stub engine selected; transcripts are synthetic", "vosk_available", VoskAvailable())
	return NewStubBackend(), nil
}
