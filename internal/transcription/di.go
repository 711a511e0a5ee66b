package transcription

import (
	"github.com/foxseedlab/latticed/internal/audio"
	"github.com/foxseedlab/latticed/internal/config"
	"github.com/foxseedlab/latticed/internal/repository"
	"github.com/foxseedlab/latticed/internal/session"
	"github.com/foxseedlab/latticed/internal/streaming"
	"github.com/foxseedlab/latticed/internal/telemetry"
	"github.com/foxseedlab/latticed/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*telemetry.Recorder, error) {
		return telemetry.NewRecorder(nil), nil
	})
	do.Provide(injector, func(i do.Injector) (*streaming.Orchestrator, error) {
		cfg := do.MustInvoke[*config.Config](i)
		pool := do.MustInvoke[*session.Pool](i)
		readers := do.MustInvoke[audio.Readers](i)
		recorder := do.MustInvoke[*telemetry.Recorder](i)
		return streaming.NewOrchestrator(pool, readers, cfg.FinalizeTimeout, recorder), nil
	})
	do.Provide(injector, func(i do.Injector) (*Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewService(
			do.MustInvoke[*streaming.Orchestrator](i),
			do.MustInvoke[*session.Pool](i),
			do.MustInvoke[repository.Repository](i),
			do.MustInvoke[webhook.Sender](i),
			do.MustInvoke[*telemetry.Recorder](i),
			Options{DefaultNBest: cfg.DefaultNBest, DefaultChunkSeconds: cfg.DefaultChunkSeconds},
		), nil
	})
}
