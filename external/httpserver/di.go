package httpserver

import (
	"net/http"

	"github.com/foxseedlab/latticed/internal/config"
	"github.com/foxseedlab/latticed/internal/transcription"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*http.Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		svc := do.MustInvoke[*transcription.Service](i)
		return New(cfg.ListenAddr, svc, cfg.MaxAudioBytes), nil
	})
}
