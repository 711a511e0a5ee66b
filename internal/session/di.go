package session

import (
	"github.com/foxseedlab/latticed/internal/config"
	"github.com/foxseedlab/latticed/internal/engine"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Factory, error) {
		cfg := do.MustInvoke[*config.Config](i)
		backend := do.MustInvoke[engine.Backend](i)
		return NewFactory(backend, engine.PathsFromDir(cfg.ModelDir), cfg.Search)
	})
	do.Provide(injector, func(i do.Injector) (*Pool, error) {
		cfg := do.MustInvoke[*config.Config](i)
		factory := do.MustInvoke[*Factory](i)
		return NewPool(factory, cfg.PoolSize)
	})
}
