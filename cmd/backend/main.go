package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	audioimpl "github.com/foxseedlab/latticed/external/audio"
	configloader "github.com/foxseedlab/latticed/external/config"
	engineimpl "github.com/foxseedlab/latticed/external/engine"
	"github.com/foxseedlab/latticed/external/httpserver"
	repositoryimpl "github.com/foxseedlab/latticed/external/repository"
	webhookimpl "github.com/foxseedlab/latticed/external/webhook"
	"github.com/foxseedlab/latticed/internal/config"
	"github.com/foxseedlab/latticed/internal/session"
	"github.com/foxseedlab/latticed/internal/transcription"
	"github.com/samber/do/v2"
	"golang.org/x/sync/errgroup"
)

const httpShutdownTimeout = 5 * time.Second

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env, "engine", cfg.EngineBackend, "pool_size", cfg.PoolSize)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	slog.Info("startup: warming up session pool", "model_dir", cfg.ModelDir)
	warmupPool(injector)

	slog.Info("startup: starting http server", "addr", cfg.ListenAddr)
	runServer(injector)

	slog.Info("shutting down services")
	injector.Shutdown()
	slog.Info("shutdown complete")
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	repositoryimpl.RegisterDI(injector)
	audioimpl.RegisterDI(injector)
	engineimpl.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	session.RegisterDI(injector)
	transcription.RegisterDI(injector)
	httpserver.RegisterDI(injector)

	return injector
}

func warmupPool(injector do.Injector) {
	started := time.Now()
	pool, err := do.Invoke[*session.Pool](injector)
	if err != nil {
		var loadErr *session.LoadError
		if errors.As(err, &loadErr) {
			slog.Error("failed to load model resources", "path", loadErr.Path, "op", loadErr.Op, "error", loadErr.Err)
		} else {
			slog.Error("failed to build session pool", "error", err)
		}
		os.Exit(1)
	}
	slog.Info("startup: session pool warmed up", "size", pool.Size(), "elapsed_ms", time.Since(started).Milliseconds())
}

func runServer(injector do.Injector) {
	srv, err := do.Invoke[*http.Server](injector)
	if err != nil {
		slog.Error("failed to resolve http server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		slog.Error("http server stopped with error", "error", err)
	}
}
