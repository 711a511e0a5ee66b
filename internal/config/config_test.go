package config

import (
	"testing"
	"time"

	"github.com/foxseedlab/latticed/internal/engine"
)

func validConfig() *Config {
	return &Config{
		Env:                 "development",
		ListenAddr:          ":8080",
		ModelDir:            "/models/en",
		EngineBackend:       EngineBackendStub,
		PoolSize:            4,
		Search:              engine.DefaultSearchParams(),
		RawSampleRate:       8000,
		OpusChannels:        1,
		DefaultNBest:        5,
		DefaultChunkSeconds: 1.0,
		FinalizeTimeout:     30 * time.Second,
		MaxAudioBytes:       64 << 20,
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_MissingRequired(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when required fields are missing")
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "unknown backend", mutate: func(c *Config) { c.EngineBackend = "whisper" }},
		{name: "zero pool", mutate: func(c *Config) { c.PoolSize = 0 }},
		{name: "zero beam", mutate: func(c *Config) { c.Search.Beam = 0 }},
		{name: "min above max active", mutate: func(c *Config) { c.Search.MinActive = c.Search.MaxActive + 1 }},
		{name: "zero raw rate", mutate: func(c *Config) { c.RawSampleRate = 0 }},
		{name: "three opus channels", mutate: func(c *Config) { c.OpusChannels = 3 }},
		{name: "zero n-best", mutate: func(c *Config) { c.DefaultNBest = 0 }},
		{name: "negative chunk", mutate: func(c *Config) { c.DefaultChunkSeconds = -1 }},
		{name: "zero finalize timeout", mutate: func(c *Config) { c.FinalizeTimeout = 0 }},
		{name: "zero upload cap", mutate: func(c *Config) { c.MaxAudioBytes = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestValidate_ZeroChunkSecondsMeansWholeStream(t *testing.T) {
	cfg := validConfig()
	cfg.DefaultChunkSeconds = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestIsDevelopment(t *testing.T) {
	cfg := &Config{Env: "development"}
	if !cfg.IsDevelopment() {
		t.Fatal("expected development mode")
	}
	cfg.Env = "production"
	if cfg.IsDevelopment() {
		t.Fatal("expected non-development mode")
	}
}

func TestPersistenceEnabled(t *testing.T) {
	cfg := validConfig()
	if cfg.PersistenceEnabled() {
		t.Fatal("expected persistence disabled without DATABASE_URL")
	}
	cfg.DatabaseURL = "postgres://localhost/latticed"
	if !cfg.PersistenceEnabled() {
		t.Fatal("expected persistence enabled")
	}
}
