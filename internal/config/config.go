package config

import (
	"fmt"
	"time"

	"github.com/foxseedlab/latticed/internal/engine"
)

const (
	EngineBackendStub = "stub"
	EngineBackendVosk = "vosk"
)

type Config struct {
	Env                  string
	ListenAddr           string
	ModelDir             string
	EngineBackend        string
	PoolSize             int
	Search               engine.SearchParams
	TuningFile           string
	RawSampleRate        int
	OpusChannels         int
	DefaultNBest         int
	DefaultChunkSeconds  float64
	FinalizeTimeout      time.Duration
	MaxAudioBytes        int64
	DatabaseURL          string
	TranscriptWebhookURL string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	switch c.EngineBackend {
	case EngineBackendStub, EngineBackendVosk:
	default:
		return fmt.Errorf("ENGINE_BACKEND must be %q or %q, got %q", EngineBackendStub, EngineBackendVosk, c.EngineBackend)
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("POOL_SIZE must be positive, got %d", c.PoolSize)
	}
	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("decoder search parameters are invalid: %w", err)
	}
	if c.RawSampleRate <= 0 {
		return fmt.Errorf("RAW_SAMPLE_RATE must be positive, got %d", c.RawSampleRate)
	}
	if c.OpusChannels != 1 && c.OpusChannels != 2 {
		return fmt.Errorf("OPUS_CHANNELS must be 1 or 2, got %d", c.OpusChannels)
	}
	if c.DefaultNBest <= 0 {
		return fmt.Errorf("DEFAULT_N_BEST must be positive, got %d", c.DefaultNBest)
	}
	if c.DefaultChunkSeconds < 0 {
		return fmt.Errorf("DEFAULT_CHUNK_SECONDS must not be negative, got %v", c.DefaultChunkSeconds)
	}
	if c.FinalizeTimeout <= 0 {
		return fmt.Errorf("FINALIZE_TIMEOUT must be positive, got %s", c.FinalizeTimeout)
	}
	if c.MaxAudioBytes <= 0 {
		return fmt.Errorf("MAX_AUDIO_BYTES must be positive, got %d", c.MaxAudioBytes)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "LISTEN_ADDR", value: c.ListenAddr},
		{name: "MODEL_DIR", value: c.ModelDir},
		{name: "ENGINE_BACKEND", value: c.EngineBackend},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) PersistenceEnabled() bool {
	return c.DatabaseURL != ""
}
