package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/latticed/internal/config"
	"github.com/foxseedlab/latticed/internal/engine"
	"gopkg.in/yaml.v3"
)

type envConfig struct {
	Env                    string        `env:"ENV" envDefault:"production"`
	ListenAddr             string        `env:"LISTEN_ADDR" envDefault:":8080"`
	ModelDir               string        `env:"MODEL_DIR,required"`
	EngineBackend          string        `env:"ENGINE_BACKEND" envDefault:"stub"`
	PoolSize               int           `env:"POOL_SIZE" envDefault:"4"`
	Beam                   float64       `env:"DECODER_BEAM" envDefault:"13.0"`
	MaxActive              int           `env:"DECODER_MAX_ACTIVE" envDefault:"7000"`
	MinActive              int           `env:"DECODER_MIN_ACTIVE" envDefault:"200"`
	LatticeBeam            float64       `env:"DECODER_LATTICE_BEAM" envDefault:"6.0"`
	AcousticScale          float64       `env:"DECODER_ACOUSTIC_SCALE" envDefault:"1.0"`
	FrameSubsamplingFactor int           `env:"DECODER_FRAME_SUBSAMPLING_FACTOR" envDefault:"3"`
	TuningFile             string        `env:"DECODER_TUNING_FILE"`
	RawSampleRate          int           `env:"RAW_SAMPLE_RATE" envDefault:"8000"`
	OpusChannels           int           `env:"OPUS_CHANNELS" envDefault:"1"`
	DefaultNBest           int           `env:"DEFAULT_N_BEST" envDefault:"5"`
	DefaultChunkSeconds    float64       `env:"DEFAULT_CHUNK_SECONDS" envDefault:"1.0"`
	FinalizeTimeout        time.Duration `env:"FINALIZE_TIMEOUT" envDefault:"30s"`
	MaxAudioBytes          int64         `env:"MAX_AUDIO_BYTES" envDefault:"67108864"`
	DatabaseURL            string        `env:"DATABASE_URL"`
	TranscriptWebhookURL   string        `env:"TRANSCRIPT_WEBHOOK_URL"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:           raw.Env,
		ListenAddr:    raw.ListenAddr,
		ModelDir:      raw.ModelDir,
		EngineBackend: raw.EngineBackend,
		PoolSize:      raw.PoolSize,
		Search: engine.SearchParams{
			Beam:                   raw.Beam,
			MaxActive:              raw.MaxActive,
			MinActive:              raw.MinActive,
			LatticeBeam:            raw.LatticeBeam,
			AcousticScale:          raw.AcousticScale,
			FrameSubsamplingFactor: raw.FrameSubsamplingFactor,
		},
		TuningFile:           raw.TuningFile,
		RawSampleRate:        raw.RawSampleRate,
		OpusChannels:         raw.OpusChannels,
		DefaultNBest:         raw.DefaultNBest,
		DefaultChunkSeconds:  raw.DefaultChunkSeconds,
		FinalizeTimeout:      raw.FinalizeTimeout,
		MaxAudioBytes:        raw.MaxAudioBytes,
		DatabaseURL:          raw.DatabaseURL,
		TranscriptWebhookURL: raw.TranscriptWebhookURL,
	}
	if cfg.TuningFile != "" {
		search, err := applyTuningFile(cfg.TuningFile, cfg.Search)
		if err != nil {
			return nil, err
		}
		cfg.Search = search
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyTuningFile overlays the YAML keys present in path onto base. Keys that
// are absent keep their environment value.
func applyTuningFile(path string, base engine.SearchParams) (engine.SearchParams, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read DECODER_TUNING_FILE: %w", err)
	}
	out := base
	if err := yaml.Unmarshal(b, &out); err != nil {
		return base, fmt.Errorf("parse DECODER_TUNING_FILE %s: %w", path, err)
	}
	return out, nil
}
