package audio

import (
	"log/slog"

	"github.com/foxseedlab/latticed/internal/audio"
	"github.com/foxseedlab/latticed/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (audio.Readers, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if !OpusAvailable() {
			slog.Warn("opus decoding disabled; rebuild with -tags opus to accept ogg/opus uploads")
		}
		return audio.Readers{
			audio.FormatWAV:  NewWAVReader(),
			audio.FormatRaw:  NewRawReader(cfg.RawSampleRate),
			audio.FormatOpus: NewOpusReader(cfg.OpusChannels),
		}, nil
	})
}
