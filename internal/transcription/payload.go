package transcription

import (
	"time"

	"github.com/foxseedlab/latticed/internal/audio"
	"github.com/foxseedlab/latticed/internal/repository"
	"github.com/foxseedlab/latticed/internal/streaming"
	"github.com/foxseedlab/latticed/internal/webhook"
)

func buildDecodeRecord(requestID string, format audio.Format, opts streaming.Options, out streaming.Outcome, elapsed time.Duration) *repository.DecodeRecord {
	alts := make([]repository.AlternativeRecord, 0, len(out.Result.Alternatives))
	for i, a := range out.Result.Alternatives {
		alts = append(alts, repository.AlternativeRecord{
			Rank:       i + 1,
			Transcript: a.Transcript,
			Confidence: a.Confidence,
			AMScore:    a.AMScore,
			LMScore:    a.LMScore,
		})
	}
	return &repository.DecodeRecord{
		ID:           requestID,
		Format:       string(format),
		SampleRate:   out.SampleRate,
		Channels:     out.Channels,
		Samples:      out.Samples,
		Truncated:    out.Truncated,
		Chunks:       out.Chunks,
		NBest:        opts.NBest,
		ChunkSeconds: opts.ChunkSeconds,
		DurationMs:   elapsed.Milliseconds(),
		Alternatives: alts,
		CreatedAt:    time.Now().UTC(),
	}
}

func buildDecodeWebhookPayload(rec *repository.DecodeRecord) webhook.DecodeWebhookPayload {
	alts := make([]webhook.DecodeWebhookAlternative, 0, len(rec.Alternatives))
	for _, a := range rec.Alternatives {
		alts = append(alts, webhook.DecodeWebhookAlternative{
			Rank:       a.Rank,
			Transcript: a.Transcript,
			Confidence: a.Confidence,
			AMScore:    a.AMScore,
			LMScore:    a.LMScore,
		})
	}
	transcript := ""
	if len(alts) > 0 {
		transcript = alts[0].Transcript
	}
	return webhook.DecodeWebhookPayload{
		SchemaVersion: webhook.DecodeWebhookSchemaVersion,
		RequestID:     rec.ID,
		Format:        rec.Format,
		SampleRate:    rec.SampleRate,
		Samples:       rec.Samples,
		AudioSeconds:  audioSeconds(rec.Samples, rec.SampleRate),
		Truncated:     rec.Truncated,
		Transcript:    transcript,
		Alternatives:  alts,
		DecodedAt:     rec.CreatedAt.Format(time.RFC3339),
	}
}

func audioSeconds(samples, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(samples) / float64(sampleRate)
}
