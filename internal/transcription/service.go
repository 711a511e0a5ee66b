// Package transcription is the request-level use case: decode an upload,
// store the record, notify the webhook.
package transcription

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/foxseedlab/latticed/internal/audio"
	"github.com/foxseedlab/latticed/internal/repository"
	"github.com/foxseedlab/latticed/internal/session"
	"github.com/foxseedlab/latticed/internal/streaming"
	"github.com/foxseedlab/latticed/internal/telemetry"
	"github.com/foxseedlab/latticed/internal/webhook"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("transcription: decode record not found")

type Decoder interface {
	DecodeStream(ctx context.Context, r io.Reader, format audio.Format, declaredBytes int64, opts streaming.Options) (streaming.Outcome, error)
}

type PoolStats interface {
	Stats() session.Stats
}

// Request is one upload. Zero NBest and nil ChunkSeconds select the
// configured defaults; an explicit zero ChunkSeconds decodes in one chunk.
type Request struct {
	Format        audio.Format
	Body          io.Reader
	DeclaredBytes int64
	NBest         int
	ChunkSeconds  *float64
}

type Response struct {
	RequestID string
	Format    audio.Format
	Outcome   streaming.Outcome
}

type Stats struct {
	Pool      session.Stats      `json:"pool"`
	Telemetry telemetry.Snapshot `json:"telemetry"`
}

type Service struct {
	decoder             Decoder
	pool                PoolStats
	repo                repository.Repository
	webhook             webhook.Sender
	recorder            *telemetry.Recorder
	defaultNBest        int
	defaultChunkSeconds float64

	deliveries sync.WaitGroup
}

type Options struct {
	DefaultNBest        int
	DefaultChunkSeconds float64
}

func NewService(decoder Decoder, pool PoolStats, repo repository.Repository, wh webhook.Sender, recorder *telemetry.Recorder, opts Options) *Service {
	return &Service{
		decoder:             decoder,
		pool:                pool,
		repo:                repo,
		webhook:             wh,
		recorder:            recorder,
		defaultNBest:        opts.DefaultNBest,
		defaultChunkSeconds: opts.DefaultChunkSeconds,
	}
}

func (s *Service) Transcribe(ctx context.Context, req Request) (*Response, error) {
	requestID := uuid.NewString()
	opts := streaming.Options{
		RequestID:    requestID,
		NBest:        s.defaultNBest,
		ChunkSeconds: s.defaultChunkSeconds,
	}
	if req.NBest != 0 {
		opts.NBest = req.NBest
	}
	if req.ChunkSeconds != nil {
		opts.ChunkSeconds = *req.ChunkSeconds
	}

	started := time.Now()
	out, err := s.decoder.DecodeStream(ctx, req.Body, req.Format, req.DeclaredBytes, opts)
	if err != nil {
		slog.Warn("decode request failed", "request_id", requestID, "format", req.Format, "error", err)
		return nil, err
	}
	elapsed := time.Since(started)

	// The client may already be gone; the record and webhook still go out.
	detached := context.WithoutCancel(ctx)
	record := buildDecodeRecord(requestID, req.Format, opts, out, elapsed)
	if err := s.repo.SaveDecode(detached, record); err != nil {
		slog.Error("failed to save decode record", "error", err, "request_id", requestID)
	}
	s.deliverWebhook(detached, record)

	slog.Info("decode completed",
		"request_id", requestID,
		"format", req.Format,
		"sample_rate", out.SampleRate,
		"samples", out.Samples,
		"chunks", out.Chunks,
		"alternatives", len(out.Result.Alternatives),
		"truncated", out.Truncated,
		"elapsed_ms", elapsed.Milliseconds())

	return &Response{RequestID: requestID, Format: req.Format, Outcome: out}, nil
}

func (s *Service) deliverWebhook(ctx context.Context, record *repository.DecodeRecord) {
	payload := buildDecodeWebhookPayload(record)
	s.deliveries.Add(1)
	go func() {
		defer s.deliveries.Done()
		if err := s.webhook.SendDecode(ctx, payload); err != nil {
			slog.Error("failed to send decode webhook", "error", err, "request_id", record.ID)
		}
	}()
}

// Lookup returns a stored decode record. Unknown or malformed ids yield
// ErrNotFound.
func (s *Service) Lookup(ctx context.Context, id string) (*repository.DecodeRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	rec, err := s.repo.GetDecode(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (s *Service) Stats() Stats {
	return Stats{
		Pool:      s.pool.Stats(),
		Telemetry: s.recorder.Snapshot(),
	}
}

// Shutdown waits for in-flight webhook deliveries and logs the totals.
func (s *Service) Shutdown() {
	s.deliveries.Wait()
	s.recorder.LogSummary()
}
