package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/foxseedlab/latticed/internal/audio"
	"github.com/foxseedlab/latticed/internal/repository"
	"github.com/foxseedlab/latticed/internal/session"
	"github.com/foxseedlab/latticed/internal/streaming"
	"github.com/foxseedlab/latticed/internal/transcription"
)

const readHeaderTimeout = 10 * time.Second

type Transcriber interface {
	Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error)
	Lookup(ctx context.Context, id string) (*repository.DecodeRecord, error)
	Stats() transcription.Stats
}

type handler struct {
	svc           Transcriber
	maxAudioBytes int64
}

func New(addr string, svc Transcriber, maxAudioBytes int64) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewHandler(svc, maxAudioBytes),
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func NewHandler(svc Transcriber, maxAudioBytes int64) http.Handler {
	h := &handler{svc: svc, maxAudioBytes: maxAudioBytes}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/decode", h.decode)
	mux.HandleFunc("GET /v1/decodes/{id}", h.getDecode)
	mux.HandleFunc("GET /v1/stats", h.stats)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return logRequests(mux)
}

type alternativeResponse struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
	AMScore    float64 `json:"am_score"`
	LMScore    float64 `json:"lm_score"`
}

type decodeResponse struct {
	RequestID    string                `json:"request_id"`
	Alternatives []alternativeResponse `json:"alternatives"`
	SampleRate   int                   `json:"sample_rate"`
	Samples      int                   `json:"samples"`
	Truncated    bool                  `json:"truncated"`
}

type recordResponse struct {
	RequestID    string                `json:"request_id"`
	Format       string                `json:"format"`
	Alternatives []alternativeResponse `json:"alternatives"`
	SampleRate   int                   `json:"sample_rate"`
	Samples      int                   `json:"samples"`
	Truncated    bool                  `json:"truncated"`
	CreatedAt    time.Time             `json:"created_at"`
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseDecodeRequest(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	req.Body = http.MaxBytesReader(w, r.Body, h.maxAudioBytes)

	resp, err := h.svc.Transcribe(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	alts := make([]alternativeResponse, 0, len(resp.Outcome.Result.Alternatives))
	for _, a := range resp.Outcome.Result.Alternatives {
		alts = append(alts, alternativeResponse{
			Transcript: a.Transcript,
			Confidence: a.Confidence,
			AMScore:    a.AMScore,
			LMScore:    a.LMScore,
		})
	}
	writeJSON(w, http.StatusOK, decodeResponse{
		RequestID:    resp.RequestID,
		Alternatives: alts,
		SampleRate:   resp.Outcome.SampleRate,
		Samples:      resp.Outcome.Samples,
		Truncated:    resp.Outcome.Truncated,
	})
}

var errTooLarge = errors.New("audio exceeds upload limit")

func (h *handler) parseDecodeRequest(r *http.Request) (transcription.Request, error) {
	q := r.URL.Query()
	format, err := audio.ParseFormat(q.Get("format"))
	if err != nil {
		return transcription.Request{}, err
	}
	req := transcription.Request{Format: format, DeclaredBytes: r.ContentLength}

	if v := q.Get("n_best"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return transcription.Request{}, fmt.Errorf("%w: n_best must be a positive integer, got %q", streaming.ErrInvalidOptions, v)
		}
		req.NBest = n
	}
	if v := q.Get("chunk_seconds"); v != "" {
		sec, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return transcription.Request{}, fmt.Errorf("%w: chunk_seconds must be a number, got %q", streaming.ErrInvalidOptions, v)
		}
		req.ChunkSeconds = &sec
	}
	if v := q.Get("bytes"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return transcription.Request{}, fmt.Errorf("%w: bytes must be a non-negative integer, got %q", streaming.ErrInvalidOptions, v)
		}
		req.DeclaredBytes = n
	}
	if req.DeclaredBytes > h.maxAudioBytes {
		return transcription.Request{}, fmt.Errorf("%w: %d bytes declared, limit is %d", errTooLarge, req.DeclaredBytes, h.maxAudioBytes)
	}
	return req, nil
}

func (h *handler) getDecode(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Lookup(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	alts := make([]alternativeResponse, 0, len(rec.Alternatives))
	for _, a := range rec.Alternatives {
		alts = append(alts, alternativeResponse{
			Transcript: a.Transcript,
			Confidence: a.Confidence,
			AMScore:    a.AMScore,
			LMScore:    a.LMScore,
		})
	}
	writeJSON(w, http.StatusOK, recordResponse{
		RequestID:    rec.ID,
		Format:       rec.Format,
		Alternatives: alts,
		SampleRate:   rec.SampleRate,
		Samples:      rec.Samples,
		Truncated:    rec.Truncated,
		CreatedAt:    rec.CreatedAt,
	})
}

func (h *handler) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Stats())
}

func statusFor(err error) int {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr), errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, audio.ErrMalformedHeader),
		errors.Is(err, audio.ErrUnsupportedFormat),
		errors.Is(err, streaming.ErrInvalidOptions):
		return http.StatusBadRequest
	case errors.Is(err, transcription.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, session.ErrPoolClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("failed to write response body", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		slog.Error("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed_ms", time.Since(started).Milliseconds())
	})
}
