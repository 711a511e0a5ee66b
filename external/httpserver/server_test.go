package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/foxseedlab/latticed/internal/audio"
	"github.com/foxseedlab/latticed/internal/hypothesis"
	"github.com/foxseedlab/latticed/internal/repository"
	"github.com/foxseedlab/latticed/internal/session"
	"github.com/foxseedlab/latticed/internal/streaming"
	"github.com/foxseedlab/latticed/internal/transcription"
)

type mockTranscriber struct {
	gotReq  transcription.Request
	gotBody string
	err     error
	records map[string]*repository.DecodeRecord
}

func (m *mockTranscriber) Transcribe(_ context.Context, req transcription.Request) (*transcription.Response, error) {
	m.gotReq = req
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	m.gotBody = string(body)
	if m.err != nil {
		return nil, m.err
	}
	return &transcription.Response{
		RequestID: "req-1",
		Format:    req.Format,
		Outcome: streaming.Outcome{
			SampleRate: 8000,
			Samples:    len(body) / 2,
			Result: hypothesis.Result{Alternatives: []hypothesis.Alternative{
				{Transcript: "hello", Confidence: 0.9, AMScore: 1, LMScore: 2},
			}},
		},
	}, nil
}

func (m *mockTranscriber) Lookup(_ context.Context, id string) (*repository.DecodeRecord, error) {
	if rec, ok := m.records[id]; ok {
		return rec, nil
	}
	return nil, transcription.ErrNotFound
}

func (m *mockTranscriber) Stats() transcription.Stats {
	return transcription.Stats{Pool: session.Stats{Size: 4, Available: 3, InFlight: 1}}
}

func TestDecode_Success(t *testing.T) {
	svc := &mockTranscriber{}
	srv := httptest.NewServer(NewHandler(svc, 1024))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/decode?format=raw&n_best=3&chunk_seconds=0.5", "application/octet-stream", strings.NewReader("abcdef"))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	var body decodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.RequestID != "req-1" || len(body.Alternatives) != 1 || body.Alternatives[0].Transcript != "hello" {
		t.Fatalf("unexpected response: %+v", body)
	}
	if svc.gotReq.Format != audio.FormatRaw || svc.gotReq.NBest != 3 || *svc.gotReq.ChunkSeconds != 0.5 {
		t.Fatalf("unexpected parsed request: %+v", svc.gotReq)
	}
	if svc.gotReq.DeclaredBytes != 6 || svc.gotBody != "abcdef" {
		t.Fatalf("unexpected body handling: declared=%d body=%q", svc.gotReq.DeclaredBytes, svc.gotBody)
	}
}

func TestDecode_DeclaredBytesOverride(t *testing.T) {
	svc := &mockTranscriber{}
	srv := httptest.NewServer(NewHandler(svc, 1024))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/decode?format=raw&bytes=100", "application/octet-stream", strings.NewReader("ab"))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if svc.gotReq.DeclaredBytes != 100 {
		t.Fatalf("expected declared bytes 100, got %d", svc.gotReq.DeclaredBytes)
	}
	if svc.gotReq.ChunkSeconds != nil || svc.gotReq.NBest != 0 {
		t.Fatalf("expected defaults to be left to the service, got %+v", svc.gotReq)
	}
}

func TestDecode_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name  string
		query string
		body  string
		err   error
		want  int
	}{
		{name: "unknown format", query: "format=mp3", want: http.StatusBadRequest},
		{name: "bad n_best", query: "format=wav&n_best=0", want: http.StatusBadRequest},
		{name: "bad chunk seconds", query: "format=wav&chunk_seconds=abc", want: http.StatusBadRequest},
		{name: "bad bytes", query: "format=raw&bytes=-3", want: http.StatusBadRequest},
		{name: "declared too large", query: "format=raw&bytes=4096", want: http.StatusRequestEntityTooLarge},
		{name: "body too large", query: "format=wav", body: strings.Repeat("x", 2048), want: http.StatusRequestEntityTooLarge},
		{name: "malformed audio", query: "format=wav", err: fmt.Errorf("parse wav audio: %w", audio.ErrMalformedHeader), want: http.StatusBadRequest},
		{name: "waited too long", query: "format=wav", err: context.DeadlineExceeded, want: http.StatusServiceUnavailable},
		{name: "pool closed", query: "format=wav", err: session.ErrPoolClosed, want: http.StatusServiceUnavailable},
		{name: "unexpected", query: "format=wav", err: fmt.Errorf("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockTranscriber{err: tt.err}
			srv := httptest.NewServer(NewHandler(svc, 1024))
			defer srv.Close()

			resp, err := http.Post(srv.URL+"/v1/decode?"+tt.query, "application/octet-stream", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, resp.StatusCode)
			}
			var body map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body["error"] == "" {
				t.Fatalf("expected json error body, got %v %v", body, err)
			}
		})
	}
}

func TestGetDecode(t *testing.T) {
	svc := &mockTranscriber{records: map[string]*repository.DecodeRecord{
		"abc": {
			ID:         "abc",
			Format:     "wav",
			SampleRate: 16000,
			CreatedAt:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			Alternatives: []repository.AlternativeRecord{
				{Rank: 1, Transcript: "stored", Confidence: 0.5},
			},
		},
	}}
	srv := httptest.NewServer(NewHandler(svc, 1024))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/decodes/abc")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	var body recordResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.RequestID != "abc" || len(body.Alternatives) != 1 || body.Alternatives[0].Transcript != "stored" {
		t.Fatalf("unexpected body: %+v", body)
	}

	missing, err := http.Get(srv.URL + "/v1/decodes/nope")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.StatusCode)
	}
}

func TestStatsAndHealth(t *testing.T) {
	srv := httptest.NewServer(NewHandler(&mockTranscriber{}, 1024))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/stats")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	var st transcription.Stats
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if st.Pool.Size != 4 || st.Pool.InFlight != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}

	health, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Fatalf("unexpected health status: %d", health.StatusCode)
	}

	wrongMethod, err := http.Get(srv.URL + "/v1/decode")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	wrongMethod.Body.Close()
	if wrongMethod.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", wrongMethod.StatusCode)
	}
}
