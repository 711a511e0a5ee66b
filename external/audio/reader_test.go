package audio

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/foxseedlab/latticed/internal/audio"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func rawBytes(samples ...int16) []byte {
	b := make([]byte, 0, len(samples)*2)
	for _, s := range samples {
		b = append(b, byte(uint16(s)), byte(uint16(s)>>8))
	}
	return b
}

func TestRawReader_DeclaredLength(t *testing.T) {
	body := rawBytes(1, -2, 300, -32768)
	clip, err := NewRawReader(8000).Read(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float32{1, -2, 300, -32768}
	if len(clip.Samples) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(clip.Samples))
	}
	for i := range want {
		if clip.Samples[i] != want[i] {
			t.Fatalf("sample %d: expected %v, got %v", i, want[i], clip.Samples[i])
		}
	}
	if clip.SampleRate != 8000 || clip.Channels != 1 || clip.Truncated {
		t.Fatalf("unexpected clip metadata: %+v", clip)
	}
}

func TestRawReader_ShortReadIsTruncatedNotFatal(t *testing.T) {
	body := rawBytes(5, 6, 7)
	clip, err := NewRawReader(8000).Read(bytes.NewReader(body), 100)
	if err != nil {
		t.Fatalf("expected short read to be tolerated, got %v", err)
	}
	if !clip.Truncated {
		t.Fatal("expected truncated flag")
	}
	if len(clip.Samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(clip.Samples))
	}
}

func TestRawReader_DropsOddTrailingByte(t *testing.T) {
	body := append(rawBytes(9, 10), 0x7f)
	clip, err := NewRawReader(16000).Read(bytes.NewReader(body), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clip.Samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(clip.Samples))
	}
}

func TestRawReader_ReadsOnlyDeclaredBytes(t *testing.T) {
	body := rawBytes(1, 2, 3, 4)
	clip, err := NewRawReader(8000).Read(bytes.NewReader(body), 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clip.Samples) != 2 || clip.Truncated {
		t.Fatalf("unexpected clip: %+v", clip)
	}
}

func writeWAV(t *testing.T, sampleRate, bitDepth, channels int, data []int) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create wav: %v", err)
	}
	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("failed to write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("failed to close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close file: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read wav: %v", err)
	}
	return b
}

func TestWAVReader_KeepsFirstChannelOnly(t *testing.T) {
	body := writeWAV(t, 16000, 16, 2, []int{100, -1, 200, -1, 300, -1})
	clip, err := NewWAVReader().Read(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clip.SampleRate != 16000 || clip.Channels != 2 {
		t.Fatalf("unexpected clip metadata: %+v", clip)
	}
	want := []float32{100, 200, 300}
	if len(clip.Samples) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(clip.Samples))
	}
	for i := range want {
		if clip.Samples[i] != want[i] {
			t.Fatalf("sample %d: expected %v, got %v", i, want[i], clip.Samples[i])
		}
	}
}

func TestWAVReader_MalformedHeader(t *testing.T) {
	_, err := NewWAVReader().Read(strings.NewReader("definitely not riff"), -1)
	if !errors.Is(err, audio.ErrMalformedHeader) {
		t.Fatalf("expected ErrMalformedHeader, got %v", err)
	}
}

func TestToInt16Scale(t *testing.T) {
	if got := toInt16Scale(128, 8); got != 0 {
		t.Fatalf("expected 8-bit midpoint to map to 0, got %v", got)
	}
	if got := toInt16Scale(1<<16, 24); got != 256 {
		t.Fatalf("expected 24-bit value to shift down, got %v", got)
	}
	if got := toInt16Scale(-5, 16); got != -5 {
		t.Fatalf("expected 16-bit value unchanged, got %v", got)
	}
}
