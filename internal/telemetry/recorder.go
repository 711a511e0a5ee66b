package telemetry

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Recorder tracks service-wide decode counters. All methods are safe for
// concurrent use and tolerate a nil receiver.
type Recorder struct {
	log *slog.Logger

	totalDecodes     atomic.Uint64
	activeDecodes    atomic.Int64
	totalFeeds       atomic.Uint64
	totalSamples     atomic.Uint64
	emptyResults     atomic.Uint64
	truncatedUploads atomic.Uint64
	rejectedUploads  atomic.Uint64
	poolWaitNanos    atomic.Int64
	decodeNanos      atomic.Int64
}

// Snapshot is an immutable view of the recorder totals.
type Snapshot struct {
	TotalDecodes     uint64  `json:"total_decodes"`
	ActiveDecodes    int64   `json:"active_decodes"`
	TotalFeeds       uint64  `json:"total_feeds"`
	TotalSamples     uint64  `json:"total_samples"`
	EmptyResults     uint64  `json:"empty_results"`
	TruncatedUploads uint64  `json:"truncated_uploads"`
	RejectedUploads  uint64  `json:"rejected_uploads"`
	PoolWaitMs       float64 `json:"pool_wait_ms"`
	DecodeMs         float64 `json:"decode_ms"`
}

func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		log: logger.With("component", "telemetry.Recorder"),
	}
}

func (r *Recorder) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	return Snapshot{
		TotalDecodes:     r.totalDecodes.Load(),
		ActiveDecodes:    r.activeDecodes.Load(),
		TotalFeeds:       r.totalFeeds.Load(),
		TotalSamples:     r.totalSamples.Load(),
		EmptyResults:     r.emptyResults.Load(),
		TruncatedUploads: r.truncatedUploads.Load(),
		RejectedUploads:  r.rejectedUploads.Load(),
		PoolWaitMs:       durationMs(r.poolWaitNanos.Load()),
		DecodeMs:         durationMs(r.decodeNanos.Load()),
	}
}

// DecodeMetrics accumulates statistics for one decode request.
type DecodeMetrics struct {
	recorder *Recorder
	log      *slog.Logger

	started time.Time
	feeds   int
	samples int
	closed  atomic.Bool
}

func (r *Recorder) StartDecode(requestID string) *DecodeMetrics {
	if r == nil {
		return nil
	}
	r.totalDecodes.Add(1)
	r.activeDecodes.Add(1)
	return &DecodeMetrics{
		recorder: r,
		log:      r.log.With("request_id", requestID),
		started:  time.Now(),
	}
}

func (r *Recorder) RecordRejected() {
	if r == nil {
		return
	}
	r.rejectedUploads.Add(1)
}

func (m *DecodeMetrics) RecordPoolWait(d time.Duration) {
	if m == nil {
		return
	}
	m.recorder.poolWaitNanos.Add(int64(d))
	if d > time.Second {
		m.log.Warn("waited long for a decoding session", "wait_ms", d.Milliseconds())
	}
}

func (m *DecodeMetrics) RecordFeed(samples int) {
	if m == nil {
		return
	}
	m.feeds++
	m.samples += samples
	m.recorder.totalFeeds.Add(1)
	m.recorder.totalSamples.Add(uint64(samples))
}

func (m *DecodeMetrics) RecordTruncated() {
	if m == nil {
		return
	}
	m.recorder.truncatedUploads.Add(1)
}

// Finish closes the metrics. Only the first call counts.
func (m *DecodeMetrics) Finish(alternatives int) {
	if m == nil || !m.closed.CompareAndSwap(false, true) {
		return
	}
	elapsed := time.Since(m.started)
	m.recorder.activeDecodes.Add(-1)
	m.recorder.decodeNanos.Add(int64(elapsed))
	if alternatives == 0 {
		m.recorder.emptyResults.Add(1)
	}
	m.log.Debug("decode finished",
		"feeds", m.feeds,
		"samples", m.samples,
		"alternatives", alternatives,
		"elapsed_ms", elapsed.Milliseconds())
}

// LogSummary writes the cumulative totals, typically at shutdown.
func (r *Recorder) LogSummary() {
	if r == nil {
		return
	}
	s := r.Snapshot()
	r.log.Info("decode telemetry summary",
		"total_decodes", s.TotalDecodes,
		"total_feeds", s.TotalFeeds,
		"total_samples", s.TotalSamples,
		"empty_results", s.EmptyResults,
		"truncated_uploads", s.TruncatedUploads,
		"rejected_uploads", s.RejectedUploads)
}

func durationMs(nanos int64) float64 {
	return float64(nanos) / float64(time.Millisecond)
}
