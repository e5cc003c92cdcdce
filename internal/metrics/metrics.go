// Package metrics provides application-level metrics collection.
// This is a lightweight metrics foundation using atomic counters.
package metrics

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Metrics holds application metrics using atomic counters for thread safety.
type Metrics struct {
	// Split metrics
	splitsTotal   atomic.Int64
	splitErrors   atomic.Int64
	sharesWritten atomic.Int64

	// Combine metrics
	combinesTotal    atomic.Int64
	combineErrors    atomic.Int64
	secretsRecovered atomic.Int64
	combineLatency   atomic.Int64
	shareFilesRead   atomic.Int64
	shareFileErrors  atomic.Int64
}

// Global is the global metrics instance.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// RecordSplit records a split and the number of shares it wrote.
func (m *Metrics) RecordSplit(shares int, err error) {
	m.splitsTotal.Add(1)
	if err != nil {
		m.splitErrors.Add(1)
		return
	}
	m.sharesWritten.Add(int64(shares))
}

// RecordCombine records a reconstruction run with its duration and the
// number of secrets it recovered.
func (m *Metrics) RecordCombine(duration time.Duration, recovered int, err error) {
	m.combinesTotal.Add(1)
	m.combineLatency.Add(duration.Nanoseconds())
	if err != nil {
		m.combineErrors.Add(1)
		return
	}
	m.secretsRecovered.Add(int64(recovered))
}

// RecordShareFile records loading one participant file.
func (m *Metrics) RecordShareFile(err error) {
	m.shareFilesRead.Add(1)
	if err != nil {
		m.shareFileErrors.Add(1)
	}
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	SplitsTotal      int64
	SplitErrors      int64
	SharesWritten    int64
	CombinesTotal    int64
	CombineErrors    int64
	SecretsRecovered int64
	CombineNanos     int64
	ShareFilesRead   int64
	ShareFileErrors  int64
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		SplitsTotal:      m.splitsTotal.Load(),
		SplitErrors:      m.splitErrors.Load(),
		SharesWritten:    m.sharesWritten.Load(),
		CombinesTotal:    m.combinesTotal.Load(),
		CombineErrors:    m.combineErrors.Load(),
		SecretsRecovered: m.secretsRecovered.Load(),
		CombineNanos:     m.combineLatency.Load(),
		ShareFilesRead:   m.shareFilesRead.Load(),
		ShareFileErrors:  m.shareFileErrors.Load(),
	}
}

// IsZero reports whether nothing has been recorded.
func (s Snapshot) IsZero() bool {
	return s == Snapshot{}
}

// Attrs renders the snapshot as log attributes.
func (s Snapshot) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.Int64("splits", s.SplitsTotal),
		slog.Int64("split_errors", s.SplitErrors),
		slog.Int64("shares_written", s.SharesWritten),
		slog.Int64("combines", s.CombinesTotal),
		slog.Int64("combine_errors", s.CombineErrors),
		slog.Int64("secrets_recovered", s.SecretsRecovered),
		slog.Duration("combine_time", time.Duration(s.CombineNanos)),
		slog.Int64("share_files_read", s.ShareFilesRead),
		slog.Int64("share_file_errors", s.ShareFileErrors),
	}
}

// CombineLatencyAvgMs returns the average reconstruction time in
// milliseconds, or 0 when nothing was combined.
func (m *Metrics) CombineLatencyAvgMs() float64 {
	runs := m.combinesTotal.Load()
	if runs == 0 {
		return 0
	}
	return float64(m.combineLatency.Load()) / float64(runs) / 1e6
}

// Reset resets all metrics to zero.
func (m *Metrics) Reset() {
	m.splitsTotal.Store(0)
	m.splitErrors.Store(0)
	m.sharesWritten.Store(0)
	m.combinesTotal.Store(0)
	m.combineErrors.Store(0)
	m.secretsRecovered.Store(0)
	m.combineLatency.Store(0)
	m.shareFilesRead.Store(0)
	m.shareFileErrors.Store(0)
}
