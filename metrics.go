package quadstore

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// metrics/prometheus package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordBegin is called after each begin.
	// wait is the time spent acquiring the transaction, err is nil if successful.
	RecordBegin(typ TxnType, wait time.Duration, err error)

	// RecordCommit is called after each commit.
	// duration is the lifetime of the transaction, adds and deletes count
	// the tuples changed.
	RecordCommit(mode TxnMode, duration time.Duration, adds, deletes int, err error)

	// RecordAbort is called after each abort, including implicit aborts by End.
	RecordAbort(mode TxnMode, duration time.Duration)

	// RecordFind is called for each find with the index form serving it.
	RecordFind(form string)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

// RecordBegin implements MetricsCollector.
func (NoopMetricsCollector) RecordBegin(TxnType, time.Duration, error) {}

// RecordCommit implements MetricsCollector.
func (NoopMetricsCollector) RecordCommit(TxnMode, time.Duration, int, int, error) {}

// RecordAbort implements MetricsCollector.
func (NoopMetricsCollector) RecordAbort(TxnMode, time.Duration) {}

// RecordFind implements MetricsCollector.
func (NoopMetricsCollector) RecordFind(string) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	BeginCount      atomic.Int64
	BeginErrors     atomic.Int64
	BeginWaitNanos  atomic.Int64
	CommitCount     atomic.Int64
	CommitErrors    atomic.Int64
	CommitTotalNano atomic.Int64
	TuplesAdded     atomic.Int64
	TuplesDeleted   atomic.Int64
	AbortCount      atomic.Int64
	FindCount       atomic.Int64
}

// RecordBegin implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBegin(_ TxnType, wait time.Duration, err error) {
	b.BeginCount.Add(1)
	b.BeginWaitNanos.Add(wait.Nanoseconds())
	if err != nil {
		b.BeginErrors.Add(1)
	}
}

// RecordCommit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCommit(_ TxnMode, duration time.Duration, adds, deletes int, err error) {
	b.CommitCount.Add(1)
	b.CommitTotalNano.Add(duration.Nanoseconds())
	if err != nil {
		b.CommitErrors.Add(1)
		return
	}
	b.TuplesAdded.Add(int64(adds))
	b.TuplesDeleted.Add(int64(deletes))
}

// RecordAbort implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAbort(TxnMode, time.Duration) {
	b.AbortCount.Add(1)
}

// RecordFind implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFind(string) {
	b.FindCount.Add(1)
}

// MetricsStats is a snapshot of BasicMetricsCollector.
type MetricsStats struct {
	BeginCount    int64
	BeginErrors   int64
	AvgBeginWait  time.Duration
	CommitCount   int64
	CommitErrors  int64
	AvgTxnTime    time.Duration
	TuplesAdded   int64
	TuplesDeleted int64
	AbortCount    int64
	FindCount     int64
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() MetricsStats {
	stats := MetricsStats{
		BeginCount:    b.BeginCount.Load(),
		BeginErrors:   b.BeginErrors.Load(),
		CommitCount:   b.CommitCount.Load(),
		CommitErrors:  b.CommitErrors.Load(),
		TuplesAdded:   b.TuplesAdded.Load(),
		TuplesDeleted: b.TuplesDeleted.Load(),
		AbortCount:    b.AbortCount.Load(),
		FindCount:     b.FindCount.Load(),
	}
	if stats.BeginCount > 0 {
		stats.AvgBeginWait = time.Duration(b.BeginWaitNanos.Load() / stats.BeginCount)
	}
	if stats.CommitCount > 0 {
		stats.AvgTxnTime = time.Duration(b.CommitTotalNano.Load() / stats.CommitCount)
	}
	return stats
}
