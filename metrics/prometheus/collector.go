// Package prometheus exports quadstore metrics to Prometheus.
package prometheus

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/quadstore"
)

// Collector implements quadstore.MetricsCollector on Prometheus metrics.
type Collector struct {
	begins      *prom.CounterVec
	beginWait   prom.Histogram
	commits     *prom.CounterVec
	txnDuration *prom.HistogramVec
	aborts      *prom.CounterVec
	tuples      *prom.CounterVec
	finds       *prom.CounterVec
}

var _ quadstore.MetricsCollector = (*Collector)(nil)

// New creates a Collector with metric names prefixed by namespace and
// registers it with reg. A nil reg uses prometheus.DefaultRegisterer.
func New(namespace string, reg prom.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}

	c := &Collector{
		begins: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "txn_begins_total",
			Help:      "Transactions begun, by type and status.",
		}, []string{"type", "status"}),
		beginWait: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "txn_begin_wait_seconds",
			Help:      "Time spent waiting to begin a transaction.",
			Buckets:   prom.DefBuckets,
		}),
		commits: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "txn_commits_total",
			Help:      "Transaction commits, by mode and status.",
		}, []string{"mode", "status"}),
		txnDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "txn_duration_seconds",
			Help:      "Lifetime of committed and aborted transactions.",
			Buckets:   prom.DefBuckets,
		}, []string{"mode", "outcome"}),
		aborts: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "txn_aborts_total",
			Help:      "Transaction aborts, by mode.",
		}, []string{"mode"}),
		tuples: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "tuples_changed_total",
			Help:      "Tuples added or deleted by committed transactions.",
		}, []string{"op"}),
		finds: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "finds_total",
			Help:      "Find calls, by the index form serving them.",
		}, []string{"form"}),
	}

	for _, col := range []prom.Collector{
		c.begins, c.beginWait, c.commits, c.txnDuration, c.aborts, c.tuples, c.finds,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordBegin implements quadstore.MetricsCollector.
func (c *Collector) RecordBegin(typ quadstore.TxnType, wait time.Duration, err error) {
	c.begins.WithLabelValues(typ.String(), status(err)).Inc()
	c.beginWait.Observe(wait.Seconds())
}

// RecordCommit implements quadstore.MetricsCollector.
func (c *Collector) RecordCommit(mode quadstore.TxnMode, d time.Duration, adds, deletes int, err error) {
	c.commits.WithLabelValues(mode.String(), status(err)).Inc()
	if err != nil {
		return
	}
	c.txnDuration.WithLabelValues(mode.String(), "commit").Observe(d.Seconds())
	c.tuples.WithLabelValues("add").Add(float64(adds))
	c.tuples.WithLabelValues("delete").Add(float64(deletes))
}

// RecordAbort implements quadstore.MetricsCollector.
func (c *Collector) RecordAbort(mode quadstore.TxnMode, d time.Duration) {
	c.aborts.WithLabelValues(mode.String()).Inc()
	c.txnDuration.WithLabelValues(mode.String(), "abort").Observe(d.Seconds())
}

// RecordFind implements quadstore.MetricsCollector.
func (c *Collector) RecordFind(form string) {
	c.finds.WithLabelValues(form).Inc()
}
