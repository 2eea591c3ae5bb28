package quadstore

import (
	"context"
	"time"

	"github.com/hupe1980/quadstore/internal/index"
	"github.com/hupe1980/quadstore/internal/nodetable"
	"github.com/hupe1980/quadstore/internal/resource"
	"github.com/hupe1980/quadstore/internal/txn"
)

// TxnType is the kind of transaction requested at begin.
type TxnType = txn.Type

const (
	// TxnRead is a read-only transaction.
	TxnRead = txn.TypeRead
	// TxnWrite is a write transaction. Only one runs at a time.
	TxnWrite = txn.TypeWrite
	// TxnReadPromote reads and may promote to a writer if nothing was
	// committed since it began.
	TxnReadPromote = txn.TypeReadPromote
	// TxnReadCommittedPromote reads and may always promote to a writer,
	// moving to the latest committed state.
	TxnReadCommittedPromote = txn.TypeReadCommittedPromote
)

// TxnMode is the current access mode of a transaction.
type TxnMode = txn.Mode

const (
	ModeRead  = txn.ModeRead
	ModeWrite = txn.ModeWrite
)

// Approximate bytes one tuple occupies in one index table.
const tableEntryBytes = 64

const (
	quadBytes   = index.NumQuadForms * tableEntryBytes
	tripleBytes = index.NumTripleForms * tableEntryBytes
	prefixBytes = tableEntryBytes
)

// state is the data of one committed generation. Every field is persistent
// and never mutated once published.
type state struct {
	quads    index.HexRoot
	triples  index.TriRoot
	prefixes *prefixRoot
}

func emptyState() state {
	return state{
		quads:    index.EmptyHexRoot(),
		triples:  index.EmptyTriRoot(),
		prefixes: emptyPrefixRoot(),
	}
}

func (s state) footprint() int64 {
	n := int64(s.quads.Len())*quadBytes + int64(s.triples.Len())*tripleBytes
	itr := s.prefixes.Iterator()
	for !itr.Done() {
		_, t, _ := itr.Next()
		n += int64(t.Len()) * prefixBytes
	}
	return n
}

// Dataset is an in-memory, transactional RDF dataset: a default graph plus
// any number of named graphs.
//
// Any number of readers run concurrently with at most one writer. Readers
// never block and see the state committed when they began; a writer's
// changes become visible atomically on commit.
type Dataset struct {
	coord   *txn.Coordinator[state]
	nodes   *nodetable.Table
	rc      *resource.Controller
	logger  *Logger
	metrics MetricsCollector
}

// New creates an empty dataset.
func New(optFns ...Option) *Dataset {
	o := applyOptions(optFns)

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes: o.memoryLimit,
		WritesPerSecond:  o.writesPerSecond,
		WriteBurst:       o.writeBurst,
	})

	return &Dataset{
		coord:   txn.New(emptyState(), rc),
		nodes:   nodetable.New(),
		rc:      rc,
		logger:  o.logger,
		metrics: o.metricsCollector,
	}
}

// Begin starts a transaction. A write transaction waits until the current
// writer finishes; writers are admitted in arrival order.
func (ds *Dataset) Begin(ctx context.Context, typ TxnType) (*Txn, error) {
	start := time.Now()
	tx, err := ds.coord.Begin(ctx, typ)
	return ds.started(ctx, typ, tx, start, err)
}

// TryBegin starts a transaction without waiting. It returns ErrWouldBlock
// if another writer is active or the dataset is in exclusive mode.
func (ds *Dataset) TryBegin(typ TxnType) (*Txn, error) {
	start := time.Now()
	tx, err := ds.coord.TryBegin(typ)
	return ds.started(context.Background(), typ, tx, start, err)
}

func (ds *Dataset) started(ctx context.Context, typ TxnType, tx *txn.Transaction[state], start time.Time, err error) (*Txn, error) {
	ds.metrics.RecordBegin(typ, time.Since(start), err)
	if err != nil {
		err = translateError(err)
		ds.logger.LogBegin(ctx, typ, err)
		return nil, err
	}
	t := newTxn(ds, tx, start)
	t.log.LogBegin(ctx, typ, nil)
	return t, nil
}

// View runs fn in a read transaction.
func (ds *Dataset) View(ctx context.Context, fn func(tx *Txn) error) error {
	tx, err := ds.Begin(ctx, TxnRead)
	if err != nil {
		return err
	}
	defer tx.End()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Update runs fn in a write transaction and commits it if fn returns nil.
// Otherwise the transaction is aborted and fn's error returned.
func (ds *Dataset) Update(ctx context.Context, fn func(tx *Txn) error) error {
	tx, err := ds.Begin(ctx, TxnWrite)
	if err != nil {
		return err
	}
	defer tx.End()

	if err := fn(tx); err != nil {
		_ = tx.Abort()
		return err
	}
	return tx.Commit()
}

// Session returns a new session bound to this dataset.
func (ds *Dataset) Session() *Session {
	return &Session{ds: ds}
}

// Exclusive waits for all running transactions to finish and runs fn while
// no transaction can begin. fn must not begin transactions on ds.
func (ds *Dataset) Exclusive(fn func() error) error {
	return ds.coord.Exclusive(fn)
}

// TryExclusive is like Exclusive but returns ErrWouldBlock instead of
// waiting for running transactions.
func (ds *Dataset) TryExclusive(fn func() error) error {
	if !ds.coord.TryExclusive() {
		return ErrWouldBlock
	}
	defer ds.coord.FinishExclusive()
	return fn()
}

// Version returns the number of commits that changed the dataset.
func (ds *Dataset) Version() uint64 {
	return ds.coord.Version()
}

// Stats describes the dataset and its transaction activity.
type Stats struct {
	Version       uint64
	Quads         int
	Triples       int
	Graphs        int
	Nodes         int
	MemoryBytes   int64
	MemoryPeak    int64
	MemoryLimit   int64
	MemoryRejects int64
	ActiveReaders int64
	ActiveWriters int64
	Begins        int64
	Commits       int64
	Aborts        int64
	Promotions    int64
}

// Stats returns a point-in-time snapshot of dataset statistics.
func (ds *Dataset) Stats() Stats {
	cs := ds.coord.Stats()
	cur := ds.coord.Current().Data
	mem := ds.rc.Usage()
	return Stats{
		Version:       cs.Version,
		Quads:         cur.quads.Len(),
		Triples:       cur.triples.Len(),
		Graphs:        cur.quads.GraphCount(),
		Nodes:         ds.nodes.Len(),
		MemoryBytes:   mem.Used,
		MemoryPeak:    mem.Peak,
		MemoryLimit:   mem.Limit,
		MemoryRejects: mem.Rejected,
		ActiveReaders: cs.ActiveReaders,
		ActiveWriters: cs.ActiveWriters,
		Begins:        cs.Begins,
		Commits:       cs.Commits,
		Aborts:        cs.Aborts,
		Promotions:    cs.Promotions,
	}
}
