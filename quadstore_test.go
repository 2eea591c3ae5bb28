package quadstore_test

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/quadstore"
	"github.com/hupe1980/quadstore/model"
)

func ex(name string) model.IRI {
	return model.NewIRI("http://example.org/" + name)
}

func findAll(t *testing.T, tx *quadstore.Txn, g, s, p, o model.Term) []model.Quad {
	t.Helper()
	seq, err := tx.Find(g, s, p, o)
	require.NoError(t, err)
	return slices.Collect(seq)
}

func update(t *testing.T, ds *quadstore.Dataset, fn func(tx *quadstore.Txn) error) {
	t.Helper()
	require.NoError(t, ds.Update(t.Context(), fn))
}

func snapshot(t *testing.T, ds *quadstore.Dataset, g, s, p, o model.Term) []model.Quad {
	t.Helper()
	var out []model.Quad
	require.NoError(t, ds.View(t.Context(), func(tx *quadstore.Txn) error {
		out = findAll(t, tx, g, s, p, o)
		return nil
	}))
	return out
}

func TestRoundTrip(t *testing.T) {
	ds := quadstore.New()
	defer ds.Close()

	q := model.NewQuad(ex("g"), ex("s"), ex("p"), model.NewLiteral("o"))
	d := model.NewQuad(model.DefaultGraph, ex("s"), ex("p"), ex("o"))

	update(t, ds, func(tx *quadstore.Txn) error {
		if err := tx.AddQuad(q); err != nil {
			return err
		}
		return tx.AddQuad(d)
	})
	assert.ElementsMatch(t, []model.Quad{q, d}, snapshot(t, ds, nil, nil, nil, nil))

	tx, err := ds.Begin(t.Context(), quadstore.TxnWrite)
	require.NoError(t, err)
	require.NoError(t, tx.Add(ex("g2"), ex("a"), ex("b"), ex("c")))
	require.NoError(t, tx.Abort())
	tx.End()

	assert.ElementsMatch(t, []model.Quad{q, d}, snapshot(t, ds, nil, nil, nil, nil))
	assert.Equal(t, uint64(1), ds.Version())
}

func TestUpdateAbortsOnError(t *testing.T) {
	ds := quadstore.New()
	boom := errors.New("boom")

	err := ds.Update(t.Context(), func(tx *quadstore.Txn) error {
		require.NoError(t, tx.Add(ex("g"), ex("s"), ex("p"), ex("o")))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, snapshot(t, ds, nil, nil, nil, nil))
	assert.Equal(t, uint64(0), ds.Version())
}

func TestIdempotence(t *testing.T) {
	ds := quadstore.New()

	update(t, ds, func(tx *quadstore.Txn) error {
		for range 2 {
			if err := tx.Add(ex("g"), ex("s"), ex("p"), ex("o")); err != nil {
				return err
			}
		}
		// Deleting absent tuples, including never-seen terms, is a no-op.
		if err := tx.Delete(ex("g"), ex("x"), ex("y"), ex("z")); err != nil {
			return err
		}
		return tx.Delete(ex("nowhere"), ex("s"), ex("p"), ex("o"))
	})

	got := snapshot(t, ds, nil, nil, nil, nil)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, ds.Stats().Quads)
}

func TestIsolation(t *testing.T) {
	ds := quadstore.New()

	reader, err := ds.Begin(t.Context(), quadstore.TxnRead)
	require.NoError(t, err)
	defer reader.End()

	update(t, ds, func(tx *quadstore.Txn) error {
		return tx.Add(ex("g"), ex("s"), ex("p"), ex("o"))
	})

	// The find happens after the commit, but the reader began before it.
	assert.Empty(t, findAll(t, reader, nil, nil, nil, nil))
	ok, err := reader.ContainsGraph(ex("g"))
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Len(t, snapshot(t, ds, nil, nil, nil, nil), 1)
}

func TestWriterSeesOwnChanges(t *testing.T) {
	ds := quadstore.New()

	update(t, ds, func(tx *quadstore.Txn) error {
		require.NoError(t, tx.Add(ex("g"), ex("s"), ex("p"), ex("o")))
		assert.Len(t, findAll(t, tx, ex("g"), nil, nil, nil), 1)

		require.NoError(t, tx.Delete(ex("g"), ex("s"), ex("p"), ex("o")))
		assert.Empty(t, findAll(t, tx, ex("g"), nil, nil, nil))

		empty, err := tx.IsEmpty()
		require.NoError(t, err)
		assert.True(t, empty)
		return nil
	})
}

func TestMutualExclusion(t *testing.T) {
	ds := quadstore.New()

	first, err := ds.Begin(t.Context(), quadstore.TxnWrite)
	require.NoError(t, err)
	require.NoError(t, first.Add(ex("g"), ex("first"), ex("p"), ex("o")))

	_, err = ds.TryBegin(quadstore.TxnWrite)
	assert.ErrorIs(t, err, quadstore.ErrWouldBlock)

	var (
		wg       sync.WaitGroup
		sawFirst bool
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		second, err := ds.Begin(t.Context(), quadstore.TxnWrite)
		if err != nil {
			t.Error(err)
			return
		}
		defer second.End()
		sawFirst, _ = second.Contains(ex("g"), ex("first"), nil, nil)
		_ = second.Add(ex("g"), ex("second"), ex("p"), ex("o"))
		_ = second.Commit()
	}()

	time.Sleep(20 * time.Millisecond)
	// The second writer is still waiting.
	assert.Len(t, snapshot(t, ds, nil, nil, nil, nil), 0)

	require.NoError(t, first.Commit())
	first.End()
	wg.Wait()

	assert.True(t, sawFirst)
	assert.Len(t, snapshot(t, ds, nil, nil, nil, nil), 2)
	assert.Equal(t, uint64(2), ds.Version())
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	ds := quadstore.New()

	g, ctx := errgroup.WithContext(t.Context())
	for w := range 4 {
		g.Go(func() error {
			for i := range 25 {
				err := ds.Update(ctx, func(tx *quadstore.Txn) error {
					return tx.Add(ex("g"), ex("s"), ex("p"), model.NewLiteral(fmt.Sprintf("%d-%d", w, i)))
				})
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	for range 8 {
		g.Go(func() error {
			for range 50 {
				err := ds.View(ctx, func(tx *quadstore.Txn) error {
					// Every index must agree within one snapshot.
					n, err := tx.Len()
					if err != nil {
						return err
					}
					byGraph, err := tx.Find(ex("g"), nil, nil, nil)
					if err != nil {
						return err
					}
					all, err := tx.Find(nil, nil, nil, nil)
					if err != nil {
						return err
					}
					a := len(slices.Collect(byGraph))
					b := len(slices.Collect(all))
					if a != n || b != n {
						return errors.New("indexes out of step")
					}
					return nil
				})
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 100, ds.Stats().Quads)
	assert.Equal(t, uint64(100), ds.Version())
}

func TestNoPhantomGraphs(t *testing.T) {
	ds := quadstore.New()

	update(t, ds, func(tx *quadstore.Txn) error {
		return tx.Add(ex("g"), ex("s"), ex("p"), ex("o"))
	})
	update(t, ds, func(tx *quadstore.Txn) error {
		return tx.Delete(ex("g"), ex("s"), ex("p"), ex("o"))
	})

	require.NoError(t, ds.View(t.Context(), func(tx *quadstore.Txn) error {
		graphs, err := tx.ListGraphNodes()
		require.NoError(t, err)
		assert.Empty(t, slices.Collect(graphs))

		ok, err := tx.ContainsGraph(ex("g"))
		require.NoError(t, err)
		assert.False(t, ok)

		n, err := tx.Size()
		require.NoError(t, err)
		assert.Zero(t, n)
		return nil
	}))
}

func TestUnionGraph(t *testing.T) {
	ds := quadstore.New()

	update(t, ds, func(tx *quadstore.Txn) error {
		require.NoError(t, tx.Add(ex("g1"), ex("a"), ex("p"), ex("b")))
		require.NoError(t, tx.Add(ex("g2"), ex("a"), ex("p"), ex("b")))
		require.NoError(t, tx.Add(ex("g2"), ex("c"), ex("p"), ex("d")))
		return tx.Add(model.DefaultGraph, ex("x"), ex("p"), ex("y"))
	})

	got := snapshot(t, ds, model.UnionGraph, nil, nil, nil)
	assert.ElementsMatch(t, []model.Quad{
		model.NewQuad(model.UnionGraph, ex("a"), ex("p"), ex("b")),
		model.NewQuad(model.UnionGraph, ex("c"), ex("p"), ex("d")),
	}, got)

	got = snapshot(t, ds, model.UnionGraph, nil, nil, ex("b"))
	assert.Len(t, got, 1)

	err := ds.Update(t.Context(), func(tx *quadstore.Txn) error {
		return tx.Add(model.UnionGraph, ex("a"), ex("p"), ex("b"))
	})
	assert.ErrorIs(t, err, quadstore.ErrUnionGraphReadOnly)
}

func TestConcreteScenario(t *testing.T) {
	ds := quadstore.New()

	q := model.NewQuad(ex("g"), ex("s"), ex("p"), ex("o"))
	update(t, ds, func(tx *quadstore.Txn) error { return tx.AddQuad(q) })

	assert.Equal(t, []model.Quad{q}, snapshot(t, ds, nil, model.Any, ex("p"), nil))

	other := model.NewQuad(ex("h"), ex("x"), ex("y"), ex("z"))
	update(t, ds, func(tx *quadstore.Txn) error { return tx.AddQuad(other) })

	assert.ElementsMatch(t, []model.Quad{q, other}, snapshot(t, ds, nil, model.Any, nil, model.Any))
}

func TestFindGraphSelection(t *testing.T) {
	ds := quadstore.New()

	named := model.NewQuad(ex("g"), ex("s"), ex("p"), ex("o"))
	def := model.NewQuad(model.DefaultGraph, ex("s"), ex("p"), ex("o"))
	update(t, ds, func(tx *quadstore.Txn) error {
		require.NoError(t, tx.AddQuad(named))
		return tx.Add(nil, ex("s"), ex("p"), ex("o"))
	})

	require.NoError(t, ds.View(t.Context(), func(tx *quadstore.Txn) error {
		assert.Equal(t, []model.Quad{def, named}, findAll(t, tx, nil, nil, nil, nil))
		assert.Equal(t, []model.Quad{def}, findAll(t, tx, model.DefaultGraph, nil, nil, nil))
		assert.Equal(t, []model.Quad{named}, findAll(t, tx, ex("g"), nil, nil, nil))
		assert.Empty(t, findAll(t, tx, ex("unknown"), nil, nil, nil))

		seq, err := tx.FindNG(nil, nil, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, []model.Quad{named}, slices.Collect(seq))

		seq, err = tx.FindNG(model.DefaultGraph, nil, nil, nil)
		require.NoError(t, err)
		assert.Empty(t, slices.Collect(seq))

		ok, err := tx.Contains(model.DefaultGraph, ex("s"), nil, nil)
		require.NoError(t, err)
		assert.True(t, ok)

		n, err := tx.Len()
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		return nil
	}))
}

func TestDeleteAny(t *testing.T) {
	ds := quadstore.New()

	update(t, ds, func(tx *quadstore.Txn) error {
		require.NoError(t, tx.Add(ex("g1"), ex("s"), ex("p"), ex("o1")))
		require.NoError(t, tx.Add(ex("g1"), ex("s"), ex("q"), ex("o2")))
		require.NoError(t, tx.Add(ex("g2"), ex("s"), ex("p"), ex("o1")))
		return tx.Add(nil, ex("s"), ex("p"), ex("o1"))
	})

	update(t, ds, func(tx *quadstore.Txn) error {
		n, err := tx.DeleteAny(ex("g1"), nil, ex("p"), nil)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = tx.DeleteAny(nil, ex("s"), ex("p"), ex("o1"))
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = tx.DeleteAny(nil, ex("never"), nil, nil)
		require.NoError(t, err)
		assert.Zero(t, n)

		_, err = tx.DeleteAny(model.UnionGraph, nil, nil, nil)
		assert.ErrorIs(t, err, quadstore.ErrUnionGraphReadOnly)
		return nil
	})

	assert.Equal(t, []model.Quad{
		model.NewQuad(ex("g1"), ex("s"), ex("q"), ex("o2")),
	}, snapshot(t, ds, nil, nil, nil, nil))
}

func TestGraphLifecycle(t *testing.T) {
	ds := quadstore.New()

	triples := []model.Triple{
		model.NewTriple(ex("a"), ex("p"), ex("b")),
		model.NewTriple(ex("b"), ex("p"), ex("c")),
	}
	update(t, ds, func(tx *quadstore.Txn) error {
		if err := tx.AddGraph(ex("g"), slices.Values(triples)); err != nil {
			return err
		}
		return tx.Add(ex("h"), ex("a"), ex("p"), ex("b"))
	})

	require.NoError(t, ds.View(t.Context(), func(tx *quadstore.Txn) error {
		graphs, err := tx.ListGraphNodes()
		require.NoError(t, err)
		assert.ElementsMatch(t, []model.Term{ex("g"), ex("h")}, slices.Collect(graphs))

		n, err := tx.Size()
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		for _, g := range []model.Term{nil, model.DefaultGraph, model.UnionGraph} {
			ok, err := tx.ContainsGraph(g)
			require.NoError(t, err)
			assert.True(t, ok)
		}
		return nil
	}))

	update(t, ds, func(tx *quadstore.Txn) error { return tx.RemoveGraph(ex("g")) })
	assert.Len(t, snapshot(t, ds, nil, nil, nil, nil), 1)

	update(t, ds, func(tx *quadstore.Txn) error { return tx.Clear() })
	assert.Empty(t, snapshot(t, ds, nil, nil, nil, nil))
	assert.Equal(t, 0, ds.Stats().Graphs)
}

func TestInvalidTuples(t *testing.T) {
	ds := quadstore.New()

	update(t, ds, func(tx *quadstore.Txn) error {
		err := tx.Add(ex("g"), nil, ex("p"), ex("o"))
		var invalid *quadstore.ErrInvalidTuple
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "subject", invalid.Position)

		err = tx.Add(ex("g"), ex("s"), ex("p"), model.Any)
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "object", invalid.Position)

		err = tx.Add(model.Any, ex("s"), ex("p"), ex("o"))
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "graph", invalid.Position)

		err = tx.Delete(ex("g"), ex("s"), nil, ex("o"))
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "predicate", invalid.Position)
		return nil
	})
	assert.Equal(t, uint64(0), ds.Version())
}

func TestUsageErrors(t *testing.T) {
	ds := quadstore.New()

	r, err := ds.Begin(t.Context(), quadstore.TxnRead)
	require.NoError(t, err)
	assert.ErrorIs(t, r.Add(ex("g"), ex("s"), ex("p"), ex("o")), quadstore.ErrReadOnly)
	_, err = r.DeleteAny(nil, nil, nil, nil)
	assert.ErrorIs(t, err, quadstore.ErrReadOnly)
	assert.ErrorIs(t, r.Clear(), quadstore.ErrReadOnly)
	assert.ErrorIs(t, r.Prefixes(nil).Set("ex", "http://example.org/"), quadstore.ErrReadOnly)

	require.NoError(t, r.Commit())
	assert.ErrorIs(t, r.Commit(), quadstore.ErrTxnFinished)
	assert.ErrorIs(t, r.Abort(), quadstore.ErrTxnFinished)
	_, err = r.Find(nil, nil, nil, nil)
	assert.ErrorIs(t, err, quadstore.ErrTxnFinished)
	r.End()
	r.End()

	w, err := ds.Begin(t.Context(), quadstore.TxnWrite)
	require.NoError(t, err)
	require.NoError(t, w.Commit())
	assert.ErrorIs(t, w.Commit(), quadstore.ErrTxnFinished)
	assert.ErrorIs(t, w.Add(ex("g"), ex("s"), ex("p"), ex("o")), quadstore.ErrTxnFinished)
	w.End()
}

func TestEndAbortsWriter(t *testing.T) {
	ds := quadstore.New()

	w, err := ds.Begin(t.Context(), quadstore.TxnWrite)
	require.NoError(t, err)
	require.NoError(t, w.Add(ex("g"), ex("s"), ex("p"), ex("o")))
	w.End()

	assert.Empty(t, snapshot(t, ds, nil, nil, nil, nil))

	// The writer permit was released.
	w2, err := ds.TryBegin(quadstore.TxnWrite)
	require.NoError(t, err)
	w2.End()
	assert.Equal(t, int64(2), ds.Stats().Aborts)
}

func TestMemoryLimit(t *testing.T) {
	// Room for a handful of quads but not many more.
	ds := quadstore.New(quadstore.WithMemoryLimit(4 * 6 * 64))

	update(t, ds, func(tx *quadstore.Txn) error {
		for _, o := range []string{"a", "b", "c"} {
			if err := tx.Add(ex("g"), ex("s"), ex("p"), ex(o)); err != nil {
				return err
			}
		}
		return nil
	})

	err := ds.Update(t.Context(), func(tx *quadstore.Txn) error {
		for _, o := range []string{"d", "e", "f"} {
			if err := tx.Add(ex("g"), ex("s"), ex("p"), ex(o)); err != nil {
				return err
			}
		}
		return nil
	})
	require.ErrorIs(t, err, quadstore.ErrResourceExhausted)

	// The previous generation is untouched.
	assert.Len(t, snapshot(t, ds, nil, nil, nil, nil), 3)
	assert.Equal(t, uint64(1), ds.Version())
	st := ds.Stats()
	assert.Equal(t, int64(3*6*64), st.MemoryBytes)
	assert.Equal(t, int64(1), st.MemoryRejects)

	// Deleting frees budget for later commits.
	update(t, ds, func(tx *quadstore.Txn) error {
		_, err := tx.DeleteAny(nil, nil, nil, nil)
		return err
	})
	assert.Zero(t, ds.Stats().MemoryBytes)
	assert.Equal(t, int64(3*6*64), ds.Stats().MemoryPeak)
	update(t, ds, func(tx *quadstore.Txn) error {
		return tx.Add(ex("g"), ex("s"), ex("p"), ex("d"))
	})
}

func TestStats(t *testing.T) {
	ds := quadstore.New()

	update(t, ds, func(tx *quadstore.Txn) error {
		require.NoError(t, tx.Add(ex("g1"), ex("s"), ex("p"), ex("o")))
		require.NoError(t, tx.Add(ex("g2"), ex("s"), ex("p"), ex("o")))
		return tx.Add(nil, ex("s"), ex("p"), ex("o"))
	})

	s := ds.Stats()
	assert.Equal(t, uint64(1), s.Version)
	assert.Equal(t, 2, s.Quads)
	assert.Equal(t, 1, s.Triples)
	assert.Equal(t, 2, s.Graphs)
	assert.Equal(t, 5, s.Nodes)
	assert.Equal(t, int64(2*6*64+3*64), s.MemoryBytes)
	assert.Equal(t, int64(1), s.Commits)
	assert.Zero(t, s.ActiveReaders)
	assert.Zero(t, s.ActiveWriters)
}

func TestMetricsCollector(t *testing.T) {
	mc := &quadstore.BasicMetricsCollector{}
	ds := quadstore.New(quadstore.WithMetricsCollector(mc), quadstore.WithLogger(nil))

	update(t, ds, func(tx *quadstore.Txn) error {
		return tx.Add(ex("g"), ex("s"), ex("p"), ex("o"))
	})
	snapshot(t, ds, ex("g"), nil, nil, nil)

	w, err := ds.Begin(t.Context(), quadstore.TxnWrite)
	require.NoError(t, err)
	w.End()

	stats := mc.GetStats()
	assert.Equal(t, int64(3), stats.BeginCount)
	assert.Equal(t, int64(2), stats.CommitCount)
	assert.Equal(t, int64(1), stats.AbortCount)
	assert.Equal(t, int64(1), stats.TuplesAdded)
	assert.Equal(t, int64(1), stats.FindCount)
}

func TestMemoryLimitCountsPrefixes(t *testing.T) {
	ds := quadstore.New(quadstore.WithMemoryLimit(2 * 64))

	update(t, ds, func(tx *quadstore.Txn) error {
		pm := tx.Prefixes(nil)
		if err := pm.Set("ex", "http://example.org/"); err != nil {
			return err
		}
		return pm.Set("foaf", "http://xmlns.com/foaf/0.1/")
	})
	assert.Equal(t, int64(2*64), ds.Stats().MemoryBytes)

	err := ds.Update(t.Context(), func(tx *quadstore.Txn) error {
		return tx.Prefixes(ex("g")).Set("ex", "http://example.org/")
	})
	require.ErrorIs(t, err, quadstore.ErrResourceExhausted)

	// Replacing a binding does not grow the footprint.
	update(t, ds, func(tx *quadstore.Txn) error {
		return tx.Prefixes(nil).Set("ex", "http://example.com/")
	})
	assert.Equal(t, int64(2*64), ds.Stats().MemoryBytes)
}

func TestMemoryChargedPerIndexEntry(t *testing.T) {
	ds := quadstore.New(quadstore.WithMemoryLimit(1 << 20))
	update(t, ds, func(tx *quadstore.Txn) error {
		if err := tx.Add(ex("g"), ex("s"), ex("p"), ex("o")); err != nil {
			return err
		}
		return tx.Add(nil, ex("s"), ex("p"), ex("o"))
	})
	// One quad in six tables, one triple in three.
	assert.Equal(t, int64((6+3)*64), ds.Stats().MemoryBytes)
}
