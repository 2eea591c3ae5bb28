package prometheus

import (
	"errors"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/quadstore"
	"github.com/hupe1980/quadstore/model"
)

func TestCollectorRecords(t *testing.T) {
	reg := prom.NewRegistry()
	c, err := New("quadstore", reg)
	require.NoError(t, err)

	c.RecordBegin(quadstore.TxnWrite, time.Millisecond, nil)
	c.RecordBegin(quadstore.TxnWrite, 0, errors.New("boom"))
	c.RecordCommit(quadstore.ModeWrite, time.Millisecond, 3, 1, nil)
	c.RecordAbort(quadstore.ModeRead, time.Millisecond)
	c.RecordFind("GSPO")
	c.RecordFind("GSPO")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.begins.WithLabelValues("write", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.begins.WithLabelValues("write", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.commits.WithLabelValues("write", "success")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.tuples.WithLabelValues("add")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.tuples.WithLabelValues("delete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.aborts.WithLabelValues("read")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.finds.WithLabelValues("GSPO")))
}

func TestCollectorDuplicateRegistration(t *testing.T) {
	reg := prom.NewRegistry()
	_, err := New("quadstore", reg)
	require.NoError(t, err)

	_, err = New("quadstore", reg)
	assert.Error(t, err)
}

func TestCollectorWithDataset(t *testing.T) {
	reg := prom.NewRegistry()
	c, err := New("qs", reg)
	require.NoError(t, err)

	ds := quadstore.New(quadstore.WithMetricsCollector(c))
	defer ds.Close()

	ex := func(s string) model.IRI { return model.NewIRI("http://example.org/" + s) }

	err = ds.Update(t.Context(), func(tx *quadstore.Txn) error {
		return tx.Add(ex("g"), ex("s"), ex("p"), ex("o"))
	})
	require.NoError(t, err)

	err = ds.View(t.Context(), func(tx *quadstore.Txn) error {
		_, err := tx.Find(ex("g"), nil, nil, nil)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.commits.WithLabelValues("write", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.commits.WithLabelValues("read", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.tuples.WithLabelValues("add")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.finds.WithLabelValues("GSPO")))
}
