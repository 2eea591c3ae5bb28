package quadstore

import (
	"iter"
	"strconv"
	"strings"

	"github.com/benbjohnson/immutable"
	"github.com/cespare/xxhash/v2"

	"github.com/hupe1980/quadstore/model"
)

// prefixTable maps prefix to namespace IRI for one graph.
type prefixTable = immutable.SortedMap[string, string]

// prefixRoot maps a graph key to its prefix table. Like the tuple
// tables it is persistent, so a committed root is shared freely.
type prefixRoot = immutable.Map[string, *prefixTable]

type stringHasher struct{}

func (stringHasher) Hash(s string) uint32 { return uint32(xxhash.Sum64String(s)) }

func (stringHasher) Equal(a, b string) bool { return a == b }

type stringComparer struct{}

func (stringComparer) Compare(a, b string) int { return strings.Compare(a, b) }

func emptyPrefixRoot() *prefixRoot {
	return immutable.NewMap[string, *prefixTable](stringHasher{})
}

func emptyPrefixTable() *prefixTable {
	return immutable.NewSortedMap[string, string](stringComparer{})
}

// prefixKey returns the key of the graph owning a prefix mapping. The union
// graph shares the mapping of the default graph. The term kind is part of
// the key, so an IRI and a blank node with equal text stay apart.
func prefixKey(g model.Term) string {
	if model.IsDefaultGraph(g) || model.IsUnionGraph(g) || model.IsWildcard(g) {
		g = model.DefaultGraph
	}
	return strconv.Itoa(int(g.Kind())) + "|" + g.String()
}

// PrefixMapping is the prefix mapping of one graph as seen by a
// transaction. Reads observe the transaction's snapshot; writes require a
// write transaction and become visible to others on commit. Every method
// fails with ErrTxnFinished once the transaction has ended.
type PrefixMapping struct {
	txn *Txn
	key string
}

func (pm *PrefixMapping) table() (*prefixTable, error) {
	if err := pm.txn.checkActive(); err != nil {
		return nil, err
	}
	if t, ok := pm.txn.prefixes.Get(pm.key); ok {
		return t, nil
	}
	return nil, nil
}

// Get returns the namespace bound to prefix.
func (pm *PrefixMapping) Get(prefix string) (string, bool, error) {
	t, err := pm.table()
	if err != nil || t == nil {
		return "", false, err
	}
	ns, ok := t.Get(prefix)
	return ns, ok, nil
}

// Len returns the number of bound prefixes.
func (pm *PrefixMapping) Len() (int, error) {
	t, err := pm.table()
	if err != nil || t == nil {
		return 0, err
	}
	return t.Len(), nil
}

// All returns the prefix bindings ordered by prefix.
func (pm *PrefixMapping) All() (iter.Seq2[string, string], error) {
	t, err := pm.table()
	if err != nil {
		return nil, err
	}
	return func(yield func(string, string) bool) {
		if t == nil {
			return
		}
		itr := t.Iterator()
		for !itr.Done() {
			k, v, _ := itr.Next()
			if !yield(k, v) {
				return
			}
		}
	}, nil
}

// Set binds prefix to namespace, replacing an existing binding.
func (pm *PrefixMapping) Set(prefix, namespace string) error {
	if err := pm.txn.checkWrite(); err != nil {
		return err
	}
	t, err := pm.table()
	if err != nil {
		return err
	}
	if t == nil {
		t = emptyPrefixTable()
	}
	if cur, ok := t.Get(prefix); ok && cur == namespace {
		return nil
	}
	pm.txn.prefixes = pm.txn.prefixes.Set(pm.key, t.Set(prefix, namespace))
	pm.txn.dirty = true
	return nil
}

// Remove deletes the binding of prefix. Removing an unbound prefix is a no-op.
func (pm *PrefixMapping) Remove(prefix string) error {
	if err := pm.txn.checkWrite(); err != nil {
		return err
	}
	t, err := pm.table()
	if err != nil || t == nil {
		return err
	}
	if _, ok := t.Get(prefix); !ok {
		return nil
	}
	t = t.Delete(prefix)
	if t.Len() == 0 {
		pm.txn.prefixes = pm.txn.prefixes.Delete(pm.key)
	} else {
		pm.txn.prefixes = pm.txn.prefixes.Set(pm.key, t)
	}
	pm.txn.dirty = true
	return nil
}

// Expand turns a prefixed name such as "foaf:name" into a full IRI.
func (pm *PrefixMapping) Expand(prefixed string) (string, bool, error) {
	if err := pm.txn.checkActive(); err != nil {
		return "", false, err
	}
	prefix, local, ok := strings.Cut(prefixed, ":")
	if !ok {
		return "", false, nil
	}
	ns, ok, err := pm.Get(prefix)
	if err != nil || !ok {
		return "", false, err
	}
	return ns + local, true, nil
}

// Shorten abbreviates iri with the longest matching namespace.
func (pm *PrefixMapping) Shorten(iri string) (string, bool, error) {
	all, err := pm.All()
	if err != nil {
		return "", false, err
	}
	var best, bestNS string
	found := false
	for prefix, ns := range all {
		if strings.HasPrefix(iri, ns) && len(ns) > len(bestNS) {
			best, bestNS, found = prefix, ns, true
		}
	}
	if !found {
		return "", false, nil
	}
	return best + ":" + iri[len(bestNS):], true, nil
}
