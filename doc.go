// Package quadstore provides an in-memory, transactional RDF dataset for Go.
//
// A dataset holds a default graph and any number of named graphs. Quads are
// stored in six permuted index tables (GSPO, GOPS, SPOG, OPSG, OSGP, PGSO)
// and default graph triples in three (SPO, POS, OSP), so every find pattern
// is answered by a prefix scan of one table.
//
// # Transactions
//
// All access happens inside a transaction. Any number of readers run
// concurrently with one writer: readers never block and observe the state
// committed when they began; a writer's changes become visible atomically on
// commit. Writers wait in arrival order.
//
//	ctx := context.Background()
//	ds := quadstore.New()
//	defer ds.Close()
//
//	alice := model.NewIRI("http://example.org/alice")
//	knows := model.NewIRI("http://xmlns.com/foaf/0.1/knows")
//	bob := model.NewIRI("http://example.org/bob")
//	g := model.NewIRI("http://example.org/g")
//
//	err := ds.Update(ctx, func(tx *quadstore.Txn) error {
//	    return tx.Add(g, alice, knows, bob)
//	})
//
//	err = ds.View(ctx, func(tx *quadstore.Txn) error {
//	    quads, err := tx.Find(nil, alice, nil, nil)
//	    if err != nil {
//	        return err
//	    }
//	    for q := range quads {
//	        fmt.Println(q)
//	    }
//	    return nil
//	})
//
// Begin, Commit, Abort and End give explicit control. A read transaction
// begun with TxnReadPromote or TxnReadCommittedPromote may Promote to a
// writer. A Session binds one transaction at a time to a caller and reports
// usage errors such as beginning twice.
//
// # Graphs
//
// model.DefaultGraph names the default graph, and model.UnionGraph the
// read-only union of all named graphs. Writes treat a nil graph as the
// default graph. In find patterns a nil term or model.Any is a wildcard.
//
// # Observability
//
// Logging uses log/slog through Logger (disabled by default). Metrics are
// reported to a MetricsCollector; the metrics/prometheus package exports
// them to Prometheus.
package quadstore
