// Package txn coordinates transactions over copy-on-write generations.
//
// The coordinator holds an atomic pointer to the current Generation, an
// immutable value produced by the last committed writer. Readers capture
// that pointer once at begin and never wait for writers. Writers are
// serialized by a single writer permit whose waiters are served in arrival
// order; a writer captures the current generation only after it holds the
// permit, builds the next generation privately and publishes it with one
// atomic store. Aborting a writer publishes nothing.
//
// Every transaction also holds the exclusivity lock in shared mode for its
// lifetime, so StartExclusive waits for all running transactions to finish
// and holds off new ones.
//
//	tx, err := c.Begin(ctx, txn.TypeWrite)
//	if err != nil {
//	    return err
//	}
//	defer tx.End()
//	next := build(tx.Base().Data)
//	_, err = tx.Publish(next)
package txn
