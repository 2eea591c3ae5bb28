// Package resource guards store-wide limits.
//
// A Controller tracks the estimated memory of the committed dataset state.
// Each commit charges the signed difference between the state it publishes
// and the state it started from:
//
//	if err := rc.Charge(next - base); err != nil {
//	    // ErrMemoryLimitExceeded: abort, the current state stays as it is
//	}
//
// Charges never block. Growth beyond the limit is rejected, shrinking is
// always accepted.
//
// The Controller also admits write transactions through a token bucket, so a
// burst of writers can be smoothed before they queue for the writer permit.
//
// All methods accept a nil Controller and then impose no limits.
package resource
