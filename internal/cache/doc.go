// Package cache persists the last-known resource listings to an embedded
// BadgerDB database.
//
// # Overview
//
// The cache exists so the UI renders immediately on startup, network or not:
// the data layer primes its projection from here before the first refresh
// completes, and writes every successful fetch back. It is a single-profile
// cache — entries are implicitly keyed by the active server, which is why a
// session reset is paired with fresh fetches rather than a cache read.
//
// # Layout
//
// One key space per resource class:
//
//	endpoint/<id>  → JSON Endpoint
//	container/<id> → JSON Container
//	stack/<id>     → JSON Stack
//
// # Semantics
//
// Saves are full replacements executed in one transaction: stale IDs are
// deleted and the new listing written atomically, so a concurrent load sees
// either the old collection or the new one, never a mix. Loads return the
// collection sorted with the same ordering the live fetch path uses, keeping
// cached and live views visually stable.
//
// Writers are serialized upstream (at most one refresh per class is ever in
// flight), so last-writer-wins at this layer is trivially safe.
package cache
