// Package store is the client-side data layer: a reactive cache of the
// remote server's endpoints, containers and stacks.
//
// # Overview
//
// The Store sits between the remote API, the local cache and the UI. It owns
// three things:
//
//   - the refresh coordinator: at most one in-flight fetch per resource
//     class, newer requests supersede older ones
//   - the session/selection state machine: the active server identity and
//     the selected endpoint, with cascading invalidation
//   - the observable projection: the snapshot the UI renders
//
// # Architecture
//
//	           ┌──────────────┐    Subscribe/Snapshot   ┌──────┐
//	remote ───→│              │────────────────────────→│  UI  │
//	client     │    Store     │                         └──────┘
//	           │  (one mutex) │    fire-and-forget
//	secret ───→│              │────────────────────────→ local cache
//	store      └──────────────┘
//
// Network and disk run in their own goroutines; results re-acquire the mutex
// before committing, so observers never see a torn intermediate state.
//
// # Refresh lifecycle
//
// Each resource class (endpoints, containers, stacks) has a generation
// counter and a handle slot:
//
//  1. RefreshX increments the generation, cancels the stored handle and
//     launches the fetch.
//  2. A completing fetch commits only when its generation is still current.
//     Superseded or cancelled fetches resolve with the projection's current
//     value and a nil error: cancellation means "keep current state", never a
//     user-visible failure.
//  3. Success replaces the class collection wholesale (sorted), clears the
//     handle slot and persists to the cache asynchronously.
//  4. Failure keeps the previous collection, reports to the optional
//     Reporter and propagates to awaiters.
//
// RefreshAll runs stacks in parallel with endpoints, then containers iff a
// selection exists after the endpoint cascade; an endpoint failure aborts
// the container step.
//
// # Session and selection
//
// States: torn down → set up (Setup) → torn down (Reset, SwitchServer).
// Setup resolves the token from its argument or the secret store and is
// offline-optimistic. The selection cascade holds after every endpoint
// commit: an empty endpoint collection forces containers, stacks and the
// selection empty in the same update; a single endpoint is auto-selected; a
// larger collection restores the persisted preference when still present.
//
// # Observable projection
//
// Snapshot is a value type with defensive copies. Subscribe returns a
// buffered channel with latest-wins delivery: a slow observer skips
// intermediate snapshots but never blocks the store and never observes a
// partially applied cascade. On startup Prime populates the projection from
// the local cache, flagged FromCache, so the UI renders before the first
// network round trip.
//
// # Error kinds
//
// ErrNotSetUp, ErrNoSelectedEndpoint, ErrNotAuthenticated,
// ErrUnknownEndpoint and ErrSecretStore classify the store's own failures;
// remote errors pass through untouched. Context cancellation is absorbed at
// the coordinator boundary and reaches neither awaiters nor the Reporter.
package store
