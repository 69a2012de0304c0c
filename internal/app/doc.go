// Package app provides the orchestration layer for the berth application.
//
// # Overview
//
// This package wires together configuration, preferences, the token store,
// the local cache, the data layer and the UI to create the complete berth
// TUI experience. It serves as the composition root where all dependencies
// are initialized and connected.
//
// # Architecture
//
// The app package follows a simple initialization pattern:
//
//  1. Load berth configuration from ~/.config/berth/config.toml
//  2. Open the log file, preferences, token store and local cache
//  3. Create the store.Store data layer over a Portainer API client factory
//  4. Prime the store from the cache so the UI opens with last-known data
//  5. Attempt session setup against the preferred (or flag-supplied) server
//  6. Launch the background poller goroutine for continuous refreshes
//  7. Start the TUI and block until the user exits or the context cancels
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()      Read berth config
//	       ├─────> prefs.OpenFile()   Live preferences handle
//	       ├─────> secrets.Open()     Token store
//	       ├─────> cache.Open()       BadgerDB local cache
//	       ├─────> store.New()        Data layer
//	       ├─────> store.Prime()      Cache-first population
//	       ├─────> store.Setup()      Session against preferred server
//	       ├─────> StartPoller()      Launch background refreshes
//	       └─────> ui.Run()           Start TUI (blocks)
//
//	Background Poller Loop:
//	┌─────────────────────────────────────────┐
//	│ StartPoller() goroutine                 │
//	│  └─> store.RefreshAll()                 │
//	│      └─> UI observes via Subscribe()    │
//	└─────────────────────────────────────────┘
//
// # Polling Behavior
//
// The poller calls RefreshAll at a configurable cadence (default: 10
// seconds). Consecutive failures double the wait up to a 30 second cap; the
// first success, or the absence of an active session, resets it. The store
// itself guarantees at most one in-flight refresh per resource class, so an
// overlapping manual refresh from the UI supersedes the poller's rather than
// racing it.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Configuration file present but invalid
//   - Log file, token store or cache cannot be opened
//
// Recoverable errors (logged, startup continues):
//   - Initial session setup failure (the UI offers the connect flow)
//   - Periodic refresh failures (polling backs off and retries)
//
// This ensures berth always starts into cached data even when the server is
// unreachable or credentials have expired.
package app
