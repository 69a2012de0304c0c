// Package ui implements the berth terminal interface on bubbletea.
//
// # Overview
//
// The UI is a deliberately thin rendering layer over the data layer in
// internal/store. It holds no resource state of its own: every frame renders
// a store.Snapshot, and every key press translates into a store operation.
// The store publishes a fresh snapshot whenever its state changes; the model
// blocks on the subscription channel via a bubbletea command and re-renders
// on each delivery.
//
// # Layout
//
//	┌────────────────────────────────────────────┐
//	│ berth  https://portainer…  endpoint prod   │  header
//	│ Endpoints (2)  Containers (14)  Stacks (3) │  tabs
//	│                                            │
//	│   web-frontend                  running    │  active pane
//	│ > api-backend                   running    │
//	│   worker                        exited     │
//	│                                            │
//	│ tab next pane • enter select • r refresh   │  help
//	└────────────────────────────────────────────┘
//
// Three panes cycle with tab: the endpoint listing, the container listing
// for the selected endpoint, and the stack listing. Enter on an endpoint
// selects it; enter on a container attaches and opens the inspect overlay.
// Optimistically removed resources are hidden from their pane until the next
// refresh settles.
//
// # Concurrency
//
// Store operations run inside tea.Cmd functions, never in Update, so the
// render loop stays responsive during network calls. Refresh supersession
// and cancellation are entirely the store's concern; the UI just issues
// operations and renders whatever snapshots come back.
package ui
