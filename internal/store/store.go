package store

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/berth-tui/berth/internal/portainer"
)

// SecretStore persists auth tokens keyed by server URL.
type SecretStore interface {
	Get(server string) (string, error)
	Set(server, token string) error
	Remove(server string) error
	List() ([]string, error)
}

// Cache persists the last-known resource listings across restarts.
type Cache interface {
	SaveEndpoints(endpoints []portainer.Endpoint) error
	LoadEndpoints() ([]portainer.Endpoint, error)
	SaveContainers(containers []portainer.Container) error
	LoadContainers() ([]portainer.Container, error)
	SaveStacks(stacks []portainer.Stack) error
	LoadStacks() ([]portainer.Stack, error)
}

// Preferences persists the preferred server and endpoint selection.
type Preferences interface {
	SelectedServer() string
	SetSelectedServer(server string)
	SelectedEndpointID() string
	SetSelectedEndpointID(id string)
}

// ClientFactory builds a remote client bound to one server identity.
type ClientFactory func(server, token string) (portainer.API, error)

// Snapshot is the externally observed state of the store. All fields are
// deep copies; mutating a snapshot never affects the store.
type Snapshot struct {
	Endpoints  []portainer.Endpoint
	Containers []portainer.Container
	Stacks     []portainer.Stack

	// SelectedEndpointID is empty when no endpoint is selected. Containers
	// are always scoped to the selected endpoint.
	SelectedEndpointID string

	// AttachedContainerID tracks the container the UI is interacting with.
	AttachedContainerID string

	IsSetup bool

	// FromCache flags distinguish cache-primed listings from live fetches.
	EndpointsFromCache  bool
	ContainersFromCache bool
	StacksFromCache     bool

	// LoadingStackIDs holds stacks with a start/stop call in flight.
	LoadingStackIDs map[string]struct{}

	// Removed sets drive optimistic removal in the UI: ids are added before
	// the remote call and cleared by the next refresh (or restored on
	// failure).
	RemovedContainerIDs map[string]struct{}
	RemovedStackIDs     map[string]struct{}
}

func (s Snapshot) clone() Snapshot {
	dup := s
	dup.Endpoints = cloneSlice(s.Endpoints)
	dup.Containers = cloneSlice(s.Containers)
	dup.Stacks = cloneSlice(s.Stacks)
	dup.LoadingStackIDs = cloneSet(s.LoadingStackIDs)
	dup.RemovedContainerIDs = cloneSet(s.RemovedContainerIDs)
	dup.RemovedStackIDs = cloneSet(s.RemovedStackIDs)
	return dup
}

func cloneSlice[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}

func cloneSet(set map[string]struct{}) map[string]struct{} {
	if len(set) == 0 {
		return nil
	}
	dup := make(map[string]struct{}, len(set))
	for id := range set {
		dup[id] = struct{}{}
	}
	return dup
}

// Options configure a Store.
type Options struct {
	NewClient ClientFactory
	Cache     Cache
	Secrets   SecretStore
	Prefs     Preferences

	// Reporter receives every non-cancellation failure for user-visible
	// presentation. Optional.
	Reporter func(error)

	Logger *zap.Logger
}

// Store is the client-side data layer: it coordinates refreshes against the
// remote server, reconciles them with the local cache, and owns the active
// session and endpoint selection. All state mutation serializes through one
// mutex; observers read via Snapshot or Subscribe and never see a torn
// intermediate state.
type Store struct {
	newClient ClientFactory
	cache     Cache
	secrets   SecretStore
	prefs     Preferences
	report    func(error)
	log       *zap.Logger

	mu     sync.Mutex
	client portainer.API
	server string
	token  string

	snap    Snapshot
	subs    map[int]chan Snapshot
	nextSub int

	endpointGen  uint64
	containerGen uint64
	stackGen     uint64

	endpointHandle  *Handle[portainer.Endpoint]
	containerHandle *Handle[portainer.Container]
	stackHandle     *Handle[portainer.Stack]
}

// New builds a Store. NewClient, Cache, Secrets and Prefs are required.
func New(opts Options) (*Store, error) {
	if opts.NewClient == nil {
		return nil, fmt.Errorf("store requires a client factory")
	}
	if opts.Cache == nil {
		return nil, fmt.Errorf("store requires a cache")
	}
	if opts.Secrets == nil {
		return nil, fmt.Errorf("store requires a secret store")
	}
	if opts.Prefs == nil {
		return nil, fmt.Errorf("store requires preferences")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		newClient: opts.NewClient,
		cache:     opts.Cache,
		secrets:   opts.Secrets,
		prefs:     opts.Prefs,
		report:    opts.Reporter,
		log:       logger,
		subs:      make(map[int]chan Snapshot),
	}, nil
}

// Snapshot returns a copy of the current observable state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.clone()
}

// Subscribe registers an observer. The returned channel carries the current
// snapshot immediately and every subsequent state change, latest-wins: a slow
// observer only ever skips intermediate snapshots, never blocks the store.
// The cancel function unregisters the observer and closes the channel.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	ch := make(chan Snapshot, 1)
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.snap.clone()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// IsSetup reports whether an active server identity with token exists.
func (s *Store) IsSetup() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.IsSetup
}

// Server returns the active server URL, or empty when torn down.
func (s *Store) Server() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.server
}

// SelectedEndpointID returns the current selection, or empty for none.
func (s *Store) SelectedEndpointID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.SelectedEndpointID
}

// publishLocked fans the current snapshot out to all subscribers. Callers
// must hold s.mu; subscriber channels are only ever written under the mutex,
// so the drain-then-send below cannot race another sender.
func (s *Store) publishLocked() {
	if len(s.subs) == 0 {
		return
	}
	snap := s.snap.clone()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

// reportErr forwards a failure to the configured reporter. Cancellations are
// internal and never surface anywhere.
func (s *Store) reportErr(err error) {
	if err == nil || isCancellation(err) {
		return
	}
	if s.report != nil {
		s.report(err)
	}
}

func addToSet(set *map[string]struct{}, id string) {
	if *set == nil {
		*set = make(map[string]struct{})
	}
	(*set)[id] = struct{}{}
}

func removeFromSet(set map[string]struct{}, id string) {
	delete(set, id)
}
