package store

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/berth-tui/berth/internal/portainer"
)

// Handle is one in-flight fetch-and-apply operation for a resource class:
// cancellable, awaitable, resolved exactly once. A cancelled or superseded
// handle resolves with the projection's value at resolution time and a nil
// error; cancellation is never surfaced as a failure.
type Handle[T any] struct {
	cancel context.CancelFunc
	done   chan struct{}

	// result and err are written once before done is closed.
	result []T
	err    error
}

func newHandle[T any](cancel context.CancelFunc) *Handle[T] {
	return &Handle[T]{cancel: cancel, done: make(chan struct{})}
}

// completedHandle builds an already-resolved handle, used when an operation
// fails before any fetch starts.
func completedHandle[T any](result []T, err error) *Handle[T] {
	h := &Handle[T]{cancel: func() {}, done: make(chan struct{})}
	h.resolve(result, err)
	return h
}

func (h *Handle[T]) resolve(result []T, err error) {
	h.result = result
	h.err = err
	close(h.done)
}

// Wait blocks until the operation resolves or ctx fires.
func (h *Handle[T]) Wait(ctx context.Context) ([]T, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.done:
		return h.result, h.err
	}
}

// Cancel requests cooperative cancellation. The operation resolves with the
// current projection value; it never applies its fetch result afterwards.
func (h *Handle[T]) Cancel() {
	h.cancel()
}

func (h *Handle[T]) terminal() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// RefreshEndpoints starts an endpoint refresh, superseding any endpoint
// refresh already in flight. On success the endpoint collection is replaced
// and the selection cascade re-evaluated in the same update.
func (s *Store) RefreshEndpoints() *Handle[portainer.Endpoint] {
	return refreshClass(s, &s.endpointGen, &s.endpointHandle,
		func(ctx context.Context, api portainer.API) ([]portainer.Endpoint, error) {
			return api.Endpoints(ctx)
		},
		portainer.SortEndpoints,
		func() []portainer.Endpoint { return cloneSlice(s.snap.Endpoints) },
		func(endpoints []portainer.Endpoint) {
			s.snap.Endpoints = endpoints
			s.snap.EndpointsFromCache = false
			s.applyEndpointCascadeLocked()
		},
		func(endpoints []portainer.Endpoint) error { return s.cache.SaveEndpoints(endpoints) },
	)
}

// RefreshContainers starts a container refresh for the selected endpoint.
// Without a selection it resolves immediately with ErrNoSelectedEndpoint.
func (s *Store) RefreshContainers() *Handle[portainer.Container] {
	s.mu.Lock()
	endpointID := s.snap.SelectedEndpointID
	s.mu.Unlock()
	if endpointID == "" {
		return completedHandle[portainer.Container](nil, ErrNoSelectedEndpoint)
	}
	return refreshClass(s, &s.containerGen, &s.containerHandle,
		func(ctx context.Context, api portainer.API) ([]portainer.Container, error) {
			return api.Containers(ctx, endpointID)
		},
		portainer.SortContainers,
		func() []portainer.Container { return cloneSlice(s.snap.Containers) },
		func(containers []portainer.Container) {
			// A live listing supersedes any optimistic removals.
			s.snap.Containers = containers
			s.snap.ContainersFromCache = false
			s.snap.RemovedContainerIDs = nil
		},
		func(containers []portainer.Container) error { return s.cache.SaveContainers(containers) },
	)
}

// RefreshStacks starts a stack refresh.
func (s *Store) RefreshStacks() *Handle[portainer.Stack] {
	return refreshClass(s, &s.stackGen, &s.stackHandle,
		func(ctx context.Context, api portainer.API) ([]portainer.Stack, error) {
			return api.Stacks(ctx)
		},
		portainer.SortStacks,
		func() []portainer.Stack { return cloneSlice(s.snap.Stacks) },
		func(stacks []portainer.Stack) {
			s.snap.Stacks = stacks
			s.snap.StacksFromCache = false
			s.snap.RemovedStackIDs = nil
		},
		func(stacks []portainer.Stack) error { return s.cache.SaveStacks(stacks) },
	)
}

// refreshClass implements the shared supersede-fetch-commit cycle. gen and
// handle are the per-class slots guarded by s.mu; current and commit run with
// s.mu held. A newer refresh increments the generation and cancels the stored
// handle, so a completing fetch commits only when its generation is still
// current.
func refreshClass[T any](
	s *Store,
	gen *uint64,
	slot **Handle[T],
	fetch func(ctx context.Context, api portainer.API) ([]T, error),
	sort func([]T),
	current func() []T,
	commit func([]T),
	persist func([]T) error,
) *Handle[T] {
	s.mu.Lock()
	if !s.snap.IsSetup {
		s.mu.Unlock()
		return completedHandle[T](nil, ErrNotSetUp)
	}
	*gen++
	myGen := *gen
	if prev := *slot; prev != nil {
		prev.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := newHandle[T](cancel)
	*slot = h
	api := s.client
	s.mu.Unlock()

	go func() {
		result, err := fetch(ctx, api)

		s.mu.Lock()
		superseded := myGen != *gen
		if superseded || ctx.Err() != nil || (err != nil && isCancellation(err)) {
			// Keep current state; resolve with the projection value so
			// awaiters never observe a cancellation-shaped error.
			value := current()
			s.mu.Unlock()
			h.resolve(value, nil)
			return
		}
		if err != nil {
			if *slot == h {
				*slot = nil
			}
			s.mu.Unlock()
			s.log.Warn("refresh failed", zap.Error(err))
			s.reportErr(err)
			h.resolve(nil, err)
			return
		}
		sort(result)
		commit(cloneSlice(result))
		if *slot == h {
			*slot = nil
		}
		s.publishLocked()
		s.mu.Unlock()

		// Fire-and-forget persistence; at most one refresh per class is in
		// flight, so writes cannot interleave within the class.
		go func() {
			if err := persist(result); err != nil {
				s.log.Warn("cache write failed", zap.Error(err))
			}
		}()

		h.resolve(result, nil)
	}()
	return h
}

// RefreshAll refreshes everything: stacks in parallel with the endpoint
// listing, then containers iff a selection exists after the endpoint cascade.
// An endpoint failure aborts the container step.
func (s *Store) RefreshAll(ctx context.Context) error {
	if !s.IsSetup() {
		return ErrNotSetUp
	}

	stackHandle := s.RefreshStacks()
	endpointHandle := s.RefreshEndpoints()

	_, endpointErr := endpointHandle.Wait(ctx)
	var containerErr error
	if endpointErr == nil && s.SelectedEndpointID() != "" {
		_, containerErr = s.RefreshContainers().Wait(ctx)
	}
	_, stackErr := stackHandle.Wait(ctx)

	return errors.Join(endpointErr, containerErr, stackErr)
}

// IsRefreshing reports whether any refresh operation is in flight. It is
// computed from the live handles, never stored.
func (s *Store) IsRefreshing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h := s.endpointHandle; h != nil && !h.terminal() {
		return true
	}
	if h := s.containerHandle; h != nil && !h.terminal() {
		return true
	}
	if h := s.stackHandle; h != nil && !h.terminal() {
		return true
	}
	return false
}
