package store

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/berth-tui/berth/internal/secrets"
)

// Setup activates a server identity. The token comes from the argument or,
// when empty, from the secret store; Setup fails with ErrNotAuthenticated if
// neither yields one. Setup is offline-optimistic: it does not require a
// network round trip. Persisted state (preferred server, stored token) is
// only touched after the identity is accepted, and the token write is
// best-effort.
func (s *Store) Setup(server, token string, persistToken bool) error {
	server = strings.TrimSpace(server)
	if server == "" {
		return fmt.Errorf("server url is empty")
	}

	if token == "" {
		stored, err := s.secrets.Get(server)
		if err != nil && !errors.Is(err, secrets.ErrNotFound) {
			err = fmt.Errorf("%w: read token for %s: %w", ErrSecretStore, server, err)
			s.reportErr(err)
			return err
		}
		token = stored
	}
	if token == "" {
		err := fmt.Errorf("%w: no token for %s", ErrNotAuthenticated, server)
		s.reportErr(err)
		return err
	}

	client, err := s.newClient(server, token)
	if err != nil {
		s.reportErr(err)
		return err
	}

	s.mu.Lock()
	s.server = server
	s.token = token
	s.client = client
	s.snap.IsSetup = true
	s.prefs.SetSelectedServer(server)
	s.publishLocked()
	s.mu.Unlock()

	if persistToken {
		if err := s.secrets.Set(server, token); err != nil {
			// Non-fatal: the session is live, only the stored copy is stale.
			s.log.Warn("persist token failed", zap.String("server", server), zap.Error(err))
		}
	}

	s.log.Info("session set up", zap.String("server", server))
	return nil
}

// SwitchServer tears the current session down and sets up against a new
// server. Reset's side effects happen unconditionally before the setup
// attempt, and the token is not re-persisted: a switch forces a fresh
// credential lookup.
func (s *Store) SwitchServer(server string) error {
	s.Reset()
	return s.Setup(server, "", false)
}

// Reset tears the session down: cancels every in-flight refresh, clears the
// identity, all collections, the selection (including its persisted form) and
// the attached-container reference. Idempotent.
func (s *Store) Reset() {
	s.mu.Lock()
	s.cancelRefreshesLocked()
	s.server = ""
	s.token = ""
	s.client = nil
	s.snap = Snapshot{}
	s.prefs.SetSelectedEndpointID("")
	s.publishLocked()
	s.mu.Unlock()

	s.log.Info("session reset")
}

// RemoveServer deletes a server's stored token. The active session is left
// alone even when it targets the removed server; callers pair this with
// Reset when appropriate.
func (s *Store) RemoveServer(server string) error {
	if err := s.secrets.Remove(server); err != nil {
		err = fmt.Errorf("%w: remove token for %s: %w", ErrSecretStore, server, err)
		s.reportErr(err)
		return err
	}
	return nil
}

// SelectEndpoint makes the endpoint with the given ID the active selection,
// persists it as the preferred selection and starts a container refresh for
// it. An empty ID clears the selection: any in-flight container refresh is
// cancelled and the container collection and endpoint-scoped display state
// are dropped.
func (s *Store) SelectEndpoint(id string) error {
	s.mu.Lock()
	if id == "" {
		s.clearSelectionLocked(true)
		s.publishLocked()
		s.mu.Unlock()
		return nil
	}
	if !s.hasEndpointLocked(id) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownEndpoint, id)
	}
	s.setSelectionLocked(id)
	s.publishLocked()
	s.mu.Unlock()

	s.RefreshContainers()
	return nil
}

// applyEndpointCascadeLocked enforces the selection rules after every
// endpoint-collection commit, within the same update:
//
//	empty  -> containers, stacks, selection and attached reference cleared
//	one    -> that endpoint selected automatically
//	many   -> persisted preference restored iff still present, else none
//
// Callers hold s.mu and publish afterwards.
func (s *Store) applyEndpointCascadeLocked() {
	switch len(s.snap.Endpoints) {
	case 0:
		s.clearSelectionLocked(false)
		s.cancelStackRefreshLocked()
		s.snap.Stacks = nil
		s.snap.StacksFromCache = false
		s.snap.RemovedStackIDs = nil
		s.snap.LoadingStackIDs = nil
	case 1:
		s.setSelectionLocked(s.snap.Endpoints[0].ID)
	default:
		preferred := s.prefs.SelectedEndpointID()
		if preferred != "" && s.hasEndpointLocked(preferred) {
			s.setSelectionLocked(preferred)
		} else {
			s.clearSelectionLocked(false)
		}
	}
}

// setSelectionLocked sets and persists the selection. Moving to a different
// endpoint drops the container collection: its entries are only meaningful
// under the endpoint they were fetched for.
func (s *Store) setSelectionLocked(id string) {
	if s.snap.SelectedEndpointID != id {
		s.cancelContainerRefreshLocked()
		s.snap.Containers = nil
		s.snap.ContainersFromCache = false
		s.snap.RemovedContainerIDs = nil
		s.snap.AttachedContainerID = ""
	}
	s.snap.SelectedEndpointID = id
	s.prefs.SetSelectedEndpointID(id)
}

// clearSelectionLocked drops the selection and all endpoint-scoped state.
// The persisted preference is cleared only for explicit deselection; cascade
// paths keep it so a transiently missing endpoint can be restored later.
func (s *Store) clearSelectionLocked(clearPreference bool) {
	s.cancelContainerRefreshLocked()
	s.snap.SelectedEndpointID = ""
	s.snap.Containers = nil
	s.snap.ContainersFromCache = false
	s.snap.RemovedContainerIDs = nil
	s.snap.AttachedContainerID = ""
	if clearPreference {
		s.prefs.SetSelectedEndpointID("")
	}
}

func (s *Store) hasEndpointLocked(id string) bool {
	for _, endpoint := range s.snap.Endpoints {
		if endpoint.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) cancelContainerRefreshLocked() {
	s.containerGen++
	if h := s.containerHandle; h != nil {
		h.cancel()
		s.containerHandle = nil
	}
}

func (s *Store) cancelStackRefreshLocked() {
	s.stackGen++
	if h := s.stackHandle; h != nil {
		h.cancel()
		s.stackHandle = nil
	}
}

func (s *Store) cancelRefreshesLocked() {
	s.endpointGen++
	if h := s.endpointHandle; h != nil {
		h.cancel()
		s.endpointHandle = nil
	}
	s.cancelContainerRefreshLocked()
	s.cancelStackRefreshLocked()
}

// Prime populates the projection from the local cache so the UI renders
// immediately with last-known data, before any network activity. Cached
// listings are marked FromCache; the selection cascade runs so the restored
// endpoint list gets a valid selection.
func (s *Store) Prime() {
	endpoints, err := s.cache.LoadEndpoints()
	if err != nil {
		s.log.Warn("load cached endpoints failed", zap.Error(err))
	}
	containers, err := s.cache.LoadContainers()
	if err != nil {
		s.log.Warn("load cached containers failed", zap.Error(err))
	}
	stacks, err := s.cache.LoadStacks()
	if err != nil {
		s.log.Warn("load cached stacks failed", zap.Error(err))
	}

	s.mu.Lock()
	preferredBefore := s.prefs.SelectedEndpointID()
	if len(endpoints) > 0 {
		s.snap.Endpoints = endpoints
		s.snap.EndpointsFromCache = true
		s.applyEndpointCascadeLocked()
	}
	// Cached containers were written under the previously persisted
	// selection; they are only meaningful if that selection survived the
	// cascade.
	if len(containers) > 0 && s.snap.SelectedEndpointID != "" && s.snap.SelectedEndpointID == preferredBefore {
		s.snap.Containers = containers
		s.snap.ContainersFromCache = true
	}
	if len(stacks) > 0 && len(s.snap.Endpoints) > 0 {
		s.snap.Stacks = stacks
		s.snap.StacksFromCache = true
	}
	s.publishLocked()
	s.mu.Unlock()
}
