package store

import (
	"context"
	"fmt"

	"github.com/berth-tui/berth/internal/portainer"
)

// sessionScope captures the client and selection for one remote action.
func (s *Store) sessionScope(needSelection bool) (portainer.API, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.snap.IsSetup {
		return nil, "", ErrNotSetUp
	}
	if needSelection && s.snap.SelectedEndpointID == "" {
		return nil, "", ErrNoSelectedEndpoint
	}
	return s.client, s.snap.SelectedEndpointID, nil
}

// InspectContainer fetches the full details of one container on the selected
// endpoint. The result is never cached and never touches the projection.
func (s *Store) InspectContainer(ctx context.Context, id string) (portainer.ContainerDetails, error) {
	api, endpointID, err := s.sessionScope(true)
	if err != nil {
		return portainer.ContainerDetails{}, err
	}
	details, err := api.ContainerDetails(ctx, endpointID, id)
	if err != nil {
		if isCancellation(err) {
			return portainer.ContainerDetails{}, nil
		}
		s.reportErr(err)
		return portainer.ContainerDetails{}, err
	}
	return details, nil
}

// RemoveContainer removes a container optimistically: the ID joins the
// removed set before the remote call so the UI can drop the row immediately.
// The set entry is cleared by the follow-up refresh on success, or restored
// on failure.
func (s *Store) RemoveContainer(ctx context.Context, id string) error {
	api, endpointID, err := s.sessionScope(true)
	if err != nil {
		return err
	}

	s.mu.Lock()
	addToSet(&s.snap.RemovedContainerIDs, id)
	s.publishLocked()
	s.mu.Unlock()

	if err := api.RemoveContainer(ctx, endpointID, id); err != nil {
		s.mu.Lock()
		removeFromSet(s.snap.RemovedContainerIDs, id)
		s.publishLocked()
		s.mu.Unlock()
		if isCancellation(err) {
			return nil
		}
		s.reportErr(err)
		return err
	}

	s.RefreshContainers()
	return nil
}

// StartStack starts a stack, marking it loading for the duration of the
// remote call, then refreshes the stack listing.
func (s *Store) StartStack(ctx context.Context, id string) error {
	return s.stackAction(ctx, id, portainer.API.StartStack)
}

// StopStack stops a stack; same loading treatment as StartStack.
func (s *Store) StopStack(ctx context.Context, id string) error {
	return s.stackAction(ctx, id, portainer.API.StopStack)
}

func (s *Store) stackAction(ctx context.Context, id string, call func(portainer.API, context.Context, string) error) error {
	api, _, err := s.sessionScope(false)
	if err != nil {
		return err
	}

	s.mu.Lock()
	addToSet(&s.snap.LoadingStackIDs, id)
	s.publishLocked()
	s.mu.Unlock()

	actionErr := call(api, ctx, id)

	s.mu.Lock()
	removeFromSet(s.snap.LoadingStackIDs, id)
	s.publishLocked()
	s.mu.Unlock()

	if actionErr != nil {
		if isCancellation(actionErr) {
			return nil
		}
		s.reportErr(actionErr)
		return actionErr
	}

	s.RefreshStacks()
	return nil
}

// RemoveStack removes a stack with the same optimistic treatment as
// RemoveContainer, against the removed-stack set.
func (s *Store) RemoveStack(ctx context.Context, id string) error {
	api, _, err := s.sessionScope(false)
	if err != nil {
		return err
	}

	s.mu.Lock()
	addToSet(&s.snap.RemovedStackIDs, id)
	s.publishLocked()
	s.mu.Unlock()

	if err := api.RemoveStack(ctx, id); err != nil {
		s.mu.Lock()
		removeFromSet(s.snap.RemovedStackIDs, id)
		s.publishLocked()
		s.mu.Unlock()
		if isCancellation(err) {
			return nil
		}
		s.reportErr(err)
		return err
	}

	s.RefreshStacks()
	return nil
}

// Attach records the container the UI is interacting with. The ID must be in
// the current container collection.
func (s *Store) Attach(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.snap.Containers {
		if c.ID == id {
			s.snap.AttachedContainerID = id
			s.publishLocked()
			return nil
		}
	}
	return fmt.Errorf("container %s is not in the current collection", id)
}

// Detach clears the attached-container reference.
func (s *Store) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.AttachedContainerID == "" {
		return
	}
	s.snap.AttachedContainerID = ""
	s.publishLocked()
}
