package store

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/berth-tui/berth/internal/portainer"
)

func TestRefresh_RequiresSetup(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.RefreshEndpoints().Wait(context.Background())
	require.ErrorIs(t, err, ErrNotSetUp)

	_, err = f.store.RefreshStacks().Wait(context.Background())
	require.ErrorIs(t, err, ErrNotSetUp)
}

func TestRefreshContainers_RequiresSelection(t *testing.T) {
	f := newFixture(t)
	f.setUp(t)

	_, err := f.store.RefreshContainers().Wait(context.Background())
	require.ErrorIs(t, err, ErrNoSelectedEndpoint)
}

func TestRefreshEndpoints_SortsAndCommits(t *testing.T) {
	f := newFixture(t)
	f.setUp(t)

	f.refreshEndpointsWith(t,
		endpoint("2", "zeta"),
		endpoint("1", "alpha"),
		endpoint("3", "alpha"),
	)

	snap := f.store.Snapshot()
	require.Equal(t, []string{"1", "3", "2"}, []string{
		snap.Endpoints[0].ID, snap.Endpoints[1].ID, snap.Endpoints[2].ID,
	})
	require.False(t, snap.EndpointsFromCache)
}

// Only the most recently issued refresh may commit, regardless of the
// completion order of the underlying fetches.
func TestRefreshContainers_NewerRequestSupersedesOlder(t *testing.T) {
	f := newFixture(t)
	f.setUp(t)
	f.refreshEndpointsWith(t, endpoint("a", "alpha"))

	startedOld := make(chan struct{})
	gateOld := make(chan struct{})
	gateNew := make(chan struct{})
	var calls atomic.Int32
	f.client.containersFn = func(ctx context.Context, endpointID string) ([]portainer.Container, error) {
		switch calls.Add(1) {
		case 1:
			close(startedOld)
			<-gateOld
			return []portainer.Container{container("old", "old")}, nil
		default:
			<-gateNew
			return []portainer.Container{container("new", "new")}, nil
		}
	}

	oldHandle := f.store.RefreshContainers()
	<-startedOld
	newHandle := f.store.RefreshContainers()

	// Let the newer request finish first, then release the older one.
	close(gateNew)
	got, err := newHandle.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, "new", got[0].ID)

	close(gateOld)
	got, err = oldHandle.Wait(context.Background())
	require.NoError(t, err)
	// The superseded operation resolves with the committed state, not its
	// own fetch result.
	require.Equal(t, "new", got[0].ID)

	snap := f.store.Snapshot()
	require.Len(t, snap.Containers, 1)
	require.Equal(t, "new", snap.Containers[0].ID)
}

// Same race with reversed completion order: the older fetch finishing after
// the newer one was issued must still be discarded.
func TestRefreshContainers_StaleResultDiscardedEvenWhenFirstToFinish(t *testing.T) {
	f := newFixture(t)
	f.setUp(t)
	f.refreshEndpointsWith(t, endpoint("a", "alpha"))

	startedOld := make(chan struct{})
	gateOld := make(chan struct{})
	gateNew := make(chan struct{})
	var calls atomic.Int32
	f.client.containersFn = func(ctx context.Context, endpointID string) ([]portainer.Container, error) {
		switch calls.Add(1) {
		case 1:
			close(startedOld)
			<-gateOld
			return []portainer.Container{container("old", "old")}, nil
		default:
			<-gateNew
			return []portainer.Container{container("new", "new")}, nil
		}
	}

	oldHandle := f.store.RefreshContainers()
	<-startedOld
	newHandle := f.store.RefreshContainers()

	close(gateOld)
	_, err := oldHandle.Wait(context.Background())
	require.NoError(t, err)

	snap := f.store.Snapshot()
	require.Empty(t, snap.Containers, "stale fetch must not commit")

	close(gateNew)
	got, err := newHandle.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, "new", got[0].ID)
	require.Equal(t, "new", f.store.Snapshot().Containers[0].ID)
}

// Cancellation never raises an error to the caller and never mutates the
// targeted collection.
func TestRefresh_CancelKeepsStateAndStaysSilent(t *testing.T) {
	f := newFixture(t)
	f.setUp(t)
	f.refreshEndpointsWith(t, endpoint("a", "alpha"))
	f.refreshContainersWith(t, container("c1", "web"))

	gate := make(chan struct{})
	f.client.containersFn = func(ctx context.Context, endpointID string) ([]portainer.Container, error) {
		<-gate
		return []portainer.Container{container("c2", "db")}, nil
	}

	h := f.store.RefreshContainers()
	h.Cancel()
	close(gate)

	got, err := h.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, "c1", got[0].ID, "cancelled refresh resolves with prior state")

	snap := f.store.Snapshot()
	require.Equal(t, "c1", snap.Containers[0].ID)
	require.Zero(t, f.reporter.count(), "cancellation must not reach the reporter")
}

func TestRefresh_FetchObservesCancellation(t *testing.T) {
	f := newFixture(t)
	f.setUp(t)
	f.refreshEndpointsWith(t, endpoint("a", "alpha"))

	f.client.containersFn = func(ctx context.Context, endpointID string) ([]portainer.Container, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	h := f.store.RefreshContainers()
	h.Cancel()

	_, err := h.Wait(context.Background())
	require.NoError(t, err, "context.Canceled from the fetch is absorbed")
	require.Zero(t, f.reporter.count())
}

func TestRefresh_FailureKeepsPreviousDataAndReports(t *testing.T) {
	f := newFixture(t)
	f.setUp(t)
	f.refreshEndpointsWith(t, endpoint("a", "alpha"))
	f.refreshContainersWith(t, container("c1", "web"))

	boom := errors.New("boom")
	f.client.containersFn = func(ctx context.Context, endpointID string) ([]portainer.Container, error) {
		return nil, boom
	}

	_, err := f.store.RefreshContainers().Wait(context.Background())
	require.ErrorIs(t, err, boom)

	snap := f.store.Snapshot()
	require.Equal(t, "c1", snap.Containers[0].ID, "failed refresh leaves projection untouched")
	require.Equal(t, 1, f.reporter.count())
	require.False(t, f.store.IsRefreshing(), "failed handle must be cleared")
}

func TestIsRefreshing_ComputedFromLiveHandles(t *testing.T) {
	f := newFixture(t)
	f.setUp(t)
	require.False(t, f.store.IsRefreshing())

	gate := make(chan struct{})
	f.client.endpointsFn = func(ctx context.Context) ([]portainer.Endpoint, error) {
		<-gate
		return nil, nil
	}

	h := f.store.RefreshEndpoints()
	require.True(t, f.store.IsRefreshing())

	close(gate)
	_, err := h.Wait(context.Background())
	require.NoError(t, err)
	require.False(t, f.store.IsRefreshing())
}

func TestRefresh_PersistsToCacheAfterCommit(t *testing.T) {
	f := newFixture(t)
	f.setUp(t)

	f.refreshEndpointsWith(t, endpoint("b", "beta"), endpoint("a", "alpha"))

	require.Eventually(t, func() bool {
		saved, _ := f.cache.LoadEndpoints()
		return len(saved) == 2 && saved[0].ID == "a"
	}, time.Second, 5*time.Millisecond, "cache write is async but must land sorted")
}

func TestRefreshAll_SequencesEndpointsThenContainers(t *testing.T) {
	f := newFixture(t)
	f.setUp(t)

	var containerCalls atomic.Int32
	var gotEndpointID atomic.Value
	f.client.endpointsFn = func(ctx context.Context) ([]portainer.Endpoint, error) {
		return []portainer.Endpoint{endpoint("a", "alpha")}, nil
	}
	f.client.containersFn = func(ctx context.Context, endpointID string) ([]portainer.Container, error) {
		containerCalls.Add(1)
		gotEndpointID.Store(endpointID)
		return []portainer.Container{container("c1", "web")}, nil
	}
	f.client.stacksFn = func(ctx context.Context) ([]portainer.Stack, error) {
		return []portainer.Stack{stack("s1", "mon")}, nil
	}

	require.NoError(t, f.store.RefreshAll(context.Background()))
	require.Equal(t, int32(1), containerCalls.Load())
	require.Equal(t, "a", gotEndpointID.Load())

	snap := f.store.Snapshot()
	require.Len(t, snap.Endpoints, 1)
	require.Len(t, snap.Containers, 1)
	require.Len(t, snap.Stacks, 1)
	require.Equal(t, "a", snap.SelectedEndpointID)
}

func TestRefreshAll_EndpointFailureAbortsContainers(t *testing.T) {
	f := newFixture(t)
	f.setUp(t)
	f.refreshEndpointsWith(t, endpoint("a", "alpha"))

	boom := errors.New("listing failed")
	var containerCalls atomic.Int32
	f.client.endpointsFn = func(ctx context.Context) ([]portainer.Endpoint, error) {
		return nil, boom
	}
	f.client.containersFn = func(ctx context.Context, endpointID string) ([]portainer.Container, error) {
		containerCalls.Add(1)
		return nil, nil
	}

	err := f.store.RefreshAll(context.Background())
	require.ErrorIs(t, err, boom)
	require.Zero(t, containerCalls.Load(), "container step must not run after endpoint failure")
}

func TestRefreshAll_NotSetUp(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.store.RefreshAll(context.Background()), ErrNotSetUp)
}

func TestHandleWait_RespectsCallerContext(t *testing.T) {
	f := newFixture(t)
	f.setUp(t)

	gate := make(chan struct{})
	defer close(gate)
	f.client.endpointsFn = func(ctx context.Context) ([]portainer.Endpoint, error) {
		<-gate
		return nil, nil
	}

	h := f.store.RefreshEndpoints()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := h.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
