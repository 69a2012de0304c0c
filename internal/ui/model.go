package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/berth-tui/berth/internal/portainer"
	"github.com/berth-tui/berth/internal/store"
)

type pane int

const (
	paneEndpoints pane = iota
	paneContainers
	paneStacks
	paneCount
)

// snapshotMsg delivers the next published store snapshot.
type snapshotMsg store.Snapshot

// actionDoneMsg reports the outcome of a store operation issued by a key.
type actionDoneMsg struct{ err error }

// detailMsg carries inspected container details for the detail overlay.
type detailMsg struct {
	details portainer.ContainerDetails
	err     error
}

const actionTimeout = 30 * time.Second

// Model is the root bubbletea model. It renders store snapshots and
// translates key presses into store operations; all data state lives in the
// store, never here.
type Model struct {
	store     *store.Store
	snaps     <-chan store.Snapshot
	cancelSub func()

	snap   store.Snapshot
	pane   pane
	cursor [paneCount]int

	detail   *portainer.ContainerDetails
	lastErr  error
	width    int
	height   int
	showHelp bool

	keys   keyMap
	help   help.Model
	spin   spinner.Model
	styles Styles
}

func newModel(opts Options) *Model {
	snaps, cancel := opts.Store.Subscribe()
	styles := newStyles(opts.ThemeName)

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styles.Badge

	return &Model{
		store:     opts.Store,
		snaps:     snaps,
		cancelSub: cancel,
		snap:      opts.Store.Snapshot(),
		keys:      defaultKeyMap(),
		help:      help.New(),
		spin:      spin,
		styles:    styles,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, waitForSnapshot(m.snaps))
}

func waitForSnapshot(snaps <-chan store.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-snaps
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case snapshotMsg:
		m.snap = store.Snapshot(msg)
		m.clampCursors()
		return m, waitForSnapshot(m.snaps)

	case actionDoneMsg:
		m.lastErr = msg.err
		return m, nil

	case detailMsg:
		m.lastErr = msg.err
		if msg.err == nil && msg.details.ID != "" {
			m.detail = &msg.details
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancelSub()
		m.store.Detach()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Back):
		if m.detail != nil {
			m.detail = nil
			m.store.Detach()
			return m, nil
		}
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		if m.pane == paneEndpoints {
			return m, m.action(func(ctx context.Context) error {
				return m.store.SelectEndpoint("")
			})
		}
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	}

	if m.detail != nil {
		// Detail overlay only responds to back/quit/help.
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.NextTab):
		m.pane = (m.pane + 1) % paneCount
		return m, nil

	case key.Matches(msg, m.keys.PrevTab):
		m.pane = (m.pane + paneCount - 1) % paneCount
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshPane()

	case key.Matches(msg, m.keys.Select):
		return m, m.selectCurrent()

	case key.Matches(msg, m.keys.Remove):
		return m, m.removeCurrent()

	case key.Matches(msg, m.keys.Start):
		if m.pane == paneStacks {
			if id, ok := m.currentStackID(); ok {
				return m, m.action(func(ctx context.Context) error {
					return m.store.StartStack(ctx, id)
				})
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Stop):
		if m.pane == paneStacks {
			if id, ok := m.currentStackID(); ok {
				return m, m.action(func(ctx context.Context) error {
					return m.store.StopStack(ctx, id)
				})
			}
		}
		return m, nil
	}
	return m, nil
}

// action runs a store operation off the update loop and reports its outcome.
func (m *Model) action(call func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return actionDoneMsg{err: call(ctx)}
	}
}

func (m *Model) refreshPane() tea.Cmd {
	switch m.pane {
	case paneContainers:
		handle := m.store.RefreshContainers()
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
			defer cancel()
			_, err := handle.Wait(ctx)
			return actionDoneMsg{err: err}
		}
	case paneStacks:
		handle := m.store.RefreshStacks()
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
			defer cancel()
			_, err := handle.Wait(ctx)
			return actionDoneMsg{err: err}
		}
	default:
		handle := m.store.RefreshEndpoints()
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
			defer cancel()
			_, err := handle.Wait(ctx)
			return actionDoneMsg{err: err}
		}
	}
}

func (m *Model) selectCurrent() tea.Cmd {
	switch m.pane {
	case paneEndpoints:
		if m.cursor[paneEndpoints] < len(m.snap.Endpoints) {
			id := m.snap.Endpoints[m.cursor[paneEndpoints]].ID
			return m.action(func(ctx context.Context) error {
				return m.store.SelectEndpoint(id)
			})
		}
	case paneContainers:
		if id, ok := m.currentContainerID(); ok {
			return m.inspect(id)
		}
	}
	return nil
}

// inspect attaches to a container and fetches its details for the overlay.
func (m *Model) inspect(id string) tea.Cmd {
	return func() tea.Msg {
		if err := m.store.Attach(id); err != nil {
			return detailMsg{err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		details, err := m.store.InspectContainer(ctx, id)
		return detailMsg{details: details, err: err}
	}
}

func (m *Model) removeCurrent() tea.Cmd {
	switch m.pane {
	case paneContainers:
		if id, ok := m.currentContainerID(); ok {
			return m.action(func(ctx context.Context) error {
				return m.store.RemoveContainer(ctx, id)
			})
		}
	case paneStacks:
		if id, ok := m.currentStackID(); ok {
			return m.action(func(ctx context.Context) error {
				return m.store.RemoveStack(ctx, id)
			})
		}
	}
	return nil
}

func (m *Model) currentContainerID() (string, bool) {
	if m.cursor[paneContainers] < len(m.snap.Containers) {
		return m.snap.Containers[m.cursor[paneContainers]].ID, true
	}
	return "", false
}

func (m *Model) currentStackID() (string, bool) {
	if m.cursor[paneStacks] < len(m.snap.Stacks) {
		return m.snap.Stacks[m.cursor[paneStacks]].ID, true
	}
	return "", false
}

func (m *Model) paneLen(p pane) int {
	switch p {
	case paneEndpoints:
		return len(m.snap.Endpoints)
	case paneContainers:
		return len(m.snap.Containers)
	default:
		return len(m.snap.Stacks)
	}
}

func (m *Model) moveCursor(delta int) {
	length := m.paneLen(m.pane)
	if length == 0 {
		m.cursor[m.pane] = 0
		return
	}
	next := m.cursor[m.pane] + delta
	if next < 0 {
		next = 0
	}
	if next >= length {
		next = length - 1
	}
	m.cursor[m.pane] = next
}

// clampCursors keeps every pane cursor inside its collection after a
// snapshot shrinks it.
func (m *Model) clampCursors() {
	for p := pane(0); p < paneCount; p++ {
		if length := m.paneLen(p); m.cursor[p] >= length {
			if length == 0 {
				m.cursor[p] = 0
			} else {
				m.cursor[p] = length - 1
			}
		}
	}
}
