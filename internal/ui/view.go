package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/berth-tui/berth/internal/portainer"
)

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.tabsView())
	b.WriteString("\n\n")

	if m.detail != nil {
		b.WriteString(m.detailView())
	} else {
		b.WriteString(m.paneView())
	}

	b.WriteString("\n")
	if m.lastErr != nil {
		b.WriteString(m.styles.Error.Render("error: " + m.lastErr.Error()))
		b.WriteString("\n")
	}
	m.help.ShowAll = m.showHelp
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) headerView() string {
	title := m.styles.Header.Render("berth")

	server := "not connected"
	if m.snap.IsSetup {
		server = m.store.Server()
	}
	parts := []string{title, m.styles.Server.Render(server)}

	if m.snap.SelectedEndpointID != "" {
		parts = append(parts, m.styles.Muted.Render("endpoint "+m.endpointName(m.snap.SelectedEndpointID)))
	}
	if m.store.IsRefreshing() {
		parts = append(parts, m.spin.View()+m.styles.Muted.Render("refreshing"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(parts, "  "))
}

func (m *Model) tabsView() string {
	labels := [paneCount]string{"Endpoints", "Containers", "Stacks"}
	cached := [paneCount]bool{m.snap.EndpointsFromCache, m.snap.ContainersFromCache, m.snap.StacksFromCache}

	tabs := make([]string, 0, paneCount)
	for p := pane(0); p < paneCount; p++ {
		label := fmt.Sprintf("%s (%d)", labels[p], m.paneLen(p))
		if cached[p] {
			label += " " + m.styles.Badge.Render("cached")
		}
		if p == m.pane {
			tabs = append(tabs, m.styles.TabActive.Render(label))
		} else {
			tabs = append(tabs, m.styles.Tab.Render(label))
		}
	}
	return strings.Join(tabs, " ")
}

func (m *Model) paneView() string {
	switch m.pane {
	case paneEndpoints:
		return m.endpointsView()
	case paneContainers:
		return m.containersView()
	default:
		return m.stacksView()
	}
}

func (m *Model) endpointsView() string {
	if len(m.snap.Endpoints) == 0 {
		return m.styles.Muted.Render("  no endpoints")
	}
	var b strings.Builder
	for i, e := range m.snap.Endpoints {
		status := m.styles.StateDown.Render("down")
		if e.Status == portainer.EndpointUp {
			status = m.styles.StateUp.Render("up")
		}
		marker := "  "
		if e.ID == m.snap.SelectedEndpointID {
			marker = m.styles.RowSelected.Render("* ")
		}
		line := fmt.Sprintf("%s%-24s %s", marker, e.Name, status)
		b.WriteString(m.rowStyle(paneEndpoints, i).Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) containersView() string {
	if m.snap.SelectedEndpointID == "" {
		return m.styles.Muted.Render("  select an endpoint first")
	}
	if len(m.snap.Containers) == 0 {
		return m.styles.Muted.Render("  no containers")
	}
	var b strings.Builder
	for i, c := range m.snap.Containers {
		if _, removed := m.snap.RemovedContainerIDs[c.ID]; removed {
			continue
		}
		state := m.styles.StateDown.Render(c.State)
		if c.State == "running" {
			state = m.styles.StateUp.Render(c.State)
		}
		marker := "  "
		if c.ID == m.snap.AttachedContainerID {
			marker = m.styles.RowSelected.Render("@ ")
		}
		line := fmt.Sprintf("%s%-32s %s", marker, c.DisplayName, state)
		b.WriteString(m.rowStyle(paneContainers, i).Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) stacksView() string {
	if len(m.snap.Stacks) == 0 {
		return m.styles.Muted.Render("  no stacks")
	}
	var b strings.Builder
	for i, st := range m.snap.Stacks {
		if _, removed := m.snap.RemovedStackIDs[st.ID]; removed {
			continue
		}
		status := st.Status
		if _, loading := m.snap.LoadingStackIDs[st.ID]; loading {
			status = m.spin.View() + m.styles.Badge.Render("working")
		}
		line := fmt.Sprintf("  %-32s %s", st.Name, status)
		b.WriteString(m.rowStyle(paneStacks, i).Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) detailView() string {
	d := m.detail
	var b strings.Builder
	b.WriteString(m.styles.DetailTitle.Render(d.Name))
	b.WriteString("\n\n")

	row := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", m.styles.DetailKey.Render(fmt.Sprintf("%-10s", label)), value))
	}
	row("id", d.ID)
	row("image", d.Image)
	row("state", d.State)
	row("created", d.Created)
	row("command", d.Command)

	if len(d.Ports) > 0 {
		b.WriteString("\n  " + m.styles.DetailKey.Render("ports") + "\n")
		for _, p := range d.Ports {
			b.WriteString(fmt.Sprintf("    %d -> %d/%s\n", p.Public, p.Private, p.Type))
		}
	}
	if len(d.Mounts) > 0 {
		b.WriteString("\n  " + m.styles.DetailKey.Render("mounts") + "\n")
		for _, mount := range d.Mounts {
			b.WriteString("    " + mount + "\n")
		}
	}
	if len(d.Env) > 0 {
		b.WriteString("\n  " + m.styles.DetailKey.Render("env") + "\n")
		for _, e := range d.Env {
			b.WriteString("    " + e + "\n")
		}
	}
	b.WriteString("\n" + m.styles.Muted.Render("  esc to close"))
	return b.String()
}

func (m *Model) rowStyle(p pane, index int) lipgloss.Style {
	if p == m.pane && index == m.cursor[p] {
		return m.styles.RowSelected
	}
	return m.styles.Row
}

func (m *Model) endpointName(id string) string {
	for _, e := range m.snap.Endpoints {
		if e.ID == id {
			return e.Name
		}
	}
	return id
}
