package ui

import "github.com/charmbracelet/lipgloss"

// Styles carries the lipgloss styles for one theme.
type Styles struct {
	Header      lipgloss.Style
	Server      lipgloss.Style
	Tab         lipgloss.Style
	TabActive   lipgloss.Style
	Row         lipgloss.Style
	RowSelected lipgloss.Style
	Muted       lipgloss.Style
	Badge       lipgloss.Style
	StateUp     lipgloss.Style
	StateDown   lipgloss.Style
	Error       lipgloss.Style
	DetailTitle lipgloss.Style
	DetailKey   lipgloss.Style
}

type palette struct {
	accent  string
	text    string
	muted   string
	good    string
	bad     string
	warning string
}

var palettes = map[string]palette{
	"harbor": {
		accent:  "39",
		text:    "252",
		muted:   "244",
		good:    "42",
		bad:     "203",
		warning: "214",
	},
	"slate": {
		accent:  "105",
		text:    "253",
		muted:   "242",
		good:    "78",
		bad:     "168",
		warning: "179",
	},
}

// newStyles builds the style set for a theme name, falling back to harbor
// when the name is unknown.
func newStyles(name string) Styles {
	p, ok := palettes[name]
	if !ok {
		p = palettes["harbor"]
	}
	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(p.accent)),
		Server: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.text)),
		Tab: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.muted)).
			Padding(0, 1),
		TabActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(p.accent)).
			Underline(true).
			Padding(0, 1),
		Row: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.text)),
		RowSelected: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(p.accent)),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.muted)),
		Badge: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.warning)),
		StateUp: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.good)),
		StateDown: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.bad)),
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(p.bad)),
		DetailTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(p.accent)),
		DetailKey: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.muted)),
	}
}
