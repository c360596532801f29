package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mailsort/internal/keys"
	"mailsort/internal/theme"
)

// section is one titled group of bindings in the overlay.
type section struct {
	title    string
	bindings []key.Binding
	// note is an optional line of prose rendered under the bindings.
	note string
}

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	return Model{
		keys:   keys,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

func (m Model) sections() []section {
	k := m.keys
	return []section{
		{
			title:    "Navigation",
			bindings: []key.Binding{k.Up, k.Down, k.Select, k.Back, k.PrevPage, k.NextPage, k.Refresh, k.Quit},
		},
		{
			title:    "Bulk operations",
			bindings: []key.Binding{k.ToggleMark, k.Unsubscribe, k.Summarize, k.Categorize},
			note:     "Bulk actions run on every marked email after a confirmation prompt.\nThe status bar shows the outcome; mailsort -reports lists past runs.",
		},
		{
			title:    "Categories",
			bindings: []key.Binding{k.Categories, k.NewCategory, k.Delete},
			note:     "System categories cannot be deleted.",
		},
		{
			title:    "Email actions",
			bindings: []key.Binding{k.ToggleSummary, k.Export, k.Preview},
		},
		{
			title:    "Views",
			bindings: []key.Binding{k.Accounts, k.Help},
		},
	}
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorBlue)
	keyStyle := lipgloss.NewStyle().
		Foreground(theme.ColorWhite).
		Width(10)
	descStyle := lipgloss.NewStyle().
		Foreground(theme.ColorGray)
	noteStyle := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Italic(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("mailsort help"))
	b.WriteString("\n")

	for _, sec := range m.sections() {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, binding := range sec.bindings {
			h := binding.Help()
			b.WriteString("  ")
			b.WriteString(keyStyle.Render(h.Key))
			b.WriteString(descStyle.Render(h.Desc))
			b.WriteString("\n")
		}
		if sec.note != "" {
			for _, line := range strings.Split(sec.note, "\n") {
				b.WriteString("  ")
				b.WriteString(noteStyle.Render(line))
				b.WriteString("\n")
			}
		}
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(b.String())
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
