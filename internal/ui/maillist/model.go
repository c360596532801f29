// Package maillist renders the paginated email list for the selected
// account. It is a pure view over the synchronizer's snapshot: all
// fetching and selection bookkeeping happens in the parent, this model
// only draws state and translates keys into request messages.
package maillist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mailsort/internal/keys"
	"mailsort/internal/theme"
	"mailsort/internal/view"
)

// ToggleMarkMsg asks the parent to flip the mark on an email.
type ToggleMarkMsg struct {
	EmailID int64
}

// ToggleSummaryMsg asks the parent to flip summary visibility on an email.
type ToggleSummaryMsg struct {
	EmailID int64
}

// OpenEmailMsg asks the parent to open an email in the detail view.
type OpenEmailMsg struct {
	EmailID int64
}

// PageRequestMsg asks the parent to navigate to another page.
type PageRequestMsg struct {
	Page int
}

// Model is the email list view component.
type Model struct {
	snapshot view.Snapshot
	keys     *keys.KeyMap
	cursor   int
	width    int
	height   int
}

// New creates a new email list model.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{
		keys:   k,
		width:  width,
		height: height,
	}
}

// SetSnapshot replaces the rendered state. The cursor is clamped to the
// new page and reset when the page identity changed.
func (m *Model) SetSnapshot(snap view.Snapshot) {
	prevPage := m.snapshot.Page.Page
	m.snapshot = snap
	if snap.Page.Page != prevPage {
		m.cursor = 0
	}
	if m.cursor >= len(snap.Page.Emails) {
		m.cursor = len(snap.Page.Emails) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// FocusedEmailID returns the email under the cursor, if any.
func (m Model) FocusedEmailID() (int64, bool) {
	if m.cursor >= len(m.snapshot.Page.Emails) {
		return 0, false
	}
	return m.snapshot.Page.Emails[m.cursor].ID, true
}

// Init returns the initial command for the email list.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the email list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	emails := m.snapshot.Page.Emails

	switch {
	case key.Matches(keyMsg, m.keys.Down):
		if len(emails) > 0 {
			m.cursor = (m.cursor + 1) % len(emails)
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Up):
		if len(emails) > 0 {
			m.cursor--
			if m.cursor < 0 {
				m.cursor = len(emails) - 1
			}
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.ToggleMark):
		if id, ok := m.FocusedEmailID(); ok {
			return m, func() tea.Msg { return ToggleMarkMsg{EmailID: id} }
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.ToggleSummary):
		if id, ok := m.FocusedEmailID(); ok {
			return m, func() tea.Msg { return ToggleSummaryMsg{EmailID: id} }
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Select):
		if id, ok := m.FocusedEmailID(); ok {
			return m, func() tea.Msg { return OpenEmailMsg{EmailID: id} }
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.NextPage):
		if m.snapshot.Page.Page < m.snapshot.Page.TotalPages {
			page := m.snapshot.Page.Page + 1
			return m, func() tea.Msg { return PageRequestMsg{Page: page} }
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.PrevPage):
		if m.snapshot.Page.Page > 1 {
			page := m.snapshot.Page.Page - 1
			return m, func() tea.Msg { return PageRequestMsg{Page: page} }
		}
		return m, nil
	}

	return m, nil
}

// View renders the email list.
func (m Model) View() string {
	if m.snapshot.Account == nil {
		return m.centered("No account selected.\nPress 'a' to choose one.")
	}

	switch m.snapshot.EmailState {
	case view.StateLoading:
		return m.centered("Loading emails...")
	case view.StateError:
		return m.centered("Could not load emails.\nPress 'r' to retry.")
	}

	emails := m.snapshot.Page.Emails
	if len(emails) == 0 {
		if m.snapshot.Filter != nil {
			return m.centered(fmt.Sprintf(
				"No emails in %q.\nPress 'c' to pick another category.",
				m.snapshot.Filter.Name,
			))
		}
		return m.centered("No emails yet.\nPress 'r' to fetch from the server.")
	}

	var b strings.Builder
	b.WriteString(m.renderPageHeader())
	b.WriteString("\n")

	for i, e := range emails {
		a := m.snapshot.Annotations[e.ID]
		b.WriteString(renderRow(e, a, i == m.cursor, m.width))
		b.WriteString("\n")
		if a.SummaryVisible {
			b.WriteString(renderSummary(e, m.width))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// renderPageHeader draws the pagination and filter summary line.
func (m Model) renderPageHeader() string {
	p := m.snapshot.Page

	scope := "all emails"
	if m.snapshot.Filter != nil {
		scope = m.snapshot.Filter.Name
	}

	marked := 0
	for _, a := range m.snapshot.Annotations {
		if a.Selected {
			marked++
		}
	}
	markedStr := ""
	if marked > 0 {
		markedStr = theme.MarkedItemStyle.Render(fmt.Sprintf("  %d marked", marked))
	}

	return lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		Padding(0, 1).
		Render(fmt.Sprintf(
			"%s · page %d/%d · %d emails%s",
			scope, p.Page, p.TotalPages, p.TotalCount, markedStr,
		))
}

func (m Model) centered(text string) string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(text)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
