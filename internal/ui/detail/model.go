// Package detail renders a single email: headers, category badges, the
// generated summary when one exists, and the body flattened to terminal
// text. The raw HTML never reaches the terminal.
package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mailsort/internal/category"
	"mailsort/internal/keys"
	"mailsort/internal/model"
	"mailsort/internal/render"
	"mailsort/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// ExportRequestMsg asks the parent to export the email as a .eml file.
type ExportRequestMsg struct {
	EmailID int64
}

// PreviewRequestMsg asks the parent to open the email in a browser.
type PreviewRequestMsg struct {
	EmailID int64
}

// Model is the email detail view component.
type Model struct {
	email      *model.Email
	categories []model.Category
	viewport   viewport.Model
	keys       *keys.KeyMap
	width      int
	height     int
}

// New creates a new detail view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// SetEmail updates the email being displayed. categories is the account's
// category list, used to resolve the email's category IDs to names.
func (m *Model) SetEmail(email model.Email, categories []model.Category) {
	m.email = &email
	m.categories = categories
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(keyMsg, m.keys.Export):
			if m.email != nil {
				id := m.email.ID
				return m, func() tea.Msg { return ExportRequestMsg{EmailID: id} }
			}

		case key.Matches(keyMsg, m.keys.Preview):
			if m.email != nil {
				id := m.email.ID
				return m, func() tea.Msg { return PreviewRequestMsg{EmailID: id} }
			}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.email == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No email selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.email == nil {
		return ""
	}

	email := m.email
	var sections []string

	// Subject
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	subject := email.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	sections = append(sections, titleStyle.Render(subject))

	// Category badges
	if badges := m.categoryBadges(); badges != "" {
		sections = append(sections, badges)
	}
	sections = append(sections, "")

	// Metadata
	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	sections = append(sections, fmt.Sprintf(
		"%s      %s",
		metaStyle.Render("From:"),
		valStyle.Render(email.Sender),
	))
	if !email.ReceivedAt.IsZero() {
		sections = append(sections, fmt.Sprintf(
			"%s  %s",
			metaStyle.Render("Received:"),
			valStyle.Render(email.ReceivedAt.Format("2006-01-02 15:04")),
		))
	}
	if email.UnsubscribeLink != nil && *email.UnsubscribeLink != "" {
		sections = append(sections, fmt.Sprintf(
			"%s  %s",
			metaStyle.Render("List-Uns:"),
			valStyle.Render(*email.UnsubscribeLink),
		))
	}

	// Separator
	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", min(m.width-4, 80)))

	// Summary section, when one has been generated.
	if email.AISummary != nil && *email.AISummary != "" {
		sections = append(sections, "")
		sections = append(sections, separator)
		sections = append(sections, "")

		summaryHeader := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorWhite)
		sections = append(sections, summaryHeader.Render("Summary"))
		sections = append(sections, theme.SummaryStyle.UnsetPaddingLeft().Render(*email.AISummary))
	}

	sections = append(sections, "")
	sections = append(sections, separator)
	sections = append(sections, "")

	// Body, flattened for the terminal.
	body := render.RenderText(email.Body)
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("Empty body")
	}
	sections = append(sections, body)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// categoryBadges renders the email's categories, resolved to names.
func (m Model) categoryBadges() string {
	if len(m.email.CategoryIDs) == 0 {
		return ""
	}

	byID := make(map[int64]model.Category, len(m.categories))
	for _, c := range m.categories {
		byID[c.ID] = c
	}

	var badges []string
	for _, id := range m.email.CategoryIDs {
		c, ok := byID[id]
		if !ok {
			continue
		}
		badges = append(badges, theme.CategoryStyle(category.IsSystem(c.Name)).Render(c.Name))
	}
	if len(badges) == 0 {
		return ""
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, badges...)
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
}
