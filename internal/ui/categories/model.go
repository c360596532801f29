// Package categories is the category browser: pick one to filter the
// email list, create custom labels, and delete them. Provider labels are
// shown in their own section and cannot be deleted.
package categories

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"mailsort/internal/category"
	"mailsort/internal/keys"
	"mailsort/internal/model"
	"mailsort/internal/theme"
)

// ChosenMsg signals that the user picked a filter. A nil Category means
// the "all emails" entry.
type ChosenMsg struct {
	Category *model.Category
}

// CreateMsg asks the parent to create a custom category on the server.
type CreateMsg struct {
	Name        string
	Description string
}

// DeleteRequestMsg asks the parent to delete a custom category.
type DeleteRequestMsg struct {
	CategoryID int64
}

// CloseMsg signals the parent to close the category view.
type CloseMsg struct{}

type mode int

const (
	modeList mode = iota
	modeForm
	modeConfirmDelete
)

// row is one selectable line: the "all" entry or a category.
type row struct {
	all      bool
	category model.Category
	system   bool
}

type formBindings struct {
	name        string
	description string
	confirm     bool
}

// Model is the category browser view component.
type Model struct {
	mode        mode
	keys        *keys.KeyMap
	rows        []row
	selectedIdx int
	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings
	statusMsg   string
	width       int
	height      int
}

// New creates a new category browser model.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{
		keys:  k,
		fb:    &formBindings{},
		width: width, height: height,
	}
}

// SetCategories rebuilds the rows: the all-emails entry first, then the
// user's custom labels, then the provider's system labels.
func (m *Model) SetCategories(categories []model.Category) {
	rows := []row{{all: true}}
	for _, c := range category.CustomOnly(categories) {
		rows = append(rows, row{category: c})
	}
	for _, c := range category.SystemOnly(categories) {
		rows = append(rows, row{category: c, system: true})
	}
	m.rows = rows
	if m.selectedIdx >= len(rows) {
		m.selectedIdx = len(rows) - 1
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the category browser.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(keyMsg, m.keys.Down):
		if len(m.rows) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.rows)
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Up):
		if len(m.rows) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.rows) - 1
			}
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Select):
		if m.selectedIdx >= len(m.rows) {
			return m, nil
		}
		r := m.rows[m.selectedIdx]
		if r.all {
			return m, func() tea.Msg { return ChosenMsg{Category: nil} }
		}
		c := r.category
		return m, func() tea.Msg { return ChosenMsg{Category: &c} }

	case key.Matches(keyMsg, m.keys.NewCategory):
		m.fb.name = ""
		m.fb.description = ""
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(keyMsg, m.keys.Delete):
		if m.selectedIdx >= len(m.rows) {
			return m, nil
		}
		r := m.rows[m.selectedIdx]
		if r.all {
			return m, nil
		}
		if r.system {
			m.statusMsg = fmt.Sprintf("%q is a provider label and cannot be deleted", r.category.Name)
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()
	}

	return m, nil
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("Newsletters").
				Value(&m.fb.name).
				Validate(func(s string) error {
					name := strings.TrimSpace(s)
					if name == "" {
						return fmt.Errorf("name is required")
					}
					if category.IsSystem(name) {
						return fmt.Errorf("%q is reserved by the provider", name)
					}
					return nil
				}),
			huh.NewText().
				Title("Description").
				Placeholder("What belongs here? The classifier uses this.").
				Value(&m.fb.description),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildConfirmForm() *huh.Form {
	name := ""
	if m.selectedIdx < len(m.rows) {
		name = m.rows[m.selectedIdx].category.Name
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete category %q?", name)).
				Description("Emails keep their other labels.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		m.mode = modeList
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		m.mode = modeList
		name := strings.TrimSpace(m.fb.name)
		description := strings.TrimSpace(m.fb.description)
		return m, func() tea.Msg {
			return CreateMsg{Name: name, Description: description}
		}
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		m.mode = modeList
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	if m.confirmForm.State == huh.StateCompleted {
		m.mode = modeList
		if m.fb.confirm && m.selectedIdx < len(m.rows) {
			id := m.rows[m.selectedIdx].category.ID
			return m, func() tea.Msg { return DeleteRequestMsg{CategoryID: id} }
		}
		return m, nil
	}
	if m.confirmForm.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

// View renders the category browser.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return m.viewForm(m.form)
	case modeConfirmDelete:
		return m.viewForm(m.confirmForm)
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Categories"))
	b.WriteString("\n\n")

	sectionStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Bold(true)
	wroteCustomHeader := false
	wroteSystemHeader := false

	for i, r := range m.rows {
		switch {
		case !r.all && !r.system && !wroteCustomHeader:
			b.WriteString(sectionStyle.Render("Your labels"))
			b.WriteString("\n")
			wroteCustomHeader = true
		case r.system && !wroteSystemHeader:
			if wroteCustomHeader {
				b.WriteString("\n")
			}
			b.WriteString(sectionStyle.Render("Provider labels"))
			b.WriteString("\n")
			wroteSystemHeader = true
		}

		label := "All emails"
		if !r.all {
			label = theme.CategoryStyle(r.system).Render(r.category.Name)
			if r.category.Description != nil && *r.category.Description != "" {
				label += theme.DimmedStyle.Render("  " + truncate(*r.category.Description, 40))
			}
		}

		if i == m.selectedIdx {
			b.WriteString(theme.SelectedItemStyle.Render(label))
		} else {
			b.WriteString(theme.ListItemStyle.Render(label))
		}
		b.WriteString("\n")
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"enter filter | n new | d delete | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(f.View())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
