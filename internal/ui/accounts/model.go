// Package accounts is the account picker shown at startup and when the
// user switches mailboxes.
package accounts

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"mailsort/internal/keys"
	"mailsort/internal/model"
	"mailsort/internal/theme"
)

// ChosenMsg signals that the user picked an account.
type ChosenMsg struct {
	Account model.Account
}

// DeleteRequestMsg asks the parent to disconnect an account on the server.
type DeleteRequestMsg struct {
	AccountID int64
}

type mode int

const (
	modeList mode = iota
	modeConfirmDelete
)

// Model is the account picker view component.
type Model struct {
	mode        mode
	keys        *keys.KeyMap
	accounts    []model.Account
	selectedIdx int
	confirmForm *huh.Form
	confirm     *bool
	width       int
	height      int
}

// New creates a new account picker model.
func New(k *keys.KeyMap, width, height int) Model {
	confirm := false
	return Model{
		keys:    k,
		confirm: &confirm,
		width:   width,
		height:  height,
	}
}

// SetAccounts replaces the account list, keeping the cursor in range.
func (m *Model) SetAccounts(accounts []model.Account) {
	m.accounts = accounts
	if m.selectedIdx >= len(accounts) && m.selectedIdx > 0 {
		m.selectedIdx = len(accounts) - 1
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the account picker.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.mode == modeConfirmDelete {
		return m.updateConfirm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Down):
		if len(m.accounts) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.accounts)
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Up):
		if len(m.accounts) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.accounts) - 1
			}
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Select):
		if m.selectedIdx < len(m.accounts) {
			account := m.accounts[m.selectedIdx]
			return m, func() tea.Msg { return ChosenMsg{Account: account} }
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Delete):
		if len(m.accounts) == 0 {
			return m, nil
		}
		*m.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()
	}

	return m, nil
}

func (m Model) buildConfirmForm() *huh.Form {
	email := ""
	if m.selectedIdx < len(m.accounts) {
		email = m.accounts[m.selectedIdx].Email
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Disconnect %s?", email)).
				Description("Its emails and categories are removed from the sorting service.").
				Affirmative("Yes, disconnect").
				Negative("Cancel").
				Value(m.confirm),
		),
	).WithWidth(m.formWidth())
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
		if *m.confirm && m.selectedIdx < len(m.accounts) {
			id := m.accounts[m.selectedIdx].ID
			return m, func() tea.Msg { return DeleteRequestMsg{AccountID: id} }
		}
		return m, nil
	}
	if m.confirmForm.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

// View renders the account picker.
func (m Model) View() string {
	if m.mode == modeConfirmDelete && m.confirmForm != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.confirmForm.View())
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Accounts"))
	b.WriteString("\n\n")

	if len(m.accounts) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render(
			"No accounts connected yet.\nConnect one from the web dashboard, then press 'r'.",
		))
	} else {
		for i, a := range m.accounts {
			label := a.Email
			if a.Name != "" {
				label = fmt.Sprintf("%s  %s", a.Email, theme.DimmedStyle.Render(a.Name))
			}
			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(label))
			} else {
				b.WriteString(theme.ListItemStyle.Render(label))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"enter open | d disconnect | r refresh | q quit",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
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
