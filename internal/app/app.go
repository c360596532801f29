package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"mailsort/internal/api"
	"mailsort/internal/bulk"
	"mailsort/internal/category"
	"mailsort/internal/keys"
	"mailsort/internal/model"
	"mailsort/internal/store"
	appsync "mailsort/internal/sync"
	"mailsort/internal/theme"
	"mailsort/internal/ui"
	"mailsort/internal/ui/accounts"
	"mailsort/internal/ui/categories"
	"mailsort/internal/ui/detail"
	helpview "mailsort/internal/ui/help"
	"mailsort/internal/ui/maillist"
	"mailsort/internal/view"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewAccounts ViewState = iota
	ViewMail
	ViewCategories
	ViewDetail
	ViewHelp
	ViewConfirm
)

// Model is the root Bubble Tea model that manages view routing, layout,
// and every side effect: the subviews only render state and emit request
// messages back up.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap
	logger       *log.Logger

	client *api.Client
	store  store.Store
	sync   *view.Synchronizer
	poller *appsync.Poller
	runner bulk.Runner

	snap view.Snapshot

	accountsView   accounts.Model
	mailList       maillist.Model
	categoriesView categories.Model
	detailView     detail.Model
	helpView       helpview.Model

	// Pending bulk operation awaiting confirmation. The accept flag
	// lives on the heap so the huh form can bind to it across the
	// value-receiver Update calls.
	confirmForm   *huh.Form
	confirmAccept *bool
	pendingKind   bulk.Kind
	pendingIDs    []int64

	ready            bool
	statusMsg        string
	authErrorMessage string
}

// New creates the root application model.
func New(client *api.Client, s store.Store, cfg *model.AppConfig, logger *log.Logger) Model {
	if logger == nil {
		logger = log.Default()
	}
	k := keys.DefaultKeyMap()
	sync := view.New(client, cfg.Display.PageSize, logger)
	interval := time.Duration(cfg.Display.PollIntervalSec) * time.Second
	poller := appsync.New(client, s, interval, logger)

	return Model{
		currentView:    ViewAccounts,
		keys:           k,
		logger:         logger,
		client:         client,
		store:          s,
		sync:           sync,
		poller:         poller,
		runner:         bulk.Runner{Workers: cfg.Bulk.Workers},
		snap:           sync.Snapshot(),
		accountsView:   accounts.New(k, 80, 24),
		mailList:       maillist.New(k, 80, 24),
		categoriesView: categories.New(k, 80, 24),
		detailView:     detail.New(k, 80, 24),
		helpView:       helpview.New(k, 80, 24),
	}
}

// Init seeds the account picker from the local cache so the UI is usable
// before the first poll completes, then starts the background poller.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadCachedAccounts(),
		m.poller.Start(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w := m.layout.ContentWidth()
		h := m.layout.ContentHeight()
		m.accountsView.SetSize(w, h)
		m.mailList.SetSize(m.layout.MainWidth(), h)
		m.categoriesView.SetSize(w, h)
		m.detailView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		// Forward to the active view so huh forms can lay themselves out.
		return m.updateActiveView(msg)

	case cachedAccountsMsg:
		if len(msg.accounts) > 0 {
			m.accountsView.SetAccounts(msg.accounts)
		}
		return m, nil

	case appsync.AccountsMsg:
		if msg.AuthError != nil {
			m.authErrorMessage = msg.AuthError.Message
		} else if msg.Error == nil {
			m.authErrorMessage = ""
		}
		cmds := []tea.Cmd{m.poller.WaitForNextResult()}
		if msg.Error == nil {
			m.accountsView.SetAccounts(msg.Accounts)
			if msg.NewAccountCount > 0 {
				m.statusMsg = fmt.Sprintf("%d new account(s) connected", msg.NewAccountCount)
			}
			// Server-side changes (new categorizations, summaries) become
			// visible by reloading the page the user is looking at.
			if msg.AuthError == nil && m.snap.Account != nil {
				cmds = append(cmds, m.syncCmd(func(ctx context.Context) { m.sync.Reload(ctx) }))
			}
		}
		return m, tea.Batch(cmds...)

	case viewRefreshedMsg:
		m.refreshFromSnapshot()
		if m.currentView == ViewDetail && m.snap.OpenEmailID == nil {
			m.currentView = ViewMail
		}
		return m, nil

	case accounts.ChosenMsg:
		m.currentView = ViewMail
		m.statusMsg = ""
		account := msg.Account
		// The cached labels resolve long before the live fetch, so the
		// sidebar has content while the email page loads.
		return m, tea.Batch(
			m.syncCmd(func(ctx context.Context) {
				m.sync.SelectAccount(ctx, account)
			}),
			m.seedCategoriesFromCache(account.ID),
		)

	case accounts.DeleteRequestMsg:
		return m, m.deleteAccount(msg.AccountID)

	case accountDeletedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("disconnect failed: %v", msg.err)
			return m, nil
		}
		m.statusMsg = "account disconnected"
		return m, m.poller.Refresh()

	case categories.ChosenMsg:
		m.currentView = ViewMail
		filter := msg.Category
		return m, m.syncCmd(func(ctx context.Context) {
			m.sync.SelectCategory(ctx, filter)
		})

	case categories.CreateMsg:
		return m, m.createCategory(msg.Name, msg.Description)

	case categories.DeleteRequestMsg:
		return m, m.deleteCategory(msg.CategoryID)

	case categories.CloseMsg:
		m.currentView = ViewMail
		return m, nil

	case categoryChangedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("category change failed: %v", msg.err)
			return m, nil
		}
		if msg.created != "" {
			m.statusMsg = fmt.Sprintf("category %q created", msg.created)
		}
		// Deleting the active filter invalidates the whole email view,
		// not just the sidebar, so fall back to the unfiltered list.
		if msg.deletedID != 0 && m.snap.Filter != nil && m.snap.Filter.ID == msg.deletedID {
			return m, m.syncCmd(func(ctx context.Context) {
				m.sync.SelectCategory(ctx, nil)
			})
		}
		return m, m.syncCmd(func(ctx context.Context) {
			m.sync.ReloadCategories(ctx)
		})

	case maillist.ToggleMarkMsg:
		m.sync.ToggleSelected(msg.EmailID)
		m.refreshFromSnapshot()
		return m, nil

	case maillist.ToggleSummaryMsg:
		m.sync.ToggleSummary(msg.EmailID)
		m.refreshFromSnapshot()
		return m, nil

	case maillist.PageRequestMsg:
		page := msg.Page
		return m, m.syncCmd(func(ctx context.Context) {
			m.sync.GoToPage(ctx, page)
		})

	case maillist.OpenEmailMsg:
		email, ok := m.findEmail(msg.EmailID)
		if !ok {
			return m, nil
		}
		id := email.ID
		m.sync.SetOpenEmail(&id)
		m.refreshFromSnapshot()
		m.detailView.SetEmail(email, m.snap.Categories)
		m.previousView = m.currentView
		m.currentView = ViewDetail
		return m, nil

	case detail.BackMsg:
		m.sync.SetOpenEmail(nil)
		m.refreshFromSnapshot()
		m.currentView = ViewMail
		return m, nil

	case detail.ExportRequestMsg:
		return m, m.exportEmail(msg.EmailID)

	case detail.PreviewRequestMsg:
		return m, m.previewEmail(msg.EmailID)

	case exportDoneMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("export failed: %v", msg.err)
		} else if msg.path != "" {
			m.statusMsg = "saved " + msg.path
		} else {
			m.statusMsg = "opened in browser"
		}
		return m, nil

	case bulkDoneMsg:
		return m.handleBulkDone(msg)

	case reportSavedMsg:
		if msg.err != nil {
			m.logger.Printf("saving bulk report failed: %v", msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		if updated, cmd, handled := m.handleGlobalKey(msg); handled {
			return updated, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that the root owns. Returns handled=false
// when the key should fall through to the active view, which keeps form
// typing from being stolen.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		m.poller.Stop()
		return m, tea.Quit, true
	}

	// Forms and the confirm modal get every other key verbatim.
	if m.currentView == ViewConfirm {
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.currentView == ViewMail || m.currentView == ViewAccounts {
			m.poller.Stop()
			return m, tea.Quit, true
		}

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		if m.currentView == ViewMail || m.currentView == ViewAccounts {
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil, true
		}

	case key.Matches(msg, m.keys.Accounts):
		if m.currentView == ViewMail {
			m.currentView = ViewAccounts
			return m, nil, true
		}

	case key.Matches(msg, m.keys.Categories):
		if m.currentView == ViewMail {
			m.categoriesView.SetCategories(m.snap.Categories)
			m.previousView = m.currentView
			m.currentView = ViewCategories
			return m, nil, true
		}

	case key.Matches(msg, m.keys.Refresh):
		if m.currentView == ViewMail {
			m.statusMsg = ""
			return m, tea.Batch(
				m.syncCmd(func(ctx context.Context) { m.sync.Refresh(ctx) }),
				m.poller.Refresh(),
			), true
		}
		if m.currentView == ViewAccounts {
			return m, m.poller.Refresh(), true
		}

	case key.Matches(msg, m.keys.Unsubscribe):
		if m.currentView == ViewMail {
			return m.startBulk(bulk.KindUnsubscribe)
		}

	case key.Matches(msg, m.keys.Summarize):
		if m.currentView == ViewMail {
			return m.startBulk(bulk.KindSummarize)
		}

	case key.Matches(msg, m.keys.Categorize):
		if m.currentView == ViewMail {
			return m.startBulk(bulk.KindCategorize)
		}
	}

	return m, nil, false
}

// startBulk validates the selection and opens the confirmation modal.
func (m Model) startBulk(kind bulk.Kind) (Model, tea.Cmd, bool) {
	ids := m.sync.SelectedIDs()
	if len(ids) == 0 {
		m.statusMsg = "no emails marked (press space to mark)"
		return m, nil, true
	}

	m.pendingKind = kind
	m.pendingIDs = ids
	m.confirmAccept = new(bool)
	m.confirmForm = m.buildConfirmForm(kind, len(ids))
	m.previousView = m.currentView
	m.currentView = ViewConfirm
	return m, m.confirmForm.Init(), true
}

func (m Model) buildConfirmForm(kind bulk.Kind, count int) *huh.Form {
	verb := map[bulk.Kind]string{
		bulk.KindUnsubscribe: "Unsubscribe from",
		bulk.KindSummarize:   "Summarize",
		bulk.KindCategorize:  "Categorize",
	}[kind]

	width := m.layout.ContentWidth() - 4
	if width < 30 {
		width = 30
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("%s %d marked email(s)?", verb, count)).
				Description("The operation runs against the sorting service and cannot be undone here.").
				Affirmative("Yes, run it").
				Negative("Cancel").
				Value(m.confirmAccept),
		),
	).WithWidth(width)
}

// updateConfirm drives the confirmation modal to completion.
func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		m.currentView = m.previousView
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	if m.confirmForm.State == huh.StateCompleted {
		m.currentView = m.previousView
		kind, ids := m.pendingKind, m.pendingIDs
		accepted := *m.confirmAccept
		m.confirmForm = nil
		m.pendingIDs = nil
		if accepted {
			m.statusMsg = fmt.Sprintf("running %s on %d email(s)...", kind, len(ids))
			return m, m.runBulk(kind, ids)
		}
		return m, nil
	}
	if m.confirmForm.State == huh.StateAborted {
		m.currentView = m.previousView
		m.confirmForm = nil
		m.pendingIDs = nil
		return m, nil
	}
	return m, cmd
}

// handleBulkDone archives the report and reconciles the view with the
// server-side changes the operation made.
func (m Model) handleBulkDone(msg bulkDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.statusMsg = fmt.Sprintf("%s failed: %v", msg.kind, msg.err)
		return m, nil
	}
	m.statusMsg = msg.report.Summary()

	cmds := []tea.Cmd{}
	if m.snap.Account != nil {
		cmds = append(cmds, m.saveReport(m.snap.Account.ID, *msg.report))
	}
	m.sync.ClearSelection()
	cmds = append(cmds, m.syncCmd(func(ctx context.Context) { m.sync.Reload(ctx) }))
	return m, tea.Batch(cmds...)
}

// refreshFromSnapshot pushes the current synchronizer state into every
// subview that renders it.
func (m *Model) refreshFromSnapshot() {
	m.snap = m.sync.Snapshot()
	m.mailList.SetSnapshot(m.snap)
	m.categoriesView.SetCategories(m.snap.Categories)
	if m.snap.OpenEmailID != nil {
		if email, ok := m.findEmail(*m.snap.OpenEmailID); ok {
			m.detailView.SetEmail(email, m.snap.Categories)
		} else {
			// Open email fell off the page after a reload.
			m.sync.SetOpenEmail(nil)
			m.snap = m.sync.Snapshot()
		}
	}
}

// findEmail looks up an email on the currently displayed page.
func (m Model) findEmail(id int64) (model.Email, bool) {
	for _, e := range m.snap.Page.Emails {
		if e.ID == id {
			return e, true
		}
	}
	return model.Email{}, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewAccounts:
		m.accountsView, cmd = m.accountsView.Update(msg)
	case ViewMail:
		m.mailList, cmd = m.mailList.Update(msg)
	case ViewCategories:
		m.categoriesView, cmd = m.categoriesView.Update(msg)
	case ViewDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewConfirm:
		return m.updateConfirm(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := "mailsort"
	if m.snap.Account != nil {
		title = "mailsort · " + m.snap.Account.Email
	}
	header := m.layout.RenderHeader(title, m.syncStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewAccounts:
		return m.accountsView.View()
	case ViewMail:
		return m.layout.RenderSplit(m.renderSidebar(), m.mailList.View())
	case ViewCategories:
		return m.categoriesView.View()
	case ViewDetail:
		return m.detailView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewConfirm:
		if m.confirmForm != nil {
			return m.confirmForm.View()
		}
		return ""
	default:
		return ""
	}
}

// renderSidebar draws the category filter rail next to the email list.
func (m Model) renderSidebar() string {
	width := m.layout.SidebarWidth - 2

	var b strings.Builder
	b.WriteString(theme.HeaderStyle.Render("Filter"))
	b.WriteString("\n")

	writeRow := func(label string, active bool, system bool) {
		if r := []rune(label); width > 1 && len(r) > width {
			label = string(r[:width-1]) + "…"
		}
		switch {
		case active:
			b.WriteString(theme.SelectedItemStyle.Render(label))
		case system:
			b.WriteString(theme.DimmedStyle.Render("  " + label))
		default:
			b.WriteString(theme.ListItemStyle.Render(label))
		}
		b.WriteString("\n")
	}

	activeID := int64(0)
	if m.snap.Filter != nil {
		activeID = m.snap.Filter.ID
	}

	writeRow("All emails", m.snap.Filter == nil, false)
	for _, c := range category.CustomOnly(m.snap.Categories) {
		writeRow(c.Name, c.ID == activeID, false)
	}
	for _, c := range category.SystemOnly(m.snap.Categories) {
		writeRow(c.Name, c.ID == activeID, true)
	}

	return b.String()
}

// syncStatus returns a short string describing poll and fetch state for
// the header.
func (m Model) syncStatus() string {
	switch m.poller.Status().State {
	case appsync.PollRunning:
		return theme.RegionStateStyle("loading").Render("syncing")
	case appsync.PollError:
		return theme.RegionStateStyle("error").Render("sync error")
	}

	state := m.snap.EmailState.String()
	return theme.RegionStateStyle(state).Render(state)
}

// keyHints returns keyboard shortcut hints for the status bar. Auth
// errors and operation results take priority over hints.
func (m Model) keyHints() string {
	if m.authErrorMessage != "" && m.currentView != ViewHelp {
		return theme.ErrorStyle.Render(m.authErrorMessage)
	}
	if m.statusMsg != "" && (m.currentView == ViewMail || m.currentView == ViewAccounts) {
		return m.statusMsg
	}

	switch m.currentView {
	case ViewAccounts:
		return "enter open | d disconnect | r refresh | q quit"
	case ViewCategories:
		return "enter filter | n new | d delete | esc back"
	case ViewDetail:
		return "e export | o preview | j/k scroll | esc back"
	case ViewHelp:
		return "? close help"
	case ViewConfirm:
		return "←/→ choose | enter confirm | esc cancel"
	default:
		return "space mark | u unsubscribe | S summarize | C categorize | [/] page | ? help"
	}
}
