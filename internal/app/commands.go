package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"mailsort/internal/bulk"
	"mailsort/internal/export"
	"mailsort/internal/model"
)

// opTimeout bounds a single interactive fetch; bulkTimeout is looser
// because a batch retries each email independently.
const (
	opTimeout   = 30 * time.Second
	bulkTimeout = 5 * time.Minute
)

// viewRefreshedMsg signals that a synchronizer operation finished and the
// subviews must re-render from a fresh snapshot.
type viewRefreshedMsg struct{}

type cachedAccountsMsg struct {
	accounts []model.Account
}

type accountDeletedMsg struct {
	err error
}

type categoryChangedMsg struct {
	created   string
	deletedID int64
	err       error
}

type bulkDoneMsg struct {
	kind   bulk.Kind
	report *bulk.Report
	err    error
}

type reportSavedMsg struct {
	err error
}

type exportDoneMsg struct {
	path string
	err  error
}

// syncCmd runs a synchronizer operation off the UI goroutine and asks for
// a re-render when it completes.
func (m Model) syncCmd(f func(ctx context.Context)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		f(ctx)
		return viewRefreshedMsg{}
	}
}

// loadCachedAccounts reads the account cache written by previous polls.
func (m Model) loadCachedAccounts() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		accounts, err := s.GetCachedAccounts(ctx)
		if err != nil {
			return cachedAccountsMsg{}
		}
		return cachedAccountsMsg{accounts: accounts}
	}
}

// seedCategoriesFromCache pushes the last cached label set for an account
// into the synchronizer so a cold start renders the sidebar before the
// first live fetch resolves.
func (m Model) seedCategoriesFromCache(accountID int64) tea.Cmd {
	s := m.store
	sync := m.sync
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		cached, err := s.GetCachedCategories(ctx, accountID)
		if err != nil || len(cached) == 0 {
			return nil
		}
		sync.SeedCategories(accountID, cached)
		return viewRefreshedMsg{}
	}
}

// runBulk executes a confirmed bulk operation. Unsubscribe uses the
// batched endpoint; summarize and categorize fan out per email.
func (m Model) runBulk(kind bulk.Kind, ids []int64) tea.Cmd {
	runner := m.runner
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), bulkTimeout)
		defer cancel()

		var report *bulk.Report
		var err error
		switch kind {
		case bulk.KindUnsubscribe:
			report, err = runner.RunBatched(ctx, kind, ids, true, bulk.UnsubscribeOp(client))
		case bulk.KindSummarize:
			report, err = runner.Run(ctx, kind, ids, true, bulk.SummarizeOp(client))
		case bulk.KindCategorize:
			report, err = runner.Run(ctx, kind, ids, true, bulk.CategorizeOp(client))
		default:
			err = errors.New("unknown bulk operation " + string(kind))
		}
		return bulkDoneMsg{kind: kind, report: report, err: err}
	}
}

// saveReport archives a finished bulk report in the local store.
func (m Model) saveReport(accountID int64, report bulk.Report) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		_, err := s.SaveReport(ctx, accountID, report)
		return reportSavedMsg{err: err}
	}
}

func (m Model) deleteAccount(accountID int64) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return accountDeletedMsg{err: client.DeleteAccount(ctx, accountID)}
	}
}

func (m Model) createCategory(name, description string) tea.Cmd {
	client := m.client
	account := m.snap.Account
	return func() tea.Msg {
		if account == nil {
			return categoryChangedMsg{err: errors.New("no account selected")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		created, err := client.CreateCategory(ctx, account.ID, name, description)
		if err != nil {
			return categoryChangedMsg{err: err}
		}
		return categoryChangedMsg{created: created.Name}
	}
}

func (m Model) deleteCategory(categoryID int64) tea.Cmd {
	client := m.client
	account := m.snap.Account
	return func() tea.Msg {
		if account == nil {
			return categoryChangedMsg{err: errors.New("no account selected")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if err := client.DeleteCategory(ctx, account.ID, categoryID); err != nil {
			return categoryChangedMsg{err: err}
		}
		return categoryChangedMsg{deletedID: categoryID}
	}
}

// exportEmail writes the open email as an .eml file into the downloads
// directory.
func (m Model) exportEmail(emailID int64) tea.Cmd {
	email, ok := m.findEmail(emailID)
	if !ok {
		return nil
	}
	return func() tea.Msg {
		path, err := export.EML(email, downloadsDir())
		return exportDoneMsg{path: path, err: err}
	}
}

// previewEmail renders the open email to a temp HTML file and opens the
// system browser on it.
func (m Model) previewEmail(emailID int64) tea.Cmd {
	email, ok := m.findEmail(emailID)
	if !ok {
		return nil
	}
	return func() tea.Msg {
		return exportDoneMsg{err: export.Preview(email)}
	}
}

// downloadsDir prefers ~/Downloads and falls back to the home directory.
func downloadsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	downloads := filepath.Join(home, "Downloads")
	if info, err := os.Stat(downloads); err == nil && info.IsDir() {
		return downloads
	}
	return home
}
