// Package view owns the client-side view state: the current account, the
// active category filter, the displayed page of emails, and the per-email
// UI annotations (selection, summary visibility). All state is reconciled
// against the server after every structural change; the displayed list is
// never mutated optimistically ahead of server confirmation.
package view

import (
	"context"
	"log"
	"sync"

	"mailsort/internal/model"
)

// State names the lifecycle of a view region. Named states replace the
// loading/refreshing boolean flags that otherwise multiply combinatorially.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateError
	StateReady
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateError:
		return "error"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Annotation holds the per-email UI flags. Keeping them in one map keyed
// by email ID avoids drift between parallel identifier sets.
type Annotation struct {
	Selected       bool
	SummaryVisible bool
}

// Client is the slice of the API surface the synchronizer needs. The
// concrete *api.Client satisfies it.
type Client interface {
	ListCategories(ctx context.Context, accountID int64) ([]model.Category, error)
	ListEmails(ctx context.Context, accountID int64, page, pageSize int) (*model.EmailPage, error)
	ListCategoryEmails(ctx context.Context, accountID, categoryID int64, page, pageSize int) (*model.EmailPage, error)
	RefreshEmails(ctx context.Context, accountID int64) error
}

// Synchronizer keeps the local list, pagination cursor, category filter,
// and selection set consistent with the server. Operations run from
// Bubble Tea command goroutines, so state is guarded by a mutex; a
// generation counter lets a slow superseded fetch be discarded instead of
// overwriting newer state.
type Synchronizer struct {
	mu     sync.Mutex
	client Client
	logger *log.Logger

	pageSize int

	account     *model.Account
	filter      *model.Category
	page        model.EmailPage
	categories  []model.Category
	annotations map[int64]*Annotation
	openEmailID *int64

	emailState    State
	categoryState State

	// Per-region fetch generations; a completed fetch whose generation
	// no longer matches was superseded and is discarded.
	emailGen    uint64
	categoryGen uint64
}

// Snapshot is an immutable copy of the view state for rendering.
type Snapshot struct {
	Account     *model.Account
	Filter      *model.Category
	Page        model.EmailPage
	Categories  []model.Category
	Annotations map[int64]Annotation
	OpenEmailID *int64

	EmailState    State
	CategoryState State
}

// New creates a synchronizer with an empty first-page view.
func New(client Client, pageSize int, logger *log.Logger) *Synchronizer {
	if logger == nil {
		logger = log.Default()
	}
	return &Synchronizer{
		client:      client,
		logger:      logger,
		pageSize:    pageSize,
		page:        model.EmptyPage(pageSize),
		annotations: map[int64]*Annotation{},
	}
}

// SelectAccount replaces the whole view with account's unfiltered first
// page and its category list. The selection, filter, and open email are
// cleared before the fetch so stale UI never outlives the transition.
// Fetch errors degrade to an empty view and are logged, never fatal.
func (s *Synchronizer) SelectAccount(ctx context.Context, account model.Account) {
	s.mu.Lock()
	s.account = &account
	s.filter = nil
	s.openEmailID = nil
	s.annotations = map[int64]*Annotation{}
	s.emailState = StateLoading
	s.categoryState = StateLoading
	emailGen, categoryGen := s.bumpEmailLocked(), s.bumpCategoryLocked()
	s.mu.Unlock()

	page, emailErr := s.client.ListEmails(ctx, account.ID, 1, s.pageSize)
	categories, catErr := s.client.ListCategories(ctx, account.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	// A later selection supersedes this fetch; drop stale regions.
	if emailGen == s.emailGen {
		s.applyEmailFetchLocked(page, emailErr)
	}
	if categoryGen == s.categoryGen {
		s.applyCategoryFetchLocked(categories, catErr)
	}
}

// SelectCategory sets the category filter (nil means all emails), resets
// to page 1, and re-fetches. Selection and the open-email view are
// cleared at the transition.
func (s *Synchronizer) SelectCategory(ctx context.Context, category *model.Category) {
	s.mu.Lock()
	if s.account == nil {
		s.mu.Unlock()
		return
	}
	accountID := s.account.ID
	s.filter = category
	s.openEmailID = nil
	s.annotations = map[int64]*Annotation{}
	s.emailState = StateLoading
	gen := s.bumpEmailLocked()
	s.mu.Unlock()

	page, err := s.fetchPage(ctx, accountID, category, 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.emailGen {
		return
	}
	s.applyEmailFetchLocked(page, err)
}

// GoToPage fetches page n under the current filter. Out-of-range pages
// and a missing account selection are no-ops.
func (s *Synchronizer) GoToPage(ctx context.Context, n int) {
	s.mu.Lock()
	if s.account == nil || n < 1 || n > s.page.TotalPages {
		s.mu.Unlock()
		return
	}
	accountID := s.account.ID
	filter := s.filter
	s.annotations = map[int64]*Annotation{}
	s.emailState = StateLoading
	gen := s.bumpEmailLocked()
	s.mu.Unlock()

	page, err := s.fetchPage(ctx, accountID, filter, n)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.emailGen {
		return
	}
	s.applyEmailFetchLocked(page, err)
}

// Refresh triggers a server-side re-ingest for the current account, then
// re-fetches page 1 under the current filter along with the category
// list, which may have changed as a side effect of ingestion.
func (s *Synchronizer) Refresh(ctx context.Context) {
	s.mu.Lock()
	if s.account == nil {
		s.mu.Unlock()
		return
	}
	accountID := s.account.ID
	filter := s.filter
	s.annotations = map[int64]*Annotation{}
	s.emailState = StateLoading
	s.categoryState = StateLoading
	emailGen, categoryGen := s.bumpEmailLocked(), s.bumpCategoryLocked()
	s.mu.Unlock()

	if err := s.client.RefreshEmails(ctx, accountID); err != nil {
		s.logger.Printf("refresh for account %d failed: %v", accountID, err)
	}
	page, emailErr := s.fetchPage(ctx, accountID, filter, 1)
	categories, catErr := s.client.ListCategories(ctx, accountID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if emailGen == s.emailGen {
		s.applyEmailFetchLocked(page, emailErr)
	}
	if categoryGen == s.categoryGen {
		s.applyCategoryFetchLocked(categories, catErr)
	}
}

// Reload re-fetches the current page under the current filter without
// touching the filter or cursor. Bulk operations call this on completion
// so server-side changes (new summaries, new categories) become visible.
func (s *Synchronizer) Reload(ctx context.Context) {
	s.mu.Lock()
	if s.account == nil {
		s.mu.Unlock()
		return
	}
	accountID := s.account.ID
	filter := s.filter
	pageNum := s.page.Page
	s.annotations = map[int64]*Annotation{}
	s.emailState = StateLoading
	gen := s.bumpEmailLocked()
	s.mu.Unlock()

	page, err := s.fetchPage(ctx, accountID, filter, pageNum)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.emailGen {
		return
	}
	s.applyEmailFetchLocked(page, err)
}

// ReloadCategories re-fetches the category list for the current account
// without touching the email page. Category create and delete call this.
func (s *Synchronizer) ReloadCategories(ctx context.Context) {
	s.mu.Lock()
	if s.account == nil {
		s.mu.Unlock()
		return
	}
	accountID := s.account.ID
	s.categoryState = StateLoading
	gen := s.bumpCategoryLocked()
	s.mu.Unlock()

	categories, err := s.client.ListCategories(ctx, accountID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.categoryGen {
		return
	}
	s.applyCategoryFetchLocked(categories, err)
}

func (s *Synchronizer) fetchPage(ctx context.Context, accountID int64, filter *model.Category, n int) (*model.EmailPage, error) {
	if filter != nil {
		return s.client.ListCategoryEmails(ctx, accountID, filter.ID, n, s.pageSize)
	}
	return s.client.ListEmails(ctx, accountID, n, s.pageSize)
}

// applyEmailFetchLocked installs a fetch result. Errors reset to the
// canonical empty first-page view per the soft-fail contract.
func (s *Synchronizer) applyEmailFetchLocked(page *model.EmailPage, err error) {
	if err != nil {
		s.logger.Printf("email fetch failed: %v", err)
		s.page = model.EmptyPage(s.pageSize)
		s.emailState = StateError
		return
	}
	s.page = *page
	s.emailState = StateReady
}

// SeedCategories installs locally cached labels so the sidebar has
// content while the first live fetch for the account is in flight. The
// seed never downgrades a live result: it applies only while the account
// matches and no category fetch has completed.
func (s *Synchronizer) SeedCategories(accountID int64, categories []model.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account == nil || s.account.ID != accountID || s.categoryState == StateReady {
		return
	}
	s.categories = categories
}

func (s *Synchronizer) applyCategoryFetchLocked(categories []model.Category, err error) {
	if err != nil {
		s.logger.Printf("category fetch failed: %v", err)
		s.categories = nil
		s.categoryState = StateError
		return
	}
	s.categories = categories
	s.categoryState = StateReady
}

// The bump helpers advance a region's fetch generation; callers hold the mutex.
func (s *Synchronizer) bumpEmailLocked() uint64 {
	s.emailGen++
	return s.emailGen
}

func (s *Synchronizer) bumpCategoryLocked() uint64 {
	s.categoryGen++
	return s.categoryGen
}

// ToggleSelected flips selection for an email on the displayed page.
// IDs outside the current page are ignored, keeping the selection a
// subset of what the user can see.
func (s *Synchronizer) ToggleSelected(emailID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.onPageLocked(emailID) {
		return
	}
	a := s.annotationLocked(emailID)
	a.Selected = !a.Selected
}

// ToggleSummary flips summary visibility for an email on the displayed page.
func (s *Synchronizer) ToggleSummary(emailID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.onPageLocked(emailID) {
		return
	}
	a := s.annotationLocked(emailID)
	a.SummaryVisible = !a.SummaryVisible
}

// SetOpenEmail records which email is open in the detail view; nil closes it.
func (s *Synchronizer) SetOpenEmail(emailID *int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openEmailID = emailID
}

// SelectedIDs returns the selected email IDs in page order.
func (s *Synchronizer) SelectedIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for _, e := range s.page.Emails {
		if a, ok := s.annotations[e.ID]; ok && a.Selected {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// ClearSelection drops every selection flag; summary visibility survives.
func (s *Synchronizer) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.annotations {
		a.Selected = false
	}
}

func (s *Synchronizer) onPageLocked(emailID int64) bool {
	for _, e := range s.page.Emails {
		if e.ID == emailID {
			return true
		}
	}
	return false
}

func (s *Synchronizer) annotationLocked(emailID int64) *Annotation {
	a, ok := s.annotations[emailID]
	if !ok {
		a = &Annotation{}
		s.annotations[emailID] = a
	}
	return a
}

// Snapshot returns a copy of the current state for rendering.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Page:          s.page,
		EmailState:    s.emailState,
		CategoryState: s.categoryState,
	}
	if s.account != nil {
		acct := *s.account
		snap.Account = &acct
	}
	if s.filter != nil {
		f := *s.filter
		snap.Filter = &f
	}
	if s.openEmailID != nil {
		id := *s.openEmailID
		snap.OpenEmailID = &id
	}
	snap.Categories = append([]model.Category(nil), s.categories...)
	snap.Annotations = make(map[int64]Annotation, len(s.annotations))
	for id, a := range s.annotations {
		snap.Annotations[id] = *a
	}
	return snap
}
