package view

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"mailsort/internal/model"
)

type fakeClient struct {
	listEmails         func(ctx context.Context, accountID int64, page, pageSize int) (*model.EmailPage, error)
	listCategoryEmails func(ctx context.Context, accountID, categoryID int64, page, pageSize int) (*model.EmailPage, error)
	listCategories     func(ctx context.Context, accountID int64) ([]model.Category, error)
	refreshEmails      func(ctx context.Context, accountID int64) error
}

func (f *fakeClient) ListEmails(ctx context.Context, accountID int64, page, pageSize int) (*model.EmailPage, error) {
	if f.listEmails == nil {
		return pageOf(pageSize, emailsFor(accountID)...), nil
	}
	return f.listEmails(ctx, accountID, page, pageSize)
}

func (f *fakeClient) ListCategoryEmails(ctx context.Context, accountID, categoryID int64, page, pageSize int) (*model.EmailPage, error) {
	if f.listCategoryEmails == nil {
		return pageOf(pageSize), nil
	}
	return f.listCategoryEmails(ctx, accountID, categoryID, page, pageSize)
}

func (f *fakeClient) ListCategories(ctx context.Context, accountID int64) ([]model.Category, error) {
	if f.listCategories == nil {
		return []model.Category{{ID: 10, AccountID: accountID, Name: "Inbox"}}, nil
	}
	return f.listCategories(ctx, accountID)
}

func (f *fakeClient) RefreshEmails(ctx context.Context, accountID int64) error {
	if f.refreshEmails == nil {
		return nil
	}
	return f.refreshEmails(ctx, accountID)
}

func emailsFor(accountID int64) []model.Email {
	return []model.Email{
		{ID: accountID*100 + 1, AccountID: accountID, Subject: "first"},
		{ID: accountID*100 + 2, AccountID: accountID, Subject: "second"},
	}
}

func pageOf(pageSize int, emails ...model.Email) *model.EmailPage {
	if emails == nil {
		emails = []model.Email{}
	}
	p := &model.EmailPage{
		Emails:     emails,
		TotalCount: len(emails),
		Page:       1,
		PageSize:   pageSize,
	}
	p.Normalize()
	return p
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestSelectAccountPopulatesView(t *testing.T) {
	s := New(&fakeClient{}, 25, quietLogger())

	s.SelectAccount(context.Background(), model.Account{ID: 7, Email: "a@example.com"})

	snap := s.Snapshot()
	if snap.Account == nil || snap.Account.ID != 7 {
		t.Fatalf("account = %+v, want ID 7", snap.Account)
	}
	if snap.EmailState != StateReady {
		t.Errorf("email state = %v, want ready", snap.EmailState)
	}
	if snap.CategoryState != StateReady {
		t.Errorf("category state = %v, want ready", snap.CategoryState)
	}
	if got := len(snap.Page.Emails); got != 2 {
		t.Errorf("emails = %d, want 2", got)
	}
	if got := len(snap.Categories); got != 1 {
		t.Errorf("categories = %d, want 1", got)
	}
	if snap.Filter != nil {
		t.Errorf("filter = %+v, want nil after account switch", snap.Filter)
	}
}

func TestFetchErrorDegradesToEmptyView(t *testing.T) {
	client := &fakeClient{
		listEmails: func(context.Context, int64, int, int) (*model.EmailPage, error) {
			return nil, errors.New("boom")
		},
	}
	s := New(client, 25, quietLogger())

	s.SelectAccount(context.Background(), model.Account{ID: 1})

	snap := s.Snapshot()
	if snap.EmailState != StateError {
		t.Errorf("email state = %v, want error", snap.EmailState)
	}
	if snap.Page.Emails == nil || len(snap.Page.Emails) != 0 {
		t.Errorf("emails = %v, want empty non-nil slice", snap.Page.Emails)
	}
	if snap.Page.Page != 1 || snap.Page.TotalPages != 1 || snap.Page.TotalCount != 0 {
		t.Errorf("page counters = %d/%d/%d, want 1/1/0",
			snap.Page.Page, snap.Page.TotalPages, snap.Page.TotalCount)
	}
	// A failed fetch must not take the view down with it.
	if snap.Account == nil || snap.Account.ID != 1 {
		t.Errorf("account = %+v, want ID 1", snap.Account)
	}
}

func TestSupersededFetchIsDiscarded(t *testing.T) {
	slowStarted := make(chan struct{})
	release := make(chan struct{})
	client := &fakeClient{
		listEmails: func(_ context.Context, accountID int64, _, pageSize int) (*model.EmailPage, error) {
			if accountID == 1 {
				close(slowStarted)
				<-release
			}
			return pageOf(pageSize, emailsFor(accountID)...), nil
		},
	}
	s := New(client, 25, quietLogger())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.SelectAccount(context.Background(), model.Account{ID: 1})
	}()

	// Switch to account 2 while account 1's fetch is still in flight.
	<-slowStarted
	s.SelectAccount(context.Background(), model.Account{ID: 2})
	close(release)
	wg.Wait()

	snap := s.Snapshot()
	if snap.Account == nil || snap.Account.ID != 2 {
		t.Fatalf("account = %+v, want ID 2", snap.Account)
	}
	for _, e := range snap.Page.Emails {
		if e.AccountID != 2 {
			t.Errorf("stale email %d from account %d survived the switch", e.ID, e.AccountID)
		}
	}
	if snap.EmailState != StateReady {
		t.Errorf("email state = %v, want ready", snap.EmailState)
	}
}

func TestSeedCategoriesShowsCachedLabelsUntilFetchResolves(t *testing.T) {
	categoriesStarted := make(chan struct{})
	release := make(chan struct{})
	client := &fakeClient{
		listCategories: func(_ context.Context, accountID int64) ([]model.Category, error) {
			close(categoriesStarted)
			<-release
			return []model.Category{{ID: 20, AccountID: accountID, Name: "Live"}}, nil
		},
	}
	s := New(client, 25, quietLogger())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.SelectAccount(context.Background(), model.Account{ID: 1})
	}()

	// Seed from the local cache while the live category fetch hangs.
	<-categoriesStarted
	s.SeedCategories(1, []model.Category{{ID: 10, AccountID: 1, Name: "Cached"}})

	snap := s.Snapshot()
	if len(snap.Categories) != 1 || snap.Categories[0].Name != "Cached" {
		t.Fatalf("categories = %+v, want seeded [Cached]", snap.Categories)
	}
	if snap.CategoryState != StateLoading {
		t.Errorf("category state = %v, want loading while fetch is in flight", snap.CategoryState)
	}

	close(release)
	wg.Wait()

	snap = s.Snapshot()
	if len(snap.Categories) != 1 || snap.Categories[0].Name != "Live" {
		t.Errorf("categories = %+v, want live result after fetch", snap.Categories)
	}
}

func TestSeedCategoriesNeverDowngradesLiveResult(t *testing.T) {
	s := New(&fakeClient{}, 25, quietLogger())
	s.SelectAccount(context.Background(), model.Account{ID: 1})

	s.SeedCategories(1, []model.Category{{ID: 99, AccountID: 1, Name: "Stale"}})

	snap := s.Snapshot()
	if len(snap.Categories) != 1 || snap.Categories[0].Name != "Inbox" {
		t.Errorf("categories = %+v, want live [Inbox] untouched by seed", snap.Categories)
	}
}

func TestSeedCategoriesIgnoresOtherAccounts(t *testing.T) {
	s := New(&fakeClient{}, 25, quietLogger())

	// No account selected yet: seeding is a no-op.
	s.SeedCategories(1, []model.Category{{ID: 10, AccountID: 1, Name: "Cached"}})
	if snap := s.Snapshot(); len(snap.Categories) != 0 {
		t.Errorf("categories = %+v, want none before account selection", snap.Categories)
	}
}

func TestSelectCategoryResetsCursorAndSelection(t *testing.T) {
	var gotPage int
	client := &fakeClient{
		listCategoryEmails: func(_ context.Context, _, _ int64, page, pageSize int) (*model.EmailPage, error) {
			gotPage = page
			return pageOf(pageSize, model.Email{ID: 42, AccountID: 1}), nil
		},
	}
	s := New(client, 25, quietLogger())
	s.SelectAccount(context.Background(), model.Account{ID: 1})
	s.ToggleSelected(101)
	if got := s.SelectedIDs(); len(got) != 1 {
		t.Fatalf("selected = %v, want one ID before the switch", got)
	}

	s.SelectCategory(context.Background(), &model.Category{ID: 10, Name: "Newsletters"})

	if gotPage != 1 {
		t.Errorf("category fetch requested page %d, want 1", gotPage)
	}
	if got := s.SelectedIDs(); len(got) != 0 {
		t.Errorf("selected = %v, want cleared after filter change", got)
	}
	snap := s.Snapshot()
	if snap.Filter == nil || snap.Filter.ID != 10 {
		t.Errorf("filter = %+v, want category 10", snap.Filter)
	}
}

func TestGoToPageBounds(t *testing.T) {
	calls := 0
	client := &fakeClient{
		listEmails: func(_ context.Context, accountID int64, page, pageSize int) (*model.EmailPage, error) {
			calls++
			p := &model.EmailPage{
				Emails:     emailsFor(accountID),
				TotalCount: 60,
				Page:       page,
				PageSize:   pageSize,
			}
			p.Normalize()
			return p, nil
		},
	}
	s := New(client, 25, quietLogger())
	s.SelectAccount(context.Background(), model.Account{ID: 1})
	calls = 0

	s.GoToPage(context.Background(), 0)
	s.GoToPage(context.Background(), 4) // only 3 pages exist
	if calls != 0 {
		t.Fatalf("out-of-range pages issued %d fetches, want 0", calls)
	}

	s.GoToPage(context.Background(), 3)
	if calls != 1 {
		t.Fatalf("in-range page issued %d fetches, want 1", calls)
	}
	if snap := s.Snapshot(); snap.Page.Page != 3 {
		t.Errorf("page = %d, want 3", snap.Page.Page)
	}
}

func TestPageChangeClearsSelection(t *testing.T) {
	client := &fakeClient{
		listEmails: func(_ context.Context, accountID int64, page, pageSize int) (*model.EmailPage, error) {
			p := &model.EmailPage{
				Emails:     emailsFor(accountID),
				TotalCount: 60,
				Page:       page,
				PageSize:   pageSize,
			}
			p.Normalize()
			return p, nil
		},
	}
	s := New(client, 25, quietLogger())
	s.SelectAccount(context.Background(), model.Account{ID: 1})
	s.ToggleSelected(101)

	s.GoToPage(context.Background(), 2)

	if got := s.SelectedIDs(); len(got) != 0 {
		t.Errorf("selected = %v, want cleared after page change", got)
	}
}

func TestSelectionSubsetOfPage(t *testing.T) {
	s := New(&fakeClient{}, 25, quietLogger())
	s.SelectAccount(context.Background(), model.Account{ID: 1})

	s.ToggleSelected(999) // not on the page
	s.ToggleSelected(102)
	s.ToggleSelected(101)

	got := s.SelectedIDs()
	if len(got) != 2 || got[0] != 101 || got[1] != 102 {
		t.Fatalf("selected = %v, want [101 102] in page order", got)
	}

	s.ToggleSelected(102)
	if got := s.SelectedIDs(); len(got) != 1 || got[0] != 101 {
		t.Errorf("selected = %v, want [101] after untoggle", got)
	}

	s.ClearSelection()
	if got := s.SelectedIDs(); len(got) != 0 {
		t.Errorf("selected = %v, want empty after clear", got)
	}
}

func TestToggleSummarySurvivesClearSelection(t *testing.T) {
	s := New(&fakeClient{}, 25, quietLogger())
	s.SelectAccount(context.Background(), model.Account{ID: 1})

	s.ToggleSummary(101)
	s.ToggleSelected(101)
	s.ClearSelection()

	snap := s.Snapshot()
	a := snap.Annotations[101]
	if !a.SummaryVisible {
		t.Error("summary visibility lost by ClearSelection")
	}
	if a.Selected {
		t.Error("selection survived ClearSelection")
	}
}

func TestRefreshReingestsThenRefetches(t *testing.T) {
	var order []string
	var mu sync.Mutex
	record := func(step string) {
		mu.Lock()
		order = append(order, step)
		mu.Unlock()
	}
	client := &fakeClient{
		refreshEmails: func(context.Context, int64) error {
			record("refresh")
			return nil
		},
		listEmails: func(_ context.Context, accountID int64, _, pageSize int) (*model.EmailPage, error) {
			record("list")
			return pageOf(pageSize, emailsFor(accountID)...), nil
		},
	}
	s := New(client, 25, quietLogger())
	s.SelectAccount(context.Background(), model.Account{ID: 1})
	mu.Lock()
	order = nil
	mu.Unlock()

	s.Refresh(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "refresh" || order[1] != "list" {
		t.Fatalf("call order = %v, want [refresh list]", order)
	}
}

func TestOperationsBeforeAccountSelectionAreNoOps(t *testing.T) {
	calls := 0
	client := &fakeClient{
		listEmails: func(context.Context, int64, int, int) (*model.EmailPage, error) {
			calls++
			return pageOf(25), nil
		},
	}
	s := New(client, 25, quietLogger())

	s.SelectCategory(context.Background(), &model.Category{ID: 1})
	s.GoToPage(context.Background(), 1)
	s.Refresh(context.Background())
	s.Reload(context.Background())

	// Give any stray goroutine a beat; nothing should have fired.
	time.Sleep(10 * time.Millisecond)
	if calls != 0 {
		t.Fatalf("fetches before account selection = %d, want 0", calls)
	}
	if snap := s.Snapshot(); snap.EmailState != StateIdle {
		t.Errorf("email state = %v, want idle", snap.EmailState)
	}
}
