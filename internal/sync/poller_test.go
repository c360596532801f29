package sync_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"mailsort/internal/api"
	"mailsort/internal/model"
	"mailsort/internal/store"
	"mailsort/internal/sync"
	"mailsort/tests/testutil"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type fakeClient struct {
	accounts      []model.Account
	accountsErr   error
	categories    map[int64][]model.Category
	categoriesErr error
	listCalls     atomic.Int32
}

func (f *fakeClient) ListAccounts(context.Context) ([]model.Account, error) {
	f.listCalls.Add(1)
	return f.accounts, f.accountsErr
}

func (f *fakeClient) ListCategories(_ context.Context, accountID int64) ([]model.Category, error) {
	if f.categoriesErr != nil {
		return nil, f.categoriesErr
	}
	return f.categories[accountID], nil
}

// failingCategoryStore rejects category writes while behaving normally
// otherwise.
type failingCategoryStore struct {
	*store.SQLiteStore
}

func (f *failingCategoryStore) CacheCategories(context.Context, int64, []model.Category) error {
	return errors.New("disk full")
}

// receive pumps the subscription command and asserts a result arrives.
func receive(t *testing.T, cmd func() interface{}) sync.AccountsMsg {
	t.Helper()
	done := make(chan sync.AccountsMsg, 1)
	go func() {
		msg, _ := cmd().(sync.AccountsMsg)
		done <- msg
	}()
	select {
	case msg := <-done:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for poll result")
		return sync.AccountsMsg{}
	}
}

func TestPollerCachesAccountsAndReportsNew(t *testing.T) {
	s := testutil.NewTestStore(t)
	client := &fakeClient{
		accounts: []model.Account{
			{ID: 1, Email: "a@example.com"},
			{ID: 2, Email: "b@example.com"},
		},
		categories: map[int64][]model.Category{
			1: {{ID: 10, AccountID: 1, Name: "Inbox"}},
		},
	}

	p := sync.New(client, s, time.Hour, quietLogger())
	cmd := p.Start()
	defer p.Stop()

	msg := receive(t, func() interface{} { return cmd() })
	if msg.Error != nil {
		t.Fatalf("poll error: %v", msg.Error)
	}
	if len(msg.Accounts) != 2 {
		t.Fatalf("accounts = %d, want 2", len(msg.Accounts))
	}
	// First poll against an empty cache: everything is new.
	if msg.NewAccountCount != 2 {
		t.Errorf("new accounts = %d, want 2", msg.NewAccountCount)
	}

	cached, err := s.GetCachedAccounts(context.Background())
	if err != nil {
		t.Fatalf("GetCachedAccounts: %v", err)
	}
	if len(cached) != 2 {
		t.Errorf("cached accounts = %d, want 2", len(cached))
	}
	categories, err := s.GetCachedCategories(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetCachedCategories: %v", err)
	}
	if len(categories) != 1 || categories[0].Name != "Inbox" {
		t.Errorf("cached categories = %+v, want [Inbox]", categories)
	}

	// A second poll sees the same accounts; nothing is new anymore.
	next := p.WaitForNextResult()
	p.Refresh()
	msg = receive(t, func() interface{} { return next() })
	if msg.NewAccountCount != 0 {
		t.Errorf("new accounts on repeat poll = %d, want 0", msg.NewAccountCount)
	}
}

func TestPollerZeroIntervalPollsOnlyOnDemand(t *testing.T) {
	s := testutil.NewTestStore(t)
	client := &fakeClient{
		accounts: []model.Account{{ID: 1, Email: "a@example.com"}},
	}

	p := sync.New(client, s, 0, quietLogger())
	cmd := p.Start()
	defer p.Stop()

	msg := receive(t, func() interface{} { return cmd() })
	if msg.Error != nil {
		t.Fatalf("poll error: %v", msg.Error)
	}

	// No ticker fires with a zero interval: only the startup poll ran.
	time.Sleep(100 * time.Millisecond)
	if n := client.listCalls.Load(); n != 1 {
		t.Errorf("polls without trigger = %d, want 1", n)
	}

	// A manual trigger still polls.
	next := p.WaitForNextResult()
	p.Refresh()
	receive(t, func() interface{} { return next() })
	if n := client.listCalls.Load(); n != 2 {
		t.Errorf("polls after manual trigger = %d, want 2", n)
	}
}

func TestPollerLogsCategoryMirrorFailures(t *testing.T) {
	tests := []struct {
		name    string
		client  *fakeClient
		store   func(t *testing.T) store.Store
		wantLog string
	}{
		{
			name: "listing fails",
			client: &fakeClient{
				accounts:      []model.Account{{ID: 1, Email: "a@example.com"}},
				categoriesErr: errors.New("server error"),
			},
			store:   func(t *testing.T) store.Store { return testutil.NewTestStore(t) },
			wantLog: "listing categories for account 1 failed",
		},
		{
			name: "caching fails",
			client: &fakeClient{
				accounts: []model.Account{{ID: 1, Email: "a@example.com"}},
				categories: map[int64][]model.Category{
					1: {{ID: 10, AccountID: 1, Name: "Inbox"}},
				},
			},
			store: func(t *testing.T) store.Store {
				return &failingCategoryStore{SQLiteStore: testutil.NewTestStore(t)}
			},
			wantLog: "caching categories for account 1 failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := log.New(&buf, "", 0)

			p := sync.New(tt.client, tt.store(t), time.Hour, logger)
			cmd := p.Start()
			defer p.Stop()

			msg := receive(t, func() interface{} { return cmd() })
			// Category mirroring is best effort; the poll itself succeeds.
			if msg.Error != nil {
				t.Fatalf("poll error: %v", msg.Error)
			}
			if !strings.Contains(buf.String(), tt.wantLog) {
				t.Errorf("log output %q missing %q", buf.String(), tt.wantLog)
			}
		})
	}
}

func TestPollerSurfacesAuthError(t *testing.T) {
	s := testutil.NewTestStore(t)
	client := &fakeClient{
		accountsErr: &api.AuthError{Message: "session expired"},
	}

	p := sync.New(client, s, time.Hour, quietLogger())
	cmd := p.Start()
	defer p.Stop()

	msg := receive(t, func() interface{} { return cmd() })
	if msg.AuthError == nil {
		t.Fatal("auth failure did not produce an AuthErrorMsg")
	}
	if msg.Error == nil || !api.IsAuthError(msg.Error) {
		t.Errorf("error = %v, want auth error", msg.Error)
	}
	if st := p.Status(); st.State != sync.PollError {
		t.Errorf("status = %v, want PollError", st.State)
	}
}

func TestPollerTransportErrorIsNotAuth(t *testing.T) {
	s := testutil.NewTestStore(t)
	client := &fakeClient{
		accountsErr: &api.TransportError{Err: errors.New("connection refused")},
	}

	p := sync.New(client, s, time.Hour, quietLogger())
	cmd := p.Start()
	defer p.Stop()

	msg := receive(t, func() interface{} { return cmd() })
	if msg.AuthError != nil {
		t.Errorf("transport failure produced AuthErrorMsg %+v", msg.AuthError)
	}
	if msg.Error == nil {
		t.Error("transport failure lost its error")
	}
}
