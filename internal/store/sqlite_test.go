package store_test

import (
	"context"
	"testing"
	"time"

	"mailsort/internal/bulk"
	"mailsort/internal/model"
	"mailsort/internal/store"
	"mailsort/tests/testutil"
)

func TestAccountCacheRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	accounts := []model.Account{
		{ID: 2, Email: "b@example.com", Name: "B", CreatedAt: now, UpdatedAt: now},
		{ID: 1, Email: "a@example.com", Name: "A", CreatedAt: now, UpdatedAt: now},
	}
	if err := s.CacheAccounts(ctx, accounts); err != nil {
		t.Fatalf("CacheAccounts: %v", err)
	}

	got, err := s.GetCachedAccounts(ctx)
	if err != nil {
		t.Fatalf("GetCachedAccounts: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("cached accounts = %d, want 2", len(got))
	}
	// Ordered by email address.
	if got[0].Email != "a@example.com" || got[1].Email != "b@example.com" {
		t.Errorf("order = [%s %s], want [a@example.com b@example.com]", got[0].Email, got[1].Email)
	}
}

func TestCacheAccountsReplacesSnapshot(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.CacheAccounts(ctx, []model.Account{{ID: 1, Email: "old@example.com"}}); err != nil {
		t.Fatalf("CacheAccounts: %v", err)
	}
	if err := s.CacheAccounts(ctx, []model.Account{{ID: 2, Email: "new@example.com"}}); err != nil {
		t.Fatalf("CacheAccounts: %v", err)
	}

	got, err := s.GetCachedAccounts(ctx)
	if err != nil {
		t.Fatalf("GetCachedAccounts: %v", err)
	}
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("cached accounts = %+v, want only the new snapshot", got)
	}
}

func TestCategoryCacheScopedToAccount(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	desc := "weekly digests"
	if err := s.CacheCategories(ctx, 1, []model.Category{
		{ID: 10, AccountID: 1, Name: "Newsletters", Description: &desc},
		{ID: 11, AccountID: 1, Name: "Inbox"},
	}); err != nil {
		t.Fatalf("CacheCategories(1): %v", err)
	}
	if err := s.CacheCategories(ctx, 2, []model.Category{
		{ID: 20, AccountID: 2, Name: "Receipts"},
	}); err != nil {
		t.Fatalf("CacheCategories(2): %v", err)
	}

	got, err := s.GetCachedCategories(ctx, 1)
	if err != nil {
		t.Fatalf("GetCachedCategories: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("account 1 categories = %d, want 2", len(got))
	}
	// Ordered by name; description survives the round trip.
	if got[0].Name != "Inbox" || got[1].Name != "Newsletters" {
		t.Errorf("order = [%s %s], want [Inbox Newsletters]", got[0].Name, got[1].Name)
	}
	if got[1].Description == nil || *got[1].Description != desc {
		t.Errorf("description = %v, want %q", got[1].Description, desc)
	}

	// Re-caching account 1 must not disturb account 2.
	if err := s.CacheCategories(ctx, 1, nil); err != nil {
		t.Fatalf("CacheCategories(1, empty): %v", err)
	}
	other, err := s.GetCachedCategories(ctx, 2)
	if err != nil {
		t.Fatalf("GetCachedCategories(2): %v", err)
	}
	if len(other) != 1 || other[0].Name != "Receipts" {
		t.Errorf("account 2 categories = %+v, want [Receipts]", other)
	}
}

func TestReportHistory(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	report := bulk.Report{
		Kind:      bulk.KindUnsubscribe,
		Successes: 2,
		Failures:  1,
		Outcomes: []bulk.Outcome{
			{EmailID: 1, Success: true, Message: "unsubscribed"},
			{EmailID: 2, Success: false, Message: "no link found", ErrorType: "not_found"},
			{EmailID: 3, Success: true, Message: "unsubscribed"},
		},
		FinishedAt: time.Now().UTC().Truncate(time.Second),
	}

	rec, err := s.SaveReport(ctx, 7, report)
	if err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("SaveReport returned empty ID")
	}

	got, err := s.GetReportByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetReportByID: %v", err)
	}
	if got == nil {
		t.Fatal("GetReportByID returned nil for a saved report")
	}
	if got.Kind != bulk.KindUnsubscribe || got.Successes != 2 || got.Failures != 1 {
		t.Errorf("record = %+v, want kind/successes/failures preserved", got)
	}
	if len(got.Outcomes) != 3 {
		t.Fatalf("outcomes = %d, want 3", len(got.Outcomes))
	}
	if got.Outcomes[1].ErrorType != "not_found" {
		t.Errorf("outcome error type = %q, want not_found", got.Outcomes[1].ErrorType)
	}
}

func TestGetReportByIDMissing(t *testing.T) {
	s := testutil.NewTestStore(t)

	got, err := s.GetReportByID(context.Background(), "no-such-id")
	if err != nil {
		t.Fatalf("GetReportByID: %v", err)
	}
	if got != nil {
		t.Fatalf("record = %+v, want nil for unknown ID", got)
	}
}

func TestGetReportsFilterAndOrder(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	save := func(accountID int64, kind bulk.Kind, finished time.Time) {
		t.Helper()
		_, err := s.SaveReport(ctx, accountID, bulk.Report{
			Kind:       kind,
			Outcomes:   []bulk.Outcome{},
			FinishedAt: finished,
		})
		if err != nil {
			t.Fatalf("SaveReport: %v", err)
		}
	}
	save(1, bulk.KindSummarize, base.Add(-2*time.Hour))
	save(1, bulk.KindUnsubscribe, base.Add(-1*time.Hour))
	save(2, bulk.KindSummarize, base)

	accountID := int64(1)
	got, err := s.GetReports(ctx, store.ReportFilter{AccountID: &accountID})
	if err != nil {
		t.Fatalf("GetReports: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("reports for account 1 = %d, want 2", len(got))
	}
	// Newest first.
	if got[0].Kind != bulk.KindUnsubscribe || got[1].Kind != bulk.KindSummarize {
		t.Errorf("order = [%s %s], want newest first", got[0].Kind, got[1].Kind)
	}

	kind := bulk.KindSummarize
	got, err = s.GetReports(ctx, store.ReportFilter{Kind: &kind})
	if err != nil {
		t.Fatalf("GetReports: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("summarize reports = %d, want 2", len(got))
	}

	got, err = s.GetReports(ctx, store.ReportFilter{Limit: 1})
	if err != nil {
		t.Fatalf("GetReports: %v", err)
	}
	if len(got) != 1 || got[0].AccountID != 2 {
		t.Errorf("limited query = %+v, want single newest report", got)
	}
}
