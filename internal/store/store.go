// Package store persists local state in SQLite: a cache of the last
// fetched accounts and categories (so the UI has something to show
// before its first successful fetch), and the history of completed bulk
// operation reports.
package store

import (
	"context"
	"time"

	"mailsort/internal/bulk"
	"mailsort/internal/model"
)

// ReportRecord is one archived bulk operation report.
type ReportRecord struct {
	// ID is a locally generated UUID.
	ID string

	// AccountID is the account the operation ran against.
	AccountID int64

	// Kind names the operation (unsubscribe, summarize, categorize).
	Kind bulk.Kind

	Successes int
	Failures  int

	// Outcomes holds every per-email outcome, in input order.
	Outcomes []bulk.Outcome

	FinishedAt time.Time
}

// ReportFilter controls filtering and pagination for report history queries.
type ReportFilter struct {
	AccountID *int64
	Kind      *bulk.Kind
	Limit     int
	Offset    int
}

// Store defines the local persistence interface.
type Store interface {
	// === Account / category cache ===

	CacheAccounts(ctx context.Context, accounts []model.Account) error
	GetCachedAccounts(ctx context.Context) ([]model.Account, error)
	CacheCategories(ctx context.Context, accountID int64, categories []model.Category) error
	GetCachedCategories(ctx context.Context, accountID int64) ([]model.Category, error)

	// === Bulk report history ===

	SaveReport(ctx context.Context, accountID int64, report bulk.Report) (ReportRecord, error)
	GetReports(ctx context.Context, filter ReportFilter) ([]ReportRecord, error)
	GetReportByID(ctx context.Context, id string) (*ReportRecord, error)
}
