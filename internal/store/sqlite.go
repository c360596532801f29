package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"mailsort/internal/bulk"
	"mailsort/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// CacheAccounts replaces the cached account list with the given snapshot.
func (s *SQLiteStore) CacheAccounts(ctx context.Context, accounts []model.Account) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM accounts"); err != nil {
		return fmt.Errorf("clearing account cache: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO accounts (id, email, name, created_at, updated_at, cached_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing account insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, a := range accounts {
		_, err := stmt.ExecContext(ctx,
			a.ID, a.Email, a.Name, a.CreatedAt.UTC(), a.UpdatedAt.UTC(), now,
		)
		if err != nil {
			return fmt.Errorf("caching account %d: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

// GetCachedAccounts returns the last cached account snapshot, ordered by
// email address.
func (s *SQLiteStore) GetCachedAccounts(ctx context.Context) ([]model.Account, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT id, email, name, created_at, updated_at FROM accounts ORDER BY email",
	)
	if err != nil {
		return nil, fmt.Errorf("querying cached accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Email, &a.Name, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning account row: %w", err)
		}
		accounts = append(accounts, a)
	}

	return accounts, rows.Err()
}

// CacheCategories replaces the cached categories for one account.
func (s *SQLiteStore) CacheCategories(ctx context.Context, accountID int64, categories []model.Category) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM categories WHERE account_id = ?", accountID); err != nil {
		return fmt.Errorf("clearing category cache for account %d: %w", accountID, err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO categories (id, account_id, name, description, created_at, updated_at, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing category insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, c := range categories {
		_, err := stmt.ExecContext(ctx,
			c.ID, accountID, c.Name, c.Description,
			c.CreatedAt.UTC(), c.UpdatedAt.UTC(), now,
		)
		if err != nil {
			return fmt.Errorf("caching category %d: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// GetCachedCategories returns the cached categories for one account,
// ordered by name.
func (s *SQLiteStore) GetCachedCategories(ctx context.Context, accountID int64) ([]model.Category, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, account_id, name, description, created_at, updated_at
		FROM categories WHERE account_id = ? ORDER BY name`, accountID)
	if err != nil {
		return nil, fmt.Errorf("querying cached categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning category row: %w", err)
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

// SaveReport archives a completed bulk report and returns the stored record.
func (s *SQLiteStore) SaveReport(ctx context.Context, accountID int64, report bulk.Report) (ReportRecord, error) {
	rec := ReportRecord{
		ID:         uuid.New().String(),
		AccountID:  accountID,
		Kind:       report.Kind,
		Successes:  report.Successes,
		Failures:   report.Failures,
		Outcomes:   report.Outcomes,
		FinishedAt: report.FinishedAt,
	}

	outcomes, err := json.Marshal(report.Outcomes)
	if err != nil {
		return ReportRecord{}, fmt.Errorf("marshaling outcomes: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO bulk_reports (id, account_id, kind, successes, failures, outcomes, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.AccountID, string(rec.Kind), rec.Successes, rec.Failures,
		string(outcomes), rec.FinishedAt.UTC(),
	)
	if err != nil {
		return ReportRecord{}, fmt.Errorf("saving report: %w", err)
	}

	return rec, nil
}

// GetReports retrieves archived reports matching the filter, newest first.
func (s *SQLiteStore) GetReports(ctx context.Context, filter ReportFilter) ([]ReportRecord, error) {
	var conditions []string
	var args []interface{}

	if filter.AccountID != nil {
		conditions = append(conditions, "account_id = ?")
		args = append(args, *filter.AccountID)
	}
	if filter.Kind != nil {
		conditions = append(conditions, "kind = ?")
		args = append(args, string(*filter.Kind))
	}

	query := "SELECT id, account_id, kind, successes, failures, outcomes, finished_at FROM bulk_reports"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY finished_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	var records []ReportRecord
	for rows.Next() {
		rec, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetReportByID retrieves a single archived report. Returns nil when no
// report with that ID exists.
func (s *SQLiteStore) GetReportByID(ctx context.Context, id string) (*ReportRecord, error) {
	row := s.db.QueryRowxContext(ctx, `
		SELECT id, account_id, kind, successes, failures, outcomes, finished_at
		FROM bulk_reports WHERE id = ?`, id)

	var (
		rec      ReportRecord
		kind     string
		outcomes string
	)
	err := row.Scan(&rec.ID, &rec.AccountID, &kind, &rec.Successes, &rec.Failures, &outcomes, &rec.FinishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting report %s: %w", id, err)
	}

	rec.Kind = bulk.Kind(kind)
	if err := json.Unmarshal([]byte(outcomes), &rec.Outcomes); err != nil {
		return nil, fmt.Errorf("unmarshaling outcomes: %w", err)
	}

	return &rec, nil
}

// scanReport scans a report row from a sqlx.Rows result set.
func scanReport(rows *sqlx.Rows) (ReportRecord, error) {
	var (
		rec      ReportRecord
		kind     string
		outcomes string
	)

	err := rows.Scan(&rec.ID, &rec.AccountID, &kind, &rec.Successes, &rec.Failures, &outcomes, &rec.FinishedAt)
	if err != nil {
		return ReportRecord{}, fmt.Errorf("scanning report row: %w", err)
	}

	rec.Kind = bulk.Kind(kind)
	if err := json.Unmarshal([]byte(outcomes), &rec.Outcomes); err != nil {
		return ReportRecord{}, fmt.Errorf("unmarshaling outcomes: %w", err)
	}

	return rec, nil
}
