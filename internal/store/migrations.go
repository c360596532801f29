package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
	id          INTEGER PRIMARY KEY,
	email       TEXT NOT NULL,
	name        TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL,
	cached_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS categories (
	id          INTEGER PRIMARY KEY,
	account_id  INTEGER NOT NULL,
	name        TEXT NOT NULL,
	description TEXT,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL,
	cached_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS bulk_reports (
	id          TEXT PRIMARY KEY,
	account_id  INTEGER NOT NULL,
	kind        TEXT NOT NULL,
	successes   INTEGER NOT NULL,
	failures    INTEGER NOT NULL,
	outcomes    TEXT NOT NULL DEFAULT '[]',
	finished_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_categories_account ON categories(account_id);
CREATE INDEX IF NOT EXISTS idx_reports_account ON bulk_reports(account_id);
CREATE INDEX IF NOT EXISTS idx_reports_finished ON bulk_reports(finished_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_reports_kind ON bulk_reports(kind);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
