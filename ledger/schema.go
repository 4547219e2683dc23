package ledger

const migrationsTable = `CREATE TABLE IF NOT EXISTS migrations (hash BLOB NOT NULL PRIMARY KEY)`

// Append only. Applied migrations are matched by hash.
var migrations = []string{
	`CREATE TABLE state_changes (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  id TEXT NOT NULL UNIQUE,
  contract TEXT NOT NULL,
  proof BLOB NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  from_id TEXT NOT NULL DEFAULT '',
  to_id TEXT NOT NULL DEFAULT '',
  value INTEGER NOT NULL DEFAULT 0,
  reason TEXT NOT NULL DEFAULT '',
  received_at INTEGER NOT NULL
)`,
	`CREATE INDEX state_changes_status ON state_changes (status, seq)`,
	`CREATE TABLE pins (
  name TEXT NOT NULL PRIMARY KEY,
  seq INTEGER NOT NULL
)`,
}
