package db

// SchemaSQL is the complete schema for fresh flowtrack installs.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. Tests load it
// via GetSchemaSQL() instead of hardcoding CREATE TABLE statements, so any
// column a repository references that is missing here fails immediately
// with "no such column" at development time.
const SchemaSQL = `
-- Flows (tracked recurring habits)
CREATE TABLE IF NOT EXISTS flows (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	rule_kind TEXT NOT NULL CHECK(rule_kind IN ('every_day', 'week_days', 'month_days')),
	week_days TEXT NOT NULL DEFAULT '',
	month_days TEXT NOT NULL DEFAULT '',
	activation_date TEXT,
	archived INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Entries (per-date completion records, one per flow per date)
CREATE TABLE IF NOT EXISTS entries (
	id TEXT PRIMARY KEY,
	flow_id TEXT NOT NULL,
	entry_date TEXT NOT NULL,
	symbol TEXT NOT NULL DEFAULT '',
	count INTEGER NOT NULL DEFAULT 0,
	goal INTEGER NOT NULL DEFAULT 0,
	duration_min INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (flow_id) REFERENCES flows(id) ON DELETE CASCADE,
	UNIQUE(flow_id, entry_date)
);

CREATE INDEX IF NOT EXISTS idx_entries_date ON entries(entry_date);

-- Sync queue (durable offline mutation queue)
CREATE TABLE IF NOT EXISTS sync_queue (
	id TEXT PRIMARY KEY,
	entity_type TEXT NOT NULL CHECK(entity_type IN ('flow', 'entry')),
	entity_id TEXT NOT NULL,
	operation TEXT NOT NULL CHECK(operation IN ('create', 'update', 'delete')),
	payload TEXT NOT NULL DEFAULT '',
	idempotency_key TEXT NOT NULL UNIQUE,
	status TEXT NOT NULL CHECK(status IN ('pending', 'in_flight', 'failed')) DEFAULT 'pending',
	attempts INTEGER NOT NULL DEFAULT 0,
	next_attempt_at TEXT,
	last_error TEXT NOT NULL DEFAULT '',
	enqueued_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sync_queue_status ON sync_queue(status, next_attempt_at);
CREATE INDEX IF NOT EXISTS idx_sync_queue_entity ON sync_queue(entity_type, entity_id);

-- Notification schedules
CREATE TABLE IF NOT EXISTS schedules (
	id TEXT PRIMARY KEY,
	flow_id TEXT,
	kind TEXT NOT NULL CHECK(kind IN ('reminder', 'summary')) DEFAULT 'reminder',
	time_of_day TEXT NOT NULL,
	frequency TEXT NOT NULL CHECK(frequency IN ('daily', 'weekly', 'monthly')),
	week_days TEXT NOT NULL DEFAULT '',
	month_days TEXT NOT NULL DEFAULT '',
	timezone TEXT NOT NULL DEFAULT 'UTC',
	quiet_start TEXT NOT NULL DEFAULT '',
	quiet_end TEXT NOT NULL DEFAULT '',
	start_date TEXT,
	end_date TEXT,
	enabled INTEGER NOT NULL DEFAULT 1,
	last_triggered_at TEXT,
	trigger_count INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (flow_id) REFERENCES flows(id) ON DELETE CASCADE,
	UNIQUE(flow_id, time_of_day, kind)
);

-- Activity log (local writes and sync engine transitions)
CREATE TABLE IF NOT EXISTS activity_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	at DATETIME DEFAULT CURRENT_TIMESTAMP,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	action TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT ''
);
`

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
