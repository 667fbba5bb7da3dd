package db

// SchemaSQL is the complete schema for fresh warden installs.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All
// repository tests build in-memory databases via GetSchemaSQL(), so a
// repository referencing a column that does not exist here fails
// immediately with "no such column" instead of drifting silently.
//
// Mode, command and status are current-value-only: one row per
// kingdom, overwritten in place. Title requests and ingest files keep
// durable history because their uniqueness invariants span time.
const SchemaSQL = `
-- Kingdoms (created implicitly on first observation)
CREATE TABLE IF NOT EXISTS kingdoms (
	number INTEGER PRIMARY KEY,
	name TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Owner-intended agent mode, one row per kingdom
CREATE TABLE IF NOT EXISTS bot_modes (
	kingdom INTEGER PRIMARY KEY,
	mode TEXT NOT NULL CHECK(mode IN ('idle', 'title_serving', 'scan_preparing', 'paused')) DEFAULT 'idle',
	requested_by TEXT,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (kingdom) REFERENCES kingdoms(number)
);

-- Single-slot command mailbox, one row per kingdom, overwrite on issue
CREATE TABLE IF NOT EXISTS bot_commands (
	kingdom INTEGER PRIMARY KEY,
	kind TEXT NOT NULL CHECK(kind IN ('start_scan', 'stop')),
	scan_type TEXT,
	options TEXT,
	issued_at DATETIME NOT NULL,
	consumed INTEGER NOT NULL DEFAULT 0,
	FOREIGN KEY (kingdom) REFERENCES kingdoms(number)
);

-- Latest agent heartbeat, one row per kingdom, last-write-wins
CREATE TABLE IF NOT EXISTS bot_status (
	kingdom INTEGER PRIMARY KEY,
	activity TEXT NOT NULL CHECK(activity IN ('idle', 'navigating', 'scanning', 'granting_titles', 'error')),
	message TEXT,
	progress INTEGER DEFAULT 0,
	total INTEGER DEFAULT 0,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (kingdom) REFERENCES kingdoms(number)
);

-- Title request queue (durable history)
CREATE TABLE IF NOT EXISTS title_requests (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kingdom INTEGER NOT NULL,
	governor_id INTEGER NOT NULL,
	governor_name TEXT NOT NULL,
	alliance_tag TEXT,
	kind TEXT NOT NULL CHECK(kind IN ('scientist', 'architect', 'duke', 'justice')),
	duration_hours INTEGER NOT NULL DEFAULT 24,
	status TEXT NOT NULL CHECK(status IN ('pending', 'assigned', 'completed', 'failed', 'cancelled')) DEFAULT 'pending',
	priority INTEGER NOT NULL DEFAULT 0,
	note TEXT,
	created_at DATETIME NOT NULL,
	assigned_at DATETIME,
	completed_at DATETIME,
	expires_at DATETIME,
	FOREIGN KEY (kingdom) REFERENCES kingdoms(number)
);
CREATE INDEX IF NOT EXISTS idx_title_requests_queue ON title_requests(kingdom, status, priority, created_at);
CREATE INDEX IF NOT EXISTS idx_title_requests_governor ON title_requests(kingdom, governor_id, kind);
-- One outstanding (pending|assigned) request per requester and kind.
-- Concurrent admissions race on these; the loser gets a UNIQUE failure.
-- Unresolved governors carry id 0 and are keyed by name instead.
CREATE UNIQUE INDEX IF NOT EXISTS idx_title_requests_outstanding
ON title_requests(kingdom, governor_id, kind)
WHERE status IN ('pending', 'assigned') AND governor_id > 0;
CREATE UNIQUE INDEX IF NOT EXISTS idx_title_requests_outstanding_unresolved
ON title_requests(kingdom, lower(governor_name), kind)
WHERE status IN ('pending', 'assigned') AND governor_id = 0;

-- Player bans (soft-deactivated, never deleted)
CREATE TABLE IF NOT EXISTS player_bans (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kingdom INTEGER NOT NULL,
	governor_id INTEGER NOT NULL,
	governor_name TEXT NOT NULL,
	ban_type TEXT NOT NULL CHECK(ban_type IN ('titles', 'all')) DEFAULT 'titles',
	reason TEXT,
	banned_by TEXT,
	active INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL,
	expires_at DATETIME,
	FOREIGN KEY (kingdom) REFERENCES kingdoms(number)
);
CREATE INDEX IF NOT EXISTS idx_player_bans_lookup ON player_bans(kingdom, governor_id, ban_type, active);

-- Imported scan files (fingerprint gives at-most-once import)
CREATE TABLE IF NOT EXISTS ingest_files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kingdom INTEGER NOT NULL,
	scan_type TEXT NOT NULL,
	source_file TEXT NOT NULL,
	fingerprint TEXT NOT NULL UNIQUE,
	snapshot_id TEXT NOT NULL UNIQUE,
	record_count INTEGER NOT NULL,
	imported_at DATETIME NOT NULL,
	FOREIGN KEY (kingdom) REFERENCES kingdoms(number)
);

-- Stats store
CREATE TABLE IF NOT EXISTS governors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	governor_id INTEGER NOT NULL UNIQUE,
	name TEXT NOT NULL,
	alliance_name TEXT,
	kingdom INTEGER NOT NULL,
	FOREIGN KEY (kingdom) REFERENCES kingdoms(number)
);

CREATE TABLE IF NOT EXISTS governor_name_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	governor_id INTEGER NOT NULL,
	old_name TEXT NOT NULL,
	new_name TEXT NOT NULL,
	ingest_file_id INTEGER,
	changed_at DATETIME NOT NULL,
	FOREIGN KEY (ingest_file_id) REFERENCES ingest_files(id)
);

CREATE TABLE IF NOT EXISTS governor_snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	governor_id INTEGER NOT NULL,
	ingest_file_id INTEGER NOT NULL,
	power INTEGER DEFAULT 0,
	kill_points INTEGER DEFAULT 0,
	t1_kills INTEGER DEFAULT 0,
	t2_kills INTEGER DEFAULT 0,
	t3_kills INTEGER DEFAULT 0,
	t4_kills INTEGER DEFAULT 0,
	t5_kills INTEGER DEFAULT 0,
	dead INTEGER DEFAULT 0,
	rss_gathered INTEGER DEFAULT 0,
	rss_assistance INTEGER DEFAULT 0,
	helps INTEGER DEFAULT 0,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (governor_id) REFERENCES governors(governor_id),
	FOREIGN KEY (ingest_file_id) REFERENCES ingest_files(id)
);
CREATE INDEX IF NOT EXISTS idx_snapshots_governor ON governor_snapshots(governor_id, created_at);
`
