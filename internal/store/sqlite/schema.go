package sqlite

const schema = `
CREATE TABLE IF NOT EXISTS contacts (
	id         INTEGER PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	first_name TEXT NOT NULL,
	last_name  TEXT NOT NULL DEFAULT '',
	sex        TEXT NOT NULL DEFAULT '',
	phone      TEXT NOT NULL,
	message    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS events (
	id               INTEGER PRIMARY KEY,
	event_date       TEXT NOT NULL,
	event_time       TEXT NOT NULL,
	contact_owner_id INTEGER NOT NULL
		REFERENCES contacts(id) ON DELETE CASCADE,
	notified         INTEGER NOT NULL DEFAULT 0,
	UNIQUE (contact_owner_id, event_date, event_time)
);

CREATE INDEX IF NOT EXISTS idx_events_date_time
	ON events(event_date, event_time);

CREATE TABLE IF NOT EXISTS send_records (
	id        INTEGER PRIMARY KEY,
	sent_time TEXT NOT NULL,
	sent_date TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`
