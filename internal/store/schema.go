package store

const Schema = `
CREATE TABLE IF NOT EXISTS authors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL COLLATE NOCASE UNIQUE,
	external_id TEXT,
	profile_summary TEXT,
	notable_works TEXT,
	profile_refreshed_at DATETIME,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS books (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	-- authors outlive books; a removed author just detaches
	author_id INTEGER REFERENCES authors(id) ON DELETE SET NULL,
	external_subject_id TEXT NOT NULL DEFAULT '',
	cover_url TEXT NOT NULL DEFAULT '',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_books_author_id ON books(author_id);

CREATE TABLE IF NOT EXISTS quotes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	book_id INTEGER NOT NULL REFERENCES books(id) ON DELETE CASCADE,
	text TEXT NOT NULL,
	source TEXT,
	origin TEXT NOT NULL CHECK (origin IN ('mine', 'community')),
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_quotes_book_origin ON quotes(book_id, origin);

CREATE TABLE IF NOT EXISTS remarks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	book_id INTEGER NOT NULL REFERENCES books(id) ON DELETE CASCADE,
	content TEXT NOT NULL,
	title TEXT,
	origin TEXT NOT NULL CHECK (origin IN ('mine', 'community')),
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_remarks_book_origin ON remarks(book_id, origin);

CREATE TABLE IF NOT EXISTS recommendations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	focus_author TEXT NOT NULL COLLATE NOCASE,
	recommended_author TEXT NOT NULL COLLATE NOCASE,
	rationale TEXT,
	image_url TEXT,
	confidence REAL CHECK (confidence IS NULL OR (confidence >= 0 AND confidence <= 1)),
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (focus_author, recommended_author)
);

CREATE TABLE IF NOT EXISTS series_suggestions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	focus_title TEXT NOT NULL COLLATE NOCASE,
	suggested_title TEXT NOT NULL COLLATE NOCASE,
	author TEXT,
	rationale TEXT,
	confidence REAL CHECK (confidence IS NULL OR (confidence >= 0 AND confidence <= 1)),
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (focus_title, suggested_title)
);

CREATE TABLE IF NOT EXISTS adaptation_suggestions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	focus_title TEXT NOT NULL COLLATE NOCASE,
	adaptation_title TEXT NOT NULL COLLATE NOCASE,
	medium TEXT,
	year INTEGER,
	rationale TEXT,
	confidence REAL CHECK (confidence IS NULL OR (confidence >= 0 AND confidence <= 1)),
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (focus_title, adaptation_title)
);

CREATE TABLE IF NOT EXISTS cache (
	key TEXT PRIMARY KEY,
	data BLOB,
	expires_at DATETIME
);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`
