package database

const schema = `
-- Last observed trending ranking per genre key
CREATE TABLE rankings (
	genre TEXT PRIMARY KEY,
	data TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

-- Append-only waifu votes
CREATE TABLE votes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	waifu TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX idx_votes_user_created ON votes(user_id, created_at);
CREATE INDEX idx_votes_waifu ON votes(waifu);
`

// migrations contains incremental schema changes, applied in order based on
// the current user_version. migrations[0] is empty because version 0 uses the
// base schema.
var migrations = []string{
	"",
}
