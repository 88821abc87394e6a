package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create sessions and turns",
		SQL: `
			CREATE TABLE sessions (
				id               TEXT PRIMARY KEY,
				created_at       TEXT NOT NULL,
				last_active_at   TEXT NOT NULL,
				emotional_state  TEXT NOT NULL DEFAULT 'unknown'
			);

			CREATE TABLE turns (
				id               INTEGER PRIMARY KEY AUTOINCREMENT,
				session_id       TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
				user_text        TEXT NOT NULL,
				assistant_text   TEXT NOT NULL,
				timestamp        TEXT NOT NULL,
				emotional_state  TEXT NOT NULL DEFAULT 'unknown'
			);

			CREATE INDEX idx_turns_session ON turns (session_id, id);
		`,
	},
}
