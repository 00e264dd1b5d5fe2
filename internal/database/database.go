package database

import (
	"database/sql"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver
)

// New creates a new database connection pool. The sqlite time format option
// makes the driver bind time.Time values in a form SQLite's own date
// functions can parse; the statistics queries depend on strftime working
// against the stored date column.
func New(dataSourceName string) (*sql.DB, error) {
	dsn := dataSourceName
	if strings.Contains(dsn, "?") {
		dsn += "&_time_format=sqlite"
	} else {
		dsn += "?_time_format=sqlite"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
// The unique index on users.email is what resolves a race between two
// concurrent registrations with the same address: the loser gets a
// constraint violation, which the user service turns into a conflict error.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		monthly_budget REAL NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT 'USD',
		is_active INTEGER NOT NULL DEFAULT 1,
		last_login DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS expenses (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		amount REAL NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		date DATETIME NOT NULL,
		payment_method TEXT NOT NULL DEFAULT 'Cash',
		location TEXT NOT NULL DEFAULT '',
		-- Store list fields as JSON text
		tags_json TEXT NOT NULL DEFAULT '[]',
		is_recurring INTEGER NOT NULL DEFAULT 0,
		recurring_type TEXT NOT NULL DEFAULT 'monthly',
		attachments_json TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL DEFAULT 'completed',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_expenses_user ON expenses(user_id);
	CREATE INDEX IF NOT EXISTS idx_expenses_date ON expenses(date);
	CREATE INDEX IF NOT EXISTS idx_expenses_category ON expenses(category);
	`
	_, err := db.Exec(sqlStmt)
	return err
}
