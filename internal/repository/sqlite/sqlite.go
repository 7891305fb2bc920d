// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — works everywhere Go works.
package sqlite

import (
	"database/sql"
	"fmt"

	// Side-effect import: the driver registers itself with database/sql
	// under the name "sqlite".
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
// It implements both repository.UserRepository and repository.ListingRepository
// via the Users()/Listings() accessors.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/estate.db"  → file-based database (persistent)
//   - ":memory:"        → in-memory database (used by the tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Force an immediate connection so a bad path or permissions issue
	// surfaces here instead of on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is in progress —
	// necessary for a web server where multiple requests hit the DB.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite; listings reference users.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool. Always defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Users returns the user repository backed by this DB.
func (db *DB) Users() *UserDB {
	return &UserDB{conn: db.conn}
}

// Listings returns the listing repository backed by this DB.
func (db *DB) Listings() *ListingDB {
	return &ListingDB{conn: db.conn}
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it safe to
// run on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			avatar        TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// image_urls is a JSON array of relative paths, ordered, max six
	// entries. The column is only ever read back whole, so a join table
	// would buy nothing.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id             TEXT PRIMARY KEY,
			name           TEXT NOT NULL,
			description    TEXT NOT NULL DEFAULT '',
			address        TEXT NOT NULL DEFAULT '',
			type           TEXT NOT NULL DEFAULT 'rent',
			parking        INTEGER NOT NULL DEFAULT 0,
			furnished      INTEGER NOT NULL DEFAULT 0,
			offer          INTEGER NOT NULL DEFAULT 0,
			bedrooms       INTEGER NOT NULL DEFAULT 1,
			bathrooms      INTEGER NOT NULL DEFAULT 1,
			regular_price  REAL NOT NULL DEFAULT 0,
			discount_price REAL NOT NULL DEFAULT 0,
			image_urls     TEXT NOT NULL DEFAULT '[]',
			user_ref       TEXT NOT NULL REFERENCES users(id),
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_listings_user_ref ON listings(user_ref);
		CREATE INDEX IF NOT EXISTS idx_listings_created_at ON listings(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating listings table: %w", err)
	}

	return nil
}
