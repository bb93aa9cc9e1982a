package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "modernc.org/sqlite"
)

// pragmas are applied by the driver to every pooled connection, not only the
// first one.
var pragmas = []string{
	"journal_mode(WAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

// Open opens a SQLite database with the service pragmas and validates connectivity.
func Open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	var foreignKeys int
	if err := db.QueryRow(`PRAGMA foreign_keys`).Scan(&foreignKeys); err != nil {
		db.Close()
		return nil, fmt.Errorf("read sqlite pragmas: %w", err)
	}
	if foreignKeys != 1 {
		db.Close()
		return nil, fmt.Errorf("sqlite foreign keys are disabled for %s", dbPath)
	}

	return db, nil
}

func dsn(dbPath string) string {
	params := url.Values{}
	for _, p := range pragmas {
		params.Add("_pragma", p)
	}
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + params.Encode()
}
