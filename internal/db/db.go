// db.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

const (
	DriverLibSQL = "libsql"
	DriverSQLite = "sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS songs (
	id     TEXT,
	title  TEXT NOT NULL,
	url    TEXT,
	lyrics TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS posted_lines (
	fingerprint TEXT PRIMARY KEY
);`

// TursoDSN builds a libsql connection string for a Turso database.
func TursoDSN(url, authToken string) string {
	return fmt.Sprintf("%s?authToken=%s", url, authToken)
}

// Open connects to driver/dsn, verifies the connection and creates the
// tables the bot needs.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	database, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s db: %w", driver, err)
	}

	if driver == DriverSQLite {
		// a single writer avoids SQLITE_BUSY on the local file
		database.SetMaxOpenConns(1)
	} else {
		database.SetMaxOpenConns(25)
		database.SetMaxIdleConns(25)
	}
	database.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := database.PingContext(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	for _, stmt := range splitStatements(schema) {
		if _, err := database.ExecContext(ctx, stmt); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return database, nil
}

// Close closes the database connection safely
func Close(database *sql.DB) {
	if database != nil {
		if err := database.Close(); err != nil {
			log.Printf("error closing database: %v", err)
		}
	}
}

// libsql over HTTP executes one statement per request.
func splitStatements(script string) []string {
	var stmts []string
	for _, stmt := range strings.Split(script, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
