// Package db opens connections to the managed database.
//
// Local databases use file: DSNs and remote Turso databases use libsql://
// DSNs; both are handled by the libsql driver. The sqlite3 driver is
// registered separately for auxiliary databases such as the audit log.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// Open connects to the managed database identified by dsn and verifies the
// connection with a ping. For file: DSNs the parent directory is created if
// it does not exist.
func Open(dsn string) (*sql.DB, error) {
	if path, ok := strings.CutPrefix(dsn, "file:"); ok {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return nil, fmt.Errorf("creating data dir: %w", err)
			}
		}
	}

	conn, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return conn, nil
}
