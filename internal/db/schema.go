package db

import (
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

func wrapOpenDB(err error) error {
	return fmt.Errorf("open db: %w", err)
}

func isRemote(path string) bool {
	return strings.HasPrefix(path, "libsql://") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "http://")
}

// OpenDB opens a local sqlite file, or a remote libsql database when path is
// a libsql:// or http(s):// url, and makes sure the schema exists.
func OpenDB(path, authToken string) (*sql.DB, error) {
	var db *sql.DB
	var err error

	if isRemote(path) {
		values := url.Values{}
		if authToken != "" {
			values.Add("authToken", authToken)
		}
		dsn := path
		if len(values) > 0 {
			dsn += "?" + values.Encode()
		}
		db, err = sql.Open("libsql", dsn)
		if err != nil {
			return nil, wrapOpenDB(err)
		}
	} else {
		if path != ":memory:" {
			os.MkdirAll(filepath.Dir(path), 0777)
		}
		db, err = sql.Open("sqlite", path)
		if err != nil {
			return nil, wrapOpenDB(err)
		}

		// see this stackoverflow post for information on why the following
		// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
		db.SetMaxOpenConns(1)
		_, err = db.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			return nil, wrapOpenDB(err)
		}
	}

	_, err = db.Exec(Schema)
	if err != nil {
		db.Close()
		return nil, wrapOpenDB(fmt.Errorf("apply schema: %w", err))
	}
	return db, nil
}
