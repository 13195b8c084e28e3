package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/text/language"

	"github.com/asaidimu/go-sieve/core/expr"
)

// DriverName is the database/sql driver that generated statements need. It
// is the mattn/go-sqlite3 driver with the sieve_fold function installed on
// every connection.
const DriverName = "sqlite3_sieve"

// foldFunction is the SQL name of the culture-aware case folding function.
const foldFunction = "sieve_fold"

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc(foldFunction, fold, true)
		},
	})
}

// Open opens a database with DriverName.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	return db, nil
}

// fold folds text the way in-memory matching does. Callers guard NULL and
// cast the column to TEXT.
func fold(s, tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		t = language.Und
	}
	return expr.Fold(s, t)
}
