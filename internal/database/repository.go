package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// ErrConnection marks failures that abort a whole unit of work: the store
// cannot be reached, the schema cannot be ensured or a transaction cannot be
// committed.
var ErrConnection = errors.New("store connection failed")

// DB is one open store connection together with its SQL dialect.
type DB struct {
	sql     *sql.DB
	dialect dialect
}

// Open connects to the store named by dsn. postgres:// and postgresql:// URLs
// use pgx; sqlite:<path> and file:<path> use the embedded SQLite driver.
func Open(ctx context.Context, dsn string) (*DB, error) {
	var (
		db  *DB
		err error
	)
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		db, err = openPostgres(dsn)
	case strings.HasPrefix(dsn, "sqlite:"), strings.HasPrefix(dsn, "file:"):
		db, err = openSQLite(dsn)
	default:
		return nil, fmt.Errorf("%w: unsupported database url scheme", ErrConnection)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	// Ping to ensure connection
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.sql.PingContext(pingCtx); err != nil {
		_ = db.sql.Close()
		return nil, fmt.Errorf("%w: database unreachable: %v", ErrConnection, err)
	}
	return db, nil
}

func openPostgres(dsn string) (*DB, error) {
	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	// Connection poolers in transaction mode (PgBouncer, Supabase) do not
	// support prepared statements, so the statement cache stays off.
	config.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool := stdlib.OpenDB(*config)
	pool.SetMaxOpenConns(1)
	return &DB{sql: pool, dialect: postgresDialect}, nil
}

func openSQLite(dsn string) (*DB, error) {
	source, err := sqliteDSN(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := sql.Open("sqlite", source)
	if err != nil {
		return nil, err
	}
	// sqlite typically wants 1 writer
	pool.SetMaxOpenConns(1)
	return &DB{sql: pool, dialect: sqliteDialect}, nil
}

// sqliteDSN turns sqlite:<path> or file:<path>[?query] into a modernc DSN with
// a busy timeout, keeping any query parameters already present.
func sqliteDSN(dsn string) (string, error) {
	path := strings.TrimPrefix(strings.TrimPrefix(dsn, "sqlite:"), "file:")
	path, query, _ := strings.Cut(path, "?")
	if path == "" {
		return "", errors.New("sqlite path is empty")
	}
	const pragma = "_pragma=busy_timeout(5000)"
	if query == "" {
		return "file:" + path + "?" + pragma, nil
	}
	return "file:" + path + "?" + query + "&" + pragma, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Version reports the server version string.
func (d *DB) Version(ctx context.Context) (string, error) {
	var v string
	if err := d.sql.QueryRowContext(ctx, d.dialect.versionQuery).Scan(&v); err != nil {
		return "", fmt.Errorf("query version: %w", err)
	}
	return v, nil
}
