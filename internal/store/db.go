package store

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Config describes how to reach the relational store.
type Config struct {
	Driver   string // "sqlite" or "mysql"
	Database string // file path or ":memory:" for sqlite, schema name for mysql
	Host     string
	Port     int
	User     string
	Password string

	// RetryWindow bounds how long transient statement failures are retried.
	// Zero disables retries.
	RetryWindow time.Duration
}

// DB wraps a SQL connection pool holding the collected GitHub metadata.
type DB struct {
	db          *sql.DB
	dialect     dialect
	retryWindow time.Duration
}

// Open opens (or creates) a SQLite database at the given path and ensures the
// schema. Use ":memory:" for an in-memory database (useful for testing).
func Open(path string) (*DB, error) {
	return OpenConfig(context.Background(), Config{Driver: "sqlite", Database: path})
}

// OpenConfig connects to the store described by cfg and ensures the schema.
func OpenConfig(ctx context.Context, cfg Config) (*DB, error) {
	var (
		sqlDB *sql.DB
		d     dialect
		err   error
	)
	switch cfg.Driver {
	case "", "sqlite":
		d = sqliteDialect
		sqlDB, err = sql.Open("sqlite", sqliteDSN(cfg.Database))
	case "mysql":
		d = mysqlDialect
		sqlDB, err = sql.Open("mysql", mysqlDSN(cfg))
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if d.name == "sqlite" {
		// Set connection pool to 1 for SQLite
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(4)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	store := &DB{db: sqlDB, dialect: d, retryWindow: cfg.RetryWindow}
	if err := store.ensureSchema(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}

	return store, nil
}

func sqliteDSN(path string) string {
	if path == ":memory:" {
		return ":memory:?_pragma=foreign_keys(ON)"
	}
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
}

func mysqlDSN(cfg Config) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 3306
	}
	mc.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	mc.DBName = cfg.Database
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Conn returns the underlying *sql.DB for advanced use cases.
func (d *DB) Conn() *sql.DB {
	return d.db
}

// Driver returns the name of the SQL dialect in use.
func (d *DB) Driver() string {
	return d.dialect.name
}

func (d *DB) ensureSchema(ctx context.Context) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning schema transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range d.dialect.schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	return tx.Commit()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func idPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
