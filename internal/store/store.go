package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/recfilter/internal/dialect"
)

// DriverName is the database/sql driver registered by this package. It is
// the go-sqlite3 driver with a regexp() function on every connection.
const DriverName = "sqlite3_recfilter"

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("regexp", regexpMatch, true)
		},
	})
}

var (
	regexpMu    sync.Mutex
	regexpCache = map[string]*regexp.Regexp{}
)

// regexpMatch implements "x REGEXP pattern", which SQLite calls as
// regexp(pattern, x). A NULL operand yields NULL.
func regexpMatch(pattern, value any) (any, error) {
	if pattern == nil || value == nil {
		return nil, nil
	}
	p, s := sqlText(pattern), sqlText(value)

	regexpMu.Lock()
	re, ok := regexpCache[p]
	if !ok {
		var err error
		re, err = regexp.Compile(p)
		if err != nil {
			regexpMu.Unlock()
			return nil, err
		}
		regexpCache[p] = re
	}
	regexpMu.Unlock()

	return re.MatchString(s), nil
}

func sqlText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

// Store runs filter queries against a database.
type Store struct {
	db      *sql.DB
	dialect dialect.Dialect
	logger  *slog.Logger
}

// Open creates or opens a SQLite database at the given path. Use ":memory:"
// for a private in-memory database.
//
// The database is configured with:
//   - case-sensitive LIKE
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func Open(path string) (*Store, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sql.Open(DriverName, path+sep+"_cslike=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Pragmas and in-memory databases are per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return New(db, dialect.SQLite{}), nil
}

// New wraps an open database whose SQL is rendered by d.
func New(db *sql.DB, d dialect.Dialect) *Store {
	return &Store{db: db, dialect: d, logger: slog.Default()}
}

// SetLogger replaces the logger of the store.
func (s *Store) SetLogger(l *slog.Logger) {
	s.logger = l
}

// Dialect returns the dialect queries must be translated for.
func (s *Store) Dialect() dialect.Dialect {
	return s.dialect
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(ctx context.Context, name, expected string) error {
	var value string
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
