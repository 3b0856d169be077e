package cargo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"servicedesk/internal/config"
)

// Store manages cargo persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// connectionPragmas are applied by the driver to every pooled connection.
var connectionPragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"foreign_keys(1)",
}

// SQLite primary and extended result codes checked by the store.
const (
	codeBusy             = 5
	codeConstraintUnique = 2067
)

// Writes that hit SQLITE_BUSY past the driver's busy_timeout are retried
// with doubling waits, capped at maxBusyWait.
const (
	maxBusyAttempts = 5
	firstBusyWait   = 10 * time.Millisecond
	maxBusyWait     = 200 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func resultCode(err error) (int, bool) {
	var coded interface{ Code() int }
	if !errors.As(err, &coded) {
		return 0, false
	}
	return coded.Code(), true
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := resultCode(err); ok {
		return code&0xff == codeBusy
	}
	return strings.Contains(err.Error(), "database is locked")
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := resultCode(err); ok {
		return code == codeConstraintUnique
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func busyWait(attempt int) time.Duration {
	wait := firstBusyWait << attempt
	if wait <= 0 || wait > maxBusyWait {
		return maxBusyWait
	}
	return wait
}

func retryOnBusy(ctx context.Context, op func() error) error {
	for attempt := 0; ; attempt++ {
		err := op()
		if err == nil || !isSQLiteBusy(err) || attempt+1 >= maxBusyAttempts {
			return err
		}
		timer := time.NewTimer(busyWait(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func dataSourceName(path string) string {
	query := url.Values{"_pragma": connectionPragmas}
	return "file:" + path + "?" + query.Encode()
}

// Open connects to the cargo database at cfg.DatabasePath(), creating the
// file and schema on first use.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	path := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dataSourceName(path))
	if err != nil {
		return nil, fmt.Errorf("open cargo database %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect cargo database %s: %w", path, err)
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file backing the store.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}
