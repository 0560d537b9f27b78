// Package ledger owns the single embedded SQLite connection backing the
// capture staging store, and the narrow query/execute port every other
// stateful component (watermark, dedup gate, capture stager) is built on
// top of. The file-URI DSN pattern and driver choice mirror this
// codebase's existing sources.PodcastAddictBackup, which opens the same
// pure-Go modernc.org/sqlite driver against a local database file.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite"

	"capturebridge/internal/pollerrors"
)

const schema = `
CREATE TABLE IF NOT EXISTS captures (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	status      TEXT NOT NULL,
	meta_json   TEXT NOT NULL,
	raw_content TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS captures_channel_native_id
	ON captures (json_extract(meta_json, '$.channel'), json_extract(meta_json, '$.channel_native_id'));

CREATE TABLE IF NOT EXISTS sync_state (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

// Store wraps the ledger's *sql.DB and exposes the two operations every
// caller in this codebase needs: a single-row read and a write. Keeping
// the port this narrow means no raw SQL leaks outside the three files
// (ledger.go, watermark.go, capture.go) that implement it.
type Store struct {
	db *sql.DB
}

// Row is the generic single-row result handed back by QueryOne. Callers
// know their own column order and call Scan directly, the same way
// sources.PodcastAddictBackup.queryListeningProgress does against
// *sql.Rows.
type Row interface {
	Scan(dest ...any) error
}

// Open creates (if absent) and migrates the ledger database at path,
// using the same read/write file-URI DSN shape as the rest of this
// codebase's SQLite access, with a busy timeout so a concurrent writer
// (the downstream exporter) does not produce spurious lock errors.
func Open(path string) (*Store, error) {
	u := &url.URL{Scheme: "file", OmitHost: true, Path: path, RawQuery: "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"}
	db, err := sql.Open("sqlite", u.String())
	if err != nil {
		return nil, fmt.Errorf("ledger: open: %w", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite is not safe for concurrent writers on one handle

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// QueryOne runs query and scans the first row into scan via fn. It
// returns (false, nil) when no row matched, mirroring the zero-row case
// from sql.ErrNoRows without forcing every caller to special-case that
// sentinel.
func (s *Store) QueryOne(ctx context.Context, fn func(Row) error, query string, args ...any) (bool, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: query: %v", pollerrors.ErrLedger, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return false, rows.Err()
	}
	if err := fn(rows); err != nil {
		return false, fmt.Errorf("%w: scan: %v", pollerrors.ErrLedger, err)
	}
	return true, rows.Err()
}

// Execute runs an insert/update/upsert and returns rows affected.
func (s *Store) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: exec: %v", pollerrors.ErrLedger, err)
	}
	return res.RowsAffected()
}
