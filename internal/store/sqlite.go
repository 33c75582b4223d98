package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/klarifikasi/klarifikasi-api/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS search_histories (
	id            TEXT PRIMARY KEY,
	user_id       INTEGER,
	query         TEXT NOT NULL,
	results_count INTEGER NOT NULL DEFAULT 0,
	top_title     TEXT,
	top_link      TEXT,
	top_thumbnail TEXT,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_search_histories_user_created ON search_histories(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_search_histories_created ON search_histories(created_at DESC);
`

// Ping implements Store.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

// Migrate implements Store.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Record implements Store.
func (s *SQLiteStore) Record(ctx context.Context, userID *int64, query string, resultCount int, top *model.SourceResult) (*model.HistoryEntry, error) {
	e := newEntry(uuid.New().String(), userID, query, resultCount, top)
	e.CreatedAt = s.now()
	e.UpdatedAt = e.CreatedAt

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO search_histories (id, user_id, query, results_count, top_title, top_link, top_thumbnail, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Query, e.ResultsCount, e.TopTitle, e.TopLink, e.TopThumbnail, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert history")
	}
	return e, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, filter HistoryFilter) (model.HistoryPage, error) {
	f := filter.Normalize()
	where, args := f.where(question)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM search_histories`+where, args...).Scan(&total); err != nil {
		return model.HistoryPage{}, eris.Wrap(err, "sqlite: count history")
	}

	query := `SELECT ` + selectColumns + ` FROM search_histories` + where +
		` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`
	args = append(args, f.PerPage, f.offset())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return model.HistoryPage{}, eris.Wrap(err, "sqlite: list history")
	}
	defer rows.Close() //nolint:errcheck

	var entries []model.HistoryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return model.HistoryPage{}, eris.Wrap(err, "sqlite: scan history")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return model.HistoryPage{}, eris.Wrap(err, "sqlite: list history iterate")
	}
	return model.NewHistoryPage(entries, f.Page, f.PerPage, total), nil
}

// Clear implements Store.
func (s *SQLiteStore) Clear(ctx context.Context, userID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM search_histories WHERE user_id = ?`, userID)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: clear history for user %d", userID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return n, nil
}
