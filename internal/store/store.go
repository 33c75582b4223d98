// Package store persists per-user search history.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/klarifikasi/klarifikasi-api/internal/config"
	"github.com/klarifikasi/klarifikasi-api/internal/model"
)

// Page size bounds for List.
const (
	DefaultPerPage = 20
	MaxPerPage     = 50
)

// Scope selects which rows List returns.
type Scope string

const (
	// ScopeUser lists only the caller's rows.
	ScopeUser Scope = "user"
	// ScopeGlobal lists every row.
	ScopeGlobal Scope = "global"
)

// HistoryFilter specifies a page of history. A nil UserID under ScopeUser
// selects anonymous rows.
type HistoryFilter struct {
	UserID  *int64 `json:"user_id,omitempty"`
	Scope   Scope  `json:"scope,omitempty"`
	Page    int    `json:"page,omitempty"`
	PerPage int    `json:"per_page,omitempty"`
}

// Normalize clamps Page to >= 1 and PerPage to [1, MaxPerPage], defaulting
// to DefaultPerPage, and Scope to ScopeUser.
func (f HistoryFilter) Normalize() HistoryFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage <= 0 {
		f.PerPage = DefaultPerPage
	}
	if f.PerPage > MaxPerPage {
		f.PerPage = MaxPerPage
	}
	if f.Scope != ScopeGlobal {
		f.Scope = ScopeUser
	}
	return f
}

func (f HistoryFilter) offset() int {
	return (f.Page - 1) * f.PerPage
}

// where renders the WHERE clause for f using placeholder(n) for the n-th
// argument (1-based).
func (f HistoryFilter) where(placeholder func(int) string) (string, []any) {
	if f.Scope == ScopeGlobal {
		return "", nil
	}
	if f.UserID == nil {
		return " WHERE user_id IS NULL", nil
	}
	return " WHERE user_id = " + placeholder(1), []any{*f.UserID}
}

// Store defines history persistence.
type Store interface {
	// Record inserts one entry. top is the first search result, or nil.
	Record(ctx context.Context, userID *int64, query string, resultCount int, top *model.SourceResult) (*model.HistoryEntry, error)
	// List returns one page of entries, newest first.
	List(ctx context.Context, filter HistoryFilter) (model.HistoryPage, error)
	// Clear deletes every entry of userID and returns the number removed.
	Clear(ctx context.Context, userID int64) (int64, error)

	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "postgres":
		s, err = NewPostgres(ctx, cfg.DatabaseURL, nil)
	case "sqlite":
		s, err = NewSQLite(cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func newEntry(id string, userID *int64, query string, resultCount int, top *model.SourceResult) *model.HistoryEntry {
	e := &model.HistoryEntry{
		ID:           id,
		UserID:       userID,
		Query:        query,
		ResultsCount: resultCount,
	}
	if top != nil {
		e.TopTitle = nonEmpty(top.Title)
		e.TopLink = nonEmpty(top.Link)
		e.TopThumbnail = nonEmpty(top.Thumbnail)
	}
	return e
}

func nonEmpty(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func dollar(n int) string { return fmt.Sprintf("$%d", n) }

func question(int) string { return "?" }

const selectColumns = `id, user_id, query, results_count, top_title, top_link, top_thumbnail, created_at, updated_at`

type scannable interface {
	Scan(dest ...any) error
}

func scanEntry(row scannable) (model.HistoryEntry, error) {
	var e model.HistoryEntry
	err := row.Scan(&e.ID, &e.UserID, &e.Query, &e.ResultsCount,
		&e.TopTitle, &e.TopLink, &e.TopThumbnail, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}
