package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/klarifikasi/klarifikasi-api/internal/model"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore. pgxmock pools
// satisfy it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
	now  func() time.Time
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return newPostgresStore(pool), nil
}

func newPostgresStore(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS search_histories (
	id            TEXT PRIMARY KEY,
	user_id       BIGINT,
	query         VARCHAR(255) NOT NULL,
	results_count INTEGER NOT NULL DEFAULT 0,
	top_title     TEXT,
	top_link      TEXT,
	top_thumbnail TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_search_histories_user_created ON search_histories(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_search_histories_created ON search_histories(created_at DESC);
`

// Ping implements Store.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

// Migrate implements Store.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Record implements Store.
func (s *PostgresStore) Record(ctx context.Context, userID *int64, query string, resultCount int, top *model.SourceResult) (*model.HistoryEntry, error) {
	e := newEntry(uuid.New().String(), userID, query, resultCount, top)
	e.CreatedAt = s.now()
	e.UpdatedAt = e.CreatedAt

	_, err := s.pool.Exec(ctx,
		`INSERT INTO search_histories (id, user_id, query, results_count, top_title, top_link, top_thumbnail, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.UserID, e.Query, e.ResultsCount, e.TopTitle, e.TopLink, e.TopThumbnail, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert history")
	}
	return e, nil
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context, filter HistoryFilter) (model.HistoryPage, error) {
	f := filter.Normalize()
	where, args := f.where(dollar)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM search_histories`+where, args...).Scan(&total); err != nil {
		return model.HistoryPage{}, eris.Wrap(err, "postgres: count history")
	}

	n := len(args)
	query := `SELECT ` + selectColumns + ` FROM search_histories` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, n+1, n+2)
	args = append(args, f.PerPage, f.offset())

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return model.HistoryPage{}, eris.Wrap(err, "postgres: list history")
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return model.HistoryPage{}, eris.Wrap(err, "postgres: scan history")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return model.HistoryPage{}, eris.Wrap(err, "postgres: list history iterate")
	}
	return model.NewHistoryPage(entries, f.Page, f.PerPage, total), nil
}

// Clear implements Store.
func (s *PostgresStore) Clear(ctx context.Context, userID int64) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM search_histories WHERE user_id = $1`, userID)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: clear history for user %d", userID)
	}
	return tag.RowsAffected(), nil
}
