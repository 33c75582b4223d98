package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/klarifikasi/klarifikasi-api/internal/cache"
	"github.com/klarifikasi/klarifikasi-api/internal/model"
)

// Cached memoizes non-empty results of another Searcher. Cache errors are
// logged and bypassed.
type Cached struct {
	next   Searcher
	cache  cache.Cache
	ttl    time.Duration
	prefix string
}

// NewCached wraps next with c.
func NewCached(next Searcher, c cache.Cache, ttl time.Duration, prefix string) *Cached {
	return &Cached{next: next, cache: c, ttl: ttl, prefix: prefix}
}

// Search implements Searcher.
func (s *Cached) Search(ctx context.Context, query string) ([]model.SourceResult, error) {
	key := s.key(query)

	if raw, ok, err := s.cache.Get(ctx, key); err != nil {
		zap.L().Warn("search: cache read failed", zap.Error(err))
	} else if ok {
		var hit []model.SourceResult
		if err := json.Unmarshal(raw, &hit); err == nil {
			zap.L().Debug("search: cache hit", zap.String("key", key), zap.Int("results", len(hit)))
			return hit, nil
		}
		zap.L().Warn("search: discarding undecodable cache entry", zap.String("key", key))
	}

	results, err := s.next.Search(ctx, query)
	if err != nil || len(results) == 0 {
		return results, err
	}

	raw, err := json.Marshal(results)
	if err == nil {
		err = s.cache.Set(ctx, key, raw, s.ttl)
	}
	if err != nil {
		zap.L().Warn("search: cache write failed", zap.Error(err))
	}
	return results, nil
}

func (s *Cached) key(query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.Join(strings.Fields(query), " "))))
	return s.prefix + hex.EncodeToString(sum[:])
}
