// Package search turns Custom Search responses into model.SourceResult lists.
package search

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/klarifikasi/klarifikasi-api/internal/cache"
	"github.com/klarifikasi/klarifikasi-api/internal/config"
	"github.com/klarifikasi/klarifikasi-api/internal/model"
	"github.com/klarifikasi/klarifikasi-api/internal/resilience"
	"github.com/klarifikasi/klarifikasi-api/pkg/google"
)

// MaxResults caps the number of sources passed downstream.
const MaxResults = google.MaxResults

// ErrUnavailable is returned when credentials are missing, the upstream call
// fails or the circuit is open.
var ErrUnavailable = eris.New("search: unavailable")

// Searcher finds sources for a claim.
type Searcher interface {
	Search(ctx context.Context, query string) ([]model.SourceResult, error)
}

// New builds the configured searcher: the Custom Search client guarded by
// the "search" breaker, memoized in c when c is non-nil.
func New(cfg *config.Config, breakers *resilience.Registry, c cache.Cache) Searcher {
	var opts []google.Option
	if cfg.Google.BaseURL != "" {
		opts = append(opts, google.WithBaseURL(cfg.Google.BaseURL))
	}
	client := google.NewClient(cfg.Google.APIKey, cfg.Google.EngineID, opts...)

	var s Searcher = NewGoogle(client, cfg.SearchConfigured(),
		WithBreaker(breakers.Get("search")),
		WithRetry(resilience.RetryFromSettings(
			cfg.Resilience.RetryAttempts,
			cfg.Resilience.RetryInitialBackoffMs,
			cfg.Resilience.RetryMaxBackoffMs,
		)),
	)
	if c != nil {
		ttl := time.Duration(cfg.Cache.TTLMinutes) * time.Minute
		s = NewCached(s, c, ttl, cfg.Cache.KeyPrefix)
	}
	return s
}

// Google is a Searcher backed by the Custom Search API.
type Google struct {
	client     google.Client
	configured bool
	breaker    *resilience.Breaker
	retry      resilience.RetryConfig
}

// Option configures a Google searcher.
type Option func(*Google)

// WithBreaker guards upstream calls with b.
func WithBreaker(b *resilience.Breaker) Option {
	return func(g *Google) { g.breaker = b }
}

// WithRetry sets the retry policy for transient upstream failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(g *Google) { g.retry = cfg }
}

// NewGoogle creates a searcher. When configured is false every call returns
// ErrUnavailable without contacting the API.
func NewGoogle(client google.Client, configured bool, opts ...Option) *Google {
	g := &Google{
		client:     client,
		configured: configured,
		retry:      resilience.SingleAttempt(),
	}
	for _, o := range opts {
		o(g)
	}
	if g.breaker == nil {
		g.breaker = resilience.NewBreaker("search", resilience.DefaultBreakerConfig())
	}
	if g.retry.OnRetry == nil {
		g.retry.OnRetry = resilience.LogRetries("search")
	}
	return g
}

// Search implements Searcher.
func (g *Google) Search(ctx context.Context, query string) ([]model.SourceResult, error) {
	if !g.configured {
		return nil, eris.Wrap(ErrUnavailable, "google api key or engine id not configured")
	}

	resp, err := resilience.Execute(ctx, g.breaker, func(ctx context.Context) (*google.SearchResponse, error) {
		return resilience.Do(ctx, g.retry, func(ctx context.Context) (*google.SearchResponse, error) {
			resp, err := g.client.Search(ctx, query, MaxResults)
			var apiErr *google.APIError
			if errors.As(err, &apiErr) && resilience.IsTransientStatus(apiErr.StatusCode) {
				return nil, resilience.NewTransientError(err, apiErr.StatusCode)
			}
			return resp, err
		})
	})
	if err != nil {
		return nil, eris.Wrapf(ErrUnavailable, "%v", err)
	}
	return ToSources(resp.Items), nil
}

// ToSources maps API items to sources, keeping at most MaxResults.
func ToSources(items []google.Item) []model.SourceResult {
	if len(items) > MaxResults {
		items = items[:MaxResults]
	}
	out := make([]model.SourceResult, 0, len(items))
	for _, it := range items {
		out = append(out, model.SourceResult{
			Title:        strings.TrimSpace(it.Title),
			Snippet:      strings.TrimSpace(it.Snippet),
			Link:         it.Link,
			DisplayLink:  it.DisplayLink,
			FormattedURL: it.FormattedURL,
			Thumbnail:    it.Thumbnail(),
		})
	}
	return out
}
