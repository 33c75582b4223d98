// Package pipeline runs a claim check: validate, search, analyze, aggregate
// the verdict and record history.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/klarifikasi/klarifikasi-api/internal/config"
	"github.com/klarifikasi/klarifikasi-api/internal/llm"
	"github.com/klarifikasi/klarifikasi-api/internal/model"
	"github.com/klarifikasi/klarifikasi-api/internal/parser"
	"github.com/klarifikasi/klarifikasi-api/internal/prompt"
	"github.com/klarifikasi/klarifikasi-api/internal/search"
	"github.com/klarifikasi/klarifikasi-api/internal/store"
	"github.com/klarifikasi/klarifikasi-api/internal/verdict"
)

// Query length bounds, in runes.
const (
	MinQueryLength = 3
	MaxQueryLength = 255
)

// Caller-visible messages.
const (
	MsgInsufficientEvidence = "Data yang tersedia tidak cukup untuk memverifikasi klaim ini. Diperlukan sumber tambahan."
	MsgNoSources            = "Tidak ditemukan sumber yang relevan untuk klaim ini, sehingga kesimpulan belum dapat diambil."
	MsgSearchUnavailable    = "Layanan pencarian tidak tersedia saat ini."
	MsgAIUnavailable        = "Tidak dapat menganalisis klaim ini dengan AI saat ini."
	MsgAIVerifySources      = "Klaim ini memerlukan verifikasi lebih lanjut. Silakan periksa sumber-sumber berikut untuk informasi lebih detail."
	MsgAIBlocked            = "Analisis diblokir oleh penyedia AI."
	ErrAIUnavailable        = "Layanan AI tidak tersedia."
	ErrAIBlocked            = "Penyedia AI memblokir analisis."
)

const fallbackSnippetRunes = 150

// Checker runs claim checks against a searcher, an LLM provider and an
// optional history store.
type Checker struct {
	searcher search.Searcher
	provider llm.Provider
	history  store.Store

	searchTimeout         time.Duration
	llmTimeout            time.Duration
	analyzeWithoutSources bool
	fallbackSources       int
	recordAnonymous       bool
}

// Option configures a Checker.
type Option func(*Checker)

// WithTimeouts overrides the per-call search and LLM timeouts.
func WithTimeouts(searchTimeout, llmTimeout time.Duration) Option {
	return func(c *Checker) {
		c.searchTimeout = searchTimeout
		c.llmTimeout = llmTimeout
	}
}

// NewChecker creates a Checker from cfg. history may be nil, in which case
// nothing is recorded.
func NewChecker(cfg *config.Config, s search.Searcher, p llm.Provider, history store.Store, opts ...Option) *Checker {
	c := &Checker{
		searcher:              s,
		provider:              p,
		history:               history,
		searchTimeout:         seconds(cfg.Pipeline.SearchTimeoutSecs, 30),
		llmTimeout:            seconds(cfg.Pipeline.LLMTimeoutSecs, 30),
		analyzeWithoutSources: cfg.Pipeline.AnalyzeWithoutSources,
		fallbackSources:       cfg.Pipeline.FallbackSources,
		recordAnonymous:       cfg.History.RecordAnonymous,
	}
	if c.fallbackSources <= 0 {
		c.fallbackSources = 3
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func seconds(n, def int) time.Duration {
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Second
}

// Check verifies query. The only error it returns is *ValidationError;
// upstream failures degrade into fields of the response.
func (c *Checker) Check(ctx context.Context, query string, userID *int64) (*model.CheckResponse, error) {
	q, err := NormalizeQuery(query)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(zap.String("query", q))
	resp := &model.CheckResponse{Query: q, Results: []model.SourceResult{}}

	sources, searchErr := c.search(ctx, q)
	if searchErr != nil {
		log.Warn("pipeline: search unavailable", zap.Error(searchErr))
		resp.SearchError = MsgSearchUnavailable
	} else {
		resp.Results = sources
	}

	resp.Analysis = c.analyze(ctx, q, resp.Results)

	if searchErr == nil {
		c.record(ctx, userID, q, resp.Results)
	}

	log.Info("pipeline: check complete",
		zap.Int("sources", len(resp.Results)),
		zap.String("label", string(resp.Analysis.Verdict.Label)),
		zap.Bool("success", resp.Analysis.Success),
		zap.Bool("degraded", resp.Analysis.Degraded),
	)
	return resp, nil
}

func (c *Checker) search(ctx context.Context, q string) ([]model.SourceResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.searchTimeout)
	defer cancel()

	sources, err := c.searcher.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	if sources == nil {
		sources = []model.SourceResult{}
	}
	return sources, nil
}

func (c *Checker) analyze(ctx context.Context, q string, sources []model.SourceResult) model.AnalysisResult {
	var res model.AnalysisResult

	if len(sources) == 0 && !c.analyzeWithoutSources {
		res = insufficientEvidence()
	} else {
		res = c.complete(ctx, q, sources)
	}

	res.Claim = q
	res.SourceStances = verdict.Reconcile(res.SourceStances, sources)
	res.Verdict = verdict.Aggregate(res.SourceStances)
	return res
}

func (c *Checker) complete(ctx context.Context, q string, sources []model.SourceResult) model.AnalysisResult {
	ctx, cancel := context.WithTimeout(ctx, c.llmTimeout)
	defer cancel()

	raw, err := c.provider.Complete(ctx, prompt.Build(q, sources))
	if err != nil {
		zap.L().Warn("pipeline: llm failed, using fallback analysis",
			zap.String("provider", c.provider.Name()),
			zap.Error(err),
		)
		return c.fallback(sources, err)
	}
	return parser.Parse(raw)
}

func insufficientEvidence() model.AnalysisResult {
	return model.AnalysisResult{
		Success:          true,
		Explanation:      MsgInsufficientEvidence,
		DetailedAnalysis: MsgNoSources,
		SourcesUsed:      []string{},
		SourceStances:    []model.SourceStance{},
	}
}

// fallback builds the labeled analysis returned when the LLM cannot be used.
func (c *Checker) fallback(sources []model.SourceResult, err error) model.AnalysisResult {
	res := model.AnalysisResult{
		Explanation:      MsgAIUnavailable,
		DetailedAnalysis: parser.NoAnalysis,
		SourcesUsed:      []string{},
		SourceStances:    []model.SourceStance{},
	}

	listed := sources
	if len(listed) > c.fallbackSources {
		listed = listed[:c.fallbackSources]
	}

	if len(listed) > 0 {
		res.Explanation = MsgAIVerifySources

		var b strings.Builder
		b.WriteString("Hasil pencarian menampilkan beberapa sumber terkait:\n\n")
		for i, s := range listed {
			fmt.Fprintf(&b, "%d. %s\n", i+1, orDefault(s.DisplayLink, "Tidak ada domain"))
			fmt.Fprintf(&b, "   Judul: %s\n", orDefault(s.Title, "Tidak ada judul"))
			fmt.Fprintf(&b, "   Ringkasan: %s...\n", cut(orDefault(s.Snippet, "Tidak ada ringkasan"), fallbackSnippetRunes))
			fmt.Fprintf(&b, "   URL: %s\n\n", orDefault(s.Link, "Tidak ada URL"))
			if s.DisplayLink != "" {
				res.SourcesUsed = append(res.SourcesUsed, s.DisplayLink)
			}
		}
		b.WriteString("Untuk verifikasi yang akurat, silakan baca artikel lengkap dari sumber-sumber di atas. ")
		b.WriteString("AI tidak dapat memberikan kesimpulan definitif tanpa analisis mendalam.")
		res.DetailedAnalysis = parser.FormatSocialMedia(b.String())
	}

	if errors.Is(err, llm.ErrBlocked) {
		res.Explanation = MsgAIBlocked
		res.SetError(ErrAIBlocked)
	} else {
		res.SetError(ErrAIUnavailable)
	}
	return res
}

func (c *Checker) record(ctx context.Context, userID *int64, q string, sources []model.SourceResult) {
	if c.history == nil || (userID == nil && !c.recordAnonymous) {
		return
	}

	var top *model.SourceResult
	if len(sources) > 0 {
		top = &sources[0]
	}
	if _, err := c.history.Record(ctx, userID, q, len(sources), top); err != nil {
		zap.L().Error("pipeline: failed to record history", zap.String("query", q), zap.Error(err))
	}
}

// NormalizeQuery trims and NFC-normalizes q and checks its length.
func NormalizeQuery(q string) (string, error) {
	q = strings.TrimSpace(norm.NFC.String(q))
	n := utf8.RuneCountInString(q)
	switch {
	case n == 0:
		return "", newValidationError("query", "The query field is required.")
	case n < MinQueryLength:
		return "", newValidationError("query", fmt.Sprintf("The query field must be at least %d characters.", MinQueryLength))
	case n > MaxQueryLength:
		return "", newValidationError("query", fmt.Sprintf("The query field must not be greater than %d characters.", MaxQueryLength))
	}
	return q, nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func cut(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
