// Package llm adapts the Gemini, chat-completion and Anthropic clients to a
// single Provider used by the claim checker.
package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/klarifikasi/klarifikasi-api/internal/config"
	"github.com/klarifikasi/klarifikasi-api/internal/prompt"
	"github.com/klarifikasi/klarifikasi-api/internal/resilience"
	"github.com/klarifikasi/klarifikasi-api/pkg/anthropic"
	"github.com/klarifikasi/klarifikasi-api/pkg/chatcompletion"
	"github.com/klarifikasi/klarifikasi-api/pkg/gemini"
)

var (
	// ErrUnavailable means the provider is unconfigured, unreachable or
	// returned an error status.
	ErrUnavailable = eris.New("llm: unavailable")
	// ErrBlocked means the provider answered without usable text.
	ErrBlocked = eris.New("llm: response blocked")
)

// Provider completes a prompt into raw model text.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// New builds the provider selected by cfg.LLM.Provider, guarded by the
// "llm" breaker from breakers. Missing credentials yield a provider that
// always returns ErrUnavailable without issuing requests.
func New(cfg *config.Config, breakers *resilience.Registry) Provider {
	if !cfg.LLMConfigured() {
		return unconfigured{name: cfg.LLM.Provider}
	}

	var p Provider
	switch cfg.LLM.Provider {
	case "chat":
		opts := []chatcompletion.Option{chatcompletion.WithModel(cfg.Chat.Model)}
		if cfg.Chat.BaseURL != "" {
			opts = append(opts, chatcompletion.WithBaseURL(cfg.Chat.BaseURL))
		}
		p = NewChat(chatcompletion.NewClient(cfg.Chat.Key, opts...), cfg.LLM)
	case "anthropic":
		var opts []anthropic.Option
		if cfg.Anthropic.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.Anthropic.BaseURL))
		}
		p = NewAnthropic(anthropic.NewClient(cfg.Anthropic.Key, opts...), cfg.Anthropic.Model, cfg.LLM)
	default:
		gc := gemini.DefaultGenerationConfig()
		if cfg.LLM.MaxTokens > 0 {
			gc.MaxOutputTokens = cfg.LLM.MaxTokens
		}
		gc.Temperature = cfg.LLM.Temperature
		opts := []gemini.Option{gemini.WithModel(cfg.Gemini.Model), gemini.WithGenerationConfig(gc)}
		if cfg.Gemini.BaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(cfg.Gemini.BaseURL))
		}
		p = NewGemini(gemini.NewClient(cfg.Gemini.Key, opts...))
	}

	retry := resilience.RetryFromSettings(
		cfg.Resilience.RetryAttempts,
		cfg.Resilience.RetryInitialBackoffMs,
		cfg.Resilience.RetryMaxBackoffMs,
	)
	return Guard(p, breakers.Get("llm"), retry)
}

type unconfigured struct{ name string }

func (u unconfigured) Name() string { return u.name }

func (u unconfigured) Complete(context.Context, string) (string, error) {
	return "", eris.Wrapf(ErrUnavailable, "%s: credentials not configured", u.name)
}

// Gemini adapts a gemini.Client.
type Gemini struct {
	client gemini.Client
}

// NewGemini wraps client as a Provider.
func NewGemini(client gemini.Client) *Gemini {
	return &Gemini{client: client}
}

// Name implements Provider.
func (g *Gemini) Name() string { return "gemini" }

// Complete implements Provider.
func (g *Gemini) Complete(ctx context.Context, p string) (string, error) {
	text, err := g.client.GenerateText(ctx, p)
	if err == nil {
		return text, nil
	}
	if errors.Is(err, gemini.ErrBlocked) {
		return "", eris.Wrap(ErrBlocked, err.Error())
	}
	var apiErr *gemini.APIError
	if errors.As(err, &apiErr) {
		return "", classifyStatus(err, apiErr.StatusCode)
	}
	return "", err
}

// Chat adapts a chatcompletion.Client.
type Chat struct {
	client chatcompletion.Client
	cfg    config.LLMConfig
}

// NewChat wraps client as a Provider.
func NewChat(client chatcompletion.Client, cfg config.LLMConfig) *Chat {
	return &Chat{client: client, cfg: cfg}
}

// Name implements Provider.
func (c *Chat) Name() string { return "chat" }

// Complete implements Provider.
func (c *Chat) Complete(ctx context.Context, p string) (string, error) {
	temp := c.cfg.Temperature
	req := chatcompletion.Request{
		Messages: []chatcompletion.Message{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: p},
		},
		Temperature: &temp,
	}
	if c.cfg.MaxTokens > 0 {
		maxTokens := c.cfg.MaxTokens
		req.MaxTokens = &maxTokens
	}

	resp, err := c.client.ChatCompletion(ctx, req)
	if err != nil {
		var apiErr *chatcompletion.APIError
		if errors.As(err, &apiErr) {
			return "", classifyStatus(err, apiErr.StatusCode)
		}
		return "", err
	}
	text := resp.Content()
	if strings.TrimSpace(text) == "" {
		return "", eris.Wrap(ErrBlocked, "chat: empty completion")
	}
	return text, nil
}

// Anthropic adapts an anthropic.Client.
type Anthropic struct {
	client anthropic.Client
	model  string
	cfg    config.LLMConfig
}

// NewAnthropic wraps client as a Provider.
func NewAnthropic(client anthropic.Client, model string, cfg config.LLMConfig) *Anthropic {
	return &Anthropic{client: client, model: model, cfg: cfg}
}

// Name implements Provider.
func (a *Anthropic) Name() string { return "anthropic" }

// Complete implements Provider.
func (a *Anthropic) Complete(ctx context.Context, p string) (string, error) {
	temp := a.cfg.Temperature
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   int64(a.cfg.MaxTokens),
		System:      prompt.System,
		Messages:    []anthropic.Message{{Role: "user", Content: p}},
		Temperature: &temp,
	})
	if err != nil {
		if code := anthropic.StatusCode(err); code != 0 {
			return "", classifyStatus(err, code)
		}
		return "", err
	}
	resp.Usage.Log(resp.Model)

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", eris.Wrapf(ErrBlocked, "anthropic: empty message (stop_reason=%s)", resp.StopReason)
	}
	return text, nil
}

func classifyStatus(err error, code int) error {
	if resilience.IsTransientStatus(code) {
		return resilience.NewTransientError(err, code)
	}
	if code == http.StatusBadRequest || code == http.StatusUnauthorized || code == http.StatusForbidden {
		return eris.Wrapf(ErrUnavailable, "status %d: %v", code, err)
	}
	return err
}
