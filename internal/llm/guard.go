package llm

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/klarifikasi/klarifikasi-api/internal/resilience"
)

// Guarded runs a Provider through a circuit breaker and retry policy and
// normalizes every failure to ErrUnavailable or ErrBlocked.
type Guarded struct {
	next    Provider
	breaker *resilience.Breaker
	retry   resilience.RetryConfig
}

// Guard wraps p. Blocked responses are neither retried nor counted by the
// breaker.
func Guard(p Provider, breaker *resilience.Breaker, retry resilience.RetryConfig) *Guarded {
	retry.ShouldRetry = func(err error) bool {
		return !errors.Is(err, ErrBlocked) && !errors.Is(err, ErrUnavailable) && resilience.IsTransient(err)
	}
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.LogRetries("llm." + p.Name())
	}
	return &Guarded{next: p, breaker: breaker, retry: retry}
}

type outcome struct {
	text    string
	blocked error
}

// Name implements Provider.
func (g *Guarded) Name() string { return g.next.Name() }

// Complete implements Provider.
func (g *Guarded) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := resilience.Execute(ctx, g.breaker, func(ctx context.Context) (outcome, error) {
		text, err := resilience.Do(ctx, g.retry, func(ctx context.Context) (string, error) {
			return g.next.Complete(ctx, prompt)
		})
		if errors.Is(err, ErrBlocked) {
			return outcome{blocked: err}, nil
		}
		return outcome{text: text}, err
	})
	if err == nil && out.blocked != nil {
		err = out.blocked
	}
	if err == nil {
		return out.text, nil
	}

	zap.L().Warn("llm: completion failed",
		zap.String("provider", g.next.Name()),
		zap.Error(err),
	)
	if errors.Is(err, ErrBlocked) || errors.Is(err, ErrUnavailable) {
		return "", err
	}
	return "", eris.Wrapf(ErrUnavailable, "%s: %v", g.next.Name(), err)
}
