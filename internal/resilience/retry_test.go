package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
}

func TestDo_FirstAttemptSucceeds(t *testing.T) {
	var calls int
	got, err := Do(context.Background(), fastRetry(3), func(_ context.Context) (int, error) {
		calls++
		return 7, nil
	})
	if err != nil || got != 7 {
		t.Fatalf("expected 7, nil; got %d, %v", got, err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_RetriesTransient(t *testing.T) {
	var calls int
	got, err := Do(context.Background(), fastRetry(3), func(_ context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", NewTransientError(errors.New("unavailable"), 503)
		}
		return "done", nil
	})
	if err != nil || got != "done" {
		t.Fatalf("expected done, nil; got %q, %v", got, err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	var calls int
	_, err := Do(context.Background(), fastRetry(3), func(_ context.Context) (string, error) {
		calls++
		return "", NewTransientError(errors.New("still down"), 500)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_PermanentErrorStops(t *testing.T) {
	var calls int
	_, err := Do(context.Background(), fastRetry(5), func(_ context.Context) (string, error) {
		calls++
		return "", errors.New("bad request")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_SingleAttemptDefault(t *testing.T) {
	var calls int
	_, _ = Do(context.Background(), SingleAttempt(), func(_ context.Context) (string, error) {
		calls++
		return "", NewTransientError(errors.New("timeout"), 504)
	})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_ContextCancelledStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	_, err := Do(ctx, RetryConfig{MaxAttempts: 5, InitialBackoff: time.Second}, func(_ context.Context) (string, error) {
		calls++
		cancel()
		return "", NewTransientError(errors.New("slow"), 503)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_OnRetryHook(t *testing.T) {
	var attempts []int
	cfg := fastRetry(3)
	cfg.OnRetry = func(attempt int, _ error) { attempts = append(attempts, attempt) }

	_, _ = Do(context.Background(), cfg, func(_ context.Context) (string, error) {
		return "", NewTransientError(errors.New("x"), 429)
	})
	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("expected retry hooks for attempts [1 2], got %v", attempts)
	}
}

func TestBackoff_Capped(t *testing.T) {
	cfg := withDefaults(RetryConfig{MaxAttempts: 10, InitialBackoff: time.Second, MaxBackoff: 2 * time.Second})
	cfg.JitterFraction = 0
	if d := backoff(6, cfg); d != 2*time.Second {
		t.Errorf("expected backoff capped at 2s, got %s", d)
	}
	if d := backoff(0, cfg); d != time.Second {
		t.Errorf("expected 1s initial backoff, got %s", d)
	}
}

func TestRetryFromSettings(t *testing.T) {
	if cfg := RetryFromSettings(0, 0, 0); cfg.MaxAttempts != 1 {
		t.Errorf("expected single attempt, got %d", cfg.MaxAttempts)
	}
	cfg := RetryFromSettings(4, 100, 2000)
	if cfg.MaxAttempts != 4 || cfg.InitialBackoff != 100*time.Millisecond || cfg.MaxBackoff != 2*time.Second {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestBreakerFromSettings(t *testing.T) {
	cfg := BreakerFromSettings(2, 5)
	if cfg.FailureThreshold != 2 || cfg.Cooldown != 5*time.Second {
		t.Errorf("unexpected config: %+v", cfg)
	}
	def := BreakerFromSettings(0, 0)
	if def.FailureThreshold != 5 || def.Cooldown != 30*time.Second {
		t.Errorf("expected defaults, got %+v", def)
	}
}
