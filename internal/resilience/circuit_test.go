package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func failing(_ context.Context) (string, error) { return "", errors.New("upstream down") }

func ok(_ context.Context) (string, error) { return "ok", nil }

func TestBreaker_ClosedPassesThrough(t *testing.T) {
	b := NewBreaker("search", DefaultBreakerConfig())

	got, err := Execute(context.Background(), b, ok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Errorf("expected ok, got %q", got)
	}
	if b.State() != Closed {
		t.Errorf("expected closed, got %s", b.State())
	}
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := NewBreaker("llm", BreakerConfig{FailureThreshold: 3, Cooldown: time.Minute})

	for i := 0; i < 3; i++ {
		_, _ = Execute(context.Background(), b, failing)
	}
	if b.State() != Open {
		t.Fatalf("expected open, got %s", b.State())
	}

	_, err := Execute(context.Background(), b, func(_ context.Context) (string, error) {
		t.Error("collaborator called while circuit open")
		return "", nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker("search", BreakerConfig{FailureThreshold: 3, Cooldown: time.Minute})

	_, _ = Execute(context.Background(), b, failing)
	_, _ = Execute(context.Background(), b, failing)
	_, _ = Execute(context.Background(), b, ok)
	_, _ = Execute(context.Background(), b, failing)
	_, _ = Execute(context.Background(), b, failing)

	if b.State() != Closed {
		t.Errorf("expected closed after interleaved success, got %s", b.State())
	}
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	now := time.Now()
	b := NewBreaker("llm", BreakerConfig{FailureThreshold: 1, Cooldown: 10 * time.Second})
	b.now = func() time.Time { return now }

	_, _ = Execute(context.Background(), b, failing)
	if b.State() != Open {
		t.Fatalf("expected open, got %s", b.State())
	}

	now = now.Add(11 * time.Second)
	if b.State() != HalfOpen {
		t.Fatalf("expected half-open after cooldown, got %s", b.State())
	}

	if _, err := Execute(context.Background(), b, ok); err != nil {
		t.Fatalf("probe should pass: %v", err)
	}
	if b.State() != Closed {
		t.Errorf("expected closed after successful probe, got %s", b.State())
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	b := NewBreaker("llm", BreakerConfig{FailureThreshold: 1, Cooldown: 10 * time.Second})
	b.now = func() time.Time { return now }

	_, _ = Execute(context.Background(), b, failing)
	now = now.Add(11 * time.Second)
	_, _ = Execute(context.Background(), b, failing)

	if b.State() != Open {
		t.Errorf("expected open after failed probe, got %s", b.State())
	}
}

func TestBreaker_ShouldTripFiltersErrors(t *testing.T) {
	ignored := errors.New("blocked by safety filter")
	b := NewBreaker("llm", BreakerConfig{
		FailureThreshold: 1,
		ShouldTrip:       func(err error) bool { return !errors.Is(err, ignored) },
	})

	_, err := Execute(context.Background(), b, func(_ context.Context) (string, error) { return "", ignored })
	if !errors.Is(err, ignored) {
		t.Fatalf("expected the collaborator error, got %v", err)
	}
	if b.State() != Closed {
		t.Errorf("non-tripping error opened the circuit")
	}
}

func TestBreaker_Reset(t *testing.T) {
	b := NewBreaker("search", BreakerConfig{FailureThreshold: 1})
	_, _ = Execute(context.Background(), b, failing)
	b.Reset()
	if b.State() != Closed {
		t.Errorf("expected closed after reset, got %s", b.State())
	}
}

func TestBreaker_Concurrent(t *testing.T) {
	b := NewBreaker("search", BreakerConfig{FailureThreshold: 1000})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = Execute(context.Background(), b, failing)
				return
			}
			_, _ = Execute(context.Background(), b, ok)
		}(i)
	}
	wg.Wait()

	if b.State() != Closed {
		t.Errorf("expected closed, got %s", b.State())
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(BreakerConfig{FailureThreshold: 1})

	if r.Get("search") != r.Get("search") {
		t.Error("expected the same breaker for the same name")
	}
	_, _ = Execute(context.Background(), r.Get("llm"), failing)

	states := r.States()
	if states["search"] != "closed" {
		t.Errorf("search: expected closed, got %q", states["search"])
	}
	if states["llm"] != "open" {
		t.Errorf("llm: expected open, got %q", states["llm"])
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{Closed: "closed", Open: "open", HalfOpen: "half-open", State(9): "unknown"}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("State(%d): expected %q, got %q", int(s), want, s.String())
		}
	}
}
