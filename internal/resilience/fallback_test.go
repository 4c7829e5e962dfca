package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestFallbackGroupPrimaryFirst(t *testing.T) {
	fg := NewFallbackGroup("primary", "openai", FallbackConfig{})
	fg.AddFallback("ollama", "fallback")

	var used string
	got, err := ExecuteWithResult(fg, func(v string) (string, error) {
		used = v
		return v + "-result", nil
	})
	if err != nil {
		t.Fatalf("ExecuteWithResult: %v", err)
	}
	if used != "primary" {
		t.Errorf("used provider %q, want primary", used)
	}
	if got != "primary-result" {
		t.Errorf("result = %q, want primary-result", got)
	}
}

func TestFallbackGroupFailover(t *testing.T) {
	fg := NewFallbackGroup("primary", "openai", FallbackConfig{})
	fg.AddFallback("ollama", "fallback")

	var tried []string
	got, err := ExecuteWithResult(fg, func(v string) (string, error) {
		tried = append(tried, v)
		if v == "primary" {
			return "", errBackend
		}
		return v, nil
	})
	if err != nil {
		t.Fatalf("ExecuteWithResult: %v", err)
	}
	if got != "fallback" {
		t.Errorf("result = %q, want fallback", got)
	}
	if len(tried) != 2 || tried[0] != "primary" || tried[1] != "fallback" {
		t.Errorf("tried = %v, want [primary fallback]", tried)
	}
}

func TestFallbackGroupAllFail(t *testing.T) {
	fg := NewFallbackGroup("a", "openai", FallbackConfig{})
	fg.AddFallback("anthropic", "b")

	_, err := ExecuteWithResult(fg, func(string) (int, error) {
		return 0, errBackend
	})
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("ExecuteWithResult = %v, want ErrAllFailed", err)
	}
}

func TestFallbackGroupSkipsOpenBreaker(t *testing.T) {
	fg := NewFallbackGroup("primary", "openai", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{
			MaxFailures:  1,
			ResetTimeout: time.Hour,
		},
	})
	fg.AddFallback("ollama", "fallback")

	// Trip the primary's breaker.
	_, _ = ExecuteWithResult(fg, func(v string) (string, error) {
		if v == "primary" {
			return "", errBackend
		}
		return v, nil
	})

	// The primary must now be skipped without being called.
	var tried []string
	got, err := ExecuteWithResult(fg, func(v string) (string, error) {
		tried = append(tried, v)
		return v, nil
	})
	if err != nil {
		t.Fatalf("ExecuteWithResult: %v", err)
	}
	if got != "fallback" {
		t.Errorf("result = %q, want fallback", got)
	}
	if len(tried) != 1 || tried[0] != "fallback" {
		t.Errorf("tried = %v, want [fallback]", tried)
	}
}

func TestFallbackGroupSingleProviderAllOpen(t *testing.T) {
	fg := NewFallbackGroup("only", "openai", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{
			MaxFailures:  1,
			ResetTimeout: time.Hour,
		},
	})

	if err := fg.Execute(func(string) error { return errBackend }); !errors.Is(err, ErrAllFailed) {
		t.Fatalf("Execute = %v, want ErrAllFailed", err)
	}

	// With the lone breaker open the group fails fast.
	called := false
	err := fg.Execute(func(string) error { called = true; return nil })
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("Execute = %v, want ErrAllFailed", err)
	}
	if called {
		t.Error("provider was called despite an open breaker")
	}
}

func TestFallbackGroupExecuteSucceeds(t *testing.T) {
	fg := NewFallbackGroup(42, "openai", FallbackConfig{})

	var seen int
	if err := fg.Execute(func(v int) error { seen = v; return nil }); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if seen != 42 {
		t.Errorf("provider value = %d, want 42", seen)
	}
}
