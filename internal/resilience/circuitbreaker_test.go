package resilience

import (
	"errors"
	"testing"
	"time"
)

var errBackend = errors.New("backend unavailable")

// tripBreaker drives cb to the open state with consecutive failures.
func tripBreaker(t *testing.T, cb *CircuitBreaker, failures int) {
	t.Helper()
	for range failures {
		_ = cb.Execute(func() error { return errBackend })
	}
	if cb.State() != StateOpen {
		t.Fatalf("breaker state after %d failures = %v, want open", failures, cb.State())
	}
}

func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "openai", MaxFailures: 2})

	for range 10 {
		if err := cb.Execute(func() error { return nil }); err != nil {
			t.Fatalf("Execute: %v", err)
		}
	}
	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed", cb.State())
	}
}

func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 3, ResetTimeout: time.Hour})

	// Two failures keep the breaker closed.
	for range 2 {
		if err := cb.Execute(func() error { return errBackend }); !errors.Is(err, errBackend) {
			t.Fatalf("Execute = %v, want backend error", err)
		}
	}
	if cb.State() != StateClosed {
		t.Fatalf("state after 2 failures = %v, want closed", cb.State())
	}

	// The third one trips it.
	_ = cb.Execute(func() error { return errBackend })
	if cb.State() != StateOpen {
		t.Fatalf("state after 3 failures = %v, want open", cb.State())
	}

	// Open breaker rejects without invoking the call.
	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute while open = %v, want ErrCircuitOpen", err)
	}
	if called {
		t.Error("open breaker still invoked the call")
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 2})

	_ = cb.Execute(func() error { return errBackend })
	_ = cb.Execute(func() error { return nil })
	_ = cb.Execute(func() error { return errBackend })

	// Failures were never consecutive, so the breaker never tripped.
	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed", cb.State())
	}
}

func TestBreakerClosesAfterSuccessfulProbes(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  2,
		ResetTimeout: 10 * time.Millisecond,
		HalfOpenMax:  2,
	})
	tripBreaker(t, cb, 2)

	time.Sleep(20 * time.Millisecond)
	if cb.State() != StateHalfOpen {
		t.Fatalf("state after reset timeout = %v, want half-open", cb.State())
	}

	for range 2 {
		if err := cb.Execute(func() error { return nil }); err != nil {
			t.Fatalf("probe Execute: %v", err)
		}
	}
	if cb.State() != StateClosed {
		t.Errorf("state after successful probes = %v, want closed", cb.State())
	}
}

func TestBreakerReopensOnFailedProbe(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  2,
		ResetTimeout: 10 * time.Millisecond,
		HalfOpenMax:  3,
	})
	tripBreaker(t, cb, 2)

	time.Sleep(20 * time.Millisecond)
	if err := cb.Execute(func() error { return errBackend }); !errors.Is(err, errBackend) {
		t.Fatalf("probe Execute = %v, want backend error", err)
	}
	if cb.State() != StateOpen {
		t.Errorf("state after failed probe = %v, want open", cb.State())
	}
	if err := cb.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute after re-open = %v, want ErrCircuitOpen", err)
	}
}

func TestBreakerStaysHalfOpenMidProbing(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  1,
		ResetTimeout: 10 * time.Millisecond,
		HalfOpenMax:  2,
	})
	tripBreaker(t, cb, 1)

	time.Sleep(20 * time.Millisecond)

	// One successful probe is not enough to close when two are required.
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("first probe: %v", err)
	}
	if cb.State() != StateHalfOpen {
		t.Fatalf("state after one probe = %v, want half-open", cb.State())
	}
}

func TestBreakerReset(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, ResetTimeout: time.Hour})
	tripBreaker(t, cb, 1)

	cb.Reset()
	if cb.State() != StateClosed {
		t.Fatalf("state after Reset = %v, want closed", cb.State())
	}
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Errorf("Execute after Reset: %v", err)
	}
}

func TestBreakerDefaults(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})
	if cb.maxFailures != defaultMaxFailures {
		t.Errorf("maxFailures = %d, want %d", cb.maxFailures, defaultMaxFailures)
	}
	if cb.resetTimeout != defaultResetTimeout {
		t.Errorf("resetTimeout = %v, want %v", cb.resetTimeout, defaultResetTimeout)
	}
	if cb.halfOpenMax != defaultHalfOpenMax {
		t.Errorf("halfOpenMax = %d, want %d", cb.halfOpenMax, defaultHalfOpenMax)
	}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateClosed:   "closed",
		StateOpen:     "open",
		StateHalfOpen: "half-open",
		State(99):     "unknown",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
