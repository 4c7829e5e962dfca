package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/readlark/readlark/pkg/provider/textgen"
	textgenmock "github.com/readlark/readlark/pkg/provider/textgen/mock"
)

func draftResult(title string) *textgen.Result {
	return &textgen.Result{
		Draft: textgen.Draft{
			Title: title,
			Pages: []textgen.DraftPage{{Text: "sat sat sat"}},
		},
	}
}

func TestTextgenFallback_PrimarySuccess(t *testing.T) {
	primary := &textgenmock.Provider{Results: []*textgen.Result{draftResult("from primary")}}
	secondary := &textgenmock.Provider{Results: []*textgen.Result{draftResult("from secondary")}}

	fb := NewTextgenFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	res, err := fb.Generate(context.Background(), textgen.Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Draft.Title != "from primary" {
		t.Fatalf("title = %q, want 'from primary'", res.Draft.Title)
	}
	if len(primary.GenerateCalls) != 1 {
		t.Fatalf("primary called %d times, want 1", len(primary.GenerateCalls))
	}
	if len(secondary.GenerateCalls) != 0 {
		t.Fatalf("secondary called %d times, want 0", len(secondary.GenerateCalls))
	}
}

func TestTextgenFallback_Failover(t *testing.T) {
	primary := &textgenmock.Provider{Err: errors.New("primary down")}
	secondary := &textgenmock.Provider{Results: []*textgen.Result{draftResult("from secondary")}}

	fb := NewTextgenFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	res, err := fb.Generate(context.Background(), textgen.Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Draft.Title != "from secondary" {
		t.Fatalf("title = %q, want 'from secondary'", res.Draft.Title)
	}
}

func TestTextgenFallback_AllFail(t *testing.T) {
	primary := &textgenmock.Provider{Err: errors.New("primary down")}
	secondary := &textgenmock.Provider{Err: errors.New("secondary down")}

	fb := NewTextgenFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	_, err := fb.Generate(context.Background(), textgen.Request{})
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}

func TestTextgenFallback_OpenBreakerSkipsPrimary(t *testing.T) {
	primary := &textgenmock.Provider{Err: errors.New("primary down")}
	secondary := &textgenmock.Provider{Results: []*textgen.Result{draftResult("from secondary")}}

	fb := NewTextgenFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 2},
	})
	fb.AddFallback("secondary", secondary)

	// Two failing calls trip the primary's breaker.
	for range 2 {
		if _, err := fb.Generate(context.Background(), textgen.Request{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	callsBefore := len(primary.GenerateCalls)

	if _, err := fb.Generate(context.Background(), textgen.Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(primary.GenerateCalls) != callsBefore {
		t.Fatalf("primary called with open breaker (%d calls, want %d)", len(primary.GenerateCalls), callsBefore)
	}
}
