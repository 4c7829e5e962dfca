package resilience

import (
	"context"

	"github.com/readlark/readlark/pkg/provider/textgen"
)

// TextgenFallback implements [textgen.Provider] with automatic failover across
// multiple story-drafting backends. Each backend has its own circuit breaker;
// when the primary fails or its breaker is open, the next healthy fallback is
// tried.
//
// Failover covers infrastructure failures only. A draft that decodes but then
// fails decodability validation never reaches this layer — that is the
// regeneration loop's concern, not a provider fault.
type TextgenFallback struct {
	group *FallbackGroup[textgen.Provider]
}

// Compile-time interface assertion.
var _ textgen.Provider = (*TextgenFallback)(nil)

// NewTextgenFallback creates a [TextgenFallback] with primary as the preferred
// backend.
func NewTextgenFallback(primary textgen.Provider, primaryName string, cfg FallbackConfig) *TextgenFallback {
	return &TextgenFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional drafting provider as a fallback.
func (f *TextgenFallback) AddFallback(name string, provider textgen.Provider) {
	f.group.AddFallback(name, provider)
}

// Generate sends the request to the first healthy provider and returns its
// draft. If the primary fails, subsequent fallbacks are tried.
func (f *TextgenFallback) Generate(ctx context.Context, req textgen.Request) (*textgen.Result, error) {
	return ExecuteWithResult(f.group, func(p textgen.Provider) (*textgen.Result, error) {
		return p.Generate(ctx, req)
	})
}
