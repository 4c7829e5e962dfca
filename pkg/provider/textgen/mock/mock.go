// Package mock provides a test double for the textgen.Provider interface.
//
// Use Provider in unit tests to verify that the regeneration loop sends
// correct requests and to feed scripted drafts without a live backend.
// All fields are safe to set before calling any method; mutating them during
// a concurrent call is the caller's responsibility.
//
// Example:
//
//	p := &mock.Provider{
//	    Results: []*textgen.Result{{Draft: textgen.Draft{Title: "Sam the Cat", Pages: []textgen.DraftPage{{Text: "sat sat sat"}}}}},
//	}
//	res, err := p.Generate(ctx, req)
package mock

import (
	"context"
	"sync"

	"github.com/readlark/readlark/pkg/provider/textgen"
)

// GenerateCall records a single invocation of Generate.
type GenerateCall struct {
	// Ctx is the context passed to Generate.
	Ctx context.Context
	// Req is the Request passed to Generate.
	Req textgen.Request
}

// Provider is a mock implementation of textgen.Provider.
//
// Each call to Generate consumes the next entry of Results (the last entry
// repeats once the script is exhausted). Set Err to inject a single error
// for every call, or Errs to script per-call errors parallel to Results.
type Provider struct {
	mu sync.Mutex

	// Results is the sequence of results returned by successive Generate
	// calls. A nil entry combined with a non-nil Errs entry scripts a
	// failed attempt.
	Results []*textgen.Result

	// Errs, when non-nil, is consumed in lockstep with Results; a non-nil
	// entry is returned instead of the result at the same index.
	Errs []error

	// Err, if non-nil, is returned from every Generate call regardless of
	// Results. Used for simple always-failing providers.
	Err error

	// GenerateCalls records every invocation of Generate in order.
	GenerateCalls []GenerateCall

	// CompleteResult is the text returned from every Complete call.
	CompleteResult string

	// CompleteErr, if non-nil, is returned as the error from Complete.
	CompleteErr error

	// CompleteCalls records every invocation of Complete in order.
	CompleteCalls []CompleteCall
}

// Generate records the call and returns the next scripted result or error.
func (p *Provider) Generate(ctx context.Context, req textgen.Request) (*textgen.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.GenerateCalls)
	p.GenerateCalls = append(p.GenerateCalls, GenerateCall{Ctx: ctx, Req: req})

	if p.Err != nil {
		return nil, p.Err
	}
	if n < len(p.Errs) && p.Errs[n] != nil {
		return nil, p.Errs[n]
	}
	if len(p.Results) == 0 {
		return nil, nil
	}
	if n >= len(p.Results) {
		n = len(p.Results) - 1
	}
	return p.Results[n], nil
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.GenerateCalls = nil
	p.CompleteCalls = nil
}

// CompleteCall records a single invocation of Complete.
type CompleteCall struct {
	// Ctx is the context passed to Complete.
	Ctx context.Context
	// SystemPrompt is the system prompt passed to Complete.
	SystemPrompt string
	// Prompt is the user prompt passed to Complete.
	Prompt string
}

// Complete records the call and returns CompleteResult, CompleteErr.
func (p *Provider) Complete(ctx context.Context, systemPrompt, prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CompleteCalls = append(p.CompleteCalls, CompleteCall{Ctx: ctx, SystemPrompt: systemPrompt, Prompt: prompt})
	return p.CompleteResult, p.CompleteErr
}

// Ensure Provider implements the textgen interfaces at compile time.
var (
	_ textgen.Provider  = (*Provider)(nil)
	_ textgen.Completer = (*Provider)(nil)
)
