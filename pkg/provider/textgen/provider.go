// Package textgen defines the Provider interface for text-generation
// backends that draft story prose.
//
// A textgen provider wraps a remote or local model API (e.g., OpenAI GPT-4o,
// Anthropic Claude, or a local Ollama instance) and exposes a uniform
// interface for the regeneration loop to request structured story drafts
// without coupling to any specific SDK.
//
// Providers return a [Draft] decoded from the model's JSON output plus token
// usage for cost accounting. A response that cannot be decoded is reported
// as [ErrMalformedDraft]; the regeneration loop treats that as a failed
// attempt, not an infrastructure error.
//
// Implementors must be safe for concurrent use.
package textgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedDraft indicates the model returned prose that could not be
// decoded into a [Draft]. Check with errors.Is; the wrapped error carries
// the decode detail.
var ErrMalformedDraft = errors.New("textgen: malformed draft")

// DraftSchema is the JSON shape appended to every system prompt so models
// answer with machine-readable drafts.
const DraftSchema = `{
  "title": "<story title>",
  "pages": [
    {"text": "<one page of story text>"}
  ],
  "characters": ["<character name>"],
  "structure": "<one sentence describing the story arc>"
}`

// Usage holds token accounting information returned by the backend. Counts
// are in the model's native token unit and may differ between providers for
// the same textual content.
type Usage struct {
	// PromptTokens is the number of tokens consumed by the system
	// instructions and user prompt. This value drives cost accounting.
	PromptTokens int

	// CompletionTokens is the number of tokens generated in the draft.
	CompletionTokens int

	// TotalTokens is PromptTokens + CompletionTokens. Some providers return
	// it directly rather than computing it from the parts.
	TotalTokens int
}

// Add accumulates another usage record into this one. The regeneration loop
// sums usage across attempts because every attempt that reached the backend
// incurred real spend.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// Request carries everything the backend needs to produce a draft.
type Request struct {
	// SystemPrompt is the high-priority instruction block (phonics
	// constraints, allowed words, output schema).
	SystemPrompt string

	// Prompt is the user-level story request for this attempt.
	Prompt string

	// Temperature controls output randomness in [0.0, 2.0]. Zero means use
	// the provider default.
	Temperature float64

	// MaxTokens caps the number of completion tokens. Zero means use the
	// provider default.
	MaxTokens int
}

// DraftPage is one page of a drafted story.
type DraftPage struct {
	Text string `json:"text"`
}

// Draft is the structured story a backend returns, decoded from its JSON
// output. A Draft has not yet been validated for decodability; that is the
// regeneration loop's job.
type Draft struct {
	Title      string      `json:"title"`
	Pages      []DraftPage `json:"pages"`
	Characters []string    `json:"characters"`
	Structure  string      `json:"structure"`
}

// Text joins the draft's page texts with blank lines, the form the
// decodability validator consumes.
func (d *Draft) Text() string {
	parts := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n\n")
}

// Result is a successfully generated draft plus its token usage.
type Result struct {
	Draft Draft
	Usage Usage
}

// Provider is the abstraction over any text-generation backend.
//
// Implementations must be safe for concurrent use and must propagate
// context cancellation promptly.
type Provider interface {
	// Generate sends req to the model and returns the decoded draft.
	// Returns an error wrapping [ErrMalformedDraft] when the model's output
	// is not a decodable draft, or a transport/provider error otherwise.
	Generate(ctx context.Context, req Request) (*Result, error)
}

// Completer is the plain-text sibling of [Provider] for callers that want a
// free-form completion rather than a structured draft (e.g., the story
// archive's summariser). Both shipped providers implement it alongside
// Generate.
type Completer interface {
	// Complete sends the prompts to the model and returns the raw completion
	// text.
	Complete(ctx context.Context, systemPrompt, prompt string) (string, error)
}

// DecodeDraft parses a model's raw completion text into a Draft. Markdown
// code fences (```json ... ```) that some models wrap around JSON output are
// stripped first. Failures are reported as [ErrMalformedDraft].
func DecodeDraft(content string) (*Draft, error) {
	cleaned := stripMarkdown(content)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty completion", ErrMalformedDraft)
	}

	var d Draft
	if err := json.Unmarshal([]byte(cleaned), &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDraft, err)
	}
	if len(d.Pages) == 0 {
		return nil, fmt.Errorf("%w: draft has no pages", ErrMalformedDraft)
	}
	return &d, nil
}

// stripMarkdown removes optional markdown code fences that some models
// prepend and append to JSON output.
func stripMarkdown(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"```json", "```"} {
		if after, ok := strings.CutPrefix(s, prefix); ok {
			s = after
			break
		}
	}
	if before, ok := strings.CutSuffix(s, "```"); ok {
		s = before
	}
	return strings.TrimSpace(s)
}
