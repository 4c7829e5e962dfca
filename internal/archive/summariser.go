package archive

import (
	"context"
	"fmt"
	"strings"

	"github.com/readlark/readlark/internal/storygen"
	"github.com/readlark/readlark/pkg/provider/textgen"
)

// summarisationPrompt is the system prompt sent to the model when condensing
// an accepted story into one line for the series archive.
const summarisationPrompt = `Summarise the following children's story in one sentence.
Name the main characters and what happens. The summary is shown to a story writer
who must avoid repeating the same plot, so capture what makes this story distinct.`

// Summariser produces a one-line summary of an accepted story.
type Summariser interface {
	// Summarise condenses the story into a single sentence.
	Summarise(ctx context.Context, story *storygen.Story) (string, error)
}

// LLMSummariser summarises stories through a text-generation backend.
type LLMSummariser struct {
	completer textgen.Completer
}

// Compile-time interface check.
var _ Summariser = (*LLMSummariser)(nil)

// NewLLMSummariser creates a new [LLMSummariser] backed by the given
// completer.
func NewLLMSummariser(completer textgen.Completer) *LLMSummariser {
	return &LLMSummariser{completer: completer}
}

// Summarise sends the story text to the model with a summarisation prompt
// and returns the single-line summary.
func (s *LLMSummariser) Summarise(ctx context.Context, story *storygen.Story) (string, error) {
	if story == nil || len(story.Pages) == 0 {
		return "", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\n\n%s\n", story.Title, story.Text())

	out, err := s.completer.Complete(ctx, summarisationPrompt, sb.String())
	if err != nil {
		return "", fmt.Errorf("archive: summarise: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// TitleSummariser is a deterministic fallback [Summariser] for deployments
// without a completion backend: the summary is the title plus the story
// structure line from the draft.
type TitleSummariser struct{}

// Compile-time interface check.
var _ Summariser = (TitleSummariser{})

// Summarise returns "<title>: <structure>", or just the title when the
// draft carried no structure line.
func (TitleSummariser) Summarise(_ context.Context, story *storygen.Story) (string, error) {
	if story == nil {
		return "", nil
	}
	if story.Structure == "" {
		return story.Title, nil
	}
	return fmt.Sprintf("%s: %s", story.Title, story.Structure), nil
}
