package storygen

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/readlark/readlark/internal/observe"
	"github.com/readlark/readlark/pkg/phonics"
)

// defaultBatchConcurrency bounds parallel loops so a batch cannot flood the
// collaborator with simultaneous requests.
const defaultBatchConcurrency = 4

// BatchItem is one learner's generation request within a batch.
type BatchItem struct {
	// Fingerprint is the learner context for this story.
	Fingerprint *phonics.Fingerprint

	// PriorSummaries are earlier-story summaries for series freshness.
	PriorSummaries []string
}

// BatchResult pairs one batch item's outcome with its input position.
// Exactly one of Story and Err is set.
type BatchResult struct {
	Index int
	Story *Story
	Err   error
}

// GenerateBatch runs independent regeneration loops in parallel, at most
// concurrency at a time (values below 1 fall back to the default of 4).
//
// Each loop is sequential internally, but loops share nothing, so the only
// coordination is the concurrency limit. Per-story failures (exhausted or
// collaborator errors) are reported in the matching BatchResult rather than
// aborting the batch; only parent-context cancellation stops the whole run.
// Results are ordered by input index.
func (g *Generator) GenerateBatch(ctx context.Context, items []BatchItem, concurrency int) ([]BatchResult, error) {
	if concurrency < 1 {
		concurrency = defaultBatchConcurrency
	}

	results := make([]BatchResult, len(items))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)
	for i, item := range items {
		eg.Go(func() error {
			story, err := g.Generate(ctx, item.Fingerprint, item.PriorSummaries)
			results[i] = BatchResult{Index: i, Story: story, Err: err}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return results, err
	}

	observe.Logger(ctx).Info("batch generation finished", "stories", len(items))
	return results, nil
}
