// Package embeddings defines the Provider interface for vector embedding
// backends.
//
// An embeddings provider maps text to dense float32 vectors. The story
// archive embeds one-line story summaries with it so the novelty guard can
// ask "which earlier stories in this child's series resemble the one being
// drafted" and steer prompts away from repeats.
//
// Implementations must be safe for concurrent use.
package embeddings

import "context"

// Provider is the abstraction over any text-embedding backend.
//
// All vectors produced by one Provider instance share the dimensionality
// reported by Dimensions. Vectors from different instances must not be
// compared unless both use the same model and space.
type Provider interface {
	// Embed computes the embedding vector for a single text. The result has
	// length Dimensions().
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds several texts in one provider call; the i-th result
	// corresponds to texts[i]. On error no partial results are returned.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed vector length for this provider's model.
	Dimensions() int

	// ModelID returns the provider-specific model identifier
	// (e.g., "text-embedding-3-small"), for logging and consistency checks.
	ModelID() string
}
