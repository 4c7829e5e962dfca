package resilience

import (
	"context"

	"github.com/readlark/readlark/pkg/provider/embeddings"
)

// EmbeddingsFallback implements [embeddings.Provider] with automatic failover.
// The novelty guard degrades gracefully without embeddings, so callers should
// treat [ErrAllFailed] from this type as advisory rather than fatal.
//
// Mixing vector spaces would corrupt similarity queries, so only register
// fallbacks that use the same model and dimensionality as the primary.
type EmbeddingsFallback struct {
	group *FallbackGroup[embeddings.Provider]
}

// Compile-time interface assertion.
var _ embeddings.Provider = (*EmbeddingsFallback)(nil)

// NewEmbeddingsFallback creates an [EmbeddingsFallback] with primary as the
// preferred backend.
func NewEmbeddingsFallback(primary embeddings.Provider, primaryName string, cfg FallbackConfig) *EmbeddingsFallback {
	return &EmbeddingsFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional embeddings provider as a fallback.
func (f *EmbeddingsFallback) AddFallback(name string, provider embeddings.Provider) {
	f.group.AddFallback(name, provider)
}

// Embed computes the embedding via the first healthy provider.
func (f *EmbeddingsFallback) Embed(ctx context.Context, text string) ([]float32, error) {
	return ExecuteWithResult(f.group, func(p embeddings.Provider) ([]float32, error) {
		return p.Embed(ctx, text)
	})
}

// EmbedBatch embeds several texts via the first healthy provider.
func (f *EmbeddingsFallback) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return ExecuteWithResult(f.group, func(p embeddings.Provider) ([][]float32, error) {
		return p.EmbedBatch(ctx, texts)
	})
}

// Dimensions returns the primary's vector length. This is static metadata and
// does not participate in failover; all registered providers must agree on it.
func (f *EmbeddingsFallback) Dimensions() int {
	if len(f.group.members) > 0 {
		return f.group.members[0].value.Dimensions()
	}
	return 0
}

// ModelID returns the primary's model identifier.
func (f *EmbeddingsFallback) ModelID() string {
	if len(f.group.members) > 0 {
		return f.group.members[0].value.ModelID()
	}
	return ""
}
