package resilience

import (
	"context"
	"errors"
	"testing"

	embmock "github.com/readlark/readlark/pkg/provider/embeddings/mock"
)

func TestEmbeddingsFallback_Failover(t *testing.T) {
	primary := &embmock.Provider{EmbedErr: errors.New("primary down")}
	secondary := &embmock.Provider{EmbedResult: []float32{0.1, 0.2}}

	fb := NewEmbeddingsFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	vec, err := fb.Embed(context.Background(), "sam sat on a mat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 2 {
		t.Fatalf("vector length = %d, want 2", len(vec))
	}
	if len(secondary.EmbedCalls) != 1 {
		t.Fatalf("secondary called %d times, want 1", len(secondary.EmbedCalls))
	}
}

func TestEmbeddingsFallback_AllFail(t *testing.T) {
	primary := &embmock.Provider{EmbedBatchErr: errors.New("primary down")}
	secondary := &embmock.Provider{EmbedBatchErr: errors.New("secondary down")}

	fb := NewEmbeddingsFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	_, err := fb.EmbedBatch(context.Background(), []string{"a", "b"})
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}

func TestEmbeddingsFallback_StaticMetadataFromPrimary(t *testing.T) {
	primary := &embmock.Provider{DimensionsValue: 1536, ModelIDValue: "text-embedding-3-small"}

	fb := NewEmbeddingsFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})

	if got := fb.Dimensions(); got != 1536 {
		t.Fatalf("Dimensions = %d, want 1536", got)
	}
	if got := fb.ModelID(); got != "text-embedding-3-small" {
		t.Fatalf("ModelID = %q, want text-embedding-3-small", got)
	}
}
