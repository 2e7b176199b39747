package embedder

import (
	"context"

	"github.com/coverbridge/salesagent/rag/document"
	"github.com/coverbridge/salesagent/vector"
)

// Embedder exposes methods tailored for the ingestion and retrieval paths.
// Ingestion embeds chunks in batch; retrieval embeds single queries.
type Embedder interface {
	EmbedChunks(ctx context.Context, chunks []document.Chunk) ([][]float32, error)
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
	Dimension() int
}

// VectorAdapter bridges the generic vector.Embedder interface into a rag Embedder.
type VectorAdapter struct {
	base vector.Embedder
}

// NewVectorAdapter creates a new adapter.
func NewVectorAdapter(base vector.Embedder) *VectorAdapter {
	return &VectorAdapter{base: base}
}

// EmbedChunks embeds the chunk contents in one batch call.
func (v *VectorAdapter) EmbedChunks(ctx context.Context, chunks []document.Chunk) ([][]float32, error) {
	if v == nil || v.base == nil || len(chunks) == 0 {
		return nil, nil
	}
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}
	return v.base.EmbedBatch(ctx, texts)
}

// EmbedQuery embeds the query string.
func (v *VectorAdapter) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if v == nil || v.base == nil {
		return nil, nil
	}
	return v.base.Embed(ctx, query)
}

// Dimension returns the base embedder's dimension.
func (v *VectorAdapter) Dimension() int {
	if v == nil || v.base == nil {
		return 0
	}
	return v.base.Dimension()
}
