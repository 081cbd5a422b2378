package rag

import (
	"context"
	"fmt"

	"documind/internal/embedding"
	"documind/internal/models"
	"documind/internal/session"
)

// DefaultTopK is the process-wide retrieval depth when none is configured.
const DefaultTopK = 4

// Retriever embeds a query with the same embedder configuration used at
// index build time and returns the most similar chunks in ranked order.
type Retriever struct {
	embedder embedding.Embedder
	topK     int
}

// NewRetriever creates a retriever returning at most topK chunks per
// query. topK <= 0 selects DefaultTopK.
func NewRetriever(embedder embedding.Embedder, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{embedder: embedder, topK: topK}
}

// Retrieve returns the chunks most similar to query, best first. Scores
// are an index-internal concern and are dropped here. When the index
// holds fewer than topK chunks, all of them come back.
func (r *Retriever) Retrieve(ctx context.Context, sess *session.Session, query string) ([]models.Chunk, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", models.ErrEmbeddingFailure, err)
	}
	if len(vec) != sess.Index.Dimension() {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d",
			models.ErrEmbeddingFailure, len(vec), sess.Index.Dimension())
	}

	results, err := sess.Index.Search(ctx, vec, r.topK)
	if err != nil {
		return nil, err
	}
	chunks := make([]models.Chunk, len(results))
	for i, res := range results {
		chunks[i] = res.Chunk
	}
	return chunks, nil
}
