package index

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strconv"

	"github.com/philippgille/chromem-go"

	"documind/internal/models"
)

// chromemIndex stores one document's chunk vectors in an in-memory
// chromem-go collection. chromem normalizes vectors on insert and query,
// so its similarity is the same cosine metric the memory backend uses.
type chromemIndex struct {
	dim    int
	chunks []models.Chunk
	coll   *chromem.Collection
}

func newChromemIndex(ctx context.Context, chunks []models.Chunk, vectors [][]float32, dim int) (*chromemIndex, error) {
	db := chromem.NewDB()
	// The embedding func is never invoked: documents and queries always
	// carry precomputed embeddings.
	coll, err := db.CreateCollection("document", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	docs := make([]chromem.Document, len(chunks))
	for i, ch := range chunks {
		docs[i] = chromem.Document{
			ID:        strconv.Itoa(ch.ID),
			Content:   ch.Text,
			Embedding: vectors[i],
			Metadata:  map[string]string{"offset": strconv.Itoa(ch.SourceOffset)},
		}
	}
	if err := coll.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("failed to add documents: %w", err)
	}
	return &chromemIndex{dim: dim, chunks: chunks, coll: coll}, nil
}

func (c *chromemIndex) Dimension() int { return c.dim }

func (c *chromemIndex) Len() int { return len(c.chunks) }

func (c *chromemIndex) Search(ctx context.Context, query []float32, k int) ([]Scored, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1, got %d", models.ErrInvalidConfig, k)
	}
	if len(query) != c.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d",
			models.ErrEmbeddingFailure, len(query), c.dim)
	}

	// chromem picks its own top-k before the tie-break rule below can
	// apply, which could drop the lower-ID chunk of a tie straddling the
	// cutoff. The collection holds a single document's chunks, so fetch
	// them all and cut to k after the local sort.
	results, err := c.coll.QueryEmbedding(ctx, query, len(c.chunks), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	scored := make([]Scored, 0, len(results))
	for _, res := range results {
		id, err := strconv.Atoi(res.ID)
		if err != nil || id < 0 || id >= len(c.chunks) {
			return nil, fmt.Errorf("unexpected document id %q in collection", res.ID)
		}
		scored = append(scored, Scored{Chunk: c.chunks[id], Score: float64(res.Similarity)})
	}
	// chromem orders by similarity only; re-sort so exact ties break
	// toward the lower chunk ID.
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.ID < scored[j].Chunk.ID
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}
