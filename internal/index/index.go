// Package index builds and searches per-document vector indexes.
//
// An index is built once at upload time from the full chunk set and is
// read-only afterward; concurrent searches need no locking. Two backends
// exist: the default brute-force in-memory index and one backed by
// chromem-go. Both score with cosine similarity, the same metric applied
// at build and query time.
package index

import (
	"context"
	"fmt"
	"math"
	"sort"

	"documind/internal/embedding"
	"documind/internal/models"
)

// Backend names accepted by Build.
const (
	BackendMemory  = "memory"
	BackendChromem = "chromem"
)

// Scored pairs a chunk with its similarity to a query.
type Scored struct {
	Chunk models.Chunk
	Score float64
}

// Index is a read-only nearest-neighbor structure over one document.
type Index interface {
	// Search returns at most min(k, Len()) chunks ordered by descending
	// similarity; exact score ties break toward the lower chunk ID.
	Search(ctx context.Context, query []float32, k int) ([]Scored, error)
	Dimension() int
	Len() int
}

// Build embeds every chunk and assembles an index. The build is
// all-or-nothing: any embedder error or dimensionality inconsistency
// fails the whole build and no partial index is returned.
func Build(ctx context.Context, backend string, chunks []models.Chunk, emb embedding.Embedder) (Index, error) {
	if len(chunks) == 0 {
		return nil, models.ErrEmptyDocument
	}

	vectors := make([][]float32, len(chunks))
	dim := 0
	for i, ch := range chunks {
		vec, err := emb.Embed(ctx, ch.Text)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d: %v", models.ErrEmbeddingFailure, ch.ID, err)
		}
		if len(vec) == 0 {
			return nil, fmt.Errorf("%w: chunk %d: empty vector", models.ErrEmbeddingFailure, ch.ID)
		}
		if i == 0 {
			dim = len(vec)
		} else if len(vec) != dim {
			return nil, fmt.Errorf("%w: chunk %d has dimension %d, index has %d",
				models.ErrEmbeddingFailure, ch.ID, len(vec), dim)
		}
		vectors[i] = vec
	}

	switch backend {
	case "", BackendMemory:
		return newMemoryIndex(chunks, vectors, dim), nil
	case BackendChromem:
		return newChromemIndex(ctx, chunks, vectors, dim)
	default:
		return nil, fmt.Errorf("%w: unknown index backend %q", models.ErrInvalidConfig, backend)
	}
}

// memoryIndex is a brute-force cosine index over the chunk vectors.
type memoryIndex struct {
	dim     int
	chunks  []models.Chunk
	vectors [][]float32
	norms   []float64
}

func newMemoryIndex(chunks []models.Chunk, vectors [][]float32, dim int) *memoryIndex {
	norms := make([]float64, len(vectors))
	for i, v := range vectors {
		norms[i] = norm(v)
	}
	return &memoryIndex{dim: dim, chunks: chunks, vectors: vectors, norms: norms}
}

func (m *memoryIndex) Dimension() int { return m.dim }

func (m *memoryIndex) Len() int { return len(m.chunks) }

func (m *memoryIndex) Search(_ context.Context, query []float32, k int) ([]Scored, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1, got %d", models.ErrInvalidConfig, k)
	}
	if len(query) != m.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d",
			models.ErrEmbeddingFailure, len(query), m.dim)
	}

	qnorm := norm(query)
	scored := make([]Scored, len(m.chunks))
	for i := range m.chunks {
		scored[i] = Scored{Chunk: m.chunks[i], Score: cosine(query, qnorm, m.vectors[i], m.norms[i])}
	}
	// Chunks are held in ID order, so a stable sort keeps the lower ID
	// first on equal scores.
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

func cosine(q []float32, qnorm float64, v []float32, vnorm float64) float64 {
	if qnorm == 0 || vnorm == 0 {
		return 0
	}
	var dot float64
	for i := range q {
		dot += float64(q[i]) * float64(v[i])
	}
	return dot / (qnorm * vnorm)
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
