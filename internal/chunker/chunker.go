// Package chunker splits raw document text into overlapping fixed-size
// segments for embedding and retrieval.
//
// The unit of measurement is runes. Windows of chunkSize runes advance by
// chunkSize-overlap each step, so adjacent chunks share overlap runes of
// context; the final chunk may be shorter. Chunks are taken verbatim,
// without trimming or snapping to word boundaries, so dropping the first
// overlap runes of every chunk after the first reconstructs the input
// exactly.
package chunker

import (
	"fmt"

	"documind/internal/models"
)

// Split cuts text into overlapping chunks of at most chunkSize runes.
// Requires chunkSize > overlap >= 0. Empty text yields no chunks; the
// upload flow treats that as an empty document.
func Split(text string, chunkSize, overlap int) ([]models.Chunk, error) {
	if chunkSize <= 0 || overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: chunk size %d must exceed overlap %d (overlap >= 0)",
			models.ErrInvalidConfig, chunkSize, overlap)
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	step := chunkSize - overlap
	var chunks []models.Chunk
	for start, id := 0, 0; start < len(runes); start, id = start+step, id+1 {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, models.Chunk{
			ID:           id,
			Text:         string(runes[start:end]),
			SourceOffset: start,
		})
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}
