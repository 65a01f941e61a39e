package retrieval

import (
	"context"

	"github.com/siherrmann/paperrag/database"
	"github.com/siherrmann/paperrag/model"
)

// Engine provides vector retrieval and neighbor expansion capabilities
type Engine struct {
	chunks *database.ChunksDBHandler
}

// NewEngine creates a new retrieval engine
func NewEngine(chunks *database.ChunksDBHandler) *Engine {
	return &Engine{
		chunks: chunks,
	}
}

// VectorRetrieve performs pure vector similarity search.
// Results come back ranked 1..n in descending similarity order; exact
// similarity ties keep the storage ordering (lower sequence index first,
// then arXiv ID).
func (e *Engine) VectorRetrieve(ctx context.Context, embedding []float32, config *model.QueryConfig) ([]*model.RetrievalResult, error) {
	chunks, err := e.chunks.SelectChunksBySimilarity(embedding, config.TopK, config.SimilarityThreshold, config.Categories)
	if err != nil {
		return nil, err
	}

	results := make([]*model.RetrievalResult, len(chunks))
	for i, chunk := range chunks {
		results[i] = &model.RetrievalResult{
			Chunk:           chunk,
			Score:           chunk.Similarity,
			SimilarityScore: chunk.Similarity,
			Rank:            i + 1,
			RetrievalMethod: "vector",
		}
	}

	return results, nil
}

// GetNeighbors retrieves the chunks adjacent to a result within the same
// paper, up to window sequence positions in each direction.
func (e *Engine) GetNeighbors(ctx context.Context, arxivID string, chunkIndex int, window int) ([]*model.Chunk, error) {
	return e.chunks.SelectAdjacentChunks(arxivID, chunkIndex, window)
}
