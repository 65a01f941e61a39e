package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/siherrmann/paperrag/model"
)

// Strategy defines a retrieval strategy
type Strategy interface {
	Retrieve(ctx context.Context, embedding []float32, config *model.QueryConfig) ([]*model.RetrievalResult, error)
}

// VectorOnlyStrategy performs pure vector similarity search
type VectorOnlyStrategy struct {
	engine *Engine
}

// NewVectorOnlyStrategy creates a new vector-only strategy
func NewVectorOnlyStrategy(engine *Engine) *VectorOnlyStrategy {
	return &VectorOnlyStrategy{engine: engine}
}

// Retrieve performs vector-only retrieval
func (s *VectorOnlyStrategy) Retrieve(ctx context.Context, embedding []float32, config *model.QueryConfig) ([]*model.RetrievalResult, error) {
	return s.engine.VectorRetrieve(ctx, embedding, config)
}

// ContextualStrategy augments vector search results with the chunks adjacent
// to each hit in the source paper, so answers keep the surrounding prose.
type ContextualStrategy struct {
	engine *Engine
	log    *slog.Logger
}

// NewContextualStrategy creates a new contextual strategy.
// A nil logger falls back to the default slog logger.
func NewContextualStrategy(engine *Engine, logger *slog.Logger) *ContextualStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContextualStrategy{engine: engine, log: logger}
}

// Retrieve performs contextual retrieval
func (s *ContextualStrategy) Retrieve(ctx context.Context, embedding []float32, config *model.QueryConfig) ([]*model.RetrievalResult, error) {
	// First, get top-k similar chunks
	vectorResults, err := s.engine.VectorRetrieve(ctx, embedding, config)
	if err != nil {
		return nil, err
	}

	resultMap := make(map[string]*model.RetrievalResult)

	// Add vector results
	for _, result := range vectorResults {
		resultMap[chunkKey(result.Chunk)] = result
	}

	// For each vector result, pull in the neighboring chunks
	for _, result := range vectorResults {
		neighbors, err := s.engine.GetNeighbors(ctx, result.Chunk.ArxivID, result.Chunk.ChunkIndex, config.NeighborWindow)
		if err != nil {
			// A failed neighbor lookup degrades the context but must not fail
			// the whole retrieval
			s.log.Warn("Skipping neighbors for chunk",
				"arxivId", result.Chunk.ArxivID,
				"chunkIndex", result.Chunk.ChunkIndex,
				"error", err)
			continue
		}

		for _, neighbor := range neighbors {
			if _, exists := resultMap[chunkKey(neighbor)]; !exists {
				resultMap[chunkKey(neighbor)] = &model.RetrievalResult{
					Chunk:           neighbor,
					Score:           result.Score * config.NeighborWeight,
					SimilarityScore: 0,
					RetrievalMethod: "neighbor",
				}
			}
		}
	}

	// Convert map to slice
	results := make([]*model.RetrievalResult, 0, len(resultMap))
	for _, result := range resultMap {
		results = append(results, result)
	}

	// Sort by score; equal scores break on lower sequence index then arXiv
	// ID, matching the similarity search ordering
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Chunk.ChunkIndex != results[j].Chunk.ChunkIndex {
			return results[i].Chunk.ChunkIndex < results[j].Chunk.ChunkIndex
		}
		return results[i].Chunk.ArxivID < results[j].Chunk.ArxivID
	})

	for i, result := range results {
		result.Rank = i + 1
	}

	return results, nil
}

func chunkKey(chunk *model.Chunk) string {
	return fmt.Sprintf("%s#%d", chunk.ArxivID, chunk.ChunkIndex)
}
