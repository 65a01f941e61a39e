package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/siherrmann/paperrag/core/pipeline"
	"github.com/siherrmann/paperrag/helper"
	"github.com/siherrmann/paperrag/model"
)

// Retriever turns a natural-language query into ranked retrieval results.
// It embeds the query with the same embedder used at ingestion time and
// delegates ranking to a strategy.
type Retriever struct {
	strategy Strategy
	embedder pipeline.EmbedFunc
}

// NewRetriever creates a new retriever
func NewRetriever(strategy Strategy, embedder pipeline.EmbedFunc) *Retriever {
	return &Retriever{
		strategy: strategy,
		embedder: embedder,
	}
}

// Retrieve embeds the query and runs the configured strategy.
// When config is nil the default query configuration is used.
func (r *Retriever) Retrieve(ctx context.Context, query string, config *model.QueryConfig) ([]*model.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, helper.NewError("retrieve",
			fmt.Errorf("%w: query is empty", helper.ErrInvalidInput))
	}
	if config == nil {
		defaultConfig := model.DefaultQueryConfig()
		config = &defaultConfig
	}
	if config.TopK < 1 {
		return nil, helper.NewError("retrieve",
			fmt.Errorf("%w: topK must be >= 1, got %d", helper.ErrInvalidInput, config.TopK))
	}

	embeddings, err := r.embedder(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(embeddings) != 1 {
		return nil, helper.NewError("retrieve",
			fmt.Errorf("%w: got %d embeddings for a single query", helper.ErrProviderError, len(embeddings)))
	}

	return r.strategy.Retrieve(ctx, embeddings[0], config)
}
