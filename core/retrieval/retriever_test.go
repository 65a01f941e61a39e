package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/siherrmann/paperrag/helper"
	"github.com/siherrmann/paperrag/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStrategy records the embedding and config it was called with
type fakeStrategy struct {
	embedding []float32
	config    *model.QueryConfig
	results   []*model.RetrievalResult
	err       error
}

func (s *fakeStrategy) Retrieve(ctx context.Context, embedding []float32, config *model.QueryConfig) ([]*model.RetrievalResult, error) {
	s.embedding = embedding
	s.config = config
	return s.results, s.err
}

func TestRetrieverRetrieve(t *testing.T) {
	queryEmbedding := []float32{0.5, 0.5}
	embedder := func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{queryEmbedding}, nil
	}

	t.Run("Query is embedded and passed to the strategy", func(t *testing.T) {
		strategy := &fakeStrategy{results: []*model.RetrievalResult{}}
		retriever := NewRetriever(strategy, embedder)

		config := model.DefaultQueryConfig()
		_, err := retriever.Retrieve(context.Background(), "what is attention?", &config)

		require.NoError(t, err)
		assert.Equal(t, queryEmbedding, strategy.embedding)
		assert.Equal(t, &config, strategy.config)
	})

	t.Run("Nil config falls back to defaults", func(t *testing.T) {
		strategy := &fakeStrategy{}
		retriever := NewRetriever(strategy, embedder)

		_, err := retriever.Retrieve(context.Background(), "some query", nil)

		require.NoError(t, err)
		require.NotNil(t, strategy.config)
		assert.Equal(t, model.DefaultQueryConfig().TopK, strategy.config.TopK)
	})

	t.Run("Empty query", func(t *testing.T) {
		retriever := NewRetriever(&fakeStrategy{}, embedder)

		_, err := retriever.Retrieve(context.Background(), "   ", nil)

		assert.Error(t, err)
		assert.ErrorIs(t, err, helper.ErrInvalidInput)
	})

	t.Run("Invalid topK", func(t *testing.T) {
		retriever := NewRetriever(&fakeStrategy{}, embedder)

		config := model.DefaultQueryConfig()
		config.TopK = -1
		_, err := retriever.Retrieve(context.Background(), "some query", &config)

		assert.Error(t, err)
		assert.ErrorIs(t, err, helper.ErrInvalidInput)
	})

	t.Run("Embedder error propagates", func(t *testing.T) {
		failing := func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, errors.New("provider down")
		}
		retriever := NewRetriever(&fakeStrategy{}, failing)

		_, err := retriever.Retrieve(context.Background(), "some query", nil)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "provider down")
	})

	t.Run("Embedding count mismatch is a provider error", func(t *testing.T) {
		empty := func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{}, nil
		}
		retriever := NewRetriever(&fakeStrategy{}, empty)

		_, err := retriever.Retrieve(context.Background(), "some query", nil)

		assert.Error(t, err)
		assert.ErrorIs(t, err, helper.ErrProviderError)
	})
}
