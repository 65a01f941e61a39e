package pipeline

import (
	"context"
	"fmt"

	"github.com/knights-analytics/hugot"

	"github.com/siherrmann/paperrag/helper"
)

// LocalEmbedder creates an embedder using a local sentence transformer model.
// Uses the all-MiniLM-L6-v2 model which produces 384-dimensional embeddings.
func LocalEmbedder() (EmbedFunc, error) {
	// Prepare model (download if needed)
	modelName := "sentence-transformers/all-MiniLM-L6-v2"
	modelPath, err := helper.PrepareModel(modelName, "onnx/model.onnx")
	if err != nil {
		return nil, err
	}

	// Initialize hugot session with Go backend
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	// Create sentence transformers pipeline configuration
	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-pipeline",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	return func(ctx context.Context, texts []string) ([][]float32, error) {
		if len(texts) == 0 {
			return [][]float32{}, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := sentencePipeline.RunPipeline(texts)
		if err != nil {
			return nil, helper.NewError("embed",
				fmt.Errorf("%w: %v", helper.ErrProviderError, err))
		}

		if len(result.Embeddings) != len(texts) {
			return nil, helper.NewError("embed",
				fmt.Errorf("%w: got %d embeddings for %d texts", helper.ErrProviderError, len(result.Embeddings), len(texts)))
		}

		return result.Embeddings, nil
	}, nil
}

// FixedEmbedder returns an embedder that maps every text to a deterministic
// vector of the given dimension, derived from the text content. Intended for
// tests and examples that should not depend on a model or a provider.
func FixedEmbedder(dim int) EmbedFunc {
	return func(ctx context.Context, texts []string) ([][]float32, error) {
		if dim <= 0 {
			return nil, helper.NewError("embed",
				fmt.Errorf("%w: dimension must be positive, got %d", helper.ErrInvalidInput, dim))
		}

		embeddings := make([][]float32, len(texts))
		for i, text := range texts {
			vector := make([]float32, dim)
			for j, r := range text {
				vector[j%dim] += float32(r%31) / 31.0
			}
			embeddings[i] = vector
		}
		return embeddings, nil
	}
}
