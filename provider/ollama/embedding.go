package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/siherrmann/paperrag/core/pipeline"
	"github.com/siherrmann/paperrag/helper"
)

// EmbeddingService generates embeddings using the Ollama /api/embed endpoint
type EmbeddingService struct {
	client     *http.Client
	baseURL    string
	model      string
	dimensions int
}

// embedRequest is the Ollama batch embedding request format.
type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embedResponse is the Ollama batch embedding response format.
type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewEmbeddingService creates a new Ollama embedding service.
func NewEmbeddingService(cfg *Config) *EmbeddingService {
	if cfg == nil {
		cfg = &Config{}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.EmbedModel
	if model == "" {
		model = DefaultEmbedModel
	}
	dimensions := cfg.EmbedDim
	if dimensions == 0 {
		dimensions = DefaultEmbedDim
	}
	timeout := cfg.EmbedTimeout
	if timeout == 0 {
		timeout = DefaultEmbedTimeout
	}

	return &EmbeddingService{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL:    baseURL,
		model:      model,
		dimensions: dimensions,
	}
}

// Embed generates embeddings for a batch of texts in a single request.
// Output is order-preserving; a count mismatch from the provider is an error,
// never silently padded.
func (s *EmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	reqBody := embedRequest{
		Model: s.model,
		Input: texts,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, helper.NewError("marshal request", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/api/embed",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, helper.NewError("create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, helper.NewError("send request",
			fmt.Errorf("%w: %v", helper.ErrProviderUnavailable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, helper.NewError("embed",
				fmt.Errorf("%w: status %d, failed to read response", helper.ErrProviderError, resp.StatusCode))
		}
		return nil, helper.NewError("embed",
			fmt.Errorf("%w: status %d: %s", helper.ErrProviderError, resp.StatusCode, string(body)))
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, helper.NewError("decode response",
			fmt.Errorf("%w: %v", helper.ErrProviderError, err))
	}

	if len(embedResp.Embeddings) != len(texts) {
		return nil, helper.NewError("embed",
			fmt.Errorf("%w: got %d embeddings for %d texts", helper.ErrProviderError, len(embedResp.Embeddings), len(texts)))
	}

	for i, embedding := range embedResp.Embeddings {
		if len(embedding) != s.dimensions {
			return nil, helper.NewError("embed",
				fmt.Errorf("%w: embedding %d has dimension %d, expected %d", helper.ErrProviderError, i, len(embedding), s.dimensions))
		}
	}

	return embedResp.Embeddings, nil
}

// EmbedFunc adapts the service to the pipeline embedding function type
func (s *EmbeddingService) EmbedFunc() pipeline.EmbedFunc {
	return s.Embed
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by checking the /api/tags endpoint.
// This is a lightweight check that validates connectivity without running inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return ping(ctx, s.client, s.baseURL)
}
