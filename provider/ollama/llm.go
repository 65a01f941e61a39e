package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/siherrmann/paperrag/core/generation"
	"github.com/siherrmann/paperrag/helper"
)

// LLMService provides text generation using the Ollama /api/generate endpoint
type LLMService struct {
	client  *http.Client
	baseURL string
	model   string
}

// generateRequest is the Ollama /api/generate request format.
type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Stream  bool     `json:"stream"`
	Options *options `json:"options,omitempty"`
}

// options holds generation parameters.
type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// generateResponse is the Ollama /api/generate response format.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewLLMService creates a new Ollama LLM service.
func NewLLMService(cfg *Config) *LLMService {
	if cfg == nil {
		cfg = &Config{}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.LLMModel
	if model == "" {
		model = DefaultLLMModel
	}
	timeout := cfg.LLMTimeout
	if timeout == 0 {
		timeout = DefaultLLMTimeout
	}

	return &LLMService{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		model:   model,
	}
}

// Generate produces a text completion for a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Model:  s.model,
		Prompt: prompt,
		Stream: false,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", helper.NewError("marshal request", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/api/generate",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", helper.NewError("create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", helper.NewError("send request",
			fmt.Errorf("%w: %v", helper.ErrProviderUnavailable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return "", helper.NewError("generate",
				fmt.Errorf("%w: status %d, failed to read response", helper.ErrProviderError, resp.StatusCode))
		}
		return "", helper.NewError("generate",
			fmt.Errorf("%w: status %d: %s", helper.ErrProviderError, resp.StatusCode, string(body)))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", helper.NewError("decode response",
			fmt.Errorf("%w: %v", helper.ErrProviderError, err))
	}

	return genResp.Response, nil
}

// GenerateFunc adapts the service to the generation function type
func (s *LLMService) GenerateFunc() generation.GenerateFunc {
	return s.Generate
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by checking the /api/tags endpoint.
func (s *LLMService) Ping(ctx context.Context) error {
	return ping(ctx, s.client, s.baseURL)
}

// ping checks the /api/tags endpoint for connectivity without running inference
func ping(ctx context.Context, client *http.Client, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return helper.NewError("create ping request", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return helper.NewError("ping",
			fmt.Errorf("%w: %v", helper.ErrProviderUnavailable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return helper.NewError("ping",
				fmt.Errorf("%w: status %d, failed to read response", helper.ErrProviderError, resp.StatusCode))
		}
		return helper.NewError("ping",
			fmt.Errorf("%w: status %d: %s", helper.ErrProviderError, resp.StatusCode, string(body)))
	}
	return nil
}
