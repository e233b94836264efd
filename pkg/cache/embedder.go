package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Embedder defaults target a local Ollama exposing the OpenAI-compatible API.
const (
	DefaultEmbeddingURL   = "http://localhost:11434/v1"
	DefaultEmbeddingModel = "nomic-embed-text"
)

// EmbedderOptions configures an Embedder.
type EmbedderOptions struct {
	URL        string
	Model      string
	APIKey     string // optional; sent as a bearer token when set
	HTTPClient *http.Client
}

// Embedder generates vector embeddings for questions through an
// OpenAI-compatible /embeddings endpoint.
type Embedder struct {
	client  *http.Client
	baseURL string
	model   string
	apiKey  string
}

// NewEmbedder creates a new Embedder.
func NewEmbedder(opts EmbedderOptions) *Embedder {
	if opts.URL == "" {
		opts.URL = DefaultEmbeddingURL
	}
	if opts.Model == "" {
		opts.Model = DefaultEmbeddingModel
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	return &Embedder{
		client:  opts.HTTPClient,
		baseURL: strings.TrimRight(opts.URL, "/"),
		model:   opts.Model,
		apiKey:  opts.APIKey,
	}
}

type embeddingRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed generates a vector embedding for the given text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	jsonBody, err := json.Marshal(embeddingRequest{Input: text, Model: e.model})
	if err != nil {
		return nil, fmt.Errorf("embedder: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("embedder: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedder: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedder: API error %d: %s", resp.StatusCode, string(respBody))
	}

	var embResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, fmt.Errorf("embedder: decode: %w", err)
	}
	if len(embResp.Data) == 0 || len(embResp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedder: empty embedding response")
	}

	return embResp.Data[0].Embedding, nil
}
