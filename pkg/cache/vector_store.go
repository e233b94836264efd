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

// VectorStore is a thin client for the Qdrant points API.
type VectorStore struct {
	client     *http.Client
	baseURL    string
	collection string
}

// ScoredPoint is one search hit.
type ScoredPoint struct {
	ID      string
	Score   float32
	Payload map[string]any
}

// NewVectorStore creates a new Qdrant-backed vector store.
func NewVectorStore(qdrantURL, collection string, httpClient *http.Client) *VectorStore {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &VectorStore{
		client:     httpClient,
		baseURL:    strings.TrimRight(qdrantURL, "/"),
		collection: collection,
	}
}

// ---------------------------------------------------------------------------
// Qdrant API types
// ---------------------------------------------------------------------------

type qdrantSearchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	ScoreThresh float32   `json:"score_threshold"`
	WithPayload bool      `json:"with_payload"`
}

type qdrantSearchResponse struct {
	Result []struct {
		ID      any            `json:"id"`
		Score   float32        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

type qdrantUpsertRequest struct {
	Points []qdrantPoint `json:"points"`
}

type qdrantPoint struct {
	ID      string            `json:"id"`
	Vector  []float32         `json:"vector"`
	Payload map[string]string `json:"payload"`
}

type qdrantCreateCollectionRequest struct {
	Vectors struct {
		Size     int    `json:"size"`
		Distance string `json:"distance"`
	} `json:"vectors"`
}

// ---------------------------------------------------------------------------
// Public API
// ---------------------------------------------------------------------------

// Search returns up to limit points scoring at least threshold, best first.
// A missing collection yields no points.
func (v *VectorStore) Search(ctx context.Context, vector []float32, threshold float32, limit int) ([]ScoredPoint, error) {
	body := qdrantSearchRequest{
		Vector:      vector,
		Limit:       limit,
		ScoreThresh: threshold,
		WithPayload: true,
	}

	resp, err := v.do(ctx, http.MethodPost, "/points/search", body)
	if err != nil {
		return nil, fmt.Errorf("vector_store: search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("vector_store: search error %d: %s", resp.StatusCode, string(respBody))
	}

	var searchResp qdrantSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("vector_store: decode search: %w", err)
	}

	points := make([]ScoredPoint, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		points = append(points, ScoredPoint{
			ID:      fmt.Sprint(r.ID),
			Score:   r.Score,
			Payload: r.Payload,
		})
	}
	return points, nil
}

// Upsert stores a vector and its payload under id.
func (v *VectorStore) Upsert(ctx context.Context, id string, vector []float32, payload map[string]string) error {
	body := qdrantUpsertRequest{
		Points: []qdrantPoint{{ID: id, Vector: vector, Payload: payload}},
	}

	resp, err := v.do(ctx, http.MethodPut, "/points?wait=true", body)
	if err != nil {
		return fmt.Errorf("vector_store: upsert request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("vector_store: upsert error %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// EnsureCollection creates the collection with cosine distance if it does not
// exist yet.
func (v *VectorStore) EnsureCollection(ctx context.Context, dims int) error {
	resp, err := v.do(ctx, http.MethodGet, "", nil)
	if err != nil {
		return fmt.Errorf("vector_store: get collection: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	if resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("vector_store: get collection error %d", resp.StatusCode)
	}

	var body qdrantCreateCollectionRequest
	body.Vectors.Size = dims
	body.Vectors.Distance = "Cosine"

	resp, err = v.do(ctx, http.MethodPut, "", body)
	if err != nil {
		return fmt.Errorf("vector_store: create collection: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("vector_store: create collection error %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// DeleteCollection drops the collection and every point in it.
func (v *VectorStore) DeleteCollection(ctx context.Context) error {
	resp, err := v.do(ctx, http.MethodDelete, "", nil)
	if err != nil {
		return fmt.Errorf("vector_store: delete collection: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("vector_store: delete collection error %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func (v *VectorStore) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var payload io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal: %w", err)
		}
		payload = bytes.NewReader(jsonBody)
	}

	url := fmt.Sprintf("%s/collections/%s%s", v.baseURL, v.collection, path)
	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return v.client.Do(req)
}
