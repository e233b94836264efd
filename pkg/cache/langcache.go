package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// LangCacheOptions configures a LangCacheStore.
type LangCacheOptions struct {
	URL        string
	APIKey     string
	CacheID    string
	HTTPClient *http.Client
}

// LangCacheStore is a SemanticStore backed by the Redis LangCache REST API.
type LangCacheStore struct {
	client  *http.Client
	baseURL string
	cacheID string
	apiKey  string
}

// NewLangCacheStore creates a LangCache client. URL, APIKey and CacheID are
// required.
func NewLangCacheStore(opts LangCacheOptions) (*LangCacheStore, error) {
	switch {
	case opts.URL == "":
		return nil, fmt.Errorf("langcache: URL is required")
	case opts.APIKey == "":
		return nil, fmt.Errorf("langcache: API key is required")
	case opts.CacheID == "":
		return nil, fmt.Errorf("langcache: cache ID is required")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	return &LangCacheStore{
		client:  opts.HTTPClient,
		baseURL: strings.TrimRight(opts.URL, "/"),
		cacheID: opts.CacheID,
		apiKey:  opts.APIKey,
	}, nil
}

// ---------------------------------------------------------------------------
// LangCache API types
// ---------------------------------------------------------------------------

type langCacheSearchRequest struct {
	Prompt              string  `json:"prompt"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
}

type langCacheEntry struct {
	ID         string  `json:"id"`
	Prompt     string  `json:"prompt"`
	Response   string  `json:"response"`
	Similarity float64 `json:"similarity"`
}

type langCacheSearchResponse struct {
	Data []langCacheEntry `json:"data"`
}

type langCacheSetRequest struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
}

// ---------------------------------------------------------------------------
// Public API
// ---------------------------------------------------------------------------

// Search returns entries whose prompt is at least threshold-similar to prompt,
// in the order LangCache ranks them.
func (l *LangCacheStore) Search(ctx context.Context, prompt string, threshold float64) ([]Match, error) {
	resp, err := l.post(ctx, "/entries/search", langCacheSearchRequest{
		Prompt:              prompt,
		SimilarityThreshold: threshold,
	})
	if err != nil {
		return nil, fmt.Errorf("langcache: search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("langcache: search error %d: %s", resp.StatusCode, string(respBody))
	}

	var searchResp langCacheSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("langcache: decode search: %w", err)
	}

	matches := make([]Match, 0, len(searchResp.Data))
	for _, e := range searchResp.Data {
		matches = append(matches, Match{
			ID:         e.ID,
			Prompt:     e.Prompt,
			Response:   e.Response,
			Similarity: e.Similarity,
		})
	}
	return matches, nil
}

// Set stores a prompt/response pair. LangCache embeds and indexes it.
func (l *LangCacheStore) Set(ctx context.Context, prompt, response string) error {
	resp, err := l.post(ctx, "/entries", langCacheSetRequest{Prompt: prompt, Response: response})
	if err != nil {
		return fmt.Errorf("langcache: set request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("langcache: set error %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// Flush removes every entry of the cache.
func (l *LangCacheStore) Flush(ctx context.Context) error {
	resp, err := l.post(ctx, "/flush", nil)
	if err != nil {
		return fmt.Errorf("langcache: flush request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("langcache: flush error %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func (l *LangCacheStore) post(ctx context.Context, path string, body any) (*http.Response, error) {
	var payload io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal: %w", err)
		}
		payload = bytes.NewReader(jsonBody)
	}

	endpoint := fmt.Sprintf("%s/v1/caches/%s%s", l.baseURL, url.PathEscape(l.cacheID), path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+l.apiKey)

	return l.client.Do(req)
}

var (
	_ SemanticStore = (*LangCacheStore)(nil)
	_ Flusher       = (*LangCacheStore)(nil)
)
