package cache

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLangCache(t *testing.T, h http.HandlerFunc) *LangCacheStore {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	store, err := NewLangCacheStore(LangCacheOptions{URL: srv.URL + "/", APIKey: "secret", CacheID: "c1"})
	require.NoError(t, err)
	return store
}

func TestNewLangCacheStore_RequiresSettings(t *testing.T) {
	_, err := NewLangCacheStore(LangCacheOptions{APIKey: "k", CacheID: "c"})
	assert.Error(t, err)
	_, err = NewLangCacheStore(LangCacheOptions{URL: "http://x", CacheID: "c"})
	assert.Error(t, err)
	_, err = NewLangCacheStore(LangCacheOptions{URL: "http://x", APIKey: "k"})
	assert.Error(t, err)
}

func TestLangCacheStore_Search(t *testing.T) {
	store := newTestLangCache(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/caches/c1/entries/search", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req langCacheSearchRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "What is Go?", req.Prompt)
		assert.InDelta(t, 0.9, req.SimilarityThreshold, 1e-9)

		w.Write([]byte(`{"data":[{"id":"e1","prompt":"What's Go?","response":"{}","similarity":0.96}]}`))
	})

	matches, err := store.Search(context.Background(), "What is Go?", 0.9)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, Match{ID: "e1", Prompt: "What's Go?", Response: "{}", Similarity: 0.96}, matches[0])
}

func TestLangCacheStore_SearchNotFoundIsEmpty(t *testing.T) {
	store := newTestLangCache(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	matches, err := store.Search(context.Background(), "q", 0.9)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestLangCacheStore_SearchServerError(t *testing.T) {
	store := newTestLangCache(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := store.Search(context.Background(), "q", 0.9)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestLangCacheStore_SetAndFlush(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	store := newTestLangCache(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		switch r.URL.Path {
		case "/v1/caches/c1/entries":
			var req langCacheSetRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "q", req.Prompt)
			assert.Equal(t, `{"answer":"a"}`, req.Response)
			w.WriteHeader(http.StatusCreated)
		case "/v1/caches/c1/flush":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	})

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "q", `{"answer":"a"}`))
	require.NoError(t, store.Flush(ctx))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/v1/caches/c1/entries", "/v1/caches/c1/flush"}, paths)
}
