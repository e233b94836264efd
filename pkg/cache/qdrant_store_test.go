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

// fakeQdrant serves the embedding and Qdrant endpoints from memory.
type fakeQdrant struct {
	mu         sync.Mutex
	collection bool
	creates    int
	points     map[string]qdrantPoint
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.URL.Path == "/v1/embeddings":
		var req embeddingRequest
		json.NewDecoder(r.Body).Decode(&req)
		vec := []float32{float32(len(req.Input)), 1, 0}
		json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{{"embedding": vec}}})

	case r.URL.Path == "/collections/answers" && r.Method == http.MethodGet:
		if !f.collection {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.URL.Path == "/collections/answers" && r.Method == http.MethodPut:
		var req qdrantCreateCollectionRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Vectors.Size != 3 || req.Vectors.Distance != "Cosine" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.collection = true
		f.creates++
	case r.URL.Path == "/collections/answers" && r.Method == http.MethodDelete:
		f.collection = false
		f.points = nil

	case r.URL.Path == "/collections/answers/points":
		if !f.collection {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var req qdrantUpsertRequest
		json.NewDecoder(r.Body).Decode(&req)
		if f.points == nil {
			f.points = map[string]qdrantPoint{}
		}
		for _, p := range req.Points {
			f.points[p.ID] = p
		}

	case r.URL.Path == "/collections/answers/points/search":
		if !f.collection {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var req qdrantSearchRequest
		json.NewDecoder(r.Body).Decode(&req)
		var result []map[string]any
		for id, p := range f.points {
			if p.Vector[0] == req.Vector[0] {
				result = append(result, map[string]any{"id": id, "score": 0.99, "payload": p.Payload})
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"result": result})

	default:
		w.WriteHeader(http.StatusTeapot)
	}
}

func (f *fakeQdrant) counts() (creates, points int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates, len(f.points)
}

func newTestQdrantStore(t *testing.T) (*QdrantStore, *fakeQdrant) {
	t.Helper()
	fake := &fakeQdrant{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	embedder := NewEmbedder(EmbedderOptions{URL: srv.URL + "/v1"})
	vectors := NewVectorStore(srv.URL, "answers", nil)
	return NewQdrantStore(embedder, vectors, 0), fake
}

func TestQdrantStore_SearchBeforeAnySetIsEmpty(t *testing.T) {
	store, _ := newTestQdrantStore(t)

	matches, err := store.Search(context.Background(), "What is Go?", ThresholdClose)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestQdrantStore_SetThenSearch(t *testing.T) {
	ctx := context.Background()
	store, fake := newTestQdrantStore(t)

	require.NoError(t, store.Set(ctx, "What is Go?", `{"answer":"a"}`))
	require.NoError(t, store.Set(ctx, "What is Go?", `{"answer":"b"}`))
	creates, points := fake.counts()
	assert.Equal(t, 1, creates)
	assert.Equal(t, 1, points)

	matches, err := store.Search(ctx, "What is Go?", ThresholdClose)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "What is Go?", matches[0].Prompt)
	assert.Equal(t, `{"answer":"b"}`, matches[0].Response)
	assert.InDelta(t, 0.99, matches[0].Similarity, 1e-6)
}

func TestQdrantStore_FlushRecreatesCollection(t *testing.T) {
	ctx := context.Background()
	store, fake := newTestQdrantStore(t)

	require.NoError(t, store.Set(ctx, "q", "{}"))
	require.NoError(t, store.Flush(ctx))

	matches, err := store.Search(ctx, "q", ThresholdClose)
	require.NoError(t, err)
	assert.Empty(t, matches)

	require.NoError(t, store.Set(ctx, "q", "{}"))
	creates, _ := fake.counts()
	assert.Equal(t, 2, creates)
}

func TestQdrantStore_ServesSemanticCache(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestQdrantStore(t)
	c, err := NewSemanticCache(store, ThresholdStrict)
	require.NoError(t, err)

	require.NoError(t, c.Store(ctx, "What is Go?", sampleAnswer()))
	got, ok, err := c.Lookup(ctx, "What is Go?")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleAnswer(), got)
}

func TestEmbedder_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewEmbedder(EmbedderOptions{URL: srv.URL, APIKey: "k"}).Embed(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
