package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// pointNamespace seeds the name-based point IDs so that storing the same
// prompt twice overwrites one point.
var pointNamespace = uuid.MustParse("6f1c2d8e-3b4a-5c6d-9e0f-a1b2c3d4e5f6")

// DefaultSearchLimit bounds the matches returned per Qdrant search.
const DefaultSearchLimit = 5

// QdrantStore is a self-hosted SemanticStore: questions are embedded by an
// Embedder and indexed in a Qdrant collection whose payload carries the
// prompt and serialized response.
type QdrantStore struct {
	embedder *Embedder
	vectors  *VectorStore
	limit    int

	mu    sync.Mutex
	ready bool
}

// NewQdrantStore creates a QdrantStore. A non-positive limit selects
// DefaultSearchLimit.
func NewQdrantStore(embedder *Embedder, vectors *VectorStore, limit int) *QdrantStore {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return &QdrantStore{embedder: embedder, vectors: vectors, limit: limit}
}

// Search embeds prompt and returns stored entries at or above threshold.
func (q *QdrantStore) Search(ctx context.Context, prompt string, threshold float64) ([]Match, error) {
	vector, err := q.embedder.Embed(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("qdrant_store: %w", err)
	}

	points, err := q.vectors.Search(ctx, vector, float32(threshold), q.limit)
	if err != nil {
		return nil, fmt.Errorf("qdrant_store: %w", err)
	}

	matches := make([]Match, 0, len(points))
	for _, p := range points {
		prompt, _ := p.Payload["prompt"].(string)
		response, _ := p.Payload["response"].(string)
		matches = append(matches, Match{
			ID:         p.ID,
			Prompt:     prompt,
			Response:   response,
			Similarity: float64(p.Score),
		})
	}
	return matches, nil
}

// Set embeds prompt and upserts it with response as payload.
func (q *QdrantStore) Set(ctx context.Context, prompt, response string) error {
	vector, err := q.embedder.Embed(ctx, prompt)
	if err != nil {
		return fmt.Errorf("qdrant_store: %w", err)
	}
	if err := q.ensureCollection(ctx, len(vector)); err != nil {
		return fmt.Errorf("qdrant_store: %w", err)
	}

	id := uuid.NewSHA1(pointNamespace, []byte(prompt)).String()
	payload := map[string]string{"prompt": prompt, "response": response}
	if err := q.vectors.Upsert(ctx, id, vector, payload); err != nil {
		return fmt.Errorf("qdrant_store: %w", err)
	}
	return nil
}

// Flush drops the collection; it is recreated on the next Set.
func (q *QdrantStore) Flush(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.vectors.DeleteCollection(ctx); err != nil {
		return fmt.Errorf("qdrant_store: %w", err)
	}
	q.ready = false
	return nil
}

func (q *QdrantStore) ensureCollection(ctx context.Context, dims int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.ready {
		return nil
	}
	if err := q.vectors.EnsureCollection(ctx, dims); err != nil {
		return err
	}
	q.ready = true
	return nil
}

var (
	_ SemanticStore = (*QdrantStore)(nil)
	_ Flusher       = (*QdrantStore)(nil)
)
