package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/abdhe/aishe-client/pkg/aishe"
)

// Match is one similarity-search hit.
type Match struct {
	ID         string
	Prompt     string
	Response   string  // serialized AnswerResult
	Similarity float64 // 0..1, higher is closer
}

// SemanticStore is the similarity-search contract the semantic strategy
// needs. Search returns matches at or above threshold, best first.
type SemanticStore interface {
	Search(ctx context.Context, prompt string, threshold float64) ([]Match, error)
	Set(ctx context.Context, prompt, response string) error
}

// SemanticCache hits when a previously stored question is similar enough to
// the new one. The store owns embedding and indexing.
type SemanticCache struct {
	store     SemanticStore
	threshold float64
	validator *aishe.Validator
}

// NewSemanticCache creates a semantic strategy with the given default
// similarity threshold.
func NewSemanticCache(store SemanticStore, threshold float64) (*SemanticCache, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	return &SemanticCache{
		store:     store,
		threshold: threshold,
		validator: aishe.DefaultValidator(),
	}, nil
}

func (c *SemanticCache) Name() string { return "semantic" }

// Threshold returns the configured similarity threshold.
func (c *SemanticCache) Threshold() float64 { return c.threshold }

// Lookup searches for question and decodes the best match. Lower-ranked
// matches are ignored.
func (c *SemanticCache) Lookup(ctx context.Context, question string) (*aishe.AnswerResult, bool, error) {
	matches, err := c.store.Search(ctx, strings.TrimSpace(question), c.threshold)
	if err != nil {
		return nil, false, fmt.Errorf("semantic_cache: search: %w", err)
	}
	if len(matches) == 0 {
		return nil, false, nil
	}
	result, err := c.validator.DecodeCachedAnswer([]byte(matches[0].Response))
	if err != nil {
		return nil, false, err
	}
	return result, true, nil
}

// Store records question as the prompt and result as the response.
func (c *SemanticCache) Store(ctx context.Context, question string, result *aishe.AnswerResult) error {
	val, err := encodeAnswer(result)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, strings.TrimSpace(question), val); err != nil {
		return fmt.Errorf("semantic_cache: set: %w", err)
	}
	return nil
}

// Contains reports whether any entry matches question at the configured
// threshold.
func (c *SemanticCache) Contains(ctx context.Context, question string) (bool, error) {
	return c.ContainsAt(ctx, question, c.threshold)
}

// ContainsAt is Contains with an explicit threshold.
func (c *SemanticCache) ContainsAt(ctx context.Context, question string, threshold float64) (bool, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return false, err
	}
	matches, err := c.store.Search(ctx, strings.TrimSpace(question), threshold)
	if err != nil {
		return false, fmt.Errorf("semantic_cache: search: %w", err)
	}
	return len(matches) > 0, nil
}

// Flush drops every entry if the store supports it.
func (c *SemanticCache) Flush(ctx context.Context) error {
	f, ok := c.store.(Flusher)
	if !ok {
		return ErrFlushUnsupported
	}
	if err := f.Flush(ctx); err != nil {
		return fmt.Errorf("semantic_cache: flush: %w", err)
	}
	return nil
}

var (
	_ Strategy = (*SemanticCache)(nil)
	_ Flusher  = (*SemanticCache)(nil)
)
