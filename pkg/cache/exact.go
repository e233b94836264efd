package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/abdhe/aishe-client/pkg/aishe"
)

// KVStore is the key-value contract the exact strategy needs.
type KVStore interface {
	// Get returns the stored value and true, or "" and false when absent.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// prefixDeleter is implemented by stores that can drop a whole namespace.
type prefixDeleter interface {
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// ExactCache hits only when the trimmed question is byte-identical to a
// previously stored one.
type ExactCache struct {
	store     KVStore
	keys      *KeyGenerator
	validator *aishe.Validator
}

// NewExactCache creates an exact-match strategy. A nil keys selects the
// default namespace.
func NewExactCache(store KVStore, keys *KeyGenerator) *ExactCache {
	if keys == nil {
		keys = NewKeyGenerator("")
	}
	return &ExactCache{
		store:     store,
		keys:      keys,
		validator: aishe.DefaultValidator(),
	}
}

func (c *ExactCache) Name() string { return "exact" }

// Lookup reads the entry for question.
func (c *ExactCache) Lookup(ctx context.Context, question string) (*aishe.AnswerResult, bool, error) {
	val, found, err := c.store.Get(ctx, c.keys.Key(question))
	if err != nil {
		return nil, false, fmt.Errorf("exact_cache: get: %w", err)
	}
	if !found {
		return nil, false, nil
	}
	result, err := c.validator.DecodeCachedAnswer([]byte(val))
	if err != nil {
		return nil, false, err
	}
	return result, true, nil
}

// Store writes result under the key for question, replacing any prior value.
func (c *ExactCache) Store(ctx context.Context, question string, result *aishe.AnswerResult) error {
	val, err := encodeAnswer(result)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, c.keys.Key(question), val); err != nil {
		return fmt.Errorf("exact_cache: set: %w", err)
	}
	return nil
}

// Contains reports whether an entry exists for question without decoding it.
func (c *ExactCache) Contains(ctx context.Context, question string) (bool, error) {
	ok, err := c.store.Exists(ctx, c.keys.Key(question))
	if err != nil {
		return false, fmt.Errorf("exact_cache: exists: %w", err)
	}
	return ok, nil
}

// Flush removes every key in the generator's namespace.
func (c *ExactCache) Flush(ctx context.Context) error {
	pd, ok := c.store.(prefixDeleter)
	if !ok {
		return ErrFlushUnsupported
	}
	if strings.TrimSpace(c.keys.Namespace()) == "" {
		return fmt.Errorf("exact_cache: refusing to flush an empty namespace")
	}
	if _, err := pd.DeletePrefix(ctx, c.keys.Namespace()); err != nil {
		return fmt.Errorf("exact_cache: flush: %w", err)
	}
	return nil
}

var (
	_ Strategy = (*ExactCache)(nil)
	_ Flusher  = (*ExactCache)(nil)
)
