// Package cache implements the answer caching strategies: an exact-match
// strategy over a key-value store and a semantic strategy over a
// similarity-search store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/abdhe/aishe-client/pkg/aishe"
)

// Strategy is a cache policy the orchestrator consults before going to the
// network.
//
// Contract:
//   - Lookup returns (nil, false, nil) on a miss. A stored entry that cannot
//     be decoded is an error wrapping aishe.ErrCorruptCacheEntry, never a miss.
//   - Store overwrites unconditionally.
//   - Errors from the backing store are returned, never swallowed.
type Strategy interface {
	// Name identifies the strategy in logs and metrics.
	Name() string

	Lookup(ctx context.Context, question string) (*aishe.AnswerResult, bool, error)
	Store(ctx context.Context, question string, result *aishe.AnswerResult) error
	Contains(ctx context.Context, question string) (bool, error)
}

// Flusher is implemented by strategies that can drop every entry they own.
type Flusher interface {
	Flush(ctx context.Context) error
}

// ErrFlushUnsupported is returned by Flush when the backing store cannot
// enumerate or drop entries.
var ErrFlushUnsupported = errors.New("cache: flush not supported by backing store")

// Similarity threshold tiers.
const (
	ThresholdStrict = 0.95
	ThresholdClose  = 0.90
	ThresholdLoose  = 0.80
)

// ErrInvalidThreshold is returned for thresholds outside [0, 1].
var ErrInvalidThreshold = errors.New("cache: similarity threshold must be within [0, 1]")

// ValidateThreshold checks that t is usable as a similarity threshold.
func ValidateThreshold(t float64) error {
	if math.IsNaN(t) || t < 0 || t > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, t)
	}
	return nil
}

// ParseThreshold accepts a tier name (strict, close, loose) or a number.
func ParseThreshold(s string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return ThresholdStrict, nil
	case "close":
		return ThresholdClose, nil
	case "loose":
		return ThresholdLoose, nil
	}
	t, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is neither a tier nor a number", ErrInvalidThreshold, s)
	}
	if err := ValidateThreshold(t); err != nil {
		return 0, err
	}
	return t, nil
}

// encodeAnswer serializes result to the flat string stored in every backend.
func encodeAnswer(result *aishe.AnswerResult) (string, error) {
	if result == nil {
		return "", aishe.NewClientError("cache: nil answer", nil)
	}
	data, err := json.Marshal(result)
	if err != nil {
		return "", aishe.NewClientError("cache: marshal answer", err)
	}
	return string(data), nil
}
