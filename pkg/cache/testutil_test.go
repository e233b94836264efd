package cache

import (
	"context"
	"errors"
	"sync"

	"github.com/abdhe/aishe-client/pkg/aishe"
)

func sampleAnswer() *aishe.AnswerResult {
	return &aishe.AnswerResult{
		Answer: "Go is a statically typed language.",
		Sources: []aishe.Source{
			{Number: 2, Title: "Go spec", URL: "https://go.dev/ref/spec"},
			{Number: 1, Title: "Tour", URL: "https://go.dev/tour"},
		},
		ProcessingTime: 1.25,
	}
}

var errBackend = errors.New("backend down")

// memKV is an in-memory KVStore.
type memKV struct {
	mu   sync.Mutex
	data map[string]string
	err  error
	sets int
}

func newMemKV() *memKV { return &memKV{data: map[string]string{}} }

func (m *memKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sets++
	m.data[key] = value
	return nil
}

func (m *memKV) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.data[key]
	return ok, nil
}

// fakeSemantic returns canned matches filtered by threshold.
type fakeSemantic struct {
	matches    []Match
	err        error
	sets       map[string]string
	thresholds []float64
	flushed    bool
}

func (f *fakeSemantic) Search(_ context.Context, prompt string, threshold float64) ([]Match, error) {
	f.thresholds = append(f.thresholds, threshold)
	if f.err != nil {
		return nil, f.err
	}
	var out []Match
	for _, m := range f.matches {
		if m.Similarity >= threshold {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeSemantic) Set(_ context.Context, prompt, response string) error {
	if f.err != nil {
		return f.err
	}
	if f.sets == nil {
		f.sets = map[string]string{}
	}
	f.sets[prompt] = response
	return nil
}

// flushingSemantic adds Flush to fakeSemantic.
type flushingSemantic struct{ fakeSemantic }

func (f *flushingSemantic) Flush(context.Context) error {
	f.flushed = true
	return nil
}
