package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DefaultNamespace prefixes every exact-match key.
const DefaultNamespace = "aishe:answer:"

// KeyGenerator derives exact-match cache keys from questions.
//
// Only surrounding whitespace is removed before hashing; case and inner
// whitespace are significant.
type KeyGenerator struct {
	namespace string
}

// NewKeyGenerator creates a key generator. An empty namespace selects
// DefaultNamespace.
func NewKeyGenerator(namespace string) *KeyGenerator {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &KeyGenerator{namespace: namespace}
}

// Namespace returns the key prefix.
func (g *KeyGenerator) Namespace() string { return g.namespace }

// Key returns <namespace><hex sha256 of the trimmed question>.
func (g *KeyGenerator) Key(question string) string {
	hash := sha256.Sum256([]byte(strings.TrimSpace(question)))
	return g.namespace + hex.EncodeToString(hash[:])
}
