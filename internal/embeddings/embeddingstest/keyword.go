// Package embeddingstest provides a deterministic embedder for tests.
package embeddingstest

import (
	"context"
	"strings"
	"sync"
)

// Keyword embeds text as a bag of the given keywords plus one constant
// dimension, so related texts score higher without a model.
type Keyword struct {
	Words []string

	mu    sync.Mutex
	calls int
}

// NewKeyword returns a Keyword embedder over words.
func NewKeyword(words ...string) *Keyword {
	return &Keyword{Words: words}
}

// Dimensions returns len(Words)+1.
func (k *Keyword) Dimensions() int {
	return len(k.Words) + 1
}

// EmbedTexts embeds each text.
func (k *Keyword) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k.mu.Lock()
	k.calls++
	k.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = k.Vector(text)
	}
	return out, nil
}

// Vector returns the embedding of a single text.
func (k *Keyword) Vector(text string) []float32 {
	lower := strings.ToLower(text)
	vec := make([]float32, len(k.Words)+1)
	for j, w := range k.Words {
		vec[j] = float32(strings.Count(lower, strings.ToLower(w)))
	}
	vec[len(k.Words)] = 0.1
	return vec
}

// Calls returns how many times EmbedTexts ran.
func (k *Keyword) Calls() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.calls
}
