// Package generator builds typing text sequences.
package generator

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// TimePoolSize is the number of words pre-generated for time-limited tests.
const TimePoolSize = 200

// Generator produces randomized typing text from a fixed word list.
// It is safe for concurrent use.
type Generator struct {
	mu    sync.Mutex
	rnd   *rand.Rand
	words []string
}

// New returns a Generator over words seeded with the current time.
// An empty word list falls back to Dictionary.
func New(words []string) *Generator {
	return NewWithSeed(words, time.Now().UnixNano())
}

// NewWithSeed returns a Generator with a fixed seed for reproducible output.
func NewWithSeed(words []string, seed int64) *Generator {
	if len(words) == 0 {
		words = Dictionary
	}
	return &Generator{
		rnd:   rand.New(rand.NewSource(seed)),
		words: append([]string(nil), words...),
	}
}

// Generate selects count words uniformly with replacement.
func (g *Generator) Generate(count int) []string {
	if count <= 0 {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		result = append(result, g.words[g.rnd.Intn(len(g.words))])
	}
	return result
}

// Text returns count random words joined by single spaces.
func (g *Generator) Text(count int) string {
	return strings.Join(g.Generate(count), " ")
}
