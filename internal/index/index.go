package index

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"spokesbot/internal/model"
)

// ErrDimensionMismatch is returned by Insert when a vector's length differs
// from the dimensionality established by the first inserted vector.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Result is one search hit: a chunk and its cosine similarity to the query.
type Result struct {
	Chunk model.Chunk `json:"chunk"`
	Score float32     `json:"score"`
}

type entry struct {
	chunk  model.Chunk
	vector []float32
}

// Index is a brute-force cosine similarity store over (chunk, embedding)
// pairs. It is filled once during a corpus build and read-only while serving;
// a rebuild constructs a fresh Index and swaps it in through a Holder.
type Index struct {
	mu      sync.RWMutex
	dim     int
	entries []entry
}

// New creates an empty index. With dim 0 the dimensionality is fixed by the
// first Insert.
func New(dim int) *Index {
	return &Index{dim: dim}
}

// Insert adds one entry. The first insert establishes the index
// dimensionality when it was not set at construction time; later inserts with
// a different vector length fail with ErrDimensionMismatch and leave existing
// entries untouched.
func (ix *Index) Insert(chunk model.Chunk, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty vector", ErrDimensionMismatch)
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.dim == 0 {
		ix.dim = len(vector)
	}
	if len(vector) != ix.dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), ix.dim)
	}
	ix.entries = append(ix.entries, entry{chunk: chunk, vector: vector})
	return nil
}

// Search returns up to k entries whose label is in the filter set, ordered by
// descending cosine similarity to the query. Equal scores rank in insertion
// order so results are reproducible. An empty filter, or a filter matching no
// entries, yields an empty non-error result: "no context available" is a
// normal outcome, not a failure.
func (ix *Index) Search(query []float32, filter []model.Label, k int) []Result {
	if k <= 0 || len(filter) == 0 {
		return nil
	}
	allowed := make(map[model.Label]struct{}, len(filter))
	for _, l := range filter {
		allowed[l] = struct{}{}
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	scored := make([]Result, 0, len(ix.entries))
	for _, e := range ix.entries {
		if _, ok := allowed[e.chunk.Label]; !ok {
			continue
		}
		scored = append(scored, Result{Chunk: e.chunk, Score: cosineSimilarity(query, e.vector)})
	}
	// Stable sort keeps insertion order for equal scores.
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if k < len(scored) {
		scored = scored[:k]
	}
	return scored
}

// Len reports the number of stored entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Dimension reports the established vector dimensionality (0 when empty and
// unconfigured).
func (ix *Index) Dimension() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.dim
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return dot / float32(math.Sqrt(float64(normA))*math.Sqrt(float64(normB)))
}
