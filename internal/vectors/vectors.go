// Package vectors holds the embedding value type and the cosine metrics used
// for identity matching and similarity grouping.
package vectors

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch is the panic value when two embeddings of different
// length are compared.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Embedding is a fixed-length feature vector produced by the embedding server.
// Functions in this package never mutate their inputs.
type Embedding []float32

// Dim returns the vector length.
func (e Embedding) Dim() int {
	return len(e)
}

// Norm returns the L2 norm of e computed in float64.
func (e Embedding) Norm() float64 {
	var sum float64
	for _, v := range e {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// Valid reports whether e is non-empty and all of its components are finite.
func Valid(e Embedding) bool {
	if len(e) == 0 {
		return false
	}
	for _, v := range e {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Normalize returns an L2-normalized copy of e. A zero vector yields a zero copy.
func Normalize(e Embedding) Embedding {
	out := make(Embedding, len(e))
	norm := e.Norm()
	if norm == 0 {
		return out
	}
	for i, v := range e {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

// CosineSimilarity computes the cosine similarity between two embeddings.
// Returns a value between -1 and 1, where 1 means identical direction.
// Zero vectors have similarity 0 with everything.
func CosineSimilarity(a, b Embedding) float64 {
	mustSameDim(a, b)

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp to [-1, 1] to handle floating point errors
	if similarity > 1 {
		similarity = 1
	}
	if similarity < -1 {
		similarity = -1
	}
	return similarity
}

// CosineDistance computes 1 - cosine similarity.
// Returns a value between 0 (identical) and 2 (opposite).
func CosineDistance(a, b Embedding) float64 {
	return 1 - CosineSimilarity(a, b)
}

func mustSameDim(a, b Embedding) {
	if len(a) != len(b) {
		panic(fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b)))
	}
}
