// Package index implements the pluggable nearest-neighbor index
// algorithms (Linear, KDTree, LSH), the metric abstraction they rank
// against, and the registry that compiles, caches, and invalidates one
// index per library.
package index

import (
	"math"
	"sort"

	"github.com/cerplabs/vectordb/internal/apperr"
)

// Metric names a supported distance/similarity function.
type Metric string

const (
	Cosine    Metric = "cosine"
	Euclidean Metric = "euclidean"
)

// Algorithm names a supported index implementation.
type Algorithm string

const (
	Linear Algorithm = "linear"
	KDTree Algorithm = "kdtree"
	LSH    Algorithm = "lsh"
)

// supported enumerates which (algorithm, metric) pairs are valid: KDTree is
// euclidean-only (its splitting and bound-pruning logic assumes an
// axis-aligned metric), LSH is cosine-only (its hyperplane buckets
// approximate angular distance), Linear supports both.
var supported = map[Algorithm]map[Metric]bool{
	Linear: {Cosine: true, Euclidean: true},
	KDTree: {Euclidean: true},
	LSH:    {Cosine: true},
}

// Validate reports an UnsupportedMetric error if algorithm cannot be paired
// with metric.
func Validate(algorithm Algorithm, metric Metric) error {
	metrics, ok := supported[algorithm]
	if !ok {
		return apperr.Newf(apperr.InvalidArgument, "unknown index algorithm %q", algorithm)
	}
	if !metrics[metric] {
		return apperr.Newf(apperr.UnsupportedMetric, "algorithm %q does not support metric %q", algorithm, metric)
	}
	return nil
}

// Score computes a unified ranking score for metric where higher is always
// better, regardless of whether the underlying metric is a similarity or a
// distance. Cosine similarity is returned as-is (already higher-is-better,
// range [-1, 1]); Euclidean distance is negated so closer points still rank
// first.
func Score(metric Metric, a, b []float32) (float64, error) {
	switch metric {
	case Cosine:
		return CosineSimilarity(a, b)
	case Euclidean:
		return -EuclideanDistance(a, b), nil
	default:
		return 0, apperr.Newf(apperr.UnsupportedMetric, "unknown metric %q", metric)
	}
}

// CosineSimilarity returns the cosine similarity of a and b. Either vector
// having zero norm is rejected as InvalidVector: cosine similarity is
// undefined for the zero vector, and silently returning 0 would make an
// unrelated vector look like a weak match instead of a rejected query.
func CosineSimilarity(a, b []float32) (float64, error) {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, apperr.New(apperr.InvalidVector, "cosine similarity is undefined for a zero-norm vector")
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// EuclideanDistance returns the L2 distance between a and b.
func EuclideanDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Normalize returns a unit-norm copy of v under L2; used by the LSH
// implementation, which reasons about cosine similarity purely via angle
// and so always indexes and queries normalized vectors.
func Normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	out := make([]float32, len(v))
	if norm == 0 {
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// Match pairs a chunk id with its ranking score.
type Match struct {
	ID    string
	Score float64
}

// SortMatches orders matches by descending score, tie-breaking by
// ascending id so results are deterministic regardless of map iteration
// or probing order.
func SortMatches(matches []Match) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
}
