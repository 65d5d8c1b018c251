package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cerplabs/vectordb/internal/apperr"
)

func TestValidate_SupportedPairs(t *testing.T) {
	assert.NoError(t, Validate(Linear, Cosine))
	assert.NoError(t, Validate(Linear, Euclidean))
	assert.NoError(t, Validate(KDTree, Euclidean))
	assert.NoError(t, Validate(LSH, Cosine))
}

func TestValidate_RejectsUnsupportedPairs(t *testing.T) {
	err := Validate(KDTree, Cosine)
	assert.True(t, apperr.Is(err, apperr.UnsupportedMetric))

	err = Validate(LSH, Euclidean)
	assert.True(t, apperr.Is(err, apperr.UnsupportedMetric))
}

func TestValidate_RejectsUnknownAlgorithm(t *testing.T) {
	err := Validate(Algorithm("bogus"), Cosine)
	assert.True(t, apperr.Is(err, apperr.InvalidArgument))
}

func TestCosineSimilarity_IdenticalVectorsAreOne(t *testing.T) {
	sim, err := CosineSimilarity([]float32{1, 0}, []float32{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)
}

func TestCosineSimilarity_OrthogonalVectorsAreZero(t *testing.T) {
	sim, err := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, sim, 1e-9)
}

func TestCosineSimilarity_RejectsZeroVector(t *testing.T) {
	_, err := CosineSimilarity([]float32{0, 0}, []float32{1, 1})
	assert.True(t, apperr.Is(err, apperr.InvalidVector))
}

func TestEuclideanDistance_Basic(t *testing.T) {
	d := EuclideanDistance([]float32{0, 0}, []float32{3, 4})
	assert.InDelta(t, 5.0, d, 1e-9)
}

func TestScore_CosineIsSimilarityAsIs(t *testing.T) {
	score, err := Score(Cosine, []float32{1, 0}, []float32{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestScore_EuclideanIsNegatedDistance(t *testing.T) {
	score, err := Score(Euclidean, []float32{0, 0}, []float32{3, 4})
	require.NoError(t, err)
	assert.InDelta(t, -5.0, score, 1e-9)
}

func TestNormalize_ProducesUnitVector(t *testing.T) {
	n := Normalize([]float32{3, 4})
	mag := float64(n[0])*float64(n[0]) + float64(n[1])*float64(n[1])
	assert.InDelta(t, 1.0, mag, 1e-6)
}

func TestNormalize_ZeroVectorStaysZero(t *testing.T) {
	n := Normalize([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, n)
}

func TestSortMatches_DescendingScoreThenAscendingID(t *testing.T) {
	matches := []Match{
		{ID: "b", Score: 1.0},
		{ID: "a", Score: 1.0},
		{ID: "c", Score: 2.0},
	}
	SortMatches(matches)
	require.Len(t, matches, 3)
	assert.Equal(t, "c", matches[0].ID)
	assert.Equal(t, "a", matches[1].ID)
	assert.Equal(t, "b", matches[2].ID)
}
