package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearIndex_QueryReturnsExactTopK(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	vecs := [][]float32{
		{1, 0},
		{0.9, 0.1},
		{0, 1},
		{-1, 0},
	}
	idx, err := BuildLinear(Cosine, 2, ids, vecs)
	require.NoError(t, err)
	assert.Equal(t, 4, idx.Size())

	matches, err := idx.Query([]float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].ID)
	assert.Equal(t, "b", matches[1].ID)
}

func TestLinearIndex_QueryZeroKReturnsEmpty(t *testing.T) {
	idx, err := BuildLinear(Cosine, 2, []string{"a"}, [][]float32{{1, 0}})
	require.NoError(t, err)

	matches, err := idx.Query([]float32{1, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestLinearIndex_DescribeReportsShape(t *testing.T) {
	idx, err := BuildLinear(Euclidean, 2, []string{"a", "b"}, [][]float32{{0, 0}, {1, 1}})
	require.NoError(t, err)

	d := idx.Describe()
	assert.Equal(t, Linear, d.Algorithm)
	assert.Equal(t, Euclidean, d.Metric)
	assert.Equal(t, 2, d.Size)
	assert.Equal(t, 2, d.Dimension)
}

func TestLinearIndex_EuclideanOrdersByClosestFirst(t *testing.T) {
	ids := []string{"near", "mid", "far"}
	vecs := [][]float32{
		{1, 0},
		{5, 0},
		{10, 0},
	}
	idx, err := BuildLinear(Euclidean, 2, ids, vecs)
	require.NoError(t, err)

	matches, err := idx.Query([]float32{0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "near", matches[0].ID)
	assert.Equal(t, "mid", matches[1].ID)
	assert.Equal(t, "far", matches[2].ID)
}
