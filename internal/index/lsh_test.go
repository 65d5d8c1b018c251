package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cerplabs/vectordb/internal/apperr"
)

func TestDeriveSeed_DeterministicPerLibrary(t *testing.T) {
	s1 := DeriveSeed("lib-a", 4, 16)
	s2 := DeriveSeed("lib-a", 4, 16)
	s3 := DeriveSeed("lib-b", 4, 16)
	assert.Equal(t, s1, s2)
	assert.NotEqual(t, s1, s3)
}

func TestLSH_ExactQueryVectorIsTopMatch(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	vecs := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
		{-1, 0, 0},
		{0.9, 0.1, 0},
	}
	seed := DeriveSeed("lib-1", 4, 8)
	idx, err := BuildLSH(seed, 3, 4, 8, ids, vecs)
	require.NoError(t, err)
	assert.Equal(t, 5, idx.Size())

	matches, err := idx.Query([]float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a", matches[0].ID)
}

func TestLSH_RebuildWithSameSeedIsDeterministic(t *testing.T) {
	ids := []string{"a", "b", "c"}
	vecs := [][]float32{{1, 0}, {0, 1}, {1, 1}}
	seed := DeriveSeed("lib-1", 2, 4)

	idx1, err := BuildLSH(seed, 2, 2, 4, ids, vecs)
	require.NoError(t, err)
	idx2, err := BuildLSH(seed, 2, 2, 4, ids, vecs)
	require.NoError(t, err)

	m1, err := idx1.Query([]float32{1, 0}, 3)
	require.NoError(t, err)
	m2, err := idx2.Query([]float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Equal(t, m1, m2)
}

func TestLSH_DescribeIsCosineOnly(t *testing.T) {
	idx, err := BuildLSH(1, 2, 2, 4, []string{"a"}, [][]float32{{1, 0}})
	require.NoError(t, err)
	d := idx.Describe()
	assert.Equal(t, LSH, d.Algorithm)
	assert.Equal(t, Cosine, d.Metric)
	assert.Equal(t, 2, d.Dimension)
}

func TestBuildLSH_RejectsZeroNormVector(t *testing.T) {
	ids := []string{"a", "b"}
	vecs := [][]float32{{1, 0}, {0, 0}}
	_, err := BuildLSH(1, 2, 2, 4, ids, vecs)
	assert.True(t, apperr.Is(err, apperr.InvalidVector))
}

func TestProbeKeys_IncludesExactAndHammingNeighbors(t *testing.T) {
	keys := probeKeys(0, 3)
	// exact (1) + single-bit flips (3) + two-bit flips (3) = 7
	assert.Len(t, keys, 7)
	assert.Contains(t, keys, uint64(0))
	assert.Contains(t, keys, uint64(1))
	assert.Contains(t, keys, uint64(0b011))
}
