package index

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cerplabs/vectordb/internal/store"
)

// fakeSource is a minimal VectorSource backed by a fixed in-memory vector
// set, with a counter so tests can assert singleflight coalescing.
type fakeSource struct {
	ids       []string
	vecs      [][]float32
	buildCalls int32
}

func (f *fakeSource) WithLibraryRLock(libraryID string, fn func(v *store.LibraryView) error) error {
	atomic.AddInt32(&f.buildCalls, 1)
	dim := 0
	if len(f.vecs) > 0 {
		dim = len(f.vecs[0])
	}
	v := &store.LibraryView{Dimension: dim, IDs: f.ids, Vectors: f.vecs}
	return fn(v)
}

func TestRegistry_GetOrBuildCachesCompiledIndex(t *testing.T) {
	src := &fakeSource{ids: []string{"a", "b"}, vecs: [][]float32{{1, 0}, {0, 1}}}
	reg := NewRegistry(src, Linear, Cosine, 4, 8)

	idx1, err := reg.GetOrBuild("lib-1")
	require.NoError(t, err)
	idx2, err := reg.GetOrBuild("lib-1")
	require.NoError(t, err)

	assert.Same(t, idx1, idx2)
	assert.EqualValues(t, 1, atomic.LoadInt32(&src.buildCalls))
}

func TestRegistry_InvalidateForcesRebuild(t *testing.T) {
	src := &fakeSource{ids: []string{"a"}, vecs: [][]float32{{1, 0}}}
	reg := NewRegistry(src, Linear, Cosine, 4, 8)

	_, err := reg.GetOrBuild("lib-1")
	require.NoError(t, err)
	reg.Invalidate("lib-1")
	_, err = reg.GetOrBuild("lib-1")
	require.NoError(t, err)

	assert.EqualValues(t, 2, atomic.LoadInt32(&src.buildCalls))
}

func TestRegistry_InvalidateAllClearsEveryEntry(t *testing.T) {
	src := &fakeSource{ids: []string{"a"}, vecs: [][]float32{{1, 0}}}
	reg := NewRegistry(src, Linear, Cosine, 4, 8)

	_, err := reg.GetOrBuild("lib-1")
	require.NoError(t, err)
	_, err = reg.GetOrBuild("lib-2")
	require.NoError(t, err)

	reg.InvalidateAll()
	_, err = reg.GetOrBuild("lib-1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, atomic.LoadInt32(&src.buildCalls))
}

func TestRegistry_ConfigureSwitchesAlgorithm(t *testing.T) {
	src := &fakeSource{ids: []string{"a", "b"}, vecs: [][]float32{{0, 0}, {1, 1}}}
	reg := NewRegistry(src, Linear, Cosine, 4, 8)

	_, err := reg.GetOrBuild("lib-1")
	require.NoError(t, err)

	desc, err := reg.Configure("lib-1", KDTree, Euclidean)
	require.NoError(t, err)
	assert.Equal(t, KDTree, desc.Algorithm)
	assert.Equal(t, Euclidean, desc.Metric)
}

func TestRegistry_ConfigureRejectsUnsupportedPair(t *testing.T) {
	src := &fakeSource{ids: []string{"a"}, vecs: [][]float32{{1, 0}}}
	reg := NewRegistry(src, Linear, Cosine, 4, 8)

	_, err := reg.Configure("lib-1", KDTree, Cosine)
	assert.Error(t, err)
}

func TestRegistry_ConcurrentGetOrBuildCoalescesViaSingleflight(t *testing.T) {
	src := &fakeSource{ids: []string{"a"}, vecs: [][]float32{{1, 0}}}
	reg := NewRegistry(src, Linear, Cosine, 4, 8)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.GetOrBuild("lib-1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&src.buildCalls))
}

func TestRegistry_DescribeBuildsOnDemand(t *testing.T) {
	src := &fakeSource{ids: []string{"a"}, vecs: [][]float32{{1, 0}}}
	reg := NewRegistry(src, Linear, Cosine, 4, 8)

	desc, err := reg.Describe("lib-1")
	require.NoError(t, err)
	assert.Equal(t, 1, desc.Size)
	assert.Equal(t, 2, desc.Dimension)
}
