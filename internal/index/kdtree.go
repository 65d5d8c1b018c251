package index

import (
	"container/heap"
	"math"
	"sort"
)

// kdNode is one split point of the tree: the vector at this node is the
// lower median of its slice along axis, with ties broken by id so the
// tree shape is deterministic for a given input set.
type kdNode struct {
	id   string
	vec  []float32
	axis int
	left *kdNode
	right *kdNode
}

// kdTreeIndex is an exact euclidean-only index using axis-aligned median
// splits and a best-first bounded search with hyperplane pruning.
type kdTreeIndex struct {
	root *kdNode
	size int
	dim  int
}

// BuildKDTree compiles a kdTreeIndex over ids/vecs with dimension dim (the
// library's pinned vector dimension, not just len(vecs[0]), so Describe
// still reports it for an empty library). metric is always Euclidean for
// this algorithm (see Validate).
func BuildKDTree(dim int, ids []string, vecs [][]float32) (CompiledIndex, error) {
	idx := make([]int, len(ids))
	for i := range idx {
		idx[i] = i
	}
	root := buildKDNode(ids, vecs, idx, 0, dim)
	return &kdTreeIndex{root: root, size: len(ids), dim: dim}, nil
}

// buildKDNode recursively splits idx (indices into ids/vecs) on axis =
// depth % dim, picking the lower median (ties broken by id) as the node
// and recursing into the two halves either side of it.
func buildKDNode(ids []string, vecs [][]float32, idx []int, depth, dim int) *kdNode {
	if len(idx) == 0 || dim == 0 {
		return nil
	}
	axis := depth % dim

	sorted := make([]int, len(idx))
	copy(sorted, idx)
	sort.Slice(sorted, func(i, j int) bool {
		vi, vj := vecs[sorted[i]][axis], vecs[sorted[j]][axis]
		if vi != vj {
			return vi < vj
		}
		return ids[sorted[i]] < ids[sorted[j]]
	})

	mid := (len(sorted) - 1) / 2
	medianIdx := sorted[mid]

	node := &kdNode{
		id:   ids[medianIdx],
		vec:  vecs[medianIdx],
		axis: axis,
	}
	node.left = buildKDNode(ids, vecs, sorted[:mid], depth+1, dim)
	node.right = buildKDNode(ids, vecs, sorted[mid+1:], depth+1, dim)
	return node
}

func (t *kdTreeIndex) Size() int { return t.size }

func (t *kdTreeIndex) Describe() Descriptor {
	return Descriptor{Algorithm: KDTree, Metric: Euclidean, Size: t.size, Dimension: t.dim}
}

// Query runs a best-first bounded search: descend into the half of the
// split containing q first, then only descend into the other half if its
// hyperplane could still hold a point closer than the current worst of
// the top-k found so far.
func (t *kdTreeIndex) Query(q []float32, k int) ([]Match, error) {
	if k <= 0 || t.root == nil {
		return nil, nil
	}
	h := &matchHeap{}
	heap.Init(h)
	searchKD(t.root, q, h, k)

	out := make([]Match, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(Match)
	}
	SortMatches(out)
	return out, nil
}

func searchKD(node *kdNode, q []float32, h *matchHeap, k int) {
	if node == nil {
		return
	}
	dist := EuclideanDistance(q, node.vec)
	pushBounded(h, Match{ID: node.id, Score: -dist}, k)

	diff := float64(q[node.axis]) - float64(node.vec[node.axis])
	near, far := node.left, node.right
	if diff > 0 {
		near, far = node.right, node.left
	}
	searchKD(near, q, h, k)

	if h.Len() < k {
		searchKD(far, q, h, k)
		return
	}
	worstDist := -(*h)[0].Score
	if math.Abs(diff) < worstDist {
		searchKD(far, q, h, k)
	}
}
