package index

import "container/heap"

// linearIndex is the exact, brute-force index: every query scores every
// stored vector. It is the only algorithm that supports both metrics, and
// serves as the correctness baseline the other two are tested against.
type linearIndex struct {
	metric Metric
	ids    []string
	vecs   [][]float32
	dim    int
}

// BuildLinear compiles a linearIndex over ids/vecs under metric, with
// dimension dim (the library's pinned vector dimension, not just
// len(vecs[0]), so Describe still reports it for an empty library).
func BuildLinear(metric Metric, dim int, ids []string, vecs [][]float32) (CompiledIndex, error) {
	idsCopy := make([]string, len(ids))
	copy(idsCopy, ids)
	vecsCopy := make([][]float32, len(vecs))
	copy(vecsCopy, vecs)
	return &linearIndex{metric: metric, ids: idsCopy, vecs: vecsCopy, dim: dim}, nil
}

func (l *linearIndex) Size() int { return len(l.ids) }

func (l *linearIndex) Describe() Descriptor {
	return Descriptor{Algorithm: Linear, Metric: l.metric, Size: len(l.ids), Dimension: l.dim}
}

// Query scores every stored vector against q and returns the top k via a
// bounded min-heap, so the working set never exceeds k candidates.
func (l *linearIndex) Query(q []float32, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}
	h := &matchHeap{}
	heap.Init(h)

	for i, id := range l.ids {
		score, err := Score(l.metric, q, l.vecs[i])
		if err != nil {
			return nil, err
		}
		pushBounded(h, Match{ID: id, Score: score}, k)
	}

	out := make([]Match, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(Match)
	}
	SortMatches(out)
	return out, nil
}

// matchHeap is a min-heap ordered so the weakest match sits at the root,
// making it cheap to evict when a stronger candidate arrives and the heap
// is already at capacity k.
type matchHeap []Match

func (h matchHeap) Len() int { return len(h) }
func (h matchHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	// Invert the id tie-break in the heap's internal ordering so that,
	// when scores tie at capacity, the lexicographically later id (the
	// one SortMatches would rank worse) is evicted first.
	return h[i].ID > h[j].ID
}
func (h matchHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *matchHeap) Push(x any)        { *h = append(*h, x.(Match)) }
func (h *matchHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// pushBounded inserts m into h, keeping h at no more than k elements by
// evicting the current weakest entry when full.
func pushBounded(h *matchHeap, m Match, k int) {
	if h.Len() < k {
		heap.Push(h, m)
		return
	}
	if h.Len() == 0 {
		return
	}
	weakest := (*h)[0]
	if m.Score > weakest.Score || (m.Score == weakest.Score && m.ID < weakest.ID) {
		heap.Pop(h)
		heap.Push(h, m)
	}
}
