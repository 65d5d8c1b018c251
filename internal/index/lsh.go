package index

import (
	"hash/fnv"
	"math/rand"
)

// lshTable is one independent random-hyperplane hash table: P planes
// define a P-bit bucket signature for every vector, and vectors sharing a
// signature are bucketed together as approximate cosine neighbors.
type lshTable struct {
	planes  [][]float32
	buckets map[uint64][]int
}

// lshIndex is the cosine-only, approximate index: T tables, each with P
// random hyperplanes, bucketing vectors by the sign pattern of their
// projection onto each plane. A query probes the buckets within Hamming
// distance 2 of its own signature across every table, then re-ranks the
// union of candidates by exact cosine similarity.
type lshIndex struct {
	tables    []lshTable
	ids       []string
	rawVecs   [][]float32
	numPlanes int
	dim       int
}

// DeriveSeed produces a deterministic PRNG seed from a library id so that
// rebuilding the same library's index (after invalidation) always
// generates the same random hyperplanes, rather than a new random
// projection on every rebuild.
func DeriveSeed(libraryID string, numTables, numPlanes int) int64 {
	h := fnv.New64a()
	h.Write([]byte(libraryID))
	h.Write([]byte{byte(numTables), byte(numPlanes)})
	return int64(h.Sum64())
}

// BuildLSH compiles an lshIndex over ids/vecs using numTables tables of
// numPlanes planes each, seeded deterministically by seed, with dimension
// dim (the library's pinned vector dimension, not just len(vecs[0]), so
// Describe still reports it for an empty library). Cosine similarity
// requires every vector to have a nonzero norm; unlike linearIndex, which
// scores every stored vector on every query and so validates as it goes,
// an LSH bucket never even considers a vector that no query happens to
// probe, so every vector's norm is validated up front at build time
// instead.
func BuildLSH(seed int64, dim, numTables, numPlanes int, ids []string, vecs [][]float32) (CompiledIndex, error) {
	rng := rand.New(rand.NewSource(seed))
	normVecs := make([][]float32, len(vecs))
	for i, v := range vecs {
		if _, err := CosineSimilarity(v, v); err != nil {
			return nil, err
		}
		normVecs[i] = Normalize(v)
	}

	tables := make([]lshTable, numTables)
	for t := 0; t < numTables; t++ {
		planes := make([][]float32, numPlanes)
		for p := 0; p < numPlanes; p++ {
			plane := make([]float32, dim)
			for d := 0; d < dim; d++ {
				plane[d] = float32(rng.NormFloat64())
			}
			planes[p] = plane
		}
		buckets := make(map[uint64][]int)
		for i, v := range normVecs {
			key := signature(v, planes)
			buckets[key] = append(buckets[key], i)
		}
		tables[t] = lshTable{planes: planes, buckets: buckets}
	}

	idsCopy := make([]string, len(ids))
	copy(idsCopy, ids)
	rawCopy := make([][]float32, len(vecs))
	copy(rawCopy, vecs)

	return &lshIndex{tables: tables, ids: idsCopy, rawVecs: rawCopy, numPlanes: numPlanes, dim: dim}, nil
}

// signature computes the P-bit bucket key of v against planes: bit i is
// set when v's projection onto plane i is non-negative.
func signature(v []float32, planes [][]float32) uint64 {
	var key uint64
	for i, plane := range planes {
		if dotProduct(v, plane) >= 0 {
			key |= 1 << uint(i)
		}
	}
	return key
}

func dotProduct(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// probeKeys returns every bucket key within Hamming distance 2 of key
// across numPlanes bits: the exact bucket, every single-bit flip, and
// every two-bit flip. This widens recall beyond an exact signature match,
// which locality-sensitive hashing alone would otherwise miss for
// near-neighbors that happen to straddle a hyperplane.
func probeKeys(key uint64, numPlanes int) []uint64 {
	keys := make([]uint64, 0, 1+numPlanes+numPlanes*(numPlanes-1)/2)
	keys = append(keys, key)
	for i := 0; i < numPlanes; i++ {
		keys = append(keys, key^(1<<uint(i)))
	}
	for i := 0; i < numPlanes; i++ {
		for j := i + 1; j < numPlanes; j++ {
			keys = append(keys, key^(1<<uint(i))^(1<<uint(j)))
		}
	}
	return keys
}

func (l *lshIndex) Size() int { return len(l.ids) }

func (l *lshIndex) Describe() Descriptor {
	return Descriptor{Algorithm: LSH, Metric: Cosine, Size: len(l.ids), Dimension: l.dim}
}

// Query probes every table's buckets within Hamming distance 2 of q's
// signature, unions the candidate set, and re-ranks it by exact cosine
// similarity before truncating to k.
func (l *lshIndex) Query(q []float32, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}
	qNorm := Normalize(q)

	candidates := make(map[int]struct{})
	for _, table := range l.tables {
		qKey := signature(qNorm, table.planes)
		for _, probe := range probeKeys(qKey, l.numPlanes) {
			for _, idx := range table.buckets[probe] {
				candidates[idx] = struct{}{}
			}
		}
	}

	matches := make([]Match, 0, len(candidates))
	for idx := range candidates {
		score, err := CosineSimilarity(q, l.rawVecs[idx])
		if err != nil {
			return nil, err
		}
		matches = append(matches, Match{ID: l.ids[idx], Score: score})
	}
	SortMatches(matches)
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}
