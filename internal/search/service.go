package search

import (
	"github.com/cerplabs/vectordb/internal/apperr"
	"github.com/cerplabs/vectordb/internal/index"
	"github.com/cerplabs/vectordb/internal/store"
)

// Result pairs a matched chunk with the ranking score it was found at.
type Result struct {
	Chunk store.Chunk
	Score float64
}

// Repository is the subset of store.Repository the service needs.
type Repository interface {
	GetLibrary(id string) (store.Library, error)
	SnapshotChunks(libraryID string) (map[string]*store.Chunk, error)
}

// IndexSource is the subset of index.Registry the service needs.
type IndexSource interface {
	GetOrBuild(libraryID string) (index.CompiledIndex, error)
}

// Service answers nearest-neighbor queries against a library's compiled
// index, resolving matches to their chunks and applying an optional
// metadata filter.
type Service struct {
	repo     Repository
	registry IndexSource
}

// NewService constructs a Service over repo and registry.
func NewService(repo Repository, registry IndexSource) *Service {
	return &Service{repo: repo, registry: registry}
}

// Search returns up to k chunks from library libraryID ranked against
// query, closest first: fetch-or-build the index, query k*overfetch
// candidates, resolve ids to chunks, apply the metadata filter, and
// return the first k survivors.
func (s *Service) Search(libraryID string, query []float32, k int, opts ...Option) ([]Result, error) {
	if k <= 0 {
		return nil, apperr.New(apperr.InvalidArgument, "k must be positive")
	}

	lib, err := s.repo.GetLibrary(libraryID)
	if err != nil {
		return nil, err
	}
	if lib.Dimension != 0 && len(query) != lib.Dimension {
		return nil, apperr.Newf(apperr.DimensionMismatch,
			"query vector has dimension %d, library is established at %d", len(query), lib.Dimension)
	}

	o := resolve(opts)

	idx, err := s.registry.GetOrBuild(libraryID)
	if err != nil {
		return nil, err
	}

	matches, err := idx.Query(query, k*o.overfetchFactor)
	if err != nil {
		return nil, err
	}

	chunks, err := s.repo.SnapshotChunks(libraryID)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, k)
	for _, m := range matches {
		chunk, ok := chunks[m.ID]
		if !ok {
			// The chunk was deleted between the index query and this
			// resolution step; skip it rather than surface a dangling id.
			continue
		}
		if o.filter != nil && !matchesFilter(chunk.Metadata, o.filter) {
			continue
		}
		results = append(results, Result{Chunk: *chunk, Score: m.Score})
		if len(results) == k {
			break
		}
	}
	return results, nil
}

// matchesFilter reports whether meta satisfies every key in filter: the
// stored value must equal the expected scalar, be a member of the expected
// set when the expected value is array-valued and the stored one is not, or
// contain the expected scalar when the stored value is array-valued.
func matchesFilter(meta store.Metadata, filter store.Metadata) bool {
	for key, expected := range filter {
		actual, ok := meta[key]
		if !ok {
			return false
		}
		if expected.Array && !actual.Array {
			if !expected.Contains(actual) {
				return false
			}
			continue
		}
		if !actual.Contains(expected) {
			return false
		}
	}
	return true
}
