package index

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/cerplabs/vectordb/internal/apperr"
	"github.com/cerplabs/vectordb/internal/store"
)

// VectorSource is the subset of store.Repository the registry needs: a way
// to run a callback under a library's read lock against a private
// snapshot of its current vectors. store.Repository satisfies this.
type VectorSource interface {
	WithLibraryRLock(libraryID string, fn func(v *store.LibraryView) error) error
}

type libraryConfig struct {
	algorithm Algorithm
	metric    Metric
}

// Registry compiles, caches, and invalidates one CompiledIndex per
// library. A cache miss triggers a build; concurrent misses for the same
// library coalesce onto a single build via singleflight.Group, so a burst
// of queries against a cold library compiles its index exactly once.
type Registry struct {
	mu       sync.Mutex
	compiled map[string]CompiledIndex
	configs  map[string]libraryConfig

	source VectorSource
	group  singleflight.Group

	defaultAlgorithm Algorithm
	defaultMetric    Metric
	lshNumTables     int
	lshNumPlanes     int
}

// NewRegistry constructs a Registry backed by source, using
// defaultAlgorithm/defaultMetric for any library that has not been
// explicitly configured, and lshNumTables/lshNumPlanes whenever an LSH
// index is built.
func NewRegistry(source VectorSource, defaultAlgorithm Algorithm, defaultMetric Metric, lshNumTables, lshNumPlanes int) *Registry {
	return &Registry{
		compiled:         make(map[string]CompiledIndex),
		configs:          make(map[string]libraryConfig),
		source:           source,
		defaultAlgorithm: defaultAlgorithm,
		defaultMetric:    defaultMetric,
		lshNumTables:     lshNumTables,
		lshNumPlanes:     lshNumPlanes,
	}
}

// Invalidate implements store.Invalidator: it evicts libraryID's compiled
// entry so the next GetOrBuild recompiles it from the current chunk set.
func (r *Registry) Invalidate(libraryID string) {
	r.mu.Lock()
	delete(r.compiled, libraryID)
	r.mu.Unlock()
}

// InvalidateAll evicts every cached compiled index, used after a snapshot
// restore replaces the entire repository's contents.
func (r *Registry) InvalidateAll() {
	r.mu.Lock()
	r.compiled = make(map[string]CompiledIndex)
	r.mu.Unlock()
}

// Configure sets libraryID's desired algorithm and metric, evicts any
// existing compiled entry, and eagerly rebuilds it.
func (r *Registry) Configure(libraryID string, algorithm Algorithm, metric Metric) (Descriptor, error) {
	if err := Validate(algorithm, metric); err != nil {
		return Descriptor{}, err
	}

	r.mu.Lock()
	r.configs[libraryID] = libraryConfig{algorithm: algorithm, metric: metric}
	delete(r.compiled, libraryID)
	r.mu.Unlock()

	idx, err := r.GetOrBuild(libraryID)
	if err != nil {
		return Descriptor{}, err
	}
	return idx.Describe(), nil
}

func (r *Registry) configFor(libraryID string) (Algorithm, Metric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cfg, ok := r.configs[libraryID]; ok {
		return cfg.algorithm, cfg.metric
	}
	return r.defaultAlgorithm, r.defaultMetric
}

func (r *Registry) peek(libraryID string) (CompiledIndex, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.compiled[libraryID]
	return idx, ok
}

func (r *Registry) store(libraryID string, idx CompiledIndex) {
	r.mu.Lock()
	r.compiled[libraryID] = idx
	r.mu.Unlock()
}

// GetOrBuild returns libraryID's compiled index, building it against a
// fresh vector snapshot if no valid entry exists.
func (r *Registry) GetOrBuild(libraryID string) (CompiledIndex, error) {
	if idx, ok := r.peek(libraryID); ok {
		return idx, nil
	}

	result, err, _ := r.group.Do(libraryID, func() (any, error) {
		if idx, ok := r.peek(libraryID); ok {
			return idx, nil
		}

		algorithm, metric := r.configFor(libraryID)
		if err := Validate(algorithm, metric); err != nil {
			return nil, err
		}

		var built CompiledIndex
		err := r.source.WithLibraryRLock(libraryID, func(v *store.LibraryView) error {
			var buildErr error
			switch algorithm {
			case Linear:
				built, buildErr = BuildLinear(metric, v.Dimension, v.IDs, v.Vectors)
			case KDTree:
				built, buildErr = BuildKDTree(v.Dimension, v.IDs, v.Vectors)
			case LSH:
				seed := DeriveSeed(libraryID, r.lshNumTables, r.lshNumPlanes)
				built, buildErr = BuildLSH(seed, v.Dimension, r.lshNumTables, r.lshNumPlanes, v.IDs, v.Vectors)
			default:
				buildErr = apperr.Newf(apperr.InvalidArgument, "unknown index algorithm %q", algorithm)
			}
			return buildErr
		})
		if err != nil {
			return nil, err
		}

		r.store(libraryID, built)
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(CompiledIndex), nil
}

// Describe reports libraryID's compiled index shape, building it on
// demand if it is not already cached.
func (r *Registry) Describe(libraryID string) (Descriptor, error) {
	idx, err := r.GetOrBuild(libraryID)
	if err != nil {
		return Descriptor{}, err
	}
	return idx.Describe(), nil
}
