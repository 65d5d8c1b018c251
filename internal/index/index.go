package index

// CompiledIndex is a built, queryable index over one library's chunk
// vectors at the moment it was compiled. It is immutable: a mutation to
// the underlying library never updates a CompiledIndex in place, it only
// invalidates the registry's cached pointer to one (see registry.go).
type CompiledIndex interface {
	// Query returns up to k matches for q, ordered by descending score.
	Query(q []float32, k int) ([]Match, error)

	// Size reports how many vectors the index was built over.
	Size() int

	// Describe reports the static shape of the compiled index for
	// introspection, deliberately excluding internals like bucket
	// contents or tree nodes.
	Describe() Descriptor
}

// Descriptor is the introspectable summary of a CompiledIndex.
type Descriptor struct {
	Algorithm Algorithm
	Metric    Metric
	Size      int
	Dimension int

	// StaleEntries is reserved for a future incremental-update mode; full
	// rebuild-on-invalidation means it is always 0 today.
	StaleEntries int
}
