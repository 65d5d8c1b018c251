// Package search implements the query-time service: given a library,
// a query vector, and a result count k, it resolves (or triggers) that
// library's compiled index, queries it, resolves matches back to chunks,
// and applies an optional metadata filter before returning the top k.
//
// The functional-options shape here (an unexported options struct, a
// variadic Option constructor) follows the common Go convention for an
// optional-parameter API rather than a bespoke request struct.
package search

import "github.com/cerplabs/vectordb/internal/store"

// Option configures a single Search call.
type Option func(*options)

type options struct {
	filter          store.Metadata
	overfetchFactor int
}

// WithFilter restricts results to chunks whose metadata satisfies every
// key in filter: the stored value must equal the expected scalar, be a
// member of the expected set when the expected value is array-valued and
// the stored one is not, or contain the expected scalar when the stored
// value is array-valued.
func WithFilter(filter store.Metadata) Option {
	return func(o *options) {
		o.filter = filter
	}
}

// WithOverfetch sets how many candidates are requested from the index per
// requested result (k * factor), overriding the automatic default. Useful
// when a caller expects a filter to reject a large fraction of the
// nearest neighbors and wants a wider first pass.
func WithOverfetch(factor int) Option {
	return func(o *options) {
		o.overfetchFactor = factor
	}
}

// resolve applies defaults: an unfiltered search overfetches by 1x (no
// slack needed), a filtered search overfetches by 4x to absorb candidates
// the filter will reject, unless the caller supplied an explicit factor.
func resolve(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.overfetchFactor <= 0 {
		if o.filter != nil {
			o.overfetchFactor = 4
		} else {
			o.overfetchFactor = 1
		}
	}
	return o
}
