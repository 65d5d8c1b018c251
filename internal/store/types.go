// Package store implements the in-memory hierarchical data model — Library,
// Document, Chunk — and the Repository that owns it under a simple
// locking discipline: one reader-writer lock per library, plus a
// process-wide lock guarding the library set itself.
package store

import "time"

// MetaKind is the closed set of scalar kinds a MetaValue can hold.
type MetaKind int

const (
	MetaString MetaKind = iota
	MetaNumber
	MetaBool
)

// MetaValue is a JSON-like scalar or a homogeneous array of scalars. It
// exists so the metadata-filter predicate in search and the snapshot
// JSON encoding have unambiguous equality and containment semantics,
// instead of comparing bare `any` values.
type MetaValue struct {
	Kind MetaKind

	// Scalar fields; only the one matching Kind is meaningful when Array
	// is false.
	Str  string
	Num  float64
	Bool bool

	// Array, when true, means this value is a set of scalars of Kind; the
	// elements live in StrArr/NumArr/BoolArr according to Kind.
	Array   bool
	StrArr  []string
	NumArr  []float64
	BoolArr []bool
}

// StringMeta builds a scalar string MetaValue.
func StringMeta(s string) MetaValue { return MetaValue{Kind: MetaString, Str: s} }

// NumberMeta builds a scalar numeric MetaValue.
func NumberMeta(n float64) MetaValue { return MetaValue{Kind: MetaNumber, Num: n} }

// BoolMeta builds a scalar boolean MetaValue.
func BoolMeta(b bool) MetaValue { return MetaValue{Kind: MetaBool, Bool: b} }

// StringSetMeta builds a set-valued string MetaValue.
func StringSetMeta(ss []string) MetaValue {
	return MetaValue{Kind: MetaString, Array: true, StrArr: ss}
}

// Equal reports whether two MetaValues have the same Kind and shape and
// hold the same value: two scalars compare directly, two arrays compare
// element-wise in order, and a scalar is never Equal to an array.
func (v MetaValue) Equal(other MetaValue) bool {
	if v.Kind != other.Kind || v.Array != other.Array {
		return false
	}
	if !v.Array {
		switch v.Kind {
		case MetaString:
			return v.Str == other.Str
		case MetaNumber:
			return v.Num == other.Num
		case MetaBool:
			return v.Bool == other.Bool
		}
		return false
	}
	switch v.Kind {
	case MetaString:
		return equalStrings(v.StrArr, other.StrArr)
	case MetaNumber:
		return equalNumbers(v.NumArr, other.NumArr)
	case MetaBool:
		return equalBools(v.BoolArr, other.BoolArr)
	}
	return false
}

// Contains reports whether scalar is a member of v, when v is array-valued,
// or equal to v, when v is scalar. The metadata-filter predicate calls it
// on a stored value to test an expected scalar, and on an expected set to
// test a stored scalar.
func (v MetaValue) Contains(scalar MetaValue) bool {
	if !v.Array {
		return v.Equal(scalar)
	}
	switch v.Kind {
	case MetaString:
		for _, s := range v.StrArr {
			if s == scalar.Str {
				return true
			}
		}
	case MetaNumber:
		for _, n := range v.NumArr {
			if n == scalar.Num {
				return true
			}
		}
	case MetaBool:
		for _, b := range v.BoolArr {
			if b == scalar.Bool {
				return true
			}
		}
	}
	return false
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalNumbers(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalBools(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Metadata is a free-form key-value mapping attached to libraries,
// documents, and chunks.
type Metadata map[string]MetaValue

// Clone returns a shallow copy of m, safe for a caller to mutate without
// affecting the stored record.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Library is the top level of the ownership hierarchy: a named collection
// of documents sharing one embedding dimension and one compiled index.
type Library struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Metadata    Metadata  `json:"metadata,omitempty"`

	// Dimension is fixed by the first chunk created in this library; 0
	// means no chunk has been created yet.
	Dimension int `json:"dimension"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Document belongs to exactly one Library and owns zero or more Chunks.
type Document struct {
	ID          string   `json:"id"`
	LibraryID   string   `json:"library_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Metadata    Metadata `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Chunk is the unit that carries an embedding: a piece of text belonging
// to a Document, denormalizing its parent Library id for fast index
// lookups.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	LibraryID  string    `json:"library_id"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"embedding"`
	Metadata   Metadata  `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
