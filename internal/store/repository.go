package store

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/cerplabs/vectordb/internal/apperr"
	"github.com/cerplabs/vectordb/internal/lock"
)

// Invalidator is notified whenever a mutation changes a library's chunk set
// or a chunk's embedding. The Repository calls Invalidate while still
// holding the affected library's write lock, so the index registry's
// eviction is visible before the mutation itself becomes visible to new
// readers.
type Invalidator interface {
	Invalidate(libraryID string)
}

// libraryRecord is the Repository's internal per-library storage unit: its
// own reader-writer lock, the library record itself, and its owned
// documents/chunks.
type libraryRecord struct {
	lock *lock.RWMutex

	lib         Library
	documents   map[string]*Document
	chunks      map[string]*Chunk            // keyed by chunk id, O(1) lookup
	chunksByDoc map[string]map[string]struct{} // document id -> member chunk ids
}

// Repository is the in-memory CRUD store for libraries, documents, and
// chunks. A single process-wide RWMutex guards the library set itself
// (create/delete/rename); each library additionally has its own RWMutex
// guarding its documents and chunks. Callers must acquire the global lock
// before any per-library lock to avoid lock-ordering deadlocks; the
// Repository's own methods already respect this internally.
type Repository struct {
	global *lock.RWMutex

	libraries map[string]*libraryRecord
	namesToID map[string]string

	invalidator Invalidator
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{
		global:    lock.New(),
		libraries: make(map[string]*libraryRecord),
		namesToID: make(map[string]string),
	}
}

// SetInvalidator registers the component (normally an index.Registry)
// notified on every mutation that changes a library's chunk set.
func (r *Repository) SetInvalidator(inv Invalidator) {
	r.invalidator = inv
}

func (r *Repository) notify(libraryID string) {
	if r.invalidator != nil {
		r.invalidator.Invalidate(libraryID)
	}
}

// lookup returns the library record for id, acquiring only the global read
// lock for the duration of the map access.
func (r *Repository) lookup(id string) (*libraryRecord, error) {
	r.global.RLock()
	rec, ok := r.libraries[id]
	r.global.RUnlock()
	if !ok {
		return nil, apperr.Newf(apperr.NotFound, "library %q not found", id)
	}
	return rec, nil
}

// --- Library CRUD -----------------------------------------------------

// LibraryPatch describes an update to a library; nil fields are left
// unchanged.
type LibraryPatch struct {
	Name        *string
	Description *string
	Metadata    Metadata
}

// CreateLibrary creates a new, empty library. Fails with AlreadyExists if
// name collides with an existing library.
func (r *Repository) CreateLibrary(name, description string, metadata Metadata) (Library, error) {
	if name == "" {
		return Library{}, apperr.New(apperr.InvalidArgument, "library name must not be empty")
	}

	r.global.Lock()
	defer r.global.Unlock()

	if _, exists := r.namesToID[name]; exists {
		return Library{}, apperr.Newf(apperr.AlreadyExists, "library named %q already exists", name)
	}

	now := time.Now()
	lib := Library{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Metadata:    metadata.Clone(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	rec := &libraryRecord{
		lock:        lock.New(),
		lib:         lib,
		documents:   make(map[string]*Document),
		chunks:      make(map[string]*Chunk),
		chunksByDoc: make(map[string]map[string]struct{}),
	}

	r.libraries[lib.ID] = rec
	r.namesToID[name] = lib.ID
	return lib, nil
}

// GetLibrary returns a copy of the library record for id.
func (r *Repository) GetLibrary(id string) (Library, error) {
	rec, err := r.lookup(id)
	if err != nil {
		return Library{}, err
	}
	rec.lock.RLock()
	defer rec.lock.RUnlock()
	return rec.lib, nil
}

// ListLibraries returns every library, ordered by name for reproducible
// output.
func (r *Repository) ListLibraries() []Library {
	r.global.RLock()
	recs := make([]*libraryRecord, 0, len(r.libraries))
	for _, rec := range r.libraries {
		recs = append(recs, rec)
	}
	r.global.RUnlock()

	out := make([]Library, 0, len(recs))
	for _, rec := range recs {
		rec.lock.RLock()
		out = append(out, rec.lib)
		rec.lock.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// UpdateLibrary applies patch to library id. Renaming takes the global
// write lock (name uniqueness spans all libraries); the per-library write
// lock is always taken to apply the change.
func (r *Repository) UpdateLibrary(id string, patch LibraryPatch) (Library, error) {
	// A rename mutates the shared namesToID index, so it needs the
	// global write lock; a metadata/description-only patch only ever
	// touches the library's own record, so it takes the global lock just
	// for the map lookup, same as lookup().
	renaming := patch.Name != nil

	var rec *libraryRecord
	var ok bool
	if renaming {
		r.global.Lock()
		defer r.global.Unlock()
		rec, ok = r.libraries[id]
	} else {
		r.global.RLock()
		rec, ok = r.libraries[id]
		r.global.RUnlock()
	}
	if !ok {
		return Library{}, apperr.Newf(apperr.NotFound, "library %q not found", id)
	}

	rec.lock.Lock()
	defer rec.lock.Unlock()

	if patch.Name != nil {
		newName := *patch.Name
		if newName == "" {
			return Library{}, apperr.New(apperr.InvalidArgument, "library name must not be empty")
		}
		if existingID, exists := r.namesToID[newName]; exists && existingID != id {
			return Library{}, apperr.Newf(apperr.AlreadyExists, "library named %q already exists", newName)
		}
		delete(r.namesToID, rec.lib.Name)
		r.namesToID[newName] = id
		rec.lib.Name = newName
	}
	if patch.Description != nil {
		rec.lib.Description = *patch.Description
	}
	if patch.Metadata != nil {
		rec.lib.Metadata = patch.Metadata.Clone()
	}
	rec.lib.UpdatedAt = time.Now()

	return rec.lib, nil
}

// DeleteLibrary removes library id and cascades to all of its documents
// and chunks.
func (r *Repository) DeleteLibrary(id string) error {
	r.global.Lock()
	defer r.global.Unlock()

	rec, ok := r.libraries[id]
	if !ok {
		return apperr.Newf(apperr.NotFound, "library %q not found", id)
	}
	delete(r.libraries, id)
	delete(r.namesToID, rec.lib.Name)

	if len(rec.chunks) > 0 {
		r.notify(id)
	}
	return nil
}

// --- Document CRUD ------------------------------------------------------

// DocumentPatch describes an update to a document; nil fields are left
// unchanged.
type DocumentPatch struct {
	Title       *string
	Description *string
	Metadata    Metadata
}

// CreateDocument creates a document under libID.
func (r *Repository) CreateDocument(libID, title, description string, metadata Metadata) (Document, error) {
	if title == "" {
		return Document{}, apperr.New(apperr.InvalidArgument, "document title must not be empty")
	}

	rec, err := r.lookup(libID)
	if err != nil {
		return Document{}, err
	}

	rec.lock.Lock()
	defer rec.lock.Unlock()

	now := time.Now()
	doc := Document{
		ID:          uuid.NewString(),
		LibraryID:   libID,
		Title:       title,
		Description: description,
		Metadata:    metadata.Clone(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	rec.documents[doc.ID] = &doc
	rec.chunksByDoc[doc.ID] = make(map[string]struct{})
	return doc, nil
}

// GetDocument returns document docID within library libID.
func (r *Repository) GetDocument(libID, docID string) (Document, error) {
	rec, err := r.lookup(libID)
	if err != nil {
		return Document{}, err
	}
	rec.lock.RLock()
	defer rec.lock.RUnlock()

	doc, ok := rec.documents[docID]
	if !ok {
		return Document{}, apperr.Newf(apperr.NotFound, "document %q not found", docID)
	}
	return *doc, nil
}

// ListDocuments returns every document owned by library libID, ordered by
// title.
func (r *Repository) ListDocuments(libID string) ([]Document, error) {
	rec, err := r.lookup(libID)
	if err != nil {
		return nil, err
	}
	rec.lock.RLock()
	defer rec.lock.RUnlock()

	out := make([]Document, 0, len(rec.documents))
	for _, doc := range rec.documents {
		out = append(out, *doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

// UpdateDocument applies patch to document docID in library libID.
func (r *Repository) UpdateDocument(libID, docID string, patch DocumentPatch) (Document, error) {
	rec, err := r.lookup(libID)
	if err != nil {
		return Document{}, err
	}
	rec.lock.Lock()
	defer rec.lock.Unlock()

	doc, ok := rec.documents[docID]
	if !ok {
		return Document{}, apperr.Newf(apperr.NotFound, "document %q not found", docID)
	}
	if patch.Title != nil {
		if *patch.Title == "" {
			return Document{}, apperr.New(apperr.InvalidArgument, "document title must not be empty")
		}
		doc.Title = *patch.Title
	}
	if patch.Description != nil {
		doc.Description = *patch.Description
	}
	if patch.Metadata != nil {
		doc.Metadata = patch.Metadata.Clone()
	}
	doc.UpdatedAt = time.Now()
	return *doc, nil
}

// DeleteDocument removes document docID and cascades to all of its chunks,
// invalidating the library's compiled index if any chunks were removed.
func (r *Repository) DeleteDocument(libID, docID string) error {
	rec, err := r.lookup(libID)
	if err != nil {
		return err
	}
	rec.lock.Lock()
	defer rec.lock.Unlock()

	if _, ok := rec.documents[docID]; !ok {
		return apperr.Newf(apperr.NotFound, "document %q not found", docID)
	}

	memberChunks := rec.chunksByDoc[docID]
	for chunkID := range memberChunks {
		delete(rec.chunks, chunkID)
	}
	delete(rec.chunksByDoc, docID)
	delete(rec.documents, docID)

	if len(memberChunks) > 0 {
		r.notify(libID)
	}
	return nil
}

// --- Chunk CRUD ----------------------------------------------------------

// ChunkPatch describes an update to a chunk; nil fields are left unchanged.
// A non-nil Embedding replaces the stored vector and invalidates the
// owning library's index; a metadata-only update does not.
type ChunkPatch struct {
	Text      *string
	Embedding []float32
	Metadata  Metadata
}

// CreateChunk creates a chunk under document docID in library libID. The
// first chunk created in a library fixes its embedding dimension; later
// chunks with a mismatched length are rejected with DimensionMismatch.
func (r *Repository) CreateChunk(libID, docID, text string, embedding []float32, metadata Metadata) (Chunk, error) {
	rec, err := r.lookup(libID)
	if err != nil {
		return Chunk{}, err
	}
	rec.lock.Lock()
	defer rec.lock.Unlock()

	if _, ok := rec.documents[docID]; !ok {
		return Chunk{}, apperr.Newf(apperr.NotFound, "document %q not found", docID)
	}
	if len(embedding) == 0 {
		return Chunk{}, apperr.New(apperr.InvalidArgument, "embedding must not be empty")
	}

	if rec.lib.Dimension == 0 {
		rec.lib.Dimension = len(embedding)
	} else if len(embedding) != rec.lib.Dimension {
		return Chunk{}, apperr.Newf(apperr.DimensionMismatch,
			"chunk embedding has dimension %d, library is established at %d", len(embedding), rec.lib.Dimension)
	}

	vec := make([]float32, len(embedding))
	copy(vec, embedding)

	now := time.Now()
	chunk := Chunk{
		ID:         uuid.NewString(),
		DocumentID: docID,
		LibraryID:  libID,
		Text:       text,
		Embedding:  vec,
		Metadata:   metadata.Clone(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	rec.chunks[chunk.ID] = &chunk
	rec.chunksByDoc[docID][chunk.ID] = struct{}{}

	r.notify(libID)
	return chunk, nil
}

// GetChunk returns chunk chunkID within library libID.
func (r *Repository) GetChunk(libID, chunkID string) (Chunk, error) {
	rec, err := r.lookup(libID)
	if err != nil {
		return Chunk{}, err
	}
	rec.lock.RLock()
	defer rec.lock.RUnlock()

	chunk, ok := rec.chunks[chunkID]
	if !ok {
		return Chunk{}, apperr.Newf(apperr.NotFound, "chunk %q not found", chunkID)
	}
	return *chunk, nil
}

// ListChunks returns every chunk in library libID, optionally scoped to a
// single document when docID is non-nil.
func (r *Repository) ListChunks(libID string, docID *string) ([]Chunk, error) {
	rec, err := r.lookup(libID)
	if err != nil {
		return nil, err
	}
	rec.lock.RLock()
	defer rec.lock.RUnlock()

	if docID != nil {
		members, ok := rec.chunksByDoc[*docID]
		if !ok {
			return nil, apperr.Newf(apperr.NotFound, "document %q not found", *docID)
		}
		out := make([]Chunk, 0, len(members))
		for id := range members {
			out = append(out, *rec.chunks[id])
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return out, nil
	}

	out := make([]Chunk, 0, len(rec.chunks))
	for _, chunk := range rec.chunks {
		out = append(out, *chunk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateChunk applies patch to chunk chunkID in library libID.
func (r *Repository) UpdateChunk(libID, chunkID string, patch ChunkPatch) (Chunk, error) {
	rec, err := r.lookup(libID)
	if err != nil {
		return Chunk{}, err
	}
	rec.lock.Lock()
	defer rec.lock.Unlock()

	chunk, ok := rec.chunks[chunkID]
	if !ok {
		return Chunk{}, apperr.Newf(apperr.NotFound, "chunk %q not found", chunkID)
	}

	embeddingChanged := false
	if patch.Embedding != nil {
		if len(patch.Embedding) != rec.lib.Dimension {
			return Chunk{}, apperr.Newf(apperr.DimensionMismatch,
				"chunk embedding has dimension %d, library is established at %d", len(patch.Embedding), rec.lib.Dimension)
		}
		vec := make([]float32, len(patch.Embedding))
		copy(vec, patch.Embedding)
		chunk.Embedding = vec
		embeddingChanged = true
	}
	if patch.Text != nil {
		chunk.Text = *patch.Text
	}
	if patch.Metadata != nil {
		chunk.Metadata = patch.Metadata.Clone()
	}
	chunk.UpdatedAt = time.Now()

	// A metadata-only update does not invalidate the index: only an
	// embedding change does.
	if embeddingChanged {
		r.notify(libID)
	}
	return *chunk, nil
}

// DeleteChunk removes chunk chunkID from library libID.
func (r *Repository) DeleteChunk(libID, chunkID string) error {
	rec, err := r.lookup(libID)
	if err != nil {
		return err
	}
	rec.lock.Lock()
	defer rec.lock.Unlock()

	chunk, ok := rec.chunks[chunkID]
	if !ok {
		return apperr.Newf(apperr.NotFound, "chunk %q not found", chunkID)
	}
	delete(rec.chunks, chunkID)
	if members, ok := rec.chunksByDoc[chunk.DocumentID]; ok {
		delete(members, chunkID)
	}

	r.notify(libID)
	return nil
}

// --- Index build/search support ------------------------------------------

// LibraryView is a point-in-time, private copy of a library's chunk set,
// handed to a WithLibraryRLock callback. Because it is a copy taken while
// the library's read lock was held, it remains safe to read after the lock
// has been released — nothing else shares it.
type LibraryView struct {
	Dimension int
	IDs       []string
	Vectors   [][]float32
	chunks    map[string]*Chunk
}

// Chunk resolves id against the view's chunk snapshot.
func (v *LibraryView) Chunk(id string) (*Chunk, bool) {
	c, ok := v.chunks[id]
	return c, ok
}

// Size returns the number of chunks captured in the view.
func (v *LibraryView) Size() int { return len(v.chunks) }

// WithLibraryRLock acquires library libID's read lock, builds a
// LibraryView snapshot of its current chunks, and invokes fn with it while
// still holding the lock. Any on-demand index build that fn triggers
// therefore runs under the same read lock as the chunk snapshot, so no
// write can interleave between the two.
func (r *Repository) WithLibraryRLock(libID string, fn func(v *LibraryView) error) error {
	rec, err := r.lookup(libID)
	if err != nil {
		return err
	}
	rec.lock.RLock()
	defer rec.lock.RUnlock()

	v := &LibraryView{
		Dimension: rec.lib.Dimension,
		IDs:       make([]string, 0, len(rec.chunks)),
		Vectors:   make([][]float32, 0, len(rec.chunks)),
		chunks:    make(map[string]*Chunk, len(rec.chunks)),
	}
	for id, c := range rec.chunks {
		v.IDs = append(v.IDs, id)
		v.Vectors = append(v.Vectors, c.Embedding)
		cc := *c
		v.chunks[id] = &cc
	}
	return fn(v)
}

// SnapshotChunks returns a private copy of library libID's current
// chunk-id-to-chunk mapping, taken under the library's read lock. Callers
// (notably search) use this to resolve index query results to chunks
// without holding the lock for the resolution step itself.
func (r *Repository) SnapshotChunks(libID string) (map[string]*Chunk, error) {
	rec, err := r.lookup(libID)
	if err != nil {
		return nil, err
	}
	rec.lock.RLock()
	defer rec.lock.RUnlock()

	out := make(map[string]*Chunk, len(rec.chunks))
	for id, c := range rec.chunks {
		cc := *c
		out[id] = &cc
	}
	return out, nil
}

// --- Snapshot support ------------------------------------------------

// ForEachLibrary invokes fn for every library while holding the global
// write lock for the duration — used by snapshot creation to obtain a
// point-in-time consistent view of all libraries. Every mutation looks its
// library up under the global lock first, so none can start mid-traversal.
func (r *Repository) ForEachLibrary(fn func(libID string, lib Library, docs []Document, chunks []Chunk)) {
	r.global.Lock()
	defer r.global.Unlock()

	ids := make([]string, 0, len(r.libraries))
	for id := range r.libraries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		rec := r.libraries[id]
		rec.lock.RLock()
		docs := make([]Document, 0, len(rec.documents))
		for _, d := range rec.documents {
			docs = append(docs, *d)
		}
		sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

		chunks := make([]Chunk, 0, len(rec.chunks))
		for _, c := range rec.chunks {
			chunks = append(chunks, *c)
		}
		sort.Slice(chunks, func(i, j int) bool { return chunks[i].ID < chunks[j].ID })

		lib := rec.lib
		rec.lock.RUnlock()

		fn(id, lib, docs, chunks)
	}
}

// ReplaceAll atomically swaps the entire repository state, used by
// snapshot restore, under the repository's own global write lock so no
// reader observes a partial swap.
func (r *Repository) ReplaceAll(libs []Library, docsByLib map[string][]Document, chunksByLib map[string][]Chunk) {
	r.global.Lock()
	defer r.global.Unlock()

	newLibraries := make(map[string]*libraryRecord, len(libs))
	newNames := make(map[string]string, len(libs))

	for _, lib := range libs {
		rec := &libraryRecord{
			lock:        lock.New(),
			lib:         lib,
			documents:   make(map[string]*Document),
			chunks:      make(map[string]*Chunk),
			chunksByDoc: make(map[string]map[string]struct{}),
		}
		for _, d := range docsByLib[lib.ID] {
			doc := d
			rec.documents[doc.ID] = &doc
			rec.chunksByDoc[doc.ID] = make(map[string]struct{})
		}
		for _, c := range chunksByLib[lib.ID] {
			chunk := c
			rec.chunks[chunk.ID] = &chunk
			if members, ok := rec.chunksByDoc[chunk.DocumentID]; ok {
				members[chunk.ID] = struct{}{}
			}
		}
		newLibraries[lib.ID] = rec
		newNames[lib.Name] = lib.ID
	}

	r.libraries = newLibraries
	r.namesToID = newNames
}

// GlobalRLock/GlobalRUnlock expose the process-wide lock's read side
// directly. ForEachLibrary and ReplaceAll acquire the global lock
// themselves, and the lock is not reentrant, so neither may be called while
// holding it.
func (r *Repository) GlobalRLock()   { r.global.RLock() }
func (r *Repository) GlobalRUnlock() { r.global.RUnlock() }

// GlobalLock/GlobalUnlock expose the process-wide write lock directly; the
// same non-reentrancy caveat applies.
func (r *Repository) GlobalLock()   { r.global.Lock() }
func (r *Repository) GlobalUnlock() { r.global.Unlock() }
