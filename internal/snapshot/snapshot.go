// Package snapshot implements point-in-time JSON persistence of the
// entire repository: create, list, fetch, restore, and delete. Writes
// land via write-then-rename so a reader never
// observes a partially written file, and an inter-process file lock
// (shared with any other process pointed at the same data directory)
// serializes snapshot mutations the way a single-process global lock
// cannot.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/cerplabs/vectordb/internal/apperr"
	"github.com/cerplabs/vectordb/internal/store"
)

// Info is a snapshot's listing metadata.
type Info struct {
	ID        string
	Name      string
	CreatedAt time.Time
	SizeBytes int64
}

// Manager creates, lists, restores, and deletes snapshots under a single
// data directory.
type Manager struct {
	dataDir string
	repo    *store.Repository

	// onRestore is called after a successful restore, with the lock
	// discipline already released, so the caller (normally the index
	// registry) can drop every cached compiled index: none of them are
	// valid against the newly restored chunk set.
	onRestore func()
}

// NewManager constructs a Manager rooted at dataDir. onRestore may be nil.
func NewManager(dataDir string, repo *store.Repository, onRestore func()) (*Manager, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: create data dir: %w", err)
	}
	return &Manager{dataDir: dataDir, repo: repo, onRestore: onRestore}, nil
}

func (m *Manager) lockPath() string {
	return filepath.Join(m.dataDir, ".snapshot.lock")
}

func (m *Manager) pathFor(id string) string {
	return filepath.Join(m.dataDir, id+".snapshot.json")
}

// Create writes a new snapshot named name of the entire repository's
// current state and returns its listing metadata. The repository-wide
// write lock held by ForEachLibrary for the whole traversal gives the dump
// a single consistent point in time. Create fails with InvalidArgument if
// name is empty and with AlreadyExists if name collides with an existing
// snapshot.
func (m *Manager) Create(name string) (Info, error) {
	if name == "" {
		return Info{}, apperr.New(apperr.InvalidArgument, "snapshot name must not be empty")
	}

	fl := flock.New(m.lockPath())
	if err := fl.Lock(); err != nil {
		return Info{}, fmt.Errorf("snapshot: acquire lock: %w", err)
	}
	defer fl.Unlock()

	exists, err := m.nameExists(name)
	if err != nil {
		return Info{}, err
	}
	if exists {
		return Info{}, apperr.Newf(apperr.AlreadyExists, "snapshot %q already exists", name)
	}

	man := manifest{
		Name:          name,
		FormatVersion: FormatVersion,
		CreatedAt:     time.Now().UTC(),
	}
	m.repo.ForEachLibrary(func(libID string, lib store.Library, docs []store.Document, chunks []store.Chunk) {
		dump := libraryDump{Library: toLibraryWire(lib)}
		for _, d := range docs {
			dump.Documents = append(dump.Documents, toDocumentWire(d))
		}
		for _, c := range chunks {
			dump.Chunks = append(dump.Chunks, toChunkWire(c))
		}
		man.Libraries = append(man.Libraries, dump)
	})

	id := uuid.NewString()
	man.ID = id

	data, err := json.MarshalIndent(man, "", "  ")
	if err != nil {
		return Info{}, fmt.Errorf("snapshot: encode: %w", err)
	}

	finalPath := m.pathFor(id)
	tmpPath := finalPath + ".tmp"

	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return Info{}, fmt.Errorf("snapshot: write: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return Info{}, fmt.Errorf("snapshot: finalize: %w", err)
	}

	return Info{ID: id, Name: name, CreatedAt: man.CreatedAt, SizeBytes: int64(len(data))}, nil
}

// nameExists reports whether an existing snapshot is already named name.
// Callers must hold m.lockPath() for the duration.
func (m *Manager) nameExists(name string) (bool, error) {
	matches, err := filepath.Glob(filepath.Join(m.dataDir, "*.snapshot.json"))
	if err != nil {
		return false, fmt.Errorf("snapshot: list: %w", err)
	}
	for _, path := range matches {
		man, _, err := readManifest(path)
		if err != nil {
			continue
		}
		if man.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// List returns every snapshot's metadata, most recently created first.
func (m *Manager) List() ([]Info, error) {
	fl := flock.New(m.lockPath())
	if err := fl.RLock(); err != nil {
		return nil, fmt.Errorf("snapshot: acquire lock: %w", err)
	}
	defer fl.Unlock()

	matches, err := filepath.Glob(filepath.Join(m.dataDir, "*.snapshot.json"))
	if err != nil {
		return nil, fmt.Errorf("snapshot: list: %w", err)
	}

	out := make([]Info, 0, len(matches))
	for _, path := range matches {
		man, size, err := readManifest(path)
		if err != nil {
			continue // a corrupt or partially written snapshot is skipped, not fatal to listing.
		}
		id := filepath.Base(path)
		id = id[:len(id)-len(".snapshot.json")]
		out = append(out, Info{ID: id, Name: man.Name, CreatedAt: man.CreatedAt, SizeBytes: size})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func readManifest(path string) (manifest, int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return manifest{}, 0, err
	}
	var man manifest
	if err := json.Unmarshal(data, &man); err != nil {
		return manifest{}, 0, err
	}
	return man, int64(len(data)), nil
}

// Get returns the raw JSON bytes of snapshot id, for direct HTTP
// passthrough.
func (m *Manager) Get(id string) ([]byte, error) {
	fl := flock.New(m.lockPath())
	if err := fl.RLock(); err != nil {
		return nil, fmt.Errorf("snapshot: acquire lock: %w", err)
	}
	defer fl.Unlock()

	data, err := os.ReadFile(m.pathFor(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.Newf(apperr.NotFound, "snapshot %q not found", id)
		}
		return nil, fmt.Errorf("snapshot: read: %w", err)
	}
	return data, nil
}

// Delete removes snapshot id.
func (m *Manager) Delete(id string) error {
	fl := flock.New(m.lockPath())
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("snapshot: acquire lock: %w", err)
	}
	defer fl.Unlock()

	if err := os.Remove(m.pathFor(id)); err != nil {
		if os.IsNotExist(err) {
			return apperr.Newf(apperr.NotFound, "snapshot %q not found", id)
		}
		return fmt.Errorf("snapshot: delete: %w", err)
	}
	return nil
}

// Restore replaces the entire repository's state with snapshot id's
// contents. The snapshot is fully decoded into local slices before the
// repository is touched (staged load), then swapped into place in one
// atomic call to Repository.ReplaceAll, so a query racing the restore
// either sees the complete old state or the complete new one, never a
// partial mix.
func (m *Manager) Restore(id string) error {
	data, err := m.Get(id)
	if err != nil {
		return err
	}

	var man manifest
	if err := json.Unmarshal(data, &man); err != nil {
		return apperr.Wrap(apperr.SnapshotCorrupt, "snapshot: decode", err)
	}
	if man.FormatVersion != FormatVersion {
		return apperr.Newf(apperr.SnapshotCorrupt, "unsupported snapshot format_version %d", man.FormatVersion)
	}

	libs := make([]store.Library, 0, len(man.Libraries))
	docsByLib := make(map[string][]store.Document, len(man.Libraries))
	chunksByLib := make(map[string][]store.Chunk, len(man.Libraries))

	for _, dump := range man.Libraries {
		lib := fromLibraryWire(dump.Library)
		libs = append(libs, lib)
		for _, d := range dump.Documents {
			docsByLib[lib.ID] = append(docsByLib[lib.ID], fromDocumentWire(d))
		}
		for _, c := range dump.Chunks {
			chunksByLib[lib.ID] = append(chunksByLib[lib.ID], fromChunkWire(c))
		}
	}

	m.repo.ReplaceAll(libs, docsByLib, chunksByLib)

	if m.onRestore != nil {
		m.onRestore()
	}
	return nil
}
