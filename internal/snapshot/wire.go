package snapshot

import (
	"time"

	"github.com/cerplabs/vectordb/internal/store"
)

// FormatVersion is the current snapshot wire format. Restore rejects any
// snapshot whose format_version it does not recognize rather than guess
// at a schema it was never written for.
const FormatVersion = 1

// manifest is the full JSON document written to disk for one snapshot.
type manifest struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	FormatVersion int           `json:"format_version"`
	CreatedAt     time.Time     `json:"created_at"`
	Libraries     []libraryDump `json:"libraries"`
}

type libraryDump struct {
	Library   libraryWire    `json:"library"`
	Documents []documentWire `json:"documents"`
	Chunks    []chunkWire    `json:"chunks"`
}

type libraryWire struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Metadata    store.Metadata  `json:"metadata,omitempty"`
	Dimension   int             `json:"dimension"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type documentWire struct {
	ID          string         `json:"id"`
	LibraryID   string         `json:"library_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Metadata    store.Metadata `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type chunkWire struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"document_id"`
	LibraryID  string         `json:"library_id"`
	Text       string         `json:"text"`
	Embedding  []float32      `json:"embedding"`
	Metadata   store.Metadata `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func toLibraryWire(l store.Library) libraryWire {
	return libraryWire{
		ID:          l.ID,
		Name:        l.Name,
		Description: l.Description,
		Metadata:    l.Metadata,
		Dimension:   l.Dimension,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func toDocumentWire(d store.Document) documentWire {
	return documentWire{
		ID:          d.ID,
		LibraryID:   d.LibraryID,
		Title:       d.Title,
		Description: d.Description,
		Metadata:    d.Metadata,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func toChunkWire(c store.Chunk) chunkWire {
	return chunkWire{
		ID:         c.ID,
		DocumentID: c.DocumentID,
		LibraryID:  c.LibraryID,
		Text:       c.Text,
		Embedding:  c.Embedding,
		Metadata:   c.Metadata,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func fromLibraryWire(w libraryWire) store.Library {
	return store.Library{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Metadata:    w.Metadata,
		Dimension:   w.Dimension,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func fromDocumentWire(w documentWire) store.Document {
	return store.Document{
		ID:          w.ID,
		LibraryID:   w.LibraryID,
		Title:       w.Title,
		Description: w.Description,
		Metadata:    w.Metadata,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func fromChunkWire(w chunkWire) store.Chunk {
	return store.Chunk{
		ID:         w.ID,
		DocumentID: w.DocumentID,
		LibraryID:  w.LibraryID,
		Text:       w.Text,
		Embedding:  w.Embedding,
		Metadata:   w.Metadata,
		CreatedAt:  w.CreatedAt,
		UpdatedAt:  w.UpdatedAt,
	}
}
