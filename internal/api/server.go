// Package api implements the thin HTTP adapter over the core packages:
// it decodes requests, calls into store/index/search/snapshot/embedclient,
// and encodes responses. It deliberately uses only the standard library's
// net/http and encoding/json rather than a web framework, favoring a plain
// decoder/encoder loop over routing middleware.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cerplabs/vectordb/internal/apperr"
	"github.com/cerplabs/vectordb/internal/embedclient"
	"github.com/cerplabs/vectordb/internal/index"
	"github.com/cerplabs/vectordb/internal/search"
	"github.com/cerplabs/vectordb/internal/snapshot"
	"github.com/cerplabs/vectordb/internal/store"
)

// Server wires the HTTP surface to the core packages.
type Server struct {
	repo      *store.Repository
	registry  *index.Registry
	search    *search.Service
	snapshots *snapshot.Manager
	embedder  *embedclient.Client

	mux *http.ServeMux
}

// NewServer constructs a Server and registers its routes. embedder may be
// nil when no embedding provider credential is configured; the
// embeddings endpoint then always fails with EmbeddingUnavailable.
func NewServer(repo *store.Repository, registry *index.Registry, svc *search.Service, snapshots *snapshot.Manager, embedder *embedclient.Client) *Server {
	s := &Server{repo: repo, registry: registry, search: svc, snapshots: snapshots, embedder: embedder}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /libraries", s.createLibrary)
	mux.HandleFunc("GET /libraries", s.listLibraries)
	mux.HandleFunc("GET /libraries/{id}", s.getLibrary)
	mux.HandleFunc("PATCH /libraries/{id}", s.updateLibrary)
	mux.HandleFunc("DELETE /libraries/{id}", s.deleteLibrary)

	mux.HandleFunc("POST /libraries/{id}/documents", s.createDocument)
	mux.HandleFunc("GET /libraries/{id}/documents", s.listDocuments)
	mux.HandleFunc("GET /libraries/{id}/documents/{docID}", s.getDocument)
	mux.HandleFunc("PATCH /libraries/{id}/documents/{docID}", s.updateDocument)
	mux.HandleFunc("DELETE /libraries/{id}/documents/{docID}", s.deleteDocument)

	mux.HandleFunc("POST /libraries/{id}/documents/{docID}/chunks", s.createChunk)
	mux.HandleFunc("GET /libraries/{id}/chunks", s.listChunks)
	mux.HandleFunc("GET /libraries/{id}/chunks/{chunkID}", s.getChunk)
	mux.HandleFunc("PATCH /libraries/{id}/chunks/{chunkID}", s.updateChunk)
	mux.HandleFunc("DELETE /libraries/{id}/chunks/{chunkID}", s.deleteChunk)

	mux.HandleFunc("PUT /libraries/{id}/index", s.configureIndex)
	mux.HandleFunc("GET /libraries/{id}/index", s.describeIndex)
	mux.HandleFunc("DELETE /libraries/{id}/index", s.invalidateIndex)

	mux.HandleFunc("POST /libraries/{id}/search", s.runSearch)

	mux.HandleFunc("POST /snapshots", s.createSnapshot)
	mux.HandleFunc("GET /snapshots", s.listSnapshots)
	mux.HandleFunc("GET /snapshots/{id}", s.getSnapshot)
	mux.HandleFunc("DELETE /snapshots/{id}", s.deleteSnapshot)
	mux.HandleFunc("POST /snapshots/{id}/restore", s.restoreSnapshot)

	mux.HandleFunc("POST /embeddings", s.createEmbedding)

	s.mux = mux
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Wrap(apperr.InvalidArgument, "malformed request body", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("api: encode response failed", slog.String("error", err.Error()))
	}
}

var statusByKind = map[apperr.Kind]int{
	apperr.NotFound:             http.StatusNotFound,
	apperr.AlreadyExists:        http.StatusConflict,
	apperr.DimensionMismatch:    http.StatusUnprocessableEntity,
	apperr.InvalidVector:        http.StatusUnprocessableEntity,
	apperr.UnsupportedMetric:    http.StatusUnprocessableEntity,
	apperr.InvalidArgument:      http.StatusBadRequest,
	apperr.SnapshotCorrupt:      http.StatusInternalServerError,
	apperr.EmbeddingUnavailable: http.StatusServiceUnavailable,
	apperr.Internal:             http.StatusInternalServerError,
}

func writeError(w http.ResponseWriter, err error) {
	var ae *apperr.Error
	status := http.StatusInternalServerError
	code := "ERR_INTERNAL"
	message := err.Error()

	if errors.As(err, &ae) {
		if s, ok := statusByKind[ae.Kind]; ok {
			status = s
		}
		code = ae.Code()
		message = ae.Message
	} else {
		slog.Error("api: unclassified error", slog.String("error", err.Error()))
	}

	writeJSON(w, status, map[string]string{"error": code, "message": message})
}
