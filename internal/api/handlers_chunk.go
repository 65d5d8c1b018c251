package api

import (
	"net/http"

	"github.com/cerplabs/vectordb/internal/store"
)

func (s *Server) createChunk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text      string         `json:"text"`
		Embedding []float32      `json:"embedding"`
		Metadata  store.Metadata `json:"metadata,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	chunk, err := s.repo.CreateChunk(r.PathValue("id"), r.PathValue("docID"), req.Text, req.Embedding, req.Metadata)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, chunk)
}

func (s *Server) listChunks(w http.ResponseWriter, r *http.Request) {
	var docID *string
	if v := r.URL.Query().Get("document_id"); v != "" {
		docID = &v
	}
	chunks, err := s.repo.ListChunks(r.PathValue("id"), docID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chunks)
}

func (s *Server) getChunk(w http.ResponseWriter, r *http.Request) {
	chunk, err := s.repo.GetChunk(r.PathValue("id"), r.PathValue("chunkID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chunk)
}

func (s *Server) updateChunk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text      *string        `json:"text"`
		Embedding []float32      `json:"embedding,omitempty"`
		Metadata  store.Metadata `json:"metadata,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	chunk, err := s.repo.UpdateChunk(r.PathValue("id"), r.PathValue("chunkID"), store.ChunkPatch{
		Text:      req.Text,
		Embedding: req.Embedding,
		Metadata:  req.Metadata,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chunk)
}

func (s *Server) deleteChunk(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteChunk(r.PathValue("id"), r.PathValue("chunkID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
