package api

import (
	"net/http"

	"github.com/cerplabs/vectordb/internal/store"
)

func (s *Server) createDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string         `json:"title"`
		Description string         `json:"description"`
		Metadata    store.Metadata `json:"metadata,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	doc, err := s.repo.CreateDocument(r.PathValue("id"), req.Title, req.Description, req.Metadata)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.repo.ListDocuments(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.repo.GetDocument(r.PathValue("id"), r.PathValue("docID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) updateDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       *string        `json:"title"`
		Description *string        `json:"description"`
		Metadata    store.Metadata `json:"metadata,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	doc, err := s.repo.UpdateDocument(r.PathValue("id"), r.PathValue("docID"), store.DocumentPatch{
		Title:       req.Title,
		Description: req.Description,
		Metadata:    req.Metadata,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteDocument(r.PathValue("id"), r.PathValue("docID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
