package api

import (
	"net/http"

	"github.com/cerplabs/vectordb/internal/store"
)

func (s *Server) createLibrary(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Metadata    store.Metadata `json:"metadata,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	lib, err := s.repo.CreateLibrary(req.Name, req.Description, req.Metadata)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, lib)
}

func (s *Server) listLibraries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.repo.ListLibraries())
}

func (s *Server) getLibrary(w http.ResponseWriter, r *http.Request) {
	lib, err := s.repo.GetLibrary(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lib)
}

func (s *Server) updateLibrary(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        *string        `json:"name"`
		Description *string        `json:"description"`
		Metadata    store.Metadata `json:"metadata,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	lib, err := s.repo.UpdateLibrary(r.PathValue("id"), store.LibraryPatch{
		Name:        req.Name,
		Description: req.Description,
		Metadata:    req.Metadata,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lib)
}

func (s *Server) deleteLibrary(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteLibrary(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
