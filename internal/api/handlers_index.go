package api

import (
	"net/http"

	"github.com/cerplabs/vectordb/internal/index"
)

func (s *Server) configureIndex(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Algorithm string `json:"algorithm"`
		Metric    string `json:"metric"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	desc, err := s.registry.Configure(r.PathValue("id"), index.Algorithm(req.Algorithm), index.Metric(req.Metric))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, desc)
}

func (s *Server) describeIndex(w http.ResponseWriter, r *http.Request) {
	desc, err := s.registry.Describe(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, desc)
}

func (s *Server) invalidateIndex(w http.ResponseWriter, r *http.Request) {
	libID := r.PathValue("id")
	if _, err := s.repo.GetLibrary(libID); err != nil {
		writeError(w, err)
		return
	}
	s.registry.Invalidate(libID)
	writeJSON(w, http.StatusNoContent, nil)
}
