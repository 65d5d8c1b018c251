package api

import (
	"net/http"

	"github.com/cerplabs/vectordb/internal/search"
	"github.com/cerplabs/vectordb/internal/store"
)

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query     []float32      `json:"query"`
		K         int            `json:"k"`
		Filter    store.Metadata `json:"filter,omitempty"`
		Overfetch int            `json:"overfetch,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var opts []search.Option
	if req.Filter != nil {
		opts = append(opts, search.WithFilter(req.Filter))
	}
	if req.Overfetch > 0 {
		opts = append(opts, search.WithOverfetch(req.Overfetch))
	}

	results, err := s.search.Search(r.PathValue("id"), req.Query, req.K, opts...)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
