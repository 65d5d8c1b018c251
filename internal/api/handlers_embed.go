package api

import (
	"net/http"

	"github.com/cerplabs/vectordb/internal/apperr"
)

func (s *Server) createEmbedding(w http.ResponseWriter, r *http.Request) {
	if s.embedder == nil {
		writeError(w, apperr.New(apperr.EmbeddingUnavailable, "no embedding provider credential configured"))
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	vec, err := s.embedder.Embed(r.Context(), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Embedding []float32 `json:"embedding"`
	}{Embedding: vec})
}
