package api

import (
	"errors"
	"net/http"

	"github.com/dgallion1/tablelens/internal/inject"
	"github.com/go-chi/chi/v5"
)

// handleClick activates an add control. The engine reports failures to the
// notification sink itself; the response only carries the outcome.
func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	controlID := chi.URLParam(r, "controlID")

	ref, err := s.plugin.Engine().Click(r.Context(), controlID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, map[string]string{"path": ref.Path})
	case errors.Is(err, inject.ErrControlNotFound):
		jsonError(w, "control not found: "+controlID, http.StatusNotFound)
	case errors.Is(err, inject.ErrClosed):
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		jsonError(w, "failed to create document: "+err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.plugin.Scan(r.Context()))
}
