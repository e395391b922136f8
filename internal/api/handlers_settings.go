package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/tablelens/internal/settings"
)

const maxSettingsBody = 64 << 10

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.plugin.Settings().Current())
}

// handlePutSettings replaces the settings. Fields omitted from the body keep
// their current values.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	store := s.plugin.Settings()
	next := store.Current()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSettingsBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&next); err != nil {
		jsonError(w, "invalid settings body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := store.Save(next); err != nil {
		if errors.Is(err, settings.ErrInvalid) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.log.Error("settings save failed", "error", err)
		jsonError(w, "failed to save settings: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, store.Current())
}
