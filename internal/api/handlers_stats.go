package api

import (
	"net/http"
)

func (s *Server) handleScanStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"stats": s.plugin.Engine().Stats().Snapshot(),
	})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": s.plugin.Notifications().List(),
	})
}

func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	active, _ := s.plugin.Views().Active()
	writeJSON(w, http.StatusOK, map[string]any{
		"views":  s.plugin.Views().List(),
		"active": active,
	})
}
