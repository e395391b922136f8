package api

import (
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/dgallion1/tablelens/internal/vault"
	"github.com/go-chi/chi/v5"
)

var docPage = template.Must(template.New("doc").Parse(`<!DOCTYPE html>
<html><head><title>{{.Title}}</title></head>
<body><article class="markdown-preview-view" data-path="{{.Path}}">{{.Body}}</article></body></html>
`))

// handleView serves the live tree, including everything injected into it.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte("<!DOCTYPE html>\n"))
	if err := s.plugin.Tree().Render(w); err != nil {
		s.log.Warn("view render failed", "error", err)
	}
}

// handleDoc renders one vault document and makes it the active view.
func (s *Server) handleDoc(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if path == "" {
		jsonError(w, "document path is required", http.StatusBadRequest)
		return
	}

	body, err := s.plugin.DocView().Render(r.Context(), path)
	switch {
	case err == nil:
	case errors.Is(err, vault.ErrInvalidPath):
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, fs.ErrNotExist):
		jsonError(w, "document not found", http.StatusNotFound)
		return
	default:
		jsonError(w, "failed to render document: "+err.Error(), http.StatusInternalServerError)
		return
	}

	ref := vault.Ref{Path: path}
	s.plugin.Views().Open(ref)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := docPage.Execute(w, map[string]any{
		"Title": ref.Name(),
		"Path":  ref.Path,
		// Already sanitized by the doc view.
		"Body": template.HTML(body),
	}); err != nil {
		s.log.Warn("doc page write failed", "path", path, "error", err)
	}
}
