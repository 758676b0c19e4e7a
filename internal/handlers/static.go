package handlers

import (
	"net/http"
	"strings"

	"github.com/roomwise/roomwise/internal/models"
)

func (h *Handler) HandleOptions(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, models.AllOptions())
}

// HandleUploads serves wall image previews. Only images uploaded in the
// caller's own session are visible.
func (h *Handler) HandleUploads(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("file")

	// Prevent directory traversal attacks
	if strings.Contains(name, "..") {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	session, ok := h.currentSession(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	images, err := h.uploads.Scoped(session.ID)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	path, ok := images.Path(name)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeFile(w, r, path)
}
