package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/roomwise/roomwise/internal/models"
	"github.com/roomwise/roomwise/internal/uploads"
)

// HandleUploadImage attaches an image to a wall slot. The body is either a
// multipart form with a "file" field or JSON with an "image_url".
func (h *Handler) HandleUploadImage(w http.ResponseWriter, r *http.Request) {
	session, ok := h.mutableSessionOrError(w, r)
	if !ok {
		return
	}

	wall, err := models.ParseWallSlot(r.PathValue("wall"))
	if err != nil {
		h.writeError(w, err.Error(), http.StatusNotFound)
		return
	}

	images, err := h.uploads.Scoped(session.ID)
	if err != nil {
		h.writeError(w, "Failed to prepare uploads: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var file *models.ImageFile
	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		file, err = h.handleURLUpload(r, images)
	} else {
		file, err = h.handleFileUpload(w, r, images)
	}
	if err != nil {
		h.writeUploadError(w, err)
		return
	}

	if err := session.Store.SetImage(wall, file); err != nil {
		h.writeWizardError(w, err)
		return
	}

	slog.Info("Wall image attached", "session_id", session.ID, "wall", wall, "filename", file.Filename)
	h.writeJSON(w, newSessionView(session))
}

func (h *Handler) HandleClearImage(w http.ResponseWriter, r *http.Request) {
	session, ok := h.mutableSessionOrError(w, r)
	if !ok {
		return
	}
	wall, err := models.ParseWallSlot(r.PathValue("wall"))
	if err != nil {
		h.writeError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err := session.Store.SetImage(wall, nil); err != nil {
		h.writeWizardError(w, err)
		return
	}
	h.writeJSON(w, newSessionView(session))
}

type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func (h *Handler) handleURLUpload(r *http.Request, images *uploads.Store) (*models.ImageFile, error) {
	var request struct {
		ImageURL string `json:"image_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		return nil, badRequest{"Invalid JSON: " + err.Error()}
	}
	if request.ImageURL == "" {
		return nil, badRequest{"image_url is required"}
	}
	return images.Download(r.Context(), request.ImageURL)
}

func (h *Handler) handleFileUpload(w http.ResponseWriter, r *http.Request, images *uploads.Store) (*models.ImageFile, error) {
	// room for the multipart envelope around the file
	r.Body = http.MaxBytesReader(w, r.Body, images.MaxBytes()+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, uploads.ErrTooLarge
		}
		return nil, badRequest{"Failed to read file: " + err.Error()}
	}
	defer file.Close()

	data, err := images.Read(file)
	if err != nil {
		return nil, err
	}
	return images.Save(data, header.Filename)
}

func (h *Handler) writeUploadError(w http.ResponseWriter, err error) {
	var br badRequest
	switch {
	case errors.As(err, &br):
		h.writeError(w, br.msg, http.StatusBadRequest)
	case errors.Is(err, uploads.ErrTooLarge):
		h.writeError(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, uploads.ErrNotImage):
		h.writeError(w, err.Error(), http.StatusUnsupportedMediaType)
	default:
		h.writeError(w, "Failed to process image: "+err.Error(), http.StatusBadRequest)
	}
}
