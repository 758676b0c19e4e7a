package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/roomwise/roomwise/internal/handoff"
	"github.com/roomwise/roomwise/internal/planfile"
)

// designPath is where clients send users who have no plan yet.
const designPath = "/design"

func (h *Handler) writeNoResults(w http.ResponseWriter) {
	h.writeJSONStatus(w, http.StatusNotFound, map[string]any{
		"error":    handoff.ErrNoData.Error(),
		"redirect": designPath,
	})
}

func (h *Handler) retrieve(w http.ResponseWriter, r *http.Request) (*handoff.Result, bool) {
	session, ok := h.currentSession(r)
	if !ok {
		h.writeNoResults(w)
		return nil, false
	}
	result, err := session.Handoff.Retrieve()
	if errors.Is(err, handoff.ErrNoData) {
		h.writeNoResults(w)
		return nil, false
	}
	if err != nil {
		h.writeError(w, "Failed to read design plan: "+err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return result, true
}

func (h *Handler) HandleResults(w http.ResponseWriter, r *http.Request) {
	result, ok := h.retrieve(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, result)
}

// HandleStartOver clears the plan and restarts the wizard.
func (h *Handler) HandleStartOver(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	if err := session.Controller.Reset(); err != nil {
		h.writeWizardError(w, err)
		return
	}
	h.removeUploads(session.ID)
	h.writeJSON(w, newSessionView(session))
}

func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	format, err := planfile.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	result, ok := h.retrieve(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := planfile.Write(&buf, format, planfile.NewDocument(result.Plan, result.Preferences)); err != nil {
		h.writeError(w, "Failed to export design plan: "+err.Error(), http.StatusInternalServerError)
		return
	}

	name := planfile.FileName(result.Preferences.FullName, format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}
