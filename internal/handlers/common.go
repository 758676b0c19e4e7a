package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/roomwise/roomwise/internal/models"
	"github.com/roomwise/roomwise/internal/sessiontoken"
	"github.com/roomwise/roomwise/internal/storage"
	"github.com/roomwise/roomwise/internal/uploads"
	"github.com/roomwise/roomwise/internal/wizard"
)

// Config wires the handler's dependencies.
type Config struct {
	Sessions       *storage.SessionStore
	Uploads        *uploads.Store
	Tokens         *sessiontoken.Signer
	Requester      wizard.PlanRequester
	RequestTimeout time.Duration
	// SecureCookies marks the session cookie Secure.
	SecureCookies bool
}

type Handler struct {
	sessionStore   *storage.SessionStore
	uploads        *uploads.Store
	tokens         *sessiontoken.Signer
	requester      wizard.PlanRequester
	requestTimeout time.Duration
	secureCookies  bool
	newID          func() string
}

func New(cfg Config) *Handler {
	sessions := cfg.Sessions
	if sessions == nil {
		sessions = storage.New()
	}
	return &Handler{
		sessionStore:   sessions,
		uploads:        cfg.Uploads,
		tokens:         cfg.Tokens,
		requester:      cfg.Requester,
		requestTimeout: cfg.RequestTimeout,
		secureCookies:  cfg.SecureCookies,
		newID:          uuid.NewString,
	}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions", h.HandleCreateSession)
	mux.HandleFunc("GET /api/sessions/current", h.HandleGetSession)
	mux.HandleFunc("PUT /api/sessions/current/images/{wall}", h.HandleUploadImage)
	mux.HandleFunc("DELETE /api/sessions/current/images/{wall}", h.HandleClearImage)
	mux.HandleFunc("PATCH /api/sessions/current/preferences", h.HandleUpdatePreferences)
	mux.HandleFunc("POST /api/sessions/current/colors/{color}", h.HandleToggleColor)
	mux.HandleFunc("POST /api/sessions/current/advance", h.HandleAdvance)
	mux.HandleFunc("POST /api/sessions/current/retreat", h.HandleRetreat)
	mux.HandleFunc("POST /api/sessions/current/submit", h.HandleSubmit)
	mux.HandleFunc("GET /api/results", h.HandleResults)
	mux.HandleFunc("DELETE /api/results", h.HandleStartOver)
	mux.HandleFunc("GET /api/results/download", h.HandleDownload)
	mux.HandleFunc("GET /api/options", h.HandleOptions)
	mux.HandleFunc("GET /uploads/{file}", h.HandleUploads)
}

// SweepSessions drops sessions idle for longer than ttl together with their
// uploaded images, and returns the dropped IDs.
func (h *Handler) SweepSessions(now time.Time, ttl time.Duration) []string {
	removed := h.sessionStore.Sweep(now, ttl)
	for _, id := range removed {
		h.removeUploads(id)
	}
	return removed
}

// Close drops the uploaded images of every live session.
func (h *Handler) Close() {
	for id := range h.sessionStore.GetAll() {
		h.removeUploads(id)
	}
}

func (h *Handler) removeUploads(sessionID string) {
	if err := h.uploads.RemoveScope(sessionID); err != nil {
		slog.Warn("Unable to remove session uploads", "session_id", sessionID, "err", err)
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message, "status", code)
	} else {
		slog.Warn(message, "status", code)
	}
	h.writeJSONStatus(w, code, map[string]any{"error": message})
}

// writeWizardError maps controller errors to responses.
func (h *Handler) writeWizardError(w http.ResponseWriter, err error) {
	var verrs wizard.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		h.writeJSONStatus(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "validation failed",
			"errors": verrs,
		})
	case errors.Is(err, wizard.ErrPlanGeneration):
		slog.Error("Plan generation failed", "err", err)
		h.writeJSONStatus(w, http.StatusBadGateway, map[string]any{
			"error": wizard.ErrPlanGeneration.Error(),
			"retry": true,
		})
	case errors.Is(err, wizard.ErrSubmissionPending),
		errors.Is(err, wizard.ErrComplete),
		errors.Is(err, wizard.ErrNotAtReview):
		h.writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, wizard.ErrUnknownWall),
		errors.Is(err, wizard.ErrUnknownField),
		errors.Is(err, wizard.ErrInvalidValue),
		errors.Is(err, models.ErrUnknownOption):
		h.writeError(w, err.Error(), http.StatusBadRequest)
	default:
		h.writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

// Session helpers
func (h *Handler) currentSession(r *http.Request) (*wizard.Session, bool) {
	token := sessionToken(r)
	if token == "" {
		return nil, false
	}
	id, err := h.tokens.Parse(token)
	if err != nil {
		slog.Debug("Rejected session token", "err", err)
		return nil, false
	}
	session, ok := h.sessionStore.Get(id)
	if !ok {
		return nil, false
	}
	session.Touch()
	return session, true
}

// sessionToken prefers the per-tab header over the shared cookie.
func sessionToken(r *http.Request) string {
	if token := r.Header.Get(sessiontoken.HeaderName); token != "" {
		return token
	}
	cookie, err := r.Cookie(sessiontoken.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (h *Handler) getSessionOrError(w http.ResponseWriter, r *http.Request) (*wizard.Session, bool) {
	session, ok := h.currentSession(r)
	if !ok {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}

// mutableSessionOrError also refuses sessions with a plan request in flight.
func (h *Handler) mutableSessionOrError(w http.ResponseWriter, r *http.Request) (*wizard.Session, bool) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return nil, false
	}
	if session.Controller.Pending() {
		h.writeError(w, wizard.ErrSubmissionPending.Error(), http.StatusConflict)
		return nil, false
	}
	return session, true
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessiontoken.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

type sessionView struct {
	ID          string                     `json:"id"`
	Token       string                     `json:"token,omitempty"`
	State       wizard.State               `json:"state"`
	Images      [4]models.RoomImage        `json:"images"`
	Preferences models.PersonalPreferences `json:"preferences"`
}

func newSessionView(s *wizard.Session) sessionView {
	snapshot := s.Store.Snapshot()
	return sessionView{
		ID:          s.ID,
		State:       s.Controller.State(),
		Images:      snapshot.Images,
		Preferences: snapshot.Preferences,
	}
}
