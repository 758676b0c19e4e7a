package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/roomwise/roomwise/internal/wizard"
)

func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := h.newID()
	token, err := h.tokens.Issue(id)
	if err != nil {
		h.writeError(w, "Failed to create session: "+err.Error(), http.StatusInternalServerError)
		return
	}

	session := wizard.NewSession(id, h.requester, h.requestTimeout)
	h.sessionStore.Set(id, session)
	h.setSessionCookie(w, token)

	slog.Info("Wizard session created", "session_id", id)
	view := newSessionView(session)
	view.Token = token
	h.writeJSONStatus(w, http.StatusCreated, view)
}

func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, newSessionView(session))
}

type preferencesPatch struct {
	FullName        *string   `json:"fullName"`
	PersonalityType *string   `json:"personalityType"`
	RoomType        *string   `json:"roomType"`
	BudgetRange     *int      `json:"budgetRange"`
	FavoriteColors  *[]string `json:"favoriteColors"`
}

func (h *Handler) HandleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	session, ok := h.mutableSessionOrError(w, r)
	if !ok {
		return
	}

	var patch preferencesPatch
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	values := map[string]any{}
	if patch.FullName != nil {
		values[wizard.FieldFullName] = *patch.FullName
	}
	if patch.PersonalityType != nil {
		values[wizard.FieldPersonalityType] = *patch.PersonalityType
	}
	if patch.RoomType != nil {
		values[wizard.FieldRoomType] = *patch.RoomType
	}
	if patch.BudgetRange != nil {
		values[wizard.FieldBudgetRange] = *patch.BudgetRange
	}
	if patch.FavoriteColors != nil {
		values[wizard.FieldFavoriteColors] = derefColors(patch.FavoriteColors)
	}

	if rejected := session.Store.SetPreferences(values); !rejected.Empty() {
		h.writeJSONStatus(w, http.StatusBadRequest, map[string]any{
			"error":  "invalid preference values",
			"errors": rejected,
		})
		return
	}

	h.writeJSON(w, newSessionView(session))
}

func (h *Handler) HandleToggleColor(w http.ResponseWriter, r *http.Request) {
	session, ok := h.mutableSessionOrError(w, r)
	if !ok {
		return
	}
	if err := session.Store.ToggleFavoriteColor(r.PathValue("color")); err != nil {
		h.writeWizardError(w, err)
		return
	}
	h.writeJSON(w, newSessionView(session))
}

func (h *Handler) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	_, errs, err := session.Controller.Advance()
	if err != nil {
		h.writeWizardError(w, err)
		return
	}
	if !errs.Empty() {
		h.writeJSONStatus(w, http.StatusUnprocessableEntity, newSessionView(session))
		return
	}
	h.writeJSON(w, newSessionView(session))
}

func (h *Handler) HandleRetreat(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	if _, err := session.Controller.Retreat(); err != nil {
		h.writeWizardError(w, err)
		return
	}
	h.writeJSON(w, newSessionView(session))
}

// HandleSubmit blocks until the plan is generated or the request times out.
// A client disconnect does not abort generation.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	slog.Info("Generating design plan", "session_id", session.ID)
	plan, err := session.Controller.Submit(context.WithoutCancel(r.Context()))
	if err != nil {
		h.writeWizardError(w, err)
		return
	}

	h.writeJSON(w, map[string]any{
		"designPlan":      plan,
		"userPreferences": session.Store.Preferences(),
		"redirect":        "/results",
	})
}

func derefColors(p *[]string) []string {
	if p == nil || *p == nil {
		return []string{}
	}
	return *p
}
