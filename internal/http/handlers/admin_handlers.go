package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/eonlab/eon-accounts/internal/domain"
	"github.com/eonlab/eon-accounts/internal/http/response"
)

// ListAccountStates returns the restricted per-account projection for the
// admin console. Password hashes never leave the repository here.
func (h *Handlers) ListAccountStates(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	limit, offset := parsePagination(r)

	states, err := h.lifecycleService.ListAccountStates(r.Context(), p, limit, offset)
	if err != nil {
		response.FromDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, states)
}

// SetAccountState lets an admin move a target between active and inactive.
func (h *Handlers) SetAccountState(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	targetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid account ID")
		return
	}

	var req domain.SetStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.State == "" {
		response.BadRequest(w, "State is required")
		return
	}

	if err := h.lifecycleService.AdminSetState(r.Context(), p, targetID, req.State); err != nil {
		response.FromDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Account state updated",
	})
}
