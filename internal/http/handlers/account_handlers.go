package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/eonlab/eon-accounts/internal/domain"
	"github.com/eonlab/eon-accounts/internal/http/response"
)

// GetMe returns the caller's account without credential material.
func (h *Handlers) GetMe(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	account, err := h.profileService.GetAccount(r.Context(), p)
	if err != nil {
		response.FromDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// UpdateMe applies a sparse profile patch after the caller proves their
// identity through the account's verification channel.
func (h *Handlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req domain.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	account, err := h.profileService.UpdateProfile(r.Context(), p, &req)
	if err != nil {
		response.FromDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Profile updated successfully",
		"account": account,
	})
}

// VerifyPassword runs the password check as a dry run.
func (h *Handlers) VerifyPassword(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req domain.VerifyPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		response.BadRequest(w, "Password is required")
		return
	}

	if err := h.profileService.VerifyPassword(r.Context(), p, req.Password); err != nil {
		response.FromDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Password verified",
	})
}

// ChangePassword overwrites the stored hash after the current password checks out.
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req domain.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	if err := h.profileService.ChangePassword(r.Context(), p, &req); err != nil {
		response.FromDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Password changed successfully",
	})
}

// DeactivateMe soft-deletes the caller's account.
func (h *Handlers) DeactivateMe(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.lifecycleService.Deactivate(r.Context(), p); err != nil {
		response.FromDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Account deactivated",
	})
}

// DeleteMe removes the caller's account for good.
func (h *Handlers) DeleteMe(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.lifecycleService.Delete(r.Context(), p); err != nil {
		response.FromDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Account deleted",
	})
}

// RequestProfileCode mails a fresh profile-update code to the caller.
func (h *Handlers) RequestProfileCode(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.codeService.RequestProfileUpdateCode(r.Context(), p); err != nil {
		response.FromDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Verification code sent",
	})
}

// ConfirmProfileCode verifies and consumes a code ahead of an update.
func (h *Handlers) ConfirmProfileCode(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		response.BadRequest(w, "Verification code is required")
		return
	}

	if err := h.codeService.ConfirmProfileUpdateCode(r.Context(), p, req.Code); err != nil {
		response.FromDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Verification complete",
	})
}
