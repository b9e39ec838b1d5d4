package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

type Account struct {
	ID            int64      `json:"id"`
	DisplayName   string     `json:"display_name"`
	Age           *int       `json:"age,omitempty"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	Provider      string     `json:"provider"`
	Role          string     `json:"role"`
	State         string     `json:"state"`
	EmailOptIn    bool       `json:"email_opt_in"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Principal is the already-authenticated caller handed in by the transport
// layer. The core never reads session headers itself.
type Principal struct {
	AccountID int64
	Role      string
}

// Proof carries whichever credential the account's channel needs: the
// current password for local accounts, an emailed code for the rest.
type Proof struct {
	CurrentPassword string `json:"current_password,omitempty"`
	Code            string `json:"code,omitempty"`
}

// UpdateProfileRequest is a sparse patch: only non-nil fields are applied,
// so an explicit false or 0 still counts as a change. Email is decoded only
// to be rejected — it never changes through this path.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	Age         *int    `json:"age,omitempty"`
	EmailOptIn  *bool   `json:"email_opt_in,omitempty"`
	Email       *string `json:"email,omitempty"`

	Proof
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type VerifyPasswordRequest struct {
	Password string `json:"password"`
}

type SetStateRequest struct {
	State string `json:"state"`
}

// AccountState is the restricted projection the admin listing exposes.
// Password hashes and session material never appear here.
type AccountState struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	Age         *int   `json:"age,omitempty"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	State       string `json:"state"`
}

// Auth providers
const (
	ProviderLocal = "local"
)

// Roles
const (
	RoleStandard = "standard"
	RoleAdmin    = "admin"
)

// Account states
const (
	StateActive   = "active"
	StateInactive = "inactive"
	StateDeleted  = "deleted"
)

// Code purposes
const (
	PurposeProfileUpdate = "profile_update"
)

// Admin overrides may only move an account between active and inactive.
// Deleted is terminal and reachable only through hard delete.
var assignableStates = map[string]bool{
	StateActive:   true,
	StateInactive: true,
}

func IsAssignableState(state string) bool {
	return assignableStates[state]
}

// displayNameRe accepts 2-10 letters in any script, matching the original
// Korean/English rule without pinning the scripts.
var displayNameRe = regexp.MustCompile(`^\p{L}{2,10}$`)

func IsValidDisplayName(name string) bool {
	return displayNameRe.MatchString(name)
}

func (r *UpdateProfileRequest) Validate() error {
	if r.Email != nil {
		return fmt.Errorf("email: %w", ErrImmutableField)
	}
	if r.DisplayName != nil && !IsValidDisplayName(*r.DisplayName) {
		return fmt.Errorf("display_name must be 2-10 letters: %w", ErrInvalidFormat)
	}
	if r.Age != nil && (*r.Age < 0 || *r.Age > 150) {
		return fmt.Errorf("age out of range: %w", ErrInvalidFormat)
	}
	return nil
}

func (r *UpdateProfileRequest) Normalize() {
	if r.DisplayName != nil {
		trimmed := strings.TrimSpace(*r.DisplayName)
		r.DisplayName = &trimmed
	}
}

// IsEmpty reports whether the patch carries no applicable field.
func (r *UpdateProfileRequest) IsEmpty() bool {
	return r.DisplayName == nil && r.Age == nil && r.EmailOptIn == nil
}

func (r *ChangePasswordRequest) Validate() error {
	if r.CurrentPassword == "" {
		return fmt.Errorf("current password is required: %w", ErrInvalidCredential)
	}
	if r.NewPassword == "" {
		return fmt.Errorf("new password is required: %w", ErrInvalidFormat)
	}
	// Strength rules live at signup; this layer only rejects the empty string.
	return nil
}

// IsLocal reports whether the account authenticates with a locally held
// password. Everything else verifies through emailed codes.
func (a *Account) IsLocal() bool {
	return a.Provider == ProviderLocal
}

func (a *Account) ToState() *AccountState {
	return &AccountState{
		ID:          a.ID,
		DisplayName: a.DisplayName,
		Age:         a.Age,
		Email:       a.Email,
		Role:        a.Role,
		State:       a.State,
	}
}
