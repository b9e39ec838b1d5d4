package domain

import "errors"

// Every failure the account core can produce is one of these sentinels,
// wrapped with fmt.Errorf("...: %w", ...) on the way up. Callers branch
// with errors.Is; the HTTP layer maps each to a status and code.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrNotFound        = errors.New("account not found")
	ErrInvalidFormat   = errors.New("invalid field format")
	ErrImmutableField  = errors.New("field cannot be changed through this path")

	ErrInvalidCredential = errors.New("current password does not match")
	ErrNoPassword        = errors.New("account has no password set")

	ErrCodeNotIssued = errors.New("verification code has not been issued")
	ErrCodeExpired   = errors.New("verification code has expired")
	ErrCodeMismatch  = errors.New("verification code does not match")
	ErrNoCodeChannel = errors.New("account verifies by password, not emailed code")
	ErrNoEmailOnFile = errors.New("account has no email address on file")

	ErrForbidden    = errors.New("insufficient permissions")
	ErrInvalidState = errors.New("invalid account state")

	ErrDeliveryFailure = errors.New("failed to deliver verification email")
)
