package service

import (
	"context"
	"fmt"

	"github.com/alexedwards/argon2id"

	"github.com/eonlab/eon-accounts/internal/domain"
)

// Verifier proves the caller owns the account before any mutation goes
// through. The channel is picked from the account's provider alone:
// local accounts answer with their password, everything else with an
// emailed code. Callers never choose the channel.
type Verifier interface {
	Verify(ctx context.Context, account *domain.Account, proof domain.Proof) error
	// VerifyPassword runs the password check as a dry run: no mutation, no
	// code consumed.
	VerifyPassword(ctx context.Context, account *domain.Account, password string) error
}

type verifier struct {
	codes CodeService
}

func NewVerifier(codes CodeService) Verifier {
	return &verifier{codes: codes}
}

func (v *verifier) Verify(ctx context.Context, account *domain.Account, proof domain.Proof) error {
	if account.IsLocal() {
		return v.VerifyPassword(ctx, account, proof.CurrentPassword)
	}

	if proof.Code == "" {
		return fmt.Errorf("verification code required: %w", domain.ErrInvalidCredential)
	}

	// Success consumes the code; error kinds pass through unchanged.
	return v.codes.Consume(ctx, account.Email, domain.PurposeProfileUpdate, proof.Code)
}

func (v *verifier) VerifyPassword(ctx context.Context, account *domain.Account, password string) error {
	if password == "" {
		return fmt.Errorf("current password required: %w", domain.ErrInvalidCredential)
	}
	if account.PasswordHash == "" {
		return domain.ErrNoPassword
	}

	match, err := argon2id.ComparePasswordAndHash(password, account.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to compare password: %w", err)
	}
	if !match {
		return domain.ErrInvalidCredential
	}

	return nil
}
