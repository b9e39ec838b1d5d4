package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"

	"github.com/eonlab/eon-accounts/internal/domain"
	"github.com/eonlab/eon-accounts/internal/repo/postgres"
	"github.com/eonlab/eon-accounts/pkg/events"
	"github.com/eonlab/eon-accounts/pkg/logger"
)

type ProfileService interface {
	GetAccount(ctx context.Context, principal domain.Principal) (*domain.Account, error)
	UpdateProfile(ctx context.Context, principal domain.Principal, req *domain.UpdateProfileRequest) (*domain.Account, error)
	VerifyPassword(ctx context.Context, principal domain.Principal, password string) error
	ChangePassword(ctx context.Context, principal domain.Principal, req *domain.ChangePasswordRequest) error
}

type profileService struct {
	accountRepo postgres.AccountRepository
	verifier    Verifier
	eventBus    events.Publisher
}

func NewProfileService(
	accountRepo postgres.AccountRepository,
	verifier Verifier,
	eventBus events.Publisher,
) ProfileService {
	return &profileService{
		accountRepo: accountRepo,
		verifier:    verifier,
		eventBus:    eventBus,
	}
}

func (s *profileService) GetAccount(ctx context.Context, principal domain.Principal) (*domain.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, principal.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil {
		return nil, domain.ErrNotFound
	}
	return account, nil
}

// UpdateProfile is verify-then-apply: nothing is written until the caller's
// identity check has passed, and a failed check writes nothing.
func (s *profileService) UpdateProfile(ctx context.Context, principal domain.Principal, req *domain.UpdateProfileRequest) (*domain.Account, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	account, err := s.GetAccount(ctx, principal)
	if err != nil {
		return nil, err
	}

	if err := s.verifier.Verify(ctx, account, req.Proof); err != nil {
		return nil, err
	}

	if req.IsEmpty() {
		return account, nil
	}

	updated, err := s.accountRepo.UpdateProfile(ctx, account.ID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrNotFound
	}

	s.publish(ctx, events.AccountUpdated, events.AccountUpdatedEvent{
		AccountID: updated.ID,
		Changes:   changedFields(req),
		UpdatedAt: updated.UpdatedAt,
	})

	return updated, nil
}

func (s *profileService) VerifyPassword(ctx context.Context, principal domain.Principal, password string) error {
	account, err := s.GetAccount(ctx, principal)
	if err != nil {
		return err
	}

	return s.verifier.VerifyPassword(ctx, account, password)
}

func (s *profileService) ChangePassword(ctx context.Context, principal domain.Principal, req *domain.ChangePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	account, err := s.GetAccount(ctx, principal)
	if err != nil {
		return err
	}

	// Only local accounts carry a password; external ones never get one
	// through this path.
	if !account.IsLocal() || account.PasswordHash == "" {
		return domain.ErrNoPassword
	}

	if err := s.verifier.VerifyPassword(ctx, account, req.CurrentPassword); err != nil {
		return err
	}

	hash, err := argon2id.CreateHash(req.NewPassword, argon2id.DefaultParams)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.accountRepo.UpdatePasswordHash(ctx, account.ID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.publish(ctx, events.AccountUpdated, events.AccountUpdatedEvent{
		AccountID: account.ID,
		Changes:   []string{"password"},
		UpdatedAt: time.Now(),
	})

	return nil
}

func (s *profileService) publish(ctx context.Context, subject string, payload interface{}) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, subject, payload); err != nil {
		logger.WarnContext(ctx, "Failed to publish account event", "error", err, "subject", subject)
	}
}

func changedFields(req *domain.UpdateProfileRequest) []string {
	var changes []string
	if req.DisplayName != nil {
		changes = append(changes, "display_name")
	}
	if req.Age != nil {
		changes = append(changes, "age")
	}
	if req.EmailOptIn != nil {
		changes = append(changes, "email_opt_in")
	}
	return changes
}
