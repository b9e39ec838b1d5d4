package service

import (
	"context"
	"fmt"
	"time"

	"github.com/eonlab/eon-accounts/internal/domain"
	"github.com/eonlab/eon-accounts/internal/repo/postgres"
	"github.com/eonlab/eon-accounts/internal/session"
	"github.com/eonlab/eon-accounts/pkg/events"
	"github.com/eonlab/eon-accounts/pkg/logger"
)

// LifecycleService drives account state: active and inactive swap freely,
// hard delete is terminal. Session termination and stale-code cleanup ride
// along as best-effort side effects outside the transition itself.
type LifecycleService interface {
	Deactivate(ctx context.Context, principal domain.Principal) error
	Delete(ctx context.Context, principal domain.Principal) error
	AdminSetState(ctx context.Context, actor domain.Principal, targetID int64, newState string) error
	ListAccountStates(ctx context.Context, actor domain.Principal, limit, offset int) ([]domain.AccountState, error)
}

type lifecycleService struct {
	accountRepo postgres.AccountRepository
	codeRepo    postgres.CodeRepository
	sessions    session.Store
	eventBus    events.Publisher
}

func NewLifecycleService(
	accountRepo postgres.AccountRepository,
	codeRepo postgres.CodeRepository,
	sessions session.Store,
	eventBus events.Publisher,
) LifecycleService {
	return &lifecycleService{
		accountRepo: accountRepo,
		codeRepo:    codeRepo,
		sessions:    sessions,
		eventBus:    eventBus,
	}
}

// Deactivate soft-deletes the caller: the record stays, the state flips.
// Repeating it just refreshes the deactivation stamp.
func (s *lifecycleService) Deactivate(ctx context.Context, principal domain.Principal) error {
	account, err := s.accountRepo.FindByID(ctx, principal.AccountID)
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil {
		return domain.ErrNotFound
	}

	now := time.Now()
	if err := s.accountRepo.SetState(ctx, account.ID, domain.StateInactive, &now); err != nil {
		return fmt.Errorf("failed to deactivate account: %w", err)
	}

	s.revokeSessions(ctx, account.ID)
	s.publish(ctx, events.AccountDeactivated, events.AccountDeactivatedEvent{
		AccountID:     account.ID,
		Email:         account.Email,
		DeactivatedAt: now,
	})

	return nil
}

// Delete removes the record irreversibly. A later fetch is NotFound; there
// is no way back to any state.
func (s *lifecycleService) Delete(ctx context.Context, principal domain.Principal) error {
	account, err := s.accountRepo.FindByID(ctx, principal.AccountID)
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil {
		return domain.ErrNotFound
	}

	if err := s.accountRepo.Delete(ctx, account.ID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	s.revokeSessions(ctx, account.ID)

	// Outstanding codes for the email would otherwise linger until natural
	// expiry and could be inherited if the address is re-registered.
	if _, err := s.codeRepo.DeleteByEmail(ctx, account.Email); err != nil {
		logger.WarnContext(ctx, "Failed to purge stale verification codes", "error", err, "email", account.Email)
	}

	s.publish(ctx, events.AccountDeleted, events.AccountDeletedEvent{
		AccountID: account.ID,
		Email:     account.Email,
		DeletedAt: time.Now(),
	})

	return nil
}

func (s *lifecycleService) AdminSetState(ctx context.Context, actor domain.Principal, targetID int64, newState string) error {
	if actor.Role != domain.RoleAdmin {
		return domain.ErrForbidden
	}

	if !domain.IsAssignableState(newState) {
		return fmt.Errorf("state %q: %w", newState, domain.ErrInvalidState)
	}

	target, err := s.accountRepo.FindByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("failed to load target account: %w", err)
	}
	if target == nil {
		return domain.ErrNotFound
	}

	var deactivatedAt *time.Time
	if newState == domain.StateInactive {
		now := time.Now()
		deactivatedAt = &now
	}

	if err := s.accountRepo.SetState(ctx, target.ID, newState, deactivatedAt); err != nil {
		return fmt.Errorf("failed to set account state: %w", err)
	}

	if newState == domain.StateInactive {
		s.revokeSessions(ctx, target.ID)
	}

	s.publish(ctx, events.AccountStateChanged, events.AccountStateChangedEvent{
		AccountID: target.ID,
		ActorID:   actor.AccountID,
		NewState:  newState,
		ChangedAt: time.Now(),
	})

	return nil
}

func (s *lifecycleService) ListAccountStates(ctx context.Context, actor domain.Principal, limit, offset int) ([]domain.AccountState, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}

	states, err := s.accountRepo.ListStates(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list account states: %w", err)
	}
	return states, nil
}

func (s *lifecycleService) revokeSessions(ctx context.Context, accountID int64) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.Revoke(ctx, accountID); err != nil {
		logger.WarnContext(ctx, "Failed to revoke sessions", "error", err, "account_id", accountID)
	}
}

func (s *lifecycleService) publish(ctx context.Context, subject string, payload interface{}) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, subject, payload); err != nil {
		logger.WarnContext(ctx, "Failed to publish account event", "error", err, "subject", subject)
	}
}
