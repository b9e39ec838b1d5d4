package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/eonlab/eon-accounts/internal/domain"
	"github.com/eonlab/eon-accounts/internal/mailer"
	"github.com/eonlab/eon-accounts/internal/repo/postgres"
	"github.com/eonlab/eon-accounts/pkg/logger"
)

// CodeService issues and spends single-use emailed codes scoped by
// (email, purpose). Issuing again just stacks a newer row: the latest one
// is the only consumable code for the scope.
type CodeService interface {
	Issue(ctx context.Context, email, toName, purpose string) error
	Consume(ctx context.Context, email, purpose, suppliedCode string) error

	// RequestProfileUpdateCode issues a profile_update code for the caller's
	// account. Local-provider accounts are refused; they verify by password.
	RequestProfileUpdateCode(ctx context.Context, principal domain.Principal) error
	// ConfirmProfileUpdateCode verifies and consumes a code as a standalone
	// step, before the caller commits to an update.
	ConfirmProfileUpdateCode(ctx context.Context, principal domain.Principal, code string) error
}

type codeService struct {
	codeRepo    postgres.CodeRepository
	accountRepo postgres.AccountRepository
	mailer      mailer.Service
	ttl         time.Duration
}

func NewCodeService(
	codeRepo postgres.CodeRepository,
	accountRepo postgres.AccountRepository,
	mailer mailer.Service,
	ttl time.Duration,
) CodeService {
	if ttl <= 0 {
		ttl = domain.DefaultCodeTTL
	}
	return &codeService{
		codeRepo:    codeRepo,
		accountRepo: accountRepo,
		mailer:      mailer,
		ttl:         ttl,
	}
}

func (s *codeService) Issue(ctx context.Context, email, toName, purpose string) error {
	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	expiresAt := time.Now().Add(s.ttl)

	// The row is committed before delivery is attempted: a mail failure is
	// reported, but the code stays issued and a retry supersedes it.
	if err := s.codeRepo.Create(ctx, email, code, purpose, expiresAt); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	if err := s.mailer.SendProfileUpdateCode(email, toName, code); err != nil {
		logger.ErrorContext(ctx, "Failed to send verification code email", "error", err, "email", email)
		return fmt.Errorf("%w: %v", domain.ErrDeliveryFailure, err)
	}

	return nil
}

func (s *codeService) Consume(ctx context.Context, email, purpose, suppliedCode string) error {
	latest, err := s.codeRepo.FindLatest(ctx, email, purpose)
	if err != nil {
		return fmt.Errorf("failed to look up verification code: %w", err)
	}
	if latest == nil {
		return domain.ErrCodeNotIssued
	}
	if latest.Expired(time.Now()) {
		return domain.ErrCodeExpired
	}
	// Exact string comparison; leading zeros matter and nothing is trimmed.
	if latest.Code != suppliedCode {
		return domain.ErrCodeMismatch
	}

	// Conditional delete is the atomic spend: if a concurrent consumer got
	// here first the row is gone and this caller loses.
	spent, err := s.codeRepo.DeleteIfMatch(ctx, latest.ID, suppliedCode)
	if err != nil {
		return fmt.Errorf("failed to consume verification code: %w", err)
	}
	if !spent {
		return domain.ErrCodeNotIssued
	}

	return nil
}

func (s *codeService) RequestProfileUpdateCode(ctx context.Context, principal domain.Principal) error {
	account, err := s.accountRepo.FindByID(ctx, principal.AccountID)
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil {
		return domain.ErrNotFound
	}

	if account.IsLocal() {
		return domain.ErrNoCodeChannel
	}
	if account.Email == "" {
		return domain.ErrNoEmailOnFile
	}

	return s.Issue(ctx, account.Email, account.DisplayName, domain.PurposeProfileUpdate)
}

func (s *codeService) ConfirmProfileUpdateCode(ctx context.Context, principal domain.Principal, code string) error {
	account, err := s.accountRepo.FindByID(ctx, principal.AccountID)
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil {
		return domain.ErrNotFound
	}

	if account.IsLocal() {
		return domain.ErrNoCodeChannel
	}

	return s.Consume(ctx, account.Email, domain.PurposeProfileUpdate, code)
}

// generateCode draws a uniformly random 6-digit string, "000000"-"999999".
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
