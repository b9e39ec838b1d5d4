package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/eonlab/eon-accounts/internal/domain"
	"github.com/eonlab/eon-accounts/internal/service"
)

func externalAccount(id int64, email string) *domain.Account {
	return &domain.Account{
		ID:          id,
		DisplayName: "민지",
		Email:       email,
		Provider:    "kakao",
		Role:        domain.RoleStandard,
		State:       domain.StateActive,
	}
}

func TestIssueStoresAndMailsSixDigitCode(t *testing.T) {
	codes := newMockCodeRepo()
	accounts := newMockAccountRepo()
	mail := &mockMailer{}
	svc := service.NewCodeService(codes, accounts, mail, 5*time.Minute)

	if err := svc.Issue(context.Background(), "a@b.com", "민지", domain.PurposeProfileUpdate); err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if mail.sent != 1 {
		t.Fatalf("expected 1 mail sent, got %d", mail.sent)
	}
	if len(mail.lastCode) != 6 {
		t.Errorf("code length = %d, want 6", len(mail.lastCode))
	}
	for _, c := range mail.lastCode {
		if c < '0' || c > '9' {
			t.Errorf("code %q contains non-digit", mail.lastCode)
		}
	}

	stored, _ := codes.FindLatest(context.Background(), "a@b.com", domain.PurposeProfileUpdate)
	if stored == nil {
		t.Fatal("expected a stored code")
	}
	if stored.Code != mail.lastCode {
		t.Errorf("stored code %q differs from mailed code %q", stored.Code, mail.lastCode)
	}
}

func TestIssueReportsDeliveryFailureButKeepsCode(t *testing.T) {
	codes := newMockCodeRepo()
	mail := &mockMailer{sendErr: fmt.Errorf("smtp down")}
	svc := service.NewCodeService(codes, newMockAccountRepo(), mail, 5*time.Minute)

	err := svc.Issue(context.Background(), "a@b.com", "", domain.PurposeProfileUpdate)
	if !errors.Is(err, domain.ErrDeliveryFailure) {
		t.Fatalf("Issue() error = %v, want ErrDeliveryFailure", err)
	}

	stored, _ := codes.FindLatest(context.Background(), "a@b.com", domain.PurposeProfileUpdate)
	if stored == nil {
		t.Fatal("code should remain issued after a delivery failure")
	}
}

func TestConsumeExactlyOnce(t *testing.T) {
	codes := newMockCodeRepo()
	mail := &mockMailer{}
	svc := service.NewCodeService(codes, newMockAccountRepo(), mail, 5*time.Minute)

	ctx := context.Background()
	if err := svc.Issue(ctx, "a@b.com", "", domain.PurposeProfileUpdate); err != nil {
		t.Fatal(err)
	}

	if err := svc.Consume(ctx, "a@b.com", domain.PurposeProfileUpdate, mail.lastCode); err != nil {
		t.Fatalf("first Consume() error = %v", err)
	}

	err := svc.Consume(ctx, "a@b.com", domain.PurposeProfileUpdate, mail.lastCode)
	if !errors.Is(err, domain.ErrCodeNotIssued) {
		t.Fatalf("second Consume() error = %v, want ErrCodeNotIssued", err)
	}
}

func TestConsumeErrorKinds(t *testing.T) {
	ctx := context.Background()

	t.Run("not issued", func(t *testing.T) {
		svc := service.NewCodeService(newMockCodeRepo(), newMockAccountRepo(), &mockMailer{}, 5*time.Minute)
		err := svc.Consume(ctx, "nobody@b.com", domain.PurposeProfileUpdate, "123456")
		if !errors.Is(err, domain.ErrCodeNotIssued) {
			t.Fatalf("error = %v, want ErrCodeNotIssued", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		codes := newMockCodeRepo()
		mail := &mockMailer{}
		svc := service.NewCodeService(codes, newMockAccountRepo(), mail, 5*time.Minute)
		if err := svc.Issue(ctx, "a@b.com", "", domain.PurposeProfileUpdate); err != nil {
			t.Fatal(err)
		}
		codes.expire("a@b.com", domain.PurposeProfileUpdate, time.Second)

		// Even the correct value fails once the window has passed.
		err := svc.Consume(ctx, "a@b.com", domain.PurposeProfileUpdate, mail.lastCode)
		if !errors.Is(err, domain.ErrCodeExpired) {
			t.Fatalf("error = %v, want ErrCodeExpired", err)
		}
	})

	t.Run("mismatch", func(t *testing.T) {
		codes := newMockCodeRepo()
		mail := &mockMailer{}
		svc := service.NewCodeService(codes, newMockAccountRepo(), mail, 5*time.Minute)
		if err := svc.Issue(ctx, "a@b.com", "", domain.PurposeProfileUpdate); err != nil {
			t.Fatal(err)
		}

		wrong := "000000"
		if wrong == mail.lastCode {
			wrong = "000001"
		}
		err := svc.Consume(ctx, "a@b.com", domain.PurposeProfileUpdate, wrong)
		if !errors.Is(err, domain.ErrCodeMismatch) {
			t.Fatalf("error = %v, want ErrCodeMismatch", err)
		}
	})
}

func TestConsumeWithinWindowSucceeds(t *testing.T) {
	codes := newMockCodeRepo()
	mail := &mockMailer{}
	svc := service.NewCodeService(codes, newMockAccountRepo(), mail, 5*time.Minute)

	ctx := context.Background()
	if err := svc.Issue(ctx, "a@b.com", "", domain.PurposeProfileUpdate); err != nil {
		t.Fatal(err)
	}

	// The stored expiry is five minutes out, so a prompt consume is well
	// inside the window.
	if err := svc.Consume(ctx, "a@b.com", domain.PurposeProfileUpdate, mail.lastCode); err != nil {
		t.Fatalf("Consume() within window error = %v", err)
	}
}

func TestNewestCodeSupersedesOlder(t *testing.T) {
	codes := newMockCodeRepo()
	mail := &mockMailer{}
	svc := service.NewCodeService(codes, newMockAccountRepo(), mail, 5*time.Minute)

	ctx := context.Background()
	if err := svc.Issue(ctx, "a@b.com", "", domain.PurposeProfileUpdate); err != nil {
		t.Fatal(err)
	}
	first := mail.lastCode

	if err := svc.Issue(ctx, "a@b.com", "", domain.PurposeProfileUpdate); err != nil {
		t.Fatal(err)
	}
	second := mail.lastCode

	if first == second {
		t.Skip("random draw collided; superseding is indistinguishable")
	}

	err := svc.Consume(ctx, "a@b.com", domain.PurposeProfileUpdate, first)
	if !errors.Is(err, domain.ErrCodeMismatch) {
		t.Fatalf("consuming superseded code: error = %v, want ErrCodeMismatch", err)
	}

	if err := svc.Consume(ctx, "a@b.com", domain.PurposeProfileUpdate, second); err != nil {
		t.Fatalf("consuming latest code: error = %v", err)
	}
}

func TestRequestProfileUpdateCodeChannelRules(t *testing.T) {
	local := &domain.Account{
		ID: 1, Email: "local@b.com", Provider: domain.ProviderLocal,
		PasswordHash: "x", Role: domain.RoleStandard, State: domain.StateActive,
	}
	noEmail := externalAccount(2, "")
	external := externalAccount(3, "social@b.com")

	accounts := newMockAccountRepo(local, noEmail, external)
	mail := &mockMailer{}
	svc := service.NewCodeService(newMockCodeRepo(), accounts, mail, 5*time.Minute)
	ctx := context.Background()

	err := svc.RequestProfileUpdateCode(ctx, domain.Principal{AccountID: 1})
	if !errors.Is(err, domain.ErrNoCodeChannel) {
		t.Errorf("local account: error = %v, want ErrNoCodeChannel", err)
	}

	err = svc.RequestProfileUpdateCode(ctx, domain.Principal{AccountID: 2})
	if !errors.Is(err, domain.ErrNoEmailOnFile) {
		t.Errorf("no email: error = %v, want ErrNoEmailOnFile", err)
	}

	err = svc.RequestProfileUpdateCode(ctx, domain.Principal{AccountID: 99})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing account: error = %v, want ErrNotFound", err)
	}

	if err := svc.RequestProfileUpdateCode(ctx, domain.Principal{AccountID: 3}); err != nil {
		t.Errorf("external account: error = %v", err)
	}
	if mail.lastTo != "social@b.com" {
		t.Errorf("mailed to %q, want social@b.com", mail.lastTo)
	}
}
