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

func newLifecycleFixture(accounts *mockAccountRepo) (service.LifecycleService, *mockCodeRepo, *mockSessionStore, *mockPublisher) {
	codes := newMockCodeRepo()
	sessions := &mockSessionStore{}
	bus := &mockPublisher{}
	return service.NewLifecycleService(accounts, codes, sessions, bus), codes, sessions, bus
}

func TestDeactivateSetsStateAndRevokesSessions(t *testing.T) {
	account := externalAccount(1, "a@b.com")
	accounts := newMockAccountRepo(account)
	svc, _, sessions, bus := newLifecycleFixture(accounts)
	ctx := context.Background()

	if err := svc.Deactivate(ctx, domain.Principal{AccountID: 1}); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}

	stored, _ := accounts.FindByID(ctx, 1)
	if stored.State != domain.StateInactive {
		t.Errorf("state = %q, want inactive", stored.State)
	}
	if stored.DeactivatedAt == nil {
		t.Error("deactivated_at not stamped")
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != 1 {
		t.Errorf("sessions revoked = %v, want [1]", sessions.revoked)
	}
	if len(bus.subjects) == 0 {
		t.Error("no lifecycle event published")
	}

	// Idempotent: a second call succeeds while the record exists.
	if err := svc.Deactivate(ctx, domain.Principal{AccountID: 1}); err != nil {
		t.Fatalf("repeated Deactivate() error = %v", err)
	}
}

func TestDeactivateSurvivesSessionFailure(t *testing.T) {
	account := externalAccount(1, "a@b.com")
	accounts := newMockAccountRepo(account)
	codes := newMockCodeRepo()
	sessions := &mockSessionStore{revokeErr: fmt.Errorf("redis down")}
	svc := service.NewLifecycleService(accounts, codes, sessions, &mockPublisher{})

	// Termination is best effort: the transition commits regardless.
	if err := svc.Deactivate(context.Background(), domain.Principal{AccountID: 1}); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}

	stored, _ := accounts.FindByID(context.Background(), 1)
	if stored.State != domain.StateInactive {
		t.Errorf("state = %q, want inactive despite revocation failure", stored.State)
	}
}

func TestDeleteIsIrreversible(t *testing.T) {
	account := externalAccount(1, "a@b.com")
	accounts := newMockAccountRepo(account)
	svc, codes, _, _ := newLifecycleFixture(accounts)
	ctx := context.Background()

	codes.Create(ctx, "a@b.com", "123456", domain.PurposeProfileUpdate, time.Now().Add(5*time.Minute))

	if err := svc.Delete(ctx, domain.Principal{AccountID: 1}); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if stored, _ := accounts.FindByID(ctx, 1); stored != nil {
		t.Error("record still present after hard delete")
	}

	// Stale codes for the email go with it.
	if c, _ := codes.FindLatest(ctx, "a@b.com", domain.PurposeProfileUpdate); c != nil {
		t.Error("stale code survived hard delete")
	}

	err := svc.Delete(ctx, domain.Principal{AccountID: 1})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestAdminSetState(t *testing.T) {
	admin := domain.Principal{AccountID: 9, Role: domain.RoleAdmin}
	standard := domain.Principal{AccountID: 1, Role: domain.RoleStandard}

	t.Run("non-admin is forbidden and state is untouched", func(t *testing.T) {
		account := externalAccount(1, "a@b.com")
		accounts := newMockAccountRepo(account)
		svc, _, _, _ := newLifecycleFixture(accounts)

		err := svc.AdminSetState(context.Background(), standard, 1, domain.StateInactive)
		if !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("error = %v, want ErrForbidden", err)
		}

		stored, _ := accounts.FindByID(context.Background(), 1)
		if stored.State != domain.StateActive {
			t.Errorf("state = %q, want active", stored.State)
		}
	})

	t.Run("unknown state is rejected", func(t *testing.T) {
		accounts := newMockAccountRepo(externalAccount(1, "a@b.com"))
		svc, _, _, _ := newLifecycleFixture(accounts)

		for _, state := range []string{"deleted", "banned", ""} {
			err := svc.AdminSetState(context.Background(), admin, 1, state)
			if !errors.Is(err, domain.ErrInvalidState) {
				t.Errorf("state %q: error = %v, want ErrInvalidState", state, err)
			}
		}
	})

	t.Run("missing target is NotFound", func(t *testing.T) {
		svc, _, _, _ := newLifecycleFixture(newMockAccountRepo())

		err := svc.AdminSetState(context.Background(), admin, 42, domain.StateActive)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("restores a deactivated account", func(t *testing.T) {
		account := externalAccount(1, "a@b.com")
		accounts := newMockAccountRepo(account)
		svc, _, _, _ := newLifecycleFixture(accounts)
		ctx := context.Background()

		if err := svc.Deactivate(ctx, domain.Principal{AccountID: 1}); err != nil {
			t.Fatal(err)
		}
		if err := svc.AdminSetState(ctx, admin, 1, domain.StateActive); err != nil {
			t.Fatalf("AdminSetState() error = %v", err)
		}

		stored, _ := accounts.FindByID(ctx, 1)
		if stored.State != domain.StateActive {
			t.Errorf("state = %q, want active", stored.State)
		}
		if stored.DeactivatedAt != nil {
			t.Error("deactivated_at should clear on reactivation")
		}
	})
}

func TestListAccountStatesRequiresAdmin(t *testing.T) {
	accounts := newMockAccountRepo(externalAccount(1, "a@b.com"), externalAccount(2, "c@d.com"))
	svc, _, _, _ := newLifecycleFixture(accounts)
	ctx := context.Background()

	_, err := svc.ListAccountStates(ctx, domain.Principal{AccountID: 1, Role: domain.RoleStandard}, 20, 0)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("error = %v, want ErrForbidden", err)
	}

	states, err := svc.ListAccountStates(ctx, domain.Principal{AccountID: 9, Role: domain.RoleAdmin}, 20, 0)
	if err != nil {
		t.Fatalf("ListAccountStates() error = %v", err)
	}
	if len(states) != 2 {
		t.Fatalf("got %d states, want 2", len(states))
	}
}
