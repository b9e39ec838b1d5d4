package service_test

import (
	"context"
	"sort"
	"time"

	"github.com/eonlab/eon-accounts/internal/domain"
)

// ---------- Mocks ----------

type mockAccountRepo struct {
	accounts    map[int64]*domain.Account
	updateCalls int
	hashCalls   int
}

func newMockAccountRepo(accounts ...*domain.Account) *mockAccountRepo {
	m := &mockAccountRepo{accounts: make(map[int64]*domain.Account)}
	for _, a := range accounts {
		m.accounts[a.ID] = a
	}
	return m
}

func (m *mockAccountRepo) FindByID(_ context.Context, id int64) (*domain.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

func (m *mockAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	for _, a := range m.accounts {
		if a.Email == email {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockAccountRepo) UpdateProfile(_ context.Context, id int64, req *domain.UpdateProfileRequest) (*domain.Account, error) {
	m.updateCalls++
	a, ok := m.accounts[id]
	if !ok {
		return nil, nil
	}
	if req.DisplayName != nil {
		a.DisplayName = *req.DisplayName
	}
	if req.Age != nil {
		age := *req.Age
		a.Age = &age
	}
	if req.EmailOptIn != nil {
		a.EmailOptIn = *req.EmailOptIn
	}
	a.UpdatedAt = time.Now()
	copied := *a
	return &copied, nil
}

func (m *mockAccountRepo) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	m.hashCalls++
	a, ok := m.accounts[id]
	if !ok {
		return nil
	}
	a.PasswordHash = hash
	return nil
}

func (m *mockAccountRepo) SetState(_ context.Context, id int64, state string, deactivatedAt *time.Time) error {
	a, ok := m.accounts[id]
	if !ok {
		return nil
	}
	a.State = state
	a.DeactivatedAt = deactivatedAt
	return nil
}

func (m *mockAccountRepo) Delete(_ context.Context, id int64) error {
	delete(m.accounts, id)
	return nil
}

func (m *mockAccountRepo) ListStates(_ context.Context, limit, offset int) ([]domain.AccountState, error) {
	var states []domain.AccountState
	for _, a := range m.accounts {
		states = append(states, *a.ToState())
	}
	sort.Slice(states, func(i, j int) bool { return states[i].ID < states[j].ID })
	return states, nil
}

type mockCodeRepo struct {
	nextID int64
	rows   []domain.EmailCode
}

func newMockCodeRepo() *mockCodeRepo {
	return &mockCodeRepo{nextID: 1}
}

func (m *mockCodeRepo) Create(_ context.Context, email, code, purpose string, expiresAt time.Time) error {
	m.rows = append(m.rows, domain.EmailCode{
		ID:        m.nextID,
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	})
	m.nextID++
	return nil
}

func (m *mockCodeRepo) FindLatest(_ context.Context, email, purpose string) (*domain.EmailCode, error) {
	var latest *domain.EmailCode
	for i := range m.rows {
		c := &m.rows[i]
		if c.Email != email || c.Purpose != purpose {
			continue
		}
		if latest == nil || c.ID > latest.ID {
			latest = c
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (m *mockCodeRepo) DeleteIfMatch(_ context.Context, id int64, code string) (bool, error) {
	for i := range m.rows {
		if m.rows[i].ID == id && m.rows[i].Code == code {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCodeRepo) DeleteByEmail(_ context.Context, email string) (int64, error) {
	var kept []domain.EmailCode
	var deleted int64
	for _, c := range m.rows {
		if c.Email == email {
			deleted++
			continue
		}
		kept = append(kept, c)
	}
	m.rows = kept
	return deleted, nil
}

func (m *mockCodeRepo) DeleteExpired(_ context.Context) (int64, error) {
	return 0, nil
}

// expire backdates the newest row for the scope by the given amount past
// its expiry, so consumption sees it as expired.
func (m *mockCodeRepo) expire(email, purpose string, past time.Duration) {
	for i := range m.rows {
		if m.rows[i].Email == email && m.rows[i].Purpose == purpose {
			m.rows[i].ExpiresAt = time.Now().Add(-past)
		}
	}
}

type mockMailer struct {
	lastTo   string
	lastCode string
	sent     int
	sendErr  error
}

func (m *mockMailer) SendProfileUpdateCode(toEmail, toName, code string) error {
	m.lastTo = toEmail
	m.lastCode = code
	m.sent++
	return m.sendErr
}

type mockSessionStore struct {
	revoked   []int64
	revokeErr error
}

func (m *mockSessionStore) Revoke(_ context.Context, accountID int64) error {
	if m.revokeErr != nil {
		return m.revokeErr
	}
	m.revoked = append(m.revoked, accountID)
	return nil
}

func (m *mockSessionStore) RevokedSince(_ context.Context, accountID int64) (time.Time, bool, error) {
	for _, id := range m.revoked {
		if id == accountID {
			return time.Now(), true, nil
		}
	}
	return time.Time{}, false, nil
}

func (m *mockSessionStore) Close() error { return nil }

type mockPublisher struct {
	subjects []string
}

func (m *mockPublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	m.subjects = append(m.subjects, subject)
	return nil
}

func (m *mockPublisher) Close() error { return nil }
