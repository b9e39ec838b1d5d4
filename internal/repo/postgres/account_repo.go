package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eonlab/eon-accounts/internal/domain"
)

type AccountRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	UpdateProfile(ctx context.Context, id int64, req *domain.UpdateProfileRequest) (*domain.Account, error)
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	SetState(ctx context.Context, id int64, state string, deactivatedAt *time.Time) error
	Delete(ctx context.Context, id int64) error
	ListStates(ctx context.Context, limit, offset int) ([]domain.AccountState, error)
}

type accountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

const accountCols = `id, display_name, age, email, password_hash, provider, role, state, email_opt_in, deactivated_at, created_at, updated_at`

func (r *accountRepository) scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	var hash *string
	err := row.Scan(
		&a.ID, &a.DisplayName, &a.Age, &a.Email, &hash, &a.Provider,
		&a.Role, &a.State, &a.EmailOptIn, &a.DeactivatedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if hash != nil {
		a.PasswordHash = *hash
	}
	return &a, nil
}

func (r *accountRepository) FindByID(ctx context.Context, id int64) (*domain.Account, error) {
	const q = `SELECT ` + accountCols + ` FROM accounts WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	a, err := r.scanAccount(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const q = `SELECT ` + accountCols + ` FROM accounts WHERE email = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	a, err := r.scanAccount(r.pool.QueryRow(ctx, q, email))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// UpdateProfile applies only the fields present in the patch; COALESCE keeps
// everything else untouched, including explicit false/zero values passed in.
func (r *accountRepository) UpdateProfile(ctx context.Context, id int64, req *domain.UpdateProfileRequest) (*domain.Account, error) {
	const q = `
		UPDATE accounts
		SET
			display_name = COALESCE($2, display_name),
			age = COALESCE($3, age),
			email_opt_in = COALESCE($4, email_opt_in),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + accountCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	a, err := r.scanAccount(r.pool.QueryRow(ctx, q, id, req.DisplayName, req.Age, req.EmailOptIn))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func (r *accountRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	const q = `UPDATE accounts SET password_hash = $2, updated_at = now() WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, hash)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

func (r *accountRepository) SetState(ctx context.Context, id int64, state string, deactivatedAt *time.Time) error {
	const q = `UPDATE accounts SET state = $2, deactivated_at = $3, updated_at = now() WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, state, deactivatedAt)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

func (r *accountRepository) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM accounts WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

func (r *accountRepository) ListStates(ctx context.Context, limit, offset int) ([]domain.AccountState, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const q = `
		SELECT id, display_name, age, email, role, state
		FROM accounts
		ORDER BY id ASC
		LIMIT $1 OFFSET $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []domain.AccountState
	for rows.Next() {
		var s domain.AccountState
		if err := rows.Scan(&s.ID, &s.DisplayName, &s.Age, &s.Email, &s.Role, &s.State); err != nil {
			return nil, err
		}
		states = append(states, s)
	}

	return states, rows.Err()
}
