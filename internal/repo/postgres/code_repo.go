package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eonlab/eon-accounts/internal/domain"
)

type CodeRepository interface {
	Create(ctx context.Context, email, code, purpose string, expiresAt time.Time) error
	FindLatest(ctx context.Context, email, purpose string) (*domain.EmailCode, error)
	// DeleteIfMatch spends a code: the delete is conditional on both the row
	// id and the stored value, so of two concurrent consumers exactly one
	// sees true. This is the only atomicity the store guarantees or needs.
	DeleteIfMatch(ctx context.Context, id int64, code string) (bool, error)
	DeleteByEmail(ctx context.Context, email string) (int64, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type codeRepository struct {
	pool *pgxpool.Pool
}

func NewCodeRepository(pool *pgxpool.Pool) CodeRepository {
	return &codeRepository{pool: pool}
}

func (r *codeRepository) Create(ctx context.Context, email, code, purpose string, expiresAt time.Time) error {
	const q = `
		INSERT INTO email_codes (email, code, purpose, expires_at)
		VALUES ($1, $2, $3, $4)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, email, code, purpose, expiresAt)
	return err
}

// FindLatest returns the newest row for the scope, or nil. Older rows for
// the same scope stay in place and are simply unreachable.
func (r *codeRepository) FindLatest(ctx context.Context, email, purpose string) (*domain.EmailCode, error) {
	const q = `
		SELECT id, email, code, purpose, created_at, expires_at
		FROM email_codes
		WHERE email = $1 AND purpose = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var c domain.EmailCode
	err := r.pool.QueryRow(ctx, q, email, purpose).Scan(
		&c.ID, &c.Email, &c.Code, &c.Purpose, &c.CreatedAt, &c.ExpiresAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *codeRepository) DeleteIfMatch(ctx context.Context, id int64, code string) (bool, error) {
	const q = `DELETE FROM email_codes WHERE id = $1 AND code = $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, code)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *codeRepository) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	const q = `DELETE FROM email_codes WHERE email = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, email)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func (r *codeRepository) DeleteExpired(ctx context.Context) (int64, error) {
	const q = `DELETE FROM email_codes WHERE expires_at < now() - interval '1 day'`

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}
