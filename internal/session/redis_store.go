package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store terminates live sessions for an account. Lifecycle transitions call
// Revoke best-effort: a failure here never rolls back the state change.
type Store interface {
	Revoke(ctx context.Context, accountID int64) error
	RevokedSince(ctx context.Context, accountID int64) (time.Time, bool, error)
	Close() error
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore keeps a revocation marker per account for the lifetime of
// the longest-lived access token; tokens issued before the marker are dead.
func NewRedisStore(url, password string, db int, ttl time.Duration) (Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if password != "" {
		opts.Password = password
	}
	opts.DB = db

	return &redisStore{
		client: redis.NewClient(opts),
		ttl:    ttl,
	}, nil
}

func revocationKey(accountID int64) string {
	return fmt.Sprintf("session:revoked:%d", accountID)
}

func (s *redisStore) Revoke(ctx context.Context, accountID int64) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	now := strconv.FormatInt(time.Now().Unix(), 10)
	return s.client.Set(ctx, revocationKey(accountID), now, s.ttl).Err()
}

func (s *redisStore) RevokedSince(ctx context.Context, accountID int64) (time.Time, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	val, err := s.client.Get(ctx, revocationKey(accountID)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}

	unix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt revocation marker: %w", err)
	}
	return time.Unix(unix, 0), true, nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
