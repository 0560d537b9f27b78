// Package dedup owns the L2 (content-fingerprint) half of the duplicate
// gate: a Redis-backed set of known fingerprint values, following the
// same redis.NewClient + context.Context dial pattern this codebase's
// job queue and state manager already use against Valkey.
package dedup

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Service checks and extends the fingerprint set.
type Service struct {
	client *redis.Client
	key    string
}

// NewService dials addr (host:port) and pings it, mirroring
// queue.NewQueue's connect-then-ping startup check.
func NewService(ctx context.Context, addr, setKey string) (*Service, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("dedup: connect to redis: %w", err)
	}
	return &Service{client: client, key: setKey}, nil
}

// NewServiceWithClient wraps an already-constructed client, for tests and
// for callers sharing one Redis connection across components.
func NewServiceWithClient(client *redis.Client, setKey string) *Service {
	return &Service{client: client, key: setKey}
}

// Close releases the underlying connection.
func (s *Service) Close() error {
	return s.client.Close()
}

// IsDuplicate reports whether fp is already a member of the fingerprint
// set.
func (s *Service) IsDuplicate(ctx context.Context, fp string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, s.key, fp).Result()
	if err != nil {
		return false, fmt.Errorf("dedup: sismember: %w", err)
	}
	return ok, nil
}

// AddFingerprint adds fp to the set. The operation is commutative: adding
// an already-present value is a no-op.
func (s *Service) AddFingerprint(ctx context.Context, fp string) error {
	if err := s.client.SAdd(ctx, s.key, fp).Err(); err != nil {
		return fmt.Errorf("dedup: sadd: %w", err)
	}
	return nil
}
