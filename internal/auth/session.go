package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revoker tracks session tokens that were ended before they expired.
type Revoker interface {
	// Revoke marks jti revoked until its natural expiry.
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Selections holds the one record per session that is awaiting a delete
// confirmation.
//
// A selection is keyed by the session token id rather than the profile, so
// two browser tabs of the same user do not confirm each other's deletes.
// Every selection carries a TTL; a forgotten selection lapses instead of
// turning a much later confirm into a surprise delete.
type Selections interface {
	Select(ctx context.Context, jti, kind, id string, ttl time.Duration) error
	// Selected returns the pending id, or "" when nothing is selected or the
	// selection lapsed.
	Selected(ctx context.Context, jti, kind string) (string, error)
	Clear(ctx context.Context, jti, kind string) error
}

// RedisSessions implements Revoker and Selections on one Redis client. Every
// key expires on its own so nothing needs sweeping.
type RedisSessions struct {
	client *redis.Client
}

func NewRedisSessions(client *redis.Client) *RedisSessions {
	return &RedisSessions{client: client}
}

func revokedKey(jti string) string { return "session:revoked:" + jti }

func selectionKey(jti, kind string) string { return "session:pending:" + kind + ":" + jti }

func (s *RedisSessions) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		// Already expired; the token is rejected on expiry anyway.
		return nil
	}
	if err := s.client.Set(ctx, revokedKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *RedisSessions) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked session: %w", err)
	}
	return n > 0, nil
}

func (s *RedisSessions) Select(ctx context.Context, jti, kind, id string, ttl time.Duration) error {
	if err := s.client.Set(ctx, selectionKey(jti, kind), id, ttl).Err(); err != nil {
		return fmt.Errorf("store pending %s: %w", kind, err)
	}
	return nil
}

func (s *RedisSessions) Selected(ctx context.Context, jti, kind string) (string, error) {
	id, err := s.client.Get(ctx, selectionKey(jti, kind)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read pending %s: %w", kind, err)
	}
	return id, nil
}

func (s *RedisSessions) Clear(ctx context.Context, jti, kind string) error {
	if err := s.client.Del(ctx, selectionKey(jti, kind)).Err(); err != nil {
		return fmt.Errorf("clear pending %s: %w", kind, err)
	}
	return nil
}
