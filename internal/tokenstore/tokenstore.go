// Package tokenstore remembers signed-out session tokens until they expire.
package tokenstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is a denylist of token ids.
type Store interface {
	// Revoke marks tokenID as signed out until the given expiry.
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	// IsRevoked reports whether tokenID was signed out.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	Close() error
}

// New returns a Redis-backed store when redisURL is set and an in-process
// store otherwise.
func New(ctx context.Context, redisURL string) (Store, error) {
	if redisURL == "" {
		return NewMemory(), nil
	}
	store, err := NewRedis(ctx, redisURL)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Memory keeps revoked ids in process memory. Entries are dropped once their
// token would have expired anyway.
type Memory struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{revoked: make(map[string]time.Time), now: time.Now}
}

// Revoke implements Store.
func (m *Memory) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prune()
	m.revoked[tokenID] = expiresAt
	return nil
}

// IsRevoked implements Store.
func (m *Memory) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if m.now().After(until) {
		delete(m.revoked, tokenID)
		return false, nil
	}
	return true, nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }

func (m *Memory) prune() {
	now := m.now()
	for id, until := range m.revoked {
		if now.After(until) {
			delete(m.revoked, id)
		}
	}
}

const redisKeyPrefix = "moneybook:revoked:"

// Redis keeps revoked ids as expiring keys so every API instance sees them.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to redisURL. Bare host:port values are accepted.
func NewRedis(ctx context.Context, redisURL string) (*Redis, error) {
	if !strings.Contains(redisURL, "://") {
		redisURL = "redis://" + redisURL
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &Redis{client: client}, nil
}

// Revoke implements Store.
func (r *Redis) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, redisKeyPrefix+tokenID, "1", ttl).Err()
}

// IsRevoked implements Store.
func (r *Redis) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, redisKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close implements Store.
func (r *Redis) Close() error {
	return r.client.Close()
}
