// AngelaMos | 2026
// revocation.go

package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationRegistry records token ids that must be rejected until the
// token would have expired on its own.
type RevocationRegistry interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisRegistry stores one key per revoked token under keyPrefix.
type RedisRegistry struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisRegistry(client *redis.Client, keyPrefix string) *RedisRegistry {
	return &RedisRegistry{client: client, keyPrefix: keyPrefix}
}

func (r *RedisRegistry) key(tokenID string) string {
	return r.keyPrefix + ":" + tokenID
}

func (r *RedisRegistry) Revoke(
	ctx context.Context,
	tokenID string,
	expiresAt time.Time,
) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := r.client.Set(ctx, r.key(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}

	return nil
}

func (r *RedisRegistry) IsRevoked(
	ctx context.Context,
	tokenID string,
) (bool, error) {
	exists, err := r.client.Exists(ctx, r.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}

	return exists > 0, nil
}

// MemoryRegistry is a single-process registry; entries are pruned lazily
// once their token has expired.
type MemoryRegistry struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (m *MemoryRegistry) Revoke(
	_ context.Context,
	tokenID string,
	expiresAt time.Time,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if !expiresAt.After(now) {
		return nil
	}

	m.pruneLocked(now)
	m.entries[tokenID] = expiresAt

	return nil
}

func (m *MemoryRegistry) IsRevoked(
	_ context.Context,
	tokenID string,
) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expiresAt, ok := m.entries[tokenID]
	if !ok {
		return false, nil
	}

	if !expiresAt.After(m.now()) {
		delete(m.entries, tokenID)
		return false, nil
	}

	return true, nil
}

func (m *MemoryRegistry) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryRegistry) pruneLocked(now time.Time) {
	for id, exp := range m.entries {
		if !exp.After(now) {
			delete(m.entries, id)
		}
	}
}
