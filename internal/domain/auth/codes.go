package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CodeStore persists one-time verification codes until they are confirmed or
// expire.
type CodeStore interface {
	Set(ctx context.Context, key, code string, ttl time.Duration) error
	// Get returns the stored code, or "" when the key is absent or expired.
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// RedisCodeStore keeps verification codes in Redis so they survive restarts
// and expire server-side.
type RedisCodeStore struct {
	client *redis.Client
}

func NewRedisCodeStore(client *redis.Client) *RedisCodeStore {
	return &RedisCodeStore{client: client}
}

func codeKey(key string) string {
	return "verify:" + key
}

func (s *RedisCodeStore) Set(ctx context.Context, key, code string, ttl time.Duration) error {
	if err := s.client.Set(ctx, codeKey(key), code, ttl).Err(); err != nil {
		return fmt.Errorf("store verification code: %w", err)
	}
	return nil
}

func (s *RedisCodeStore) Get(ctx context.Context, key string) (string, error) {
	code, err := s.client.Get(ctx, codeKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load verification code: %w", err)
	}
	return code, nil
}

func (s *RedisCodeStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, codeKey(key)).Err(); err != nil {
		return fmt.Errorf("delete verification code: %w", err)
	}
	return nil
}

// MemoryCodeStore keeps verification codes in process memory with lazy
// expiry. It is the fallback when no Redis URL is configured; codes do not
// survive restarts.
type MemoryCodeStore struct {
	mu    sync.Mutex
	codes map[string]memoryCode
}

type memoryCode struct {
	code      string
	expiresAt time.Time
}

func NewMemoryCodeStore() *MemoryCodeStore {
	return &MemoryCodeStore{codes: make(map[string]memoryCode)}
}

func (s *MemoryCodeStore) Set(_ context.Context, key, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[key] = memoryCode{code: code, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryCodeStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.codes[key]
	if !ok {
		return "", nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.codes, key)
		return "", nil
	}
	return entry.code, nil
}

func (s *MemoryCodeStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, key)
	return nil
}

// GenerateCode returns a six-digit numeric verification code drawn from
// crypto/rand.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
