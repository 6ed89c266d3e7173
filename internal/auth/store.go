package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoToken is returned when a session has no stored bearer token.
var ErrNoToken = errors.New("no token for session")

// TokenStore persists bearer tokens by session id.
type TokenStore interface {
	Read(ctx context.Context, session string) (string, error)
	Write(ctx context.Context, session, token string) error
	Delete(ctx context.Context, session string) error
}

// RedisTokenStore keeps tokens in Redis under a key prefix.
type RedisTokenStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisTokenStore builds a store. A zero ttl keeps tokens until deleted.
func NewRedisTokenStore(client *redis.Client, prefix string, ttl time.Duration) *RedisTokenStore {
	return &RedisTokenStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisTokenStore) Read(ctx context.Context, session string) (string, error) {
	token, err := s.client.Get(ctx, s.prefix+session).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *RedisTokenStore) Write(ctx context.Context, session, token string) error {
	return s.client.Set(ctx, s.prefix+session, token, s.ttl).Err()
}

func (s *RedisTokenStore) Delete(ctx context.Context, session string) error {
	return s.client.Del(ctx, s.prefix+session).Err()
}

// MemoryTokenStore is an in-process TokenStore.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewMemoryTokenStore builds an empty store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]string)}
}

func (s *MemoryTokenStore) Read(_ context.Context, session string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[session]
	if !ok {
		return "", ErrNoToken
	}
	return token, nil
}

func (s *MemoryTokenStore) Write(_ context.Context, session, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[session] = token
	return nil
}

func (s *MemoryTokenStore) Delete(_ context.Context, session string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, session)
	return nil
}
