// Package settings хранит настройки вызова, введенные в диалоге настроек сессии.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/incident_response_system/internal/models"
)

//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks

// Store - настройки читаются заново в начале каждой операции, которой они нужны.
// Load возвращает nil, nil, если настроек еще нет.
type Store interface {
	Load(ctx context.Context, sessionID uuid.UUID) (*models.DispatchCredentials, error)
	Save(ctx context.Context, sessionID uuid.UUID, creds *models.DispatchCredentials) error
	Delete(ctx context.Context, sessionID uuid.UUID) error
}

// Key возвращает ключ настроек сессии: sentinel_dispatch_config:<id>
func Key(sessionID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", models.SettingsKey, sessionID)
}

// RedisStore хранит настройки в Redis, JSON целиком, со сроком жизни сессии
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, sessionID uuid.UUID) (*models.DispatchCredentials, error) {
	val, err := s.client.Get(ctx, Key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return decode(val)
}

func (s *RedisStore) Save(ctx context.Context, sessionID uuid.UUID, creds *models.DispatchCredentials) error {
	val, err := encode(creds)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, Key(sessionID), val, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.client.Del(ctx, Key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete settings: %w", err)
	}
	return nil
}

// MemoryStore - хранилище в памяти для разработки и тестов
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Load(_ context.Context, sessionID uuid.UUID) (*models.DispatchCredentials, error) {
	s.mu.RLock()
	val, ok := s.data[Key(sessionID)]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return decode(val)
}

func (s *MemoryStore) Save(_ context.Context, sessionID uuid.UUID, creds *models.DispatchCredentials) error {
	val, err := encode(creds)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[Key(sessionID)] = val
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	delete(s.data, Key(sessionID))
	s.mu.Unlock()
	return nil
}

func encode(creds *models.DispatchCredentials) ([]byte, error) {
	if creds == nil {
		creds = &models.DispatchCredentials{}
	}
	val, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settings: %w", err)
	}
	return val, nil
}

func decode(val []byte) (*models.DispatchCredentials, error) {
	creds := &models.DispatchCredentials{}
	if err := json.Unmarshal(val, creds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return creds, nil
}
