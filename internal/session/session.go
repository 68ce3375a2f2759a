// Package session keeps server-side login sessions in Redis.  The cookie
// carries only an opaque id; the user and role live under session:<id>.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// ErrNotFound is returned for an unknown or expired session id.
var ErrNotFound = errors.New("session not found")

// Session is the value stored for a logged-in browser.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// redisStore adapts *redis.Client to store.
type redisStore struct {
	c *redis.Client
}

func (s redisStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return s.c.Set(ctx, key, value, ttl).Err()
}

func (s redisStore) Get(ctx context.Context, key string) (string, error) {
	return s.c.Get(ctx, key).Result()
}

func (s redisStore) Del(ctx context.Context, keys ...string) error {
	return s.c.Del(ctx, keys...).Err()
}

// Manager creates, reads and deletes sessions.
type Manager struct {
	store store
	ttl   time.Duration
	now   func() time.Time
}

// NewManager returns a Manager backed by client.
func NewManager(client *redis.Client, ttl time.Duration) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Manager{store: redisStore{c: client}, ttl: ttl, now: time.Now}, nil
}

// TTL is the lifetime of new sessions.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Create stores a new session for userID and returns it.
func (m *Manager) Create(ctx context.Context, userID, role, provider string) (*Session, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user id is required")
	}
	now := m.now().UTC()
	s := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      role,
		Provider:  provider,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	body, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	if err := m.store.Set(ctx, keyPrefix+s.ID, body, m.ttl); err != nil {
		return nil, err
	}
	return s, nil
}

// Get loads the session with id.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	raw, err := m.store.Get(ctx, keyPrefix+id)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

// Destroy deletes the session with id.  Unknown ids are not an error.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	return m.store.Del(ctx, keyPrefix+id)
}
