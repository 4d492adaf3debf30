// Package session stores the organizer's console session: who is logged in,
// the upstream token, and the currently selected event and schedule.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"attendance-console/internal/attendance"
)

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// Session is passed explicitly to every console operation.
type Session struct {
	ID            string               `json:"id"`
	Email         string               `json:"email"`
	UpstreamToken string               `json:"upstreamToken"`
	Event         *attendance.Event    `json:"event,omitempty"`
	Schedule      *attendance.Schedule `json:"schedule,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
}

// New starts a session for an organizer.
func New(email, upstreamToken string) Session {
	return Session{
		ID:            uuid.NewString(),
		Email:         email,
		UpstreamToken: upstreamToken,
		CreatedAt:     time.Now().UTC(),
	}
}

// Select sets the active event and schedule.
func (s *Session) Select(e attendance.Event, sch attendance.Schedule) {
	s.Event = &e
	s.Schedule = &sch
}

// Store persists sessions.
type Store interface {
	Save(ctx context.Context, s Session) error
	Load(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

// RedisStore keeps sessions as JSON strings with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisStore creates a store; ttl <= 0 defaults to 12h.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl, prefix: "console:session:"}
}

func (r *RedisStore) Save(ctx context.Context, s Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.prefix+s.ID, raw, r.ttl).Err()
}

func (r *RedisStore) Load(ctx context.Context, id string) (Session, error) {
	raw, err := r.client.Get(ctx, r.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, err
	}
	return s, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.prefix+id).Err()
}

// MemoryStore is a map-backed store for dev and tests. Entries do not expire.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (m *MemoryStore) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}
