package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oubia/medtriage/internal/triage"
)

const sessionKeyPrefix = "session:"

// Conn opens and pings a redis client.
func Conn(ctx context.Context, host, port, pass string, db int, timeout time.Duration) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%s", host, port),
		DialTimeout: timeout,
		Password:    pass,
		DB:          db,
	})
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, err
	}
	if pong != "PONG" {
		return nil, fmt.Errorf("expected PONG, got %s", pong)
	}
	return client, nil
}

// SessionStore keeps per-session chat history in redis so a
// conversation can continue across requests. Each session expires ttl
// after its last write.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionStore{client: client, ttl: ttl}
}

// History returns the stored conversation, oldest first. An unknown
// session yields an empty history.
func (s *SessionStore) History(ctx context.Context, sessionID string) ([]triage.Message, error) {
	val, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var msgs []triage.Message
	if err := json.Unmarshal([]byte(val), &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Append adds messages to the session and refreshes its TTL.
func (s *SessionStore) Append(ctx context.Context, sessionID string, msgs ...triage.Message) error {
	existing, err := s.History(ctx, sessionID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(append(existing, msgs...))
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKeyPrefix+sessionID, data, s.ttl).Err()
}

// Clear drops a session's history.
func (s *SessionStore) Clear(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKeyPrefix+sessionID).Err()
}
