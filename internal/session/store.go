package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/printshop-backend/pkg/backend"
	redisclient "github.com/angelmondragon/printshop-backend/pkg/redis"
)

// Store persists the backend session of each browser.
type Store interface {
	// Load returns nil without error when the browser has no session.
	Load(ctx context.Context, sid string) (*backend.Session, error)
	Save(ctx context.Context, sid string, sess *backend.Session) error
	Clear(ctx context.Context, sid string) error
}

type redisStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	BrowserSessionKey(sid string) string
}

// RedisStore keeps sessions as JSON under the browser session key.
type RedisStore struct {
	redis redisStore
	ttl   time.Duration
}

func NewRedisStore(client *redisclient.Client, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &RedisStore{redis: client, ttl: ttl}, nil
}

func (s *RedisStore) Load(ctx context.Context, sid string) (*backend.Session, error) {
	raw, err := s.redis.Get(ctx, s.redis.BrowserSessionKey(sid))
	if err != nil {
		if errors.Is(err, redisclient.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	var sess backend.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sid string, sess *backend.Session) error {
	if sess == nil {
		return s.Clear(ctx, sid)
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.redis.Set(ctx, s.redis.BrowserSessionKey(sid), payload, s.ttl)
}

func (s *RedisStore) Clear(ctx context.Context, sid string) error {
	return s.redis.Del(ctx, s.redis.BrowserSessionKey(sid))
}
