package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"creditbot/session"
)

const sessionKeyPrefix = "creditbot:session:"

// RedisSessionStore keeps conversation sessions in Redis with a key TTL
type RedisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisClient parses a redis:// URL and verifies the connection
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.WithField("addr", opts.Addr).Info("Connected to Redis")
	return rdb, nil
}

// NewRedisSessionStore creates a session store on an existing client
func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

func sessionKey(userID int64) string {
	return sessionKeyPrefix + strconv.FormatInt(userID, 10)
}

func (s *RedisSessionStore) Get(ctx context.Context, userID int64) (session.Session, error) {
	data, err := s.rdb.Get(ctx, sessionKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return session.Idle(), nil
	}
	if err != nil {
		return session.Idle(), fmt.Errorf("failed to get session for user %d: %w", userID, err)
	}

	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Discarding corrupt session")
		return session.Idle(), nil
	}
	return sess, nil
}

func (s *RedisSessionStore) Set(ctx context.Context, userID int64, sess session.Session) error {
	if sess.IsIdle() {
		return s.Clear(ctx, userID)
	}

	sess.UpdatedAt = time.Now()
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.rdb.Set(ctx, sessionKey(userID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session for user %d: %w", userID, err)
	}
	return nil
}

func (s *RedisSessionStore) Clear(ctx context.Context, userID int64) error {
	if err := s.rdb.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear session for user %d: %w", userID, err)
	}
	return nil
}
