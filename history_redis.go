package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const historyKeyPrefix = "coach:history:"

// redisHistoryStore keeps user histories as JSON values with a TTL so every
// API instance shares one cache.
type redisHistoryStore struct {
	rdb *goredis.Client
	ttl time.Duration
}

// newRedisHistoryStore connects to addr and verifies it with a PING.
func newRedisHistoryStore(addr string, ttl time.Duration) (*redisHistoryStore, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &redisHistoryStore{rdb: rdb, ttl: ttl}, nil
}

func historyKey(userID int) string {
	return fmt.Sprintf("%s%d", historyKeyPrefix, userID)
}

func (s *redisHistoryStore) Load(ctx context.Context, userID int) (userHistory, bool, error) {
	raw, err := s.rdb.Get(ctx, historyKey(userID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return userHistory{}, false, nil
	}
	if err != nil {
		return userHistory{}, false, fmt.Errorf("redis get history: %w", err)
	}
	h := newUserHistory()
	if err := json.Unmarshal(raw, &h); err != nil {
		// A corrupt entry is treated as a miss and rebuilt.
		return userHistory{}, false, nil
	}
	return h.clone(), true, nil
}

func (s *redisHistoryStore) Save(ctx context.Context, userID int, h userHistory) error {
	raw, err := json.Marshal(h)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, historyKey(userID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set history: %w", err)
	}
	return nil
}

func (s *redisHistoryStore) Invalidate(ctx context.Context, userID int) error {
	if err := s.rdb.Del(ctx, historyKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis del history: %w", err)
	}
	return nil
}

func (s *redisHistoryStore) Close() error { return s.rdb.Close() }
