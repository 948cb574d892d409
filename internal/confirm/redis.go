package confirm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "welltrack:pending-delete:"

// RedisStore shares pending confirmations between daemon replicas. Entries
// expire through the key TTL; Take uses GETDEL so a token is consumed once.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr, password string, db int) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{client: rdb}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Put(ctx context.Context, p Pending, ttl time.Duration) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisKeyPrefix+p.Token, b, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Take(ctx context.Context, token string) (Pending, error) {
	b, err := s.client.GetDel(ctx, redisKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return Pending{}, ErrPendingNotFound
	}
	if err != nil {
		return Pending{}, fmt.Errorf("redis getdel: %w", err)
	}
	var p Pending
	if err := json.Unmarshal(b, &p); err != nil {
		return Pending{}, fmt.Errorf("decode pending deletion: %w", err)
	}
	return p, nil
}

func (s *RedisStore) Close() error { return s.client.Close() }
