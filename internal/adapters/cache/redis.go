package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func Connect(_ context.Context, redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") {
		opt, parseErr := redis.ParseURL(redisURL)
		if parseErr != nil {
			return nil, fmt.Errorf("parse redis url: %w", parseErr)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// RedisViewCounter keeps per-document view counts as plain INCR counters.
// Counts are non-critical telemetry: no transactionality, and a lost update
// under concurrent views is acceptable.
type RedisViewCounter struct {
	client *redis.Client
}

func NewRedisViewCounter(client *redis.Client) *RedisViewCounter {
	return &RedisViewCounter{client: client}
}

func viewKey(documentID uuid.UUID) string {
	return "docs:views:" + documentID.String()
}

func (s *RedisViewCounter) Increment(ctx context.Context, documentID uuid.UUID) error {
	return s.client.Incr(ctx, viewKey(documentID)).Err()
}

func (s *RedisViewCounter) Get(ctx context.Context, documentID uuid.UUID) (int64, error) {
	raw, err := s.client.Get(ctx, viewKey(documentID)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse view count: %w", err)
	}
	return n, nil
}

func (s *RedisViewCounter) GetMany(ctx context.Context, documentIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	if len(documentIDs) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(documentIDs))
	for _, id := range documentIDs {
		keys = append(keys, viewKey(id))
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	counts := make(map[uuid.UUID]int64, len(documentIDs))
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		if n, parseErr := strconv.ParseInt(raw, 10, 64); parseErr == nil {
			counts[documentIDs[i]] = n
		}
	}
	return counts, nil
}
