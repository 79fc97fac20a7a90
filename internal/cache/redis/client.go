package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/quantified-ante/qabot/internal/metrics"
	"github.com/quantified-ante/qabot/pkg/logger"
	"github.com/quantified-ante/qabot/pkg/utils"
)

// Cache stores previously composed answers keyed by a hash of the
// normalized question. A nil *Cache is a valid disabled cache: every
// lookup misses and every store is a no-op.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(host string, port int, password string, db int, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis answer cache initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Cache{client: client, ttl: ttl}, nil
}

// GetAnswer returns a cached answer for the question. Any cache error
// degrades to a miss.
func (c *Cache) GetAnswer(ctx context.Context, question string) (string, bool) {
	if c == nil {
		return "", false
	}

	answer, err := c.client.Get(ctx, answerKey(question)).Result()
	if err == redis.Nil {
		metrics.CacheMisses.WithLabelValues("answer").Inc()
		return "", false
	}
	if err != nil {
		logger.Warn("Answer cache lookup failed", zap.Error(err))
		metrics.CacheMisses.WithLabelValues("answer").Inc()
		return "", false
	}

	metrics.CacheHits.WithLabelValues("answer").Inc()
	return answer, true
}

func (c *Cache) SetAnswer(ctx context.Context, question, answer string) {
	if c == nil {
		return
	}

	if err := c.client.Set(ctx, answerKey(question), answer, c.ttl).Err(); err != nil {
		logger.Warn("Answer cache store failed", zap.Error(err))
	}
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

func answerKey(question string) string {
	return "answer:" + utils.HashString(utils.NormalizeQuestion(question))
}
