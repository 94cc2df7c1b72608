package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ConnectRedis returns nil when url is empty; callers fall back to the database.
func ConnectRedis(url string, log *zap.Logger) *redis.Client {
	if url == "" {
		log.Info("REDIS_URL not set, OTP rate limits stored in postgres")
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("invalid REDIS_URL, OTP rate limits stored in postgres", zap.Error(err))
		return nil
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis ping failed, OTP rate limits stored in postgres", zap.Error(err))
		_ = client.Close()
		return nil
	}
	log.Info("redis connected")
	return client
}
