package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/softex1/tably-paket1/utils"
)

// NewRedisClient returns nil when REDIS_ADDR is unset or the server does
// not answer a ping; callers fall back to the database-backed stores.
func NewRedisClient(cfg *Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		utils.ErrorLogger.Errorf("redis unavailable at %s: %v", cfg.RedisAddr, err)
		_ = client.Close()
		return nil
	}
	utils.InfoLogger.Infof("connected to redis at %s", cfg.RedisAddr)
	return client
}
