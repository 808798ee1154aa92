package config

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions builds client options from REDIS_ADDR, or REDIS_HOST plus
// REDIS_PORT, REDIS_PASSWORD, REDIS_DB and REDIS_TLS.
func RedisOptions() *redis.Options {
	addr := envStr("REDIS_ADDR", "localhost:6379")
	if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
		addr = host + ":" + port
	}
	opts := &redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       envInt("REDIS_DB", 0),
	}
	if envBool("REDIS_TLS", false) {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts
}

// NewRedisClient connects to Redis and pings it with a short timeout.
// Callers treat an error as "run without cache and rate limiting".
func NewRedisClient(ctx context.Context) (*redis.Client, error) {
	client := redis.NewClient(RedisOptions())
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("config.NewRedisClient: %w", err)
	}
	return client, nil
}
