package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadEventsConfig(t *testing.T) {
	t.Setenv("EVENTS_BACKEND", "Kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://u:p@mq:5672/")

	cfg := LoadEventsConfig()
	assert.Equal(t, BackendKafka, cfg.Backend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "amqp://u:p@mq:5672/", cfg.AMQPURL)
	assert.Equal(t, "reservation.events", cfg.Queue)

	t.Setenv("EVENTS_BACKEND", "carrier-pigeon")
	assert.Equal(t, BackendRabbitMQ, LoadEventsConfig().Backend)
}

func TestLoadRateLimitConfig_Clamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-3")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, 10*time.Second, cfg.TTL)

	t.Setenv("RATE_LIMIT_BURST", "20")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "30s")
	cfg = LoadRateLimitConfig()
	assert.Equal(t, 20, cfg.Capacity)
	assert.Equal(t, 30*time.Second, cfg.RefillInterval)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_BOOL", "ON")
	t.Setenv("X_DUR", "nonsense")
	t.Setenv("X_INT", "12")

	assert.True(t, envBool("X_BOOL", false))
	assert.Equal(t, time.Minute, envDur("X_DUR", time.Minute))
	assert.Equal(t, 12, envInt("X_INT", 0))
	assert.Equal(t, "fallback", envStr("X_MISSING_FOR_TEST", "fallback"))
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, parseMethods("get, head"))
}
