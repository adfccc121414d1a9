package notify

import (
	"time"

	"jobpool/internal/config"
	"jobpool/pkg/circuitbreaker"
)

// Hardcoded delivery defaults - these rarely need tuning.
const (
	defaultMaxRetries       = 3
	defaultBreakerThreshold = 5
	defaultBreakerCooldown  = 30 * time.Second
)

// MemoryConfig holds configuration for the in-memory notifier.
type MemoryConfig struct {
	BufferSize  int           // pending events buffer (default: 1024)
	Workers     int           // concurrent delivery goroutines (default: 4)
	HTTPTimeout time.Duration // per-request timeout (default: 10s)
	SigningKey  string        // HMAC key for signing, empty = no signing
}

// LoadConfigFromEnv loads notifier configuration from environment variables.
func LoadConfigFromEnv() MemoryConfig {
	cfg := MemoryConfig{
		BufferSize:  config.IntEnv("NOTIFIER_BUFFER_SIZE", 1024),
		Workers:     config.IntEnv("NOTIFIER_WORKERS", 4),
		HTTPTimeout: config.DurationEnv("NOTIFIER_HTTP_TIMEOUT", 10*time.Second),
		SigningKey:  config.SecretFromFile(config.Env("NOTIFIER_SIGNING_KEY_FILE", "")),
	}
	return cfg.withDefaults()
}

// withDefaults fills in zero values with defaults.
func (c MemoryConfig) withDefaults() MemoryConfig {
	if c.BufferSize <= 0 {
		c.BufferSize = 1024
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 10 * time.Second
	}
	return c
}

func breakerConfig() circuitbreaker.Config {
	return circuitbreaker.Config{
		Threshold: defaultBreakerThreshold,
		Cooldown:  defaultBreakerCooldown,
	}
}
