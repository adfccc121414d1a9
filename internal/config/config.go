// Package config provides configuration loading from environment variables
// and an optional YAML config file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServiceConfig holds configuration for the pool service.
type ServiceConfig struct {
	Port              string        `yaml:"port"`
	MetricsPort       string        `yaml:"metricsPort"`
	APIKey            string        `yaml:"-"` // secrets never come from the config file
	ShutdownDrainWait time.Duration `yaml:"shutdownDrainWait"` // time to wait for load balancer draining (0 to skip)
	CallbackURL       string        `yaml:"callbackURL"`       // webhook destination for lifecycle events, empty disables
}

// PoolConfig holds configuration for the job pool.
type PoolConfig struct {
	MaxJobs          int `yaml:"maxJobs"`          // hard slot ceiling
	SubmissionBuffer int `yaml:"submissionBuffer"` // intake channel capacity
	CompletionBuffer int `yaml:"completionBuffer"` // completion channel capacity
}

// LoadServiceConfig loads service configuration from environment variables.
func LoadServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		Port:              Env("PORT", "8080"),
		MetricsPort:       Env("METRICS_PORT", "9090"),
		APIKey:            SecretFromFile(Env("API_KEY_FILE", "")),
		ShutdownDrainWait: DurationEnv("SHUTDOWN_DRAIN_WAIT", 5*time.Second),
		CallbackURL:       Env("CALLBACK_URL", ""),
	}
}

// LoadPoolConfig loads pool configuration from environment variables.
func LoadPoolConfig() *PoolConfig {
	cfg := &PoolConfig{
		MaxJobs:          IntEnv("POOL_MAX_JOBS", 4),
		SubmissionBuffer: IntEnv("POOL_SUBMISSION_BUFFER", 32),
		CompletionBuffer: IntEnv("POOL_COMPLETION_BUFFER", 32),
	}
	return cfg.withDefaults()
}

// withDefaults fills in zero or invalid values with defaults.
func (c *PoolConfig) withDefaults() *PoolConfig {
	if c.MaxJobs <= 0 {
		c.MaxJobs = 4
	}
	if c.SubmissionBuffer <= 0 {
		c.SubmissionBuffer = 32
	}
	if c.CompletionBuffer <= 0 {
		c.CompletionBuffer = 32
	}
	return c
}

// fileConfig is the shape of the optional YAML config file. Values present in
// the file override the environment-derived configuration.
type fileConfig struct {
	Service *ServiceConfig `yaml:"service"`
	Pool    *PoolConfig    `yaml:"pool"`
}

// ApplyFile overlays a YAML config file onto existing configuration.
// Only fields set in the file are applied.
func ApplyFile(path string, svc *ServiceConfig, pool *PoolConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Service != nil {
		if fc.Service.Port != "" {
			svc.Port = fc.Service.Port
		}
		if fc.Service.MetricsPort != "" {
			svc.MetricsPort = fc.Service.MetricsPort
		}
		if fc.Service.ShutdownDrainWait > 0 {
			svc.ShutdownDrainWait = fc.Service.ShutdownDrainWait
		}
		if fc.Service.CallbackURL != "" {
			svc.CallbackURL = fc.Service.CallbackURL
		}
	}
	if fc.Pool != nil {
		if fc.Pool.MaxJobs > 0 {
			pool.MaxJobs = fc.Pool.MaxJobs
		}
		if fc.Pool.SubmissionBuffer > 0 {
			pool.SubmissionBuffer = fc.Pool.SubmissionBuffer
		}
		if fc.Pool.CompletionBuffer > 0 {
			pool.CompletionBuffer = fc.Pool.CompletionBuffer
		}
	}
	return nil
}
