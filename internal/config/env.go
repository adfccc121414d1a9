package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Env returns the value of an environment variable, falling back to def
// when unset or empty.
func Env(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// IntEnv parses an integer environment variable, falling back to def when
// unset or unparseable. A malformed value is logged rather than silently
// swallowed.
func IntEnv(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("Ignoring malformed integer environment variable", "key", key, "value", v)
		return def
	}
	return n
}

// DurationEnv parses a duration environment variable (Go duration syntax,
// e.g. "5s"), falling back to def when unset or unparseable.
func DurationEnv(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("Ignoring malformed duration environment variable", "key", key, "value", v)
		return def
	}
	return d
}

// SecretFromFile reads a secret value from a file path, trimming trailing
// whitespace. Empty path or unreadable file yields "". Works with Docker
// secrets (/run/secrets/) and mounted K8s secret volumes.
func SecretFromFile(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("Failed to read secret file", "path", path, "error", err)
		return ""
	}
	return strings.TrimSpace(string(data))
}
