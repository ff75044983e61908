package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by VOICEDESK_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
// Missing files are skipped; unreadable or malformed ones are an error.
func Load() error {
	envFile := os.Getenv("VOICEDESK_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	for _, f := range []string{envFile, envFile + ".secret"} {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// APIURL returns the agent backend base URL without a trailing slash.
// Defaults to http://localhost:8000 if not set.
func APIURL() string {
	u := strings.TrimRight(os.Getenv("VOICEDESK_API_URL"), "/")
	if u == "" {
		return "http://localhost:8000"
	}
	return u
}

// MockBackendAddr is the listen address of cmd/mockbackend.
// Defaults to :8000 so the CLI's default API URL reaches it.
func MockBackendAddr() string {
	if addr := os.Getenv("MOCK_BACKEND_ADDR"); addr != "" {
		return addr
	}
	return ":8000"
}

// PollInterval returns how often agent status is refreshed.
// Accepts a Go duration ("5s") or whole seconds ("5"). Defaults to 5s.
func PollInterval() time.Duration {
	v := os.Getenv("POLL_INTERVAL")
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 5 * time.Second
}

// RateLimitRPS returns the outgoing requests per second limit.
// Defaults to 10 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 10
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 5 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 5
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "warn" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "warn"
	}
	return level
}
