package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the meetsync service.
type Config struct {
	HTTPPort        int
	SQLiteDSN       string
	RedisAddr       string
	CacheTTL        time.Duration
	SlotStepMinutes int
}

// Load parses configuration values from the current process environment.
//
// A .env file in the working directory is read first when present; real
// environment variables take precedence over it. The loader applies defaults
// for every field and reports all missing or malformed entries at once.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:        8080,
		SQLiteDSN:       "file:meetsync.db?_foreign_keys=on",
		RedisAddr:       "",
		CacheTTL:        time.Minute,
		SlotStepMinutes: 15,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("MEETSYNC_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "MEETSYNC_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("MEETSYNC_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	// Empty means no Redis: the service falls back to its in-process cache.
	cfg.RedisAddr = strings.TrimSpace(os.Getenv("MEETSYNC_REDIS_ADDR"))

	if ttlValue := strings.TrimSpace(os.Getenv("MEETSYNC_CACHE_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "MEETSYNC_CACHE_TTL")
		} else {
			cfg.CacheTTL = ttl
		}
	}

	if stepValue := strings.TrimSpace(os.Getenv("MEETSYNC_SLOT_STEP_MINUTES")); stepValue != "" {
		step, err := strconv.Atoi(stepValue)
		if err != nil || step <= 0 || step > 60 {
			invalid = append(invalid, "MEETSYNC_SLOT_STEP_MINUTES")
		} else {
			cfg.SlotStepMinutes = step
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
