package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

func envInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envPositiveInt(key string, fallback int) (int, error) {
	n, err := envInt(key, fallback)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

// envDuration parses a duration variable. allowZero permits "0" for settings
// where zero disables the feature.
func envDuration(key, fallback string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}
