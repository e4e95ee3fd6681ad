package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Get returns the environment variable key, or the trimmed contents of the
// file named by key_FILE, or def.
func Get(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if path := os.Getenv(key + "_FILE"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			return strings.TrimSpace(string(data))
		}
	}
	return def
}

// parsed runs parse over Get(key). Unset or unparsable values yield def.
func parsed[T any](key string, def T, parse func(string) (T, error)) T {
	val := Get(key, "")
	if val == "" {
		return def
	}
	v, err := parse(val)
	if err != nil {
		return def
	}
	return v
}

func GetInt(key string, def int) int {
	return parsed(key, def, strconv.Atoi)
}

func GetFloat(key string, def float64) float64 {
	return parsed(key, def, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// GetBool accepts 1/t/true/y/yes and 0/f/false/n/no, any case.
func GetBool(key string, def bool) bool {
	return parsed(key, def, parseBool)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	}
	return strconv.ParseBool(strings.ToLower(s))
}

// GetDuration reads key with ParseDuration.
func GetDuration(key string, def time.Duration) time.Duration {
	return parsed(key, def, ParseDuration)
}

// ParseDuration extends time.ParseDuration with whole days ("7d") and
// weeks ("2w"), the units retention windows are usually given in.
func ParseDuration(s string) (time.Duration, error) {
	lower := strings.ToLower(strings.TrimSpace(s))
	for suffix, unit := range map[string]time.Duration{"d": 24 * time.Hour, "w": 7 * 24 * time.Hour} {
		if n, err := strconv.Atoi(strings.TrimSuffix(lower, suffix)); err == nil && strings.HasSuffix(lower, suffix) {
			return time.Duration(n) * unit, nil
		}
	}
	return time.ParseDuration(lower)
}
