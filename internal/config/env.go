package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// env returns the parsed value of key, or fallback when the variable is
// unset or does not parse.
func env[T any](key string, fallback T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	v, err := parse(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envString(key, fallback string) string {
	return env(key, fallback, func(s string) (string, error) { return s, nil })
}

func envInt(key string, fallback int) int {
	return env(key, fallback, strconv.Atoi)
}

func envInt64(key string, fallback int64) int64 {
	return env(key, fallback, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) })
}

func envFloat(key string, fallback float64) float64 {
	return env(key, fallback, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func envBool(key string, fallback bool) bool {
	return env(key, fallback, strconv.ParseBool)
}

func envDuration(key string, fallback time.Duration) time.Duration {
	return env(key, fallback, time.ParseDuration)
}

// envList splits a comma separated value, dropping blanks. An all-blank value
// keeps the fallback.
func envList(key string, fallback []string) []string {
	list := env[[]string](key, nil, func(s string) ([]string, error) {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	})
	if len(list) == 0 {
		return fallback
	}
	return list
}
