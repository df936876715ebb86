package config

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// S3 rejects presigned URLs that live longer than a week.
const maxPresignTTL = 7 * 24 * time.Hour

var logLevels = []string{"debug", "info", "warn", "error"}

func validate(cfg *Config) error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	switch {
	case cfg.JWT.Secret == "":
		fail("JWT_SECRET is required")
	case len(cfg.JWT.Secret) < 32 && cfg.App.IsProduction():
		fail("JWT_SECRET must be at least 32 characters in production")
	}
	if cfg.JWT.RefreshTokenTTL < cfg.JWT.AccessTokenTTL {
		fail("JWT_REFRESH_TTL (%s) must not be shorter than JWT_ACCESS_TTL (%s)",
			cfg.JWT.RefreshTokenTTL, cfg.JWT.AccessTokenTTL)
	}

	if cfg.Database.Password == "" && !cfg.App.IsDevelopment() {
		fail("DB_PASSWORD is required in non-development environments")
	}
	if cfg.Database.SSLMode == "disable" && cfg.App.IsProduction() {
		fail("DB_SSLMODE=disable is not allowed in production")
	}

	if cfg.Storage.Bucket == "" {
		fail("STORAGE_BUCKET is required")
	}
	if cfg.Storage.MaxUploadBytes <= 0 {
		fail("STORAGE_MAX_UPLOAD_BYTES must be positive")
	}
	if cfg.Storage.PresignTTL > maxPresignTTL {
		fail("STORAGE_PRESIGN_TTL must not exceed %s", maxPresignTTL)
	}

	if cfg.RateLimit.RequestsPerSecond < 0 || cfg.RateLimit.BurstSize < 0 || cfg.RateLimit.AuthRequestsPerMinute < 0 {
		fail("rate limits must not be negative")
	}

	if cfg.Log.Level != "" && !slices.Contains(logLevels, cfg.Log.Level) {
		fail("LOG_LEVEL %q is not one of %v", cfg.Log.Level, logLevels)
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
