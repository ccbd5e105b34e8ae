package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port string

	// DataDir is where the CSV collection files live (default "data").
	DataDir string

	JWTSecret string

	// JWTExpireHours is the token lifetime in hours (default 24). Set via JWT_EXPIRE_HOURS.
	JWTExpireHours int

	// Env is "dev" (default) or "prod". When "prod", JWT_SECRET must be set and not the default.
	Env string

	// LogFormat is "text" (default) or "json" for structured logging.
	LogFormat string

	// ReminderCron is a cron expression for the due-date reminder job
	// (e.g. "0 8 * * *" for daily at 08:00). Empty disables the job.
	ReminderCron string

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	// When empty, the API listens with plain HTTP.
	TLSCertFile string
	TLSKeyFile  string

	// CORSAllowedOrigins is a list of origins allowed for CORS (e.g. http://localhost:3000).
	// Set via CORS_ALLOWED_ORIGINS (comma-separated). When empty, no CORS headers are sent (same-origin only).
	CORSAllowedOrigins []string
}

func Load() Config {
	return Config{
		Port:    getEnv("PORT", "8080"),
		DataDir: getEnv("DATA_DIR", "data"),

		JWTSecret:      getEnv("JWT_SECRET", "supersecretkey"),
		JWTExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
		Env:            getEnv("ENV", "dev"),

		LogFormat: getEnv("LOG_FORMAT", "text"),

		ReminderCron: getEnv("REMINDER_CRON", ""),

		// Optional TLS configuration for HTTPS.
		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),

		CORSAllowedOrigins: parseCORSOrigins(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}
}

// parseCORSOrigins splits a comma-separated list of origins and trims spaces. Empty strings are omitted.
func parseCORSOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
