// Package config loads the service's environment configuration. Every
// field here is ambient/transport concern -- none of it is consumed
// by the session core, which only ever sees a domain.Room or an
// identity.Principal handed to it by these outer layers.
package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Environment string `env:"ENVIRONMENT"`
	Host        string `env:"HOST"`
	Port        string `env:"PORT"`
	LogLevel    string `env:"LOG_LEVEL"`
	Origins     []string

	// Identity provider -- realm-based JWKS verification when set,
	// falling back to a static RSA public key otherwise.
	IdentityServerURL string `env:"IDENTITY_SERVER_URL"`
	IdentityRealm     string `env:"IDENTITY_REALM"`
	IdentityAudience  string `env:"IDENTITY_AUDIENCE"`
	JWTRSAPublicKey   string `env:"JWT_RSA_PUBLIC_KEY,secret"`

	// Admin rate limiting.
	RedisURL          string `env:"REDIS_URL"`
	RedisRateLimitMax int    `env:"REDIS_RATE_LIMIT_MAX"`

	// Audit trail (ops/audit only -- never read by the session core).
	DatabaseURL string `env:"DATABASE_URL,secret"`
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Environment:       getEnv("ENVIRONMENT", "development"),
		Host:              getEnv("HOST", "0.0.0.0"),
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		Origins:           getEnvAsOrigins("ORIGINS", []string{"http://localhost:3000"}),
		IdentityServerURL: getEnv("IDENTITY_SERVER_URL", ""),
		IdentityRealm:     getEnv("IDENTITY_REALM", ""),
		IdentityAudience:  getEnv("IDENTITY_AUDIENCE", ""),
		JWTRSAPublicKey:   getEnv("JWT_RSA_PUBLIC_KEY", ""),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisRateLimitMax: getEnvAsInt("REDIS_RATE_LIMIT_MAX", 100),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsOrigins parses a comma-separated, bracket-wrapped list like
// "[http://localhost:3000,https://app.example.com]".
func getEnvAsOrigins(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	value = strings.TrimPrefix(value, "[")
	value = strings.TrimSuffix(value, "]")
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
