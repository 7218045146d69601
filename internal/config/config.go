package config

import (
	"errors"
	"os"
	"time"
)

type Config struct {
	DatabaseURL string
	JWTSecret   string
	SystemSalt  string
	TokenTTL    time.Duration
	HTTPAddr    string
	LogLevel    string
	Env         string // dev|prod
	SentryDSN   string
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		SystemSalt:  os.Getenv("SYSTEM_SALT"),
		TokenTTL:    7 * 24 * time.Hour,
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		Env:         getenv("ENV", "dev"),
		SentryDSN:   os.Getenv("SENTRY_DSN"),
	}
	// без БД и секрета сервис не имеет смысла — падаем на старте,
	// а не 500-им на каждом запросе
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL не задан")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET не задан")
	}
	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
