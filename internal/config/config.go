package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultDBPath = "./dev.db"
	defaultPort   = "8080"
	defaultAppEnv = "development"
	dotEnvFile    = ".env"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	AppEnv        string
	LogLevel      string
	AdminEmail    string
	AdminPassword string
	SessionSecret string
	DBPath        string
	Port          string
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	// Best-effort: a missing .env is fine, production injects real env vars.
	_ = loadDotEnv(dotEnvFile)
	return fromEnv()
}

// loadDotEnv loads path into the process environment without overwriting
// variables that are already set.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

func fromEnv() Config {
	cfg := Config{
		AppEnv:        strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV"))),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		DBPath:        os.Getenv("DB_PATH"),
		Port:          os.Getenv("PORT"),
	}

	if cfg.AppEnv == "" {
		cfg.AppEnv = defaultAppEnv
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}

	return cfg
}

// IsDev reports whether the service runs in a local development environment,
// where migrations and seed data are applied on startup.
func (c Config) IsDev() bool {
	switch c.AppEnv {
	case "dev", "development", "local":
		return true
	}
	return false
}

// Warnings lists missing settings worth logging at startup.
func (c Config) Warnings() []string {
	var out []string
	if c.AdminEmail == "" {
		out = append(out, "ADMIN_EMAIL is not set")
	}
	if c.AdminPassword == "" {
		out = append(out, "ADMIN_PASSWORD is not set")
	}
	if c.SessionSecret == "" {
		out = append(out, "SESSION_SECRET is not set")
	}
	return out
}
