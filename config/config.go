package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPort     = "3000"
	DefaultDriver   = "sqlite3"
	DefaultDSN      = "library.db"
	DefaultLogLevel = "info"
)

// Config holds process settings. For sqlite3, DSN is a file path; for the
// other drivers it is passed to the driver untouched (mysql needs
// parseTime=true&clientFoundRows=true).
type Config struct {
	Port     string
	Driver   string
	DSN      string
	LogLevel string
}

// Load reads .env when present, then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file, using system environment")
	} else {
		logrus.Debug(".env file loaded")
	}

	return Config{
		Port:     GetEnv("PORT", DefaultPort),
		Driver:   GetEnv("DB_DRIVER", DefaultDriver),
		DSN:      GetEnv("DB_DSN", DefaultDSN),
		LogLevel: GetEnv("LOG_LEVEL", DefaultLogLevel),
	}
}

// GetEnv returns the value of key, or the first default when it is unset or
// empty.
func GetEnv(key string, defaultValue ...string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}
