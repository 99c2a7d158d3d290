/*
Package config loads the server configuration.

SOURCES (later wins):
  1. Defaults
  2. .env file in the working directory, when present
  3. Environment variables
  4. Command-line flags (applied by cmd/server)

VARIABLES:
  APP_PORT             HTTP port (8080)
  DB_PATH              SQLite database path (payroll.db), ":memory:" allowed
  LOG_LEVEL            zerolog level (info)
  LOG_FILE_PATH        optional log file, appended to
  PAYROLL_CONCURRENCY  employees computed in parallel by batch runs (4)
  PARAMETERS_FILE      optional YAML pay-parameters seed
  CORS_ORIGINS         comma separated allowed origins

SEE ALSO:
  - parameters.go: YAML pay-parameters seed
  - cmd/server/main.go: flag overrides
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Payroll  PayrollConfig
}

type AppConfig struct {
	Port        int
	LogLevel    string
	LogFilePath string
	CORSOrigins []string
}

type DatabaseConfig struct {
	Path string
}

type PayrollConfig struct {
	Concurrency    int
	ParametersFile string
}

// Load reads .env (if any) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	port, err := getEnvInt("APP_PORT", 8080)
	if err != nil {
		return nil, err
	}
	concurrency, err := getEnvInt("PAYROLL_CONCURRENCY", 4)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Port:        port,
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFilePath: getEnv("LOG_FILE_PATH", ""),
			CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:8080"}),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "payroll.db"),
		},
		Payroll: PayrollConfig{
			Concurrency:    concurrency,
			ParametersFile: getEnv("PARAMETERS_FILE", ""),
		},
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("invalid APP_PORT %d", c.App.Port)
	}
	if c.Payroll.Concurrency <= 0 {
		return fmt.Errorf("invalid PAYROLL_CONCURRENCY %d", c.Payroll.Concurrency)
	}
	if _, err := zerolog.ParseLevel(c.App.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q", c.App.LogLevel)
	}
	if c.Database.Path == "" {
		return errors.New("DB_PATH is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvSlice(key string, defaultValue []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
