// Package cli provides common initialization for the despesas binaries.
package cli

import (
	"os"

	"github.com/joho/godotenv"

	"despesas/internal/config"
	applog "despesas/internal/log"
	"despesas/internal/storage"
)

// SetupLogger initializes structured logging and installs it as the process
// default.
func SetupLogger() *applog.Logger {
	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development. Errors are ignored
// silently as the file is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it. Returns the
// config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenStore opens the configured persistence backend or exits the process.
func OpenStore(logger *applog.Logger, cfg *config.Config) storage.Store {
	backend := storage.BackendType(cfg.DataBackend)
	store, err := storage.Open(backend, storage.Options{
		DataDir:      cfg.DataDir,
		SQLiteDBPath: cfg.SQLiteDBPath,
	}, logger.Logger)
	if err != nil {
		logger.Error("Failed to open store",
			applog.FieldError, err,
			"backend", cfg.DataBackend)
		os.Exit(1)
	}
	return store
}
