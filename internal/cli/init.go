// Package cli holds the startup steps shared by the server and worker
// binaries.
package cli

import (
	"os"

	"github.com/joho/godotenv"

	"paga/internal/config"
	"paga/internal/log"
)

// Bootstrap loads the environment, installs the default logger and
// returns the validated configuration. It exits the process when the
// configuration is invalid.
func Bootstrap() (*config.Config, *log.Logger) {
	// .env is for local development; absent in containers.
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}
