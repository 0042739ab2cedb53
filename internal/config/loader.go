// Package config loads the engine configuration from the environment.
//
// The loading sequence is:
//  1. Load .env via godotenv (non-fatal if absent; local development only).
//  2. Populate the Config struct from CASENOTIFY_-prefixed environment
//     variables via envconfig struct tags.
//  3. Validate the populated struct with go-playground/validator.
//  4. Parse the business-hours window eagerly so a bad timezone or window
//     string fails at startup rather than on the first out-of-hours check.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"casenotify/internal/types"
)

// envPrefix namespaces all engine environment variables, e.g.
// CASENOTIFY_AWS_EVENT_QUEUE_URL.
const envPrefix = "CASENOTIFY"

// Load reads, validates, and returns the engine configuration.
func Load() (*types.Config, error) {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	var cfg types.Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("config: processing environment: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	if err := checkBusinessHours(cfg.Hours); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// checkBusinessHours verifies the window strings and timezone parse.
func checkBusinessHours(h types.BusinessHours) error {
	if _, err := time.LoadLocation(h.Timezone); err != nil {
		return fmt.Errorf("config: invalid business-hours timezone %q: %w", h.Timezone, err)
	}
	for _, v := range []string{h.Start, h.End} {
		if _, err := time.Parse("15:04", v); err != nil {
			return fmt.Errorf("config: invalid business-hours time %q: %w", v, err)
		}
	}
	return nil
}
