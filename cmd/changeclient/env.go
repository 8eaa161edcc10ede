package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// envFileVar names an env file to load instead of ./.env. Unlike ./.env it
// must exist.
const envFileVar = "CHANGECLIENT_ENV_FILE"

// loadDotEnv loads environment variables from an env file. Variables already
// set in the process environment are not overridden.
func loadDotEnv() error {
	if path := os.Getenv(envFileVar); path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		return nil
	}

	err := godotenv.Load()
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return fmt.Errorf("load .env: %w", err)
}
