package config

import (
	"github.com/joho/godotenv"
)

// LoadEnv loads a .env file from the working directory if one exists.
// Callers treat a missing file as non-fatal.
func LoadEnv() error {
	return godotenv.Load()
}
