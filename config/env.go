package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Environment variables
const (
	EnvConfigPath   = "CHAINSWAP_CONFIG"
	EnvAdminAddress = "CHAINSWAP_ADMIN"
	EnvDestChain    = "CHAINSWAP_DEST_CHAIN"
)

// LoadEnv loads environment variables from .env file
func LoadEnv() error {
	return godotenv.Load()
}

// GetEnvWithDefault gets an environment variable with a default value
func GetEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
