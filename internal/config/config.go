// Package config reads server configuration from the environment.
package config

import (
	"os"
)

type Config struct {
	Port              string
	DBPath            string
	FirebaseProjectID string
	// CredentialsFile optionally points at a service account key; empty
	// means Application Default Credentials.
	CredentialsFile string
}

func Load() Config {
	return Config{
		Port:              getEnv("PORT", "8080"),
		DBPath:            getEnv("FINTRACK_DB", "fintrack.db"),
		FirebaseProjectID: getEnv("FIREBASE_PROJECT_ID", ""),
		CredentialsFile:   getEnv("FIREBASE_CREDENTIALS_FILE", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
