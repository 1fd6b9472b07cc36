package config

import "os"

// Config carries everything main needs to compose the service. The
// store backend is chosen once here: a DATABASE_URL selects the
// PostgreSQL pool, otherwise the embedded SQLite file is used.
type Config struct {
	ServerAddress string

	DatabaseURL string
	SQLitePath  string

	ValkeyAddress  string
	ValkeyPassword string
	ValkeyTLS      bool
}

func FromEnv() Config {
	return Config{
		ServerAddress:  getenv("SERVER_ADDRESS", ":8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		SQLitePath:     getenv("SQLITE_PATH", "sentisweep.db"),
		ValkeyAddress:  os.Getenv("VALKEY_ADDRESS"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),
		ValkeyTLS:      os.Getenv("VALKEY_TLS") == "true",
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
