package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port             string
	Env              string
	PostgresConnStr  string
	JWTSecret        string
	FanoutBatchSize  int
	FanoutWorkers    int
	FanoutGlobalMode string
}

func Load() *Config {
	return &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("ENV", "development"),
		PostgresConnStr:  getEnv("POSTGRES_CONN_STR", ""),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		FanoutBatchSize:  getEnvInt("FANOUT_BATCH_SIZE", 500),
		FanoutWorkers:    getEnvInt("FANOUT_WORKERS", 4),
		FanoutGlobalMode: getEnv("FANOUT_GLOBAL_MODE", "broadcast"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
