package utils

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

func LoadEnv(requiredVars []string) (map[string]string, error) {
	_ = godotenv.Load()

	envVars := make(map[string]string)

	for _, key := range requiredVars {
		value := os.Getenv(key)
		if value == "" {
			return nil, fmt.Errorf("missing required environment variable: %s", key)
		}
		envVars[key] = value
	}

	return envVars, nil
}

// GetEnv returns the value of key or fallback when it is unset or empty.
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func GetEnvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid integer in %s: %w", key, err)
	}
	return value, nil
}

func GetEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration in %s: %w", key, err)
	}
	return value, nil
}

func GetEnvBool(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid boolean in %s: %w", key, err)
	}
	return value, nil
}

// ConvertToBuenosAiresTime formats t as wall-clock time in Argentina, where the
// band and most of the audience live.
func ConvertToBuenosAiresTime(t time.Time) string {
	location := time.FixedZone("Buenos Aires Time", -3*60*60)
	return t.In(location).Format("2006-01-02 15:04:05")
}
