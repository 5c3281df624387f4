// Package config loads server configuration from the environment, with an
// optional .env file for development setups.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	// VisionAPIKey is the cloud recognition credential. Empty means the
	// server starts local-only; a credential can still be supplied later
	// through the ocr_update_credential tool.
	VisionAPIKey string

	// VisionEndpoint overrides the annotate URL, mainly for tests.
	VisionEndpoint string

	// Language is the default recognition language ("eng" when unset).
	Language string

	// LogLevel enables debug logging when set to "debug".
	LogLevel string

	// CloudRPS throttles outbound cloud requests per second.
	CloudRPS float64

	// CloudTimeout bounds one cloud request/response cycle.
	CloudTimeout time.Duration
}

// Load reads configuration from the environment. A .env file in the
// working directory is merged in first when present; a missing file is
// not an error.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		VisionAPIKey:   os.Getenv("MENU_OCR_VISION_API_KEY"),
		VisionEndpoint: os.Getenv("MENU_OCR_VISION_ENDPOINT"),
		Language:       envOr("MENU_OCR_LANGUAGE", "eng"),
		LogLevel:       os.Getenv("MENU_OCR_LOG_LEVEL"),
		CloudRPS:       envFloat("MENU_OCR_CLOUD_RPS", 5),
		CloudTimeout:   envDuration("MENU_OCR_CLOUD_TIMEOUT_MS", 30*time.Second),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
