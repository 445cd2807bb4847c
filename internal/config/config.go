// Package config reads rulebook settings from the environment, after an
// optional .env file.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names
const (
	EnvContentDir     = "RULEBOOK_CONTENT_DIR"
	EnvFuzzyThreshold = "RULEBOOK_FUZZY_THRESHOLD"
	EnvMaxResults     = "RULEBOOK_MAX_RESULTS"
	EnvWatch          = "RULEBOOK_WATCH"
)

const (
	defaultFuzzyThreshold = 0.4
	defaultMaxResults     = 20
)

// Config holds runtime settings
type Config struct {
	ContentDir     string  // Empty means the embedded sample content
	FuzzyThreshold float64 // Matcher tolerance, clamped to [0,1]
	MaxResults     int
	Watch          bool // Rebuild when ContentDir changes
}

// Load reads .env files (missing files are ignored) and then the environment.
// Variables already set in the environment take precedence over .env values.
func Load(envFiles ...string) Config {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only
func FromEnv() Config {
	cfg := Config{
		ContentDir:     getEnv(EnvContentDir, ""),
		FuzzyThreshold: getEnvFloat(EnvFuzzyThreshold, defaultFuzzyThreshold),
		MaxResults:     getEnvInt(EnvMaxResults, defaultMaxResults),
		Watch:          getEnvBool(EnvWatch, false),
	}

	if cfg.FuzzyThreshold < 0 {
		cfg.FuzzyThreshold = 0
	}
	if cfg.FuzzyThreshold > 1 {
		cfg.FuzzyThreshold = 1
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaultMaxResults
	}
	if cfg.Watch && cfg.ContentDir == "" {
		log.Printf("Warning: %s set without %s, embedded content is not watched", EnvWatch, EnvContentDir)
		cfg.Watch = false
	}
	return cfg
}

func (c Config) String() string {
	source := c.ContentDir
	if source == "" {
		source = "embedded"
	}
	return fmt.Sprintf("content=%s threshold=%.2f max_results=%d watch=%v", source, c.FuzzyThreshold, c.MaxResults, c.Watch)
}

func getEnv(key, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			return i
		}
		log.Printf("Warning: invalid %s=%q, using %d", key, v, defaultValue)
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil {
			return f
		}
		log.Printf("Warning: invalid %s=%q, using %v", key, v, defaultValue)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err == nil {
			return b
		}
		log.Printf("Warning: invalid %s=%q, using %v", key, v, defaultValue)
	}
	return defaultValue
}
