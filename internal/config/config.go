package config

import (
	"os"
	"strconv"
	"strings"

	"ts-catalog/internal/catalog"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	DatabaseURL         string
	Neo4jURI            string
	Neo4jUser           string
	Neo4jPassword       string
	WorkerCount         int
	CatalogDir          string
	CatalogDomain       string
	DefaultLanguage     string
	FallbackLanguage    string
	EmbeddingDimensions int
	SuggestTopK         int
	SuggestMinScore     float64
	LogLevel            zerolog.Level
	ExemptLocations     []catalog.Key
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	return &Config{
		DatabaseURL:         getEnv("DATABASE_URL", "postgres://localhost:5432/ts_catalog?sslmode=disable"),
		Neo4jURI:            getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:           getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:       getEnv("NEO4J_PASSWORD", "password"),
		WorkerCount:         getEnvInt("WORKER_COUNT", 8),
		CatalogDir:          getEnv("CATALOG_DIR", "translations"),
		CatalogDomain:       getEnv("CATALOG_DOMAIN", ""),
		DefaultLanguage:     getEnv("DEFAULT_LANGUAGE", "auto"),
		FallbackLanguage:    getEnv("FALLBACK_LANGUAGE", "en"),
		EmbeddingDimensions: getEnvInt("EMBEDDING_DIMENSIONS", 256),
		SuggestTopK:         getEnvInt("SUGGEST_TOP_K", 3),
		SuggestMinScore:     getEnvFloat("SUGGEST_MIN_SCORE", 0.55),
		LogLevel:            getEnvLevel("LOG_LEVEL", zerolog.InfoLevel),
		ExemptLocations:     parseKeys(os.Getenv("LINT_EXEMPT_LOCATIONS")),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvLevel(key string, fallback zerolog.Level) zerolog.Level {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	level, err := zerolog.ParseLevel(strings.ToLower(v))
	if err != nil || level == zerolog.NoLevel {
		return fallback
	}
	return level
}

// parseKeys reads a comma separated list of "context|source" or
// "context|source|comment" entries.
func parseKeys(v string) []catalog.Key {
	var keys []catalog.Key
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.SplitN(item, "|", 3)
		if len(parts) < 2 {
			continue
		}
		key := catalog.Key{Context: parts[0], Source: parts[1]}
		if len(parts) == 3 {
			key.Comment = parts[2]
		}
		keys = append(keys, key)
	}
	return keys
}
