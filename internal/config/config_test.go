package config

import (
	"testing"

	"ts-catalog/internal/catalog"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"WORKER_COUNT", "CATALOG_DIR", "LOG_LEVEL", "SUGGEST_MIN_SCORE", "LINT_EXEMPT_LOCATIONS", "DEFAULT_LANGUAGE"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, 8, cfg.WorkerCount)
	assert.Equal(t, "translations", cfg.CatalogDir)
	assert.Equal(t, "auto", cfg.DefaultLanguage)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.InDelta(t, 0.55, cfg.SuggestMinScore, 1e-9)
	assert.Empty(t, cfg.ExemptLocations)
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WORKER_COUNT", "3")
	t.Setenv("CATALOG_DIR", "/srv/i18n")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("SUGGEST_MIN_SCORE", "0.7")
	t.Setenv("LINT_EXEMPT_LOCATIONS", "QObject|Error, Fm::FileDialog|F5|Reload,broken")

	cfg := Load()

	assert.Equal(t, 3, cfg.WorkerCount)
	assert.Equal(t, "/srv/i18n", cfg.CatalogDir)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.InDelta(t, 0.7, cfg.SuggestMinScore, 1e-9)
	assert.Equal(t, []catalog.Key{
		{Context: "QObject", Source: "Error"},
		{Context: "Fm::FileDialog", Source: "F5", Comment: "Reload"},
	}, cfg.ExemptLocations)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WORKER_COUNT", "many")
	t.Setenv("LOG_LEVEL", "loud")
	t.Setenv("SUGGEST_MIN_SCORE", "high")

	cfg := Load()

	assert.Equal(t, 8, cfg.WorkerCount)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.InDelta(t, 0.55, cfg.SuggestMinScore, 1e-9)
}
