package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocknews/rocktag/internal/config"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("data", "rock_artist_masterdata.csv"), cfg.Input.Artists)
	assert.Equal(t, "the", cfg.Dictionary.Article)
	assert.Equal(t, []string{"The Band", "Sweet", "!!!"}, cfg.Dictionary.Exclusions)
	assert.Equal(t, "last", cfg.Dictionary.Collisions)
	assert.Equal(t, map[string]string{"yes": "yesband"}, config.Map(cfg.Dictionary.KeySubstitutions))
	assert.Equal(t, map[string]string{"HIM": "himband"}, config.Map(cfg.Normalize.RawSubstitutions))
	assert.Equal(t, config.DefaultMaskPlaceholder, cfg.Normalize.MaskPlaceholder)
	assert.Equal(t, 0, cfg.Resolver.Workers)
	assert.Equal(t, ":8080", cfg.API.ListenAddr)
	assert.Equal(t, config.DefaultGraphBatchSize, cfg.Neo4j.BatchSize)
	assert.Equal(t, 50, cfg.Retention.KeepLast)
	assert.Equal(t, time.Duration(0), cfg.Retention.MaxAge)
}

func TestLoad_Environment(t *testing.T) {
	isolate(t)
	t.Setenv("ROCKTAG_RESOLVER_WORKERS", "4")
	t.Setenv("ROCKTAG_API_LISTEN_ADDR", "127.0.0.1:9999")
	t.Setenv("ROCKTAG_DICTIONARY_COLLISIONS", "first")
	t.Setenv("NEO4J_PASSWORD", "s3cret-pass")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Resolver.Workers)
	assert.Equal(t, "127.0.0.1:9999", cfg.API.ListenAddr)
	assert.Equal(t, "first", cfg.Dictionary.Collisions)
	assert.Equal(t, "s3cret-pass", cfg.Neo4j.Password)
}

func TestLoad_RetentionDuration(t *testing.T) {
	isolate(t)
	t.Setenv("ROCKTAG_RETENTION_MAX_AGE", "720h")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 720*time.Hour, cfg.Retention.MaxAge)
}

func TestLoad_ConfigFileInWorkingDirectory(t *testing.T) {
	dir := isolate(t)
	yaml := `
input:
  artists: a.csv
  members: m.csv
normalize:
  raw_substitutions:
    - from: HIM
      to: himband
    - from: AC/DC
      to: acdc
logging:
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "a.csv", cfg.Input.Artists)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, map[string]string{"HIM": "himband", "AC/DC": "acdc"}, config.Map(cfg.Normalize.RawSubstitutions))
}

func TestLoadFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("resolver:\n  workers: 2\n"), 0o600))

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Resolver.Workers)

	_, err = config.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidFileIsRejected(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("dictionary:\n  collisions: random\n"), 0o600))

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dictionary.collisions")
}

func validConfig() *config.Config {
	return &config.Config{
		Input:      config.InputConfig{Artists: "a.csv", Members: "m.csv"},
		Dictionary: config.DictionaryConfig{Article: "the", Collisions: "last"},
		Logging:    config.LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{"missing artists", func(c *config.Config) { c.Input.Artists = "" }, "input.artists"},
		{"missing members", func(c *config.Config) { c.Input.Members = "" }, "input.members"},
		{"unknown collision policy", func(c *config.Config) { c.Dictionary.Collisions = "both" }, "dictionary.collisions"},
		{"multi-word article", func(c *config.Config) { c.Dictionary.Article = "the a" }, "dictionary.article"},
		{"negative workers", func(c *config.Config) { c.Resolver.Workers = -1 }, "resolver.workers"},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"negative batch size", func(c *config.Config) { c.Neo4j.BatchSize = -5 }, "neo4j.batch_size"},
	}

	require.NoError(t, validConfig().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestNeo4jConfig_StringMasksPassword(t *testing.T) {
	c := config.Neo4jConfig{URI: "neo4j://db:7687", Username: "neo4j", Password: "supersecret"}
	s := c.String()
	assert.NotContains(t, s, "supersecret")
	assert.True(t, strings.Contains(s, "su****et"))

	c.Password = "abc"
	assert.Contains(t, c.String(), "Password:***")
}

func TestMap_DropsIncompleteEntries(t *testing.T) {
	got := config.Map([]config.Substitution{{From: "yes", To: "yesband"}, {From: "", To: "x"}, {From: "y"}})
	assert.Equal(t, map[string]string{"yes": "yesband"}, got)
}
