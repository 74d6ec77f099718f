package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultMaskPlaceholder replaces confirmed entity names in masked text.
	DefaultMaskPlaceholder = "bandname"

	// DefaultGraphBatchSize is the number of rows per graph write.
	DefaultGraphBatchSize = 500
)

// Config holds all configuration for rocktag.
type Config struct {
	Input      InputConfig      `mapstructure:"input"`
	Output     OutputConfig     `mapstructure:"output"`
	Dictionary DictionaryConfig `mapstructure:"dictionary"`
	Normalize  NormalizeConfig  `mapstructure:"normalize"`
	Resolver   ResolverConfig   `mapstructure:"resolver"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	API        APIConfig        `mapstructure:"api"`
	Neo4j      Neo4jConfig      `mapstructure:"neo4j"`
	Retention  RetentionConfig  `mapstructure:"retention"`
}

// InputConfig holds the paths of the input tables.
type InputConfig struct {
	Artists  string `mapstructure:"artists"`
	Members  string `mapstructure:"members"`
	News     string `mapstructure:"news"`
	Keywords string `mapstructure:"keywords"` // optional
	Feedback string `mapstructure:"feedback"` // optional, read by mask
}

// OutputConfig holds where run results go.
type OutputConfig struct {
	Dir      string `mapstructure:"dir"`
	Database string `mapstructure:"database"`
}

// Substitution is a literal whole-word replacement.
type Substitution struct {
	From string `mapstructure:"from"`
	To   string `mapstructure:"to"`
}

// DictionaryConfig controls gazetteer construction.
type DictionaryConfig struct {
	Exclusions       []string       `mapstructure:"exclusions"`
	Article          string         `mapstructure:"article"`
	AliasExceptions  []string       `mapstructure:"alias_exceptions"`
	AliasDenylist    []string       `mapstructure:"alias_denylist"`
	KeySubstitutions []Substitution `mapstructure:"key_substitutions"`
	Collisions       string         `mapstructure:"collisions"`
}

// NormalizeConfig controls text normalization.
type NormalizeConfig struct {
	// RawSubstitutions are case-sensitive, so they are a list rather than
	// a map: viper lower-cases map keys.
	RawSubstitutions []Substitution `mapstructure:"raw_substitutions"`
	MaskPlaceholder  string         `mapstructure:"mask_placeholder"`
}

// ResolverConfig controls corpus resolution.
type ResolverConfig struct {
	Workers int `mapstructure:"workers"` // 0 = GOMAXPROCS
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	AuthToken  string `mapstructure:"auth_token"`
}

// Neo4jConfig holds graph export settings.
type Neo4jConfig struct {
	URI       string `mapstructure:"uri"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	Database  string `mapstructure:"database"`
	BatchSize int    `mapstructure:"batch_size"`
}

// RetentionConfig controls pruning of recorded runs. Zero disables a rule.
type RetentionConfig struct {
	KeepLast int           `mapstructure:"keep_last"`
	MaxAge   time.Duration `mapstructure:"max_age"`
}

// String returns a safe representation of Neo4jConfig with the password masked.
func (c Neo4jConfig) String() string {
	return fmt.Sprintf("Neo4jConfig{URI:%s, Username:%s, Password:%s, Database:%s}",
		c.URI, c.Username, maskSecret(c.Password), c.Database)
}

// maskSecret shows first 2 + last 2 chars, replacing the middle with asterisks.
func maskSecret(s string) string {
	const visible = 2
	if len(s) <= visible*2 {
		return "***"
	}
	return s[:visible] + "****" + s[len(s)-visible:]
}

// Map turns substitutions into the map form used by the normalizer and
// dictionary. Entries with an empty side are dropped.
func Map(subs []Substitution) map[string]string {
	m := make(map[string]string, len(subs))
	for _, s := range subs {
		if s.From == "" || s.To == "" {
			continue
		}
		m[s.From] = s.To
	}
	return m
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input.artists", filepath.Join("data", "rock_artist_masterdata.csv"))
	v.SetDefault("input.members", filepath.Join("data", "rock_artist_members.csv"))
	v.SetDefault("input.news", filepath.Join("data", "rock_news.csv"))
	v.SetDefault("input.keywords", "")
	v.SetDefault("input.feedback", "")

	v.SetDefault("output.dir", "output")
	v.SetDefault("output.database", filepath.Join(homeDir(), ".rocktag", "rocktag.db"))

	v.SetDefault("dictionary.exclusions", []string{"The Band", "Sweet", "!!!"})
	v.SetDefault("dictionary.article", "the")
	v.SetDefault("dictionary.alias_exceptions", []string{"the beatles"})
	v.SetDefault("dictionary.alias_denylist", []string{"the new year"})
	v.SetDefault("dictionary.key_substitutions", []map[string]string{{"from": "yes", "to": "yesband"}})
	v.SetDefault("dictionary.collisions", "last")

	v.SetDefault("normalize.raw_substitutions", []map[string]string{{"from": "HIM", "to": "himband"}})
	v.SetDefault("normalize.mask_placeholder", DefaultMaskPlaceholder)

	v.SetDefault("resolver.workers", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("api.listen_addr", ":8080")
	v.SetDefault("api.auth_token", "")

	v.SetDefault("neo4j.uri", "neo4j://localhost:7687")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("neo4j.password", "")
	v.SetDefault("neo4j.database", "neo4j")
	v.SetDefault("neo4j.batch_size", DefaultGraphBatchSize)

	v.SetDefault("retention.keep_last", 50)
	v.SetDefault("retention.max_age", "0s")
}

// Load reads configuration from config.yaml in ~/.rocktag or the working
// directory, then from ROCKTAG_* environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(homeDir(), ".rocktag"))
	v.AddConfigPath(".")
	return load(v)
}

// LoadFile reads configuration from an explicit file plus the environment.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	// ROCKTAG_API_LISTEN_ADDR -> api.listen_addr
	v.SetEnvPrefix("ROCKTAG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("neo4j.password", "ROCKTAG_NEO4J_PASSWORD", "NEO4J_PASSWORD")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// no config file: defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are set and consistent.
func (c *Config) Validate() error {
	if c.Input.Artists == "" {
		return fmt.Errorf("input.artists must not be empty")
	}
	if c.Input.Members == "" {
		return fmt.Errorf("input.members must not be empty")
	}
	switch strings.ToLower(strings.TrimSpace(c.Dictionary.Collisions)) {
	case "", "last", "first":
	default:
		return fmt.Errorf("dictionary.collisions must be \"last\" or \"first\", got %q", c.Dictionary.Collisions)
	}
	if strings.ContainsAny(strings.TrimSpace(c.Dictionary.Article), " \t") {
		return fmt.Errorf("dictionary.article must be a single word")
	}
	if c.Resolver.Workers < 0 {
		return fmt.Errorf("resolver.workers must be >= 0")
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format)
	}
	if c.Neo4j.BatchSize < 0 {
		return fmt.Errorf("neo4j.batch_size must be >= 0")
	}
	if c.Retention.KeepLast < 0 || c.Retention.MaxAge < 0 {
		return fmt.Errorf("retention.keep_last and retention.max_age must be >= 0")
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
