package declo

import (
	"fmt"
	"os"
	"regexp"
	"runtime"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// DefaultConfigFile is the configuration file looked up by the CLI.
const DefaultConfigFile = "declo.yaml"

// Config represents the declo configuration
type Config struct {
	Corpus  CorpusConfig  `yaml:"corpus"`
	Harness HarnessConfig `yaml:"harness"`
	Output  OutputConfig  `yaml:"output"`
	History HistoryConfig `yaml:"history"`
	Logging LoggingConfig `yaml:"logging"`
}

// CorpusConfig lists the corpus files or directories used when none are given
// on the command line.
type CorpusConfig struct {
	Paths []string `yaml:"paths"`
}

// HarnessConfig controls the differential test harness
type HarnessConfig struct {
	Parallel       int           `yaml:"parallel"`
	ExampleTimeout time.Duration `yaml:"example_timeout"`
	// Semantic is a pointer to distinguish between unset and false. Unset means enabled.
	Semantic *bool `yaml:"semantic"`
}

// SemanticEnabled returns true unless semantic checks are explicitly disabled
func (h *HarnessConfig) SemanticEnabled() bool {
	return h.Semantic == nil || *h.Semantic
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Format string `yaml:"format"`
	Color  string `yaml:"color"`
}

// HistoryConfig controls where run history is stored
type HistoryConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Environment string              `yaml:"environment"`
	Databases   map[string]Database `yaml:"databases"`
}

// Database represents database connection configuration. An empty driver means
// connection is a URL such as postgres://user@host/db.
type Database struct {
	Driver     string `yaml:"driver"`
	Connection string `yaml:"connection"`
}

// LoggingConfig controls diagnostic logging
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// LoadConfig loads configuration from the specified file. A missing file
// yields the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	// Load .env files first
	err := loadEnvFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		config := getDefaultConfig()
		expandConfigEnvVars(config)

		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig decodes, validates and completes a configuration document.
// Unknown fields are rejected.
func ParseConfig(data []byte) (*Config, error) {
	var config Config

	err := yaml.UnmarshalWithOptions(data, &config, yaml.Strict())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	expandConfigEnvVars(&config)

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	applyDefaults(&config)

	return &config, nil
}

// validateConfig validates the configuration for common errors and inconsistencies
func validateConfig(config *Config) error {
	if config.Harness.Parallel < 0 {
		return fmt.Errorf("%w: harness.parallel must be non-negative, got %d", ErrConfigValidation, config.Harness.Parallel)
	}

	if config.Harness.ExampleTimeout < 0 {
		return fmt.Errorf("%w: harness.example_timeout must be >= 0, got %s", ErrConfigValidation, config.Harness.ExampleTimeout)
	}

	if config.Output.Format != "" {
		validFormats := map[string]bool{
			"table": true,
			"json":  true,
			"yaml":  true,
		}
		if !validFormats[config.Output.Format] {
			return fmt.Errorf("%w: output.format '%s' is invalid: must be one of table, json, yaml", ErrConfigValidation, config.Output.Format)
		}
	}

	if config.Output.Color != "" {
		validColors := map[string]bool{
			"auto":   true,
			"always": true,
			"never":  true,
		}
		if !validColors[config.Output.Color] {
			return fmt.Errorf("%w: output.color '%s' is invalid: must be one of auto, always, never", ErrConfigValidation, config.Output.Color)
		}
	}

	if config.Logging.Level != "" {
		validLevels := map[string]bool{
			"debug": true,
			"info":  true,
			"warn":  true,
			"error": true,
		}
		if !validLevels[config.Logging.Level] {
			return fmt.Errorf("%w: logging.level '%s' is invalid: must be one of debug, info, warn, error", ErrConfigValidation, config.Logging.Level)
		}
	}

	for name, db := range config.History.Databases {
		if db.Connection == "" {
			return fmt.Errorf("%w: history.databases.%s: connection is required", ErrConfigValidation, name)
		}
	}

	if config.History.Enabled {
		if len(config.History.Databases) == 0 {
			return fmt.Errorf("%w: history.enabled requires at least one database", ErrConfigValidation)
		}

		if config.History.Environment != "" {
			if _, ok := config.History.Databases[config.History.Environment]; !ok {
				return fmt.Errorf("%w: history.environment '%s' is not defined in history.databases", ErrConfigValidation, config.History.Environment)
			}
		}
	}

	return nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Paths: []string{"./examples"},
		},
		Harness: HarnessConfig{
			Parallel: runtime.NumCPU(),
		},
		Output: OutputConfig{
			Format: "table",
			Color:  "auto",
		},
		History: HistoryConfig{
			Databases: make(map[string]Database),
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// applyDefaults fills in values left empty by the configuration file
func applyDefaults(config *Config) {
	defaults := getDefaultConfig()

	if len(config.Corpus.Paths) == 0 {
		config.Corpus.Paths = defaults.Corpus.Paths
	}

	if config.Harness.Parallel == 0 {
		config.Harness.Parallel = defaults.Harness.Parallel
	}

	if config.Output.Format == "" {
		config.Output.Format = defaults.Output.Format
	}

	if config.Output.Color == "" {
		config.Output.Color = defaults.Output.Color
	}

	if config.History.Databases == nil {
		config.History.Databases = defaults.History.Databases
	}

	// A single database is the implicit environment.
	if config.History.Environment == "" && len(config.History.Databases) == 1 {
		for name := range config.History.Databases {
			config.History.Environment = name
		}
	}

	if config.Logging.Level == "" {
		config.Logging.Level = defaults.Logging.Level
	}
}

// HistoryDatabase returns the database of the configured environment.
func (c *Config) HistoryDatabase() (string, Database, error) {
	name := c.History.Environment

	db, ok := c.History.Databases[name]
	if !ok {
		return "", Database{}, fmt.Errorf("%w: no history database for environment '%s'", ErrConfigValidation, name)
	}

	return name, db, nil
}

// loadEnvFiles loads .env files if they exist
func loadEnvFiles() error {
	if fileExists(".env") {
		err := godotenv.Load(".env")
		if err != nil {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	return nil
}

var (
	bracedEnvPattern = regexp.MustCompile(`\$\{([^}]+)\}`)
	bareEnvPattern   = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(s string) string {
	s = bracedEnvPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})

	return bareEnvPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[1:])
	})
}

// expandConfigEnvVars expands environment variables in paths and connections
func expandConfigEnvVars(config *Config) {
	for i, path := range config.Corpus.Paths {
		config.Corpus.Paths[i] = expandEnvVars(path)
	}

	for name, db := range config.History.Databases {
		db.Driver = expandEnvVars(db.Driver)
		db.Connection = expandEnvVars(db.Connection)
		config.History.Databases[name] = db
	}

	config.History.Environment = expandEnvVars(config.History.Environment)
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
