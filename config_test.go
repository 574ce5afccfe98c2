package declo

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/goccy/go-yaml"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NoError(t, err)

	assert.Equal(t, []string{"./examples"}, config.Corpus.Paths)
	assert.Equal(t, runtime.NumCPU(), config.Harness.Parallel)
	assert.True(t, config.Harness.SemanticEnabled())
	assert.Equal(t, "table", config.Output.Format)
	assert.Equal(t, "auto", config.Output.Color)
	assert.Equal(t, "warn", config.Logging.Level)
	assert.False(t, config.History.Enabled)
}

func TestLoadConfig_Full(t *testing.T) {
	t.Setenv("DECLO_TEST_CORPUS", "/srv/corpus")
	t.Setenv("DECLO_TEST_DB", "history.db")

	configPath := filepath.Join(t.TempDir(), "declo.yaml")
	configContent := `
corpus:
  paths:
    - ${DECLO_TEST_CORPUS}/basics.yaml
    - ./more
harness:
  parallel: 3
  example_timeout: 2s
  semantic: false
output:
  format: json
  color: never
history:
  enabled: true
  databases:
    local:
      driver: sqlite3
      connection: $DECLO_TEST_DB
logging:
  level: debug
`

	err := os.WriteFile(configPath, []byte(configContent), 0o644)
	assert.NoError(t, err)

	config, err := LoadConfig(configPath)
	assert.NoError(t, err)

	assert.Equal(t, []string{"/srv/corpus/basics.yaml", "./more"}, config.Corpus.Paths)
	assert.Equal(t, 3, config.Harness.Parallel)
	assert.Equal(t, 2*time.Second, config.Harness.ExampleTimeout)
	assert.False(t, config.Harness.SemanticEnabled())
	assert.Equal(t, "json", config.Output.Format)
	assert.Equal(t, "never", config.Output.Color)
	assert.Equal(t, "debug", config.Logging.Level)

	// The only database becomes the environment.
	name, db, err := config.HistoryDatabase()
	assert.NoError(t, err)
	assert.Equal(t, "local", name)
	assert.Equal(t, Database{Driver: "sqlite3", Connection: "history.db"}, db)
}

func TestParseConfig_PartialKeepsDefaults(t *testing.T) {
	config, err := ParseConfig([]byte("harness:\n  semantic: true\n"))
	assert.NoError(t, err)

	assert.Equal(t, []string{"./examples"}, config.Corpus.Paths)
	assert.True(t, config.Harness.SemanticEnabled())
	assert.Equal(t, "table", config.Output.Format)

	_, _, err = config.HistoryDatabase()
	assert.IsError(t, err, ErrConfigValidation)
}

func TestParseConfig_ValidationError(t *testing.T) {
	_, err := ParseConfig([]byte("output:\n  format: xml\n"))
	assert.IsError(t, err, ErrConfigValidation)
}

func TestConfigRoundTripsThroughYAML(t *testing.T) {
	original := getDefaultConfig()
	original.History.Databases["ci"] = Database{Connection: "postgres://ci@db/declo"}

	data, err := yaml.Marshal(original)
	assert.NoError(t, err)

	parsed, err := ParseConfig(data)
	assert.NoError(t, err)
	assert.Equal(t, original.History.Databases, parsed.History.Databases)
	assert.Equal(t, "ci", parsed.History.Environment)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("DECLO_HOST", "db.local")

	tests := []struct {
		input    string
		expected string
	}{
		{"postgres://${DECLO_HOST}/declo", "postgres://db.local/declo"},
		{"$DECLO_HOST:5432", "db.local:5432"},
		{"${DECLO_UNSET_VARIABLE}", ""},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, expandEnvVars(tt.input))
	}
}
