package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config is the Trailblazer application configuration: where runs/logs
// live, how to reach Postgres, which embedding provider to call, and
// the coordination/retrieval tunables. Loaded default -> file(s) -> env,
// the same priority order the teacher's config loader uses.
type Config struct {
	Environment string `toml:"environment"` // "development" or "production"

	WorkRoot string        `toml:"work_root"` // <workroot>/runs/<runId>/...
	LogsRoot string        `toml:"logs_root"` // <workroot>/logs/<runId>/events.ndjson
	Logging  LoggingConfig `toml:"logging"`

	Postgres     PostgresConfig     `toml:"postgres"`
	Provider     ProviderConfig     `toml:"provider"`
	Coordination CoordinationConfig `toml:"coordination"`
	Retrieve     RetrieveConfig     `toml:"retrieve"`
	Confluence   ConfluenceConfig   `toml:"confluence"`
	Dita         DitaConfig         `toml:"dita"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // default "15:04:05.000"
}

// PostgresConfig configures the relational/vector store.
type PostgresConfig struct {
	DSN             string `toml:"dsn"`
	MaxConns        int32  `toml:"max_conns"`
	MinConns        int32  `toml:"min_conns"`
	MaxConnLifetime string `toml:"max_conn_lifetime"` // duration string, e.g. "1h"
	MaxConnIdleTime string `toml:"max_conn_idle_time"`
}

// ProviderConfig selects and tunes the embedding provider used by
// embed and retrieve.
type ProviderConfig struct {
	Name      string `toml:"name"` // "dummy" or "remote"
	Model     string `toml:"model"`
	Dimension int    `toml:"dimension"`
	BatchSize int    `toml:"batch_size"`
	Endpoint  string `toml:"endpoint"` // remote provider base URL
	APIKey    string `toml:"api_key"`
}

// CoordinationConfig tunes the §4.7 claim protocol and its scheduler.
type CoordinationConfig struct {
	ClaimTTL         string `toml:"claim_ttl"`         // duration string, e.g. "15m"
	Workers          int    `toml:"workers"`           // worker pool size for chunk/embed draining
	RecoverySchedule string `toml:"recovery_schedule"` // cron expression for the stale-claim sweep
	HostPID          string `toml:"host_pid"`          // overrides the default "<hostname>-<pid>" claimant id
}

// RetrieveConfig tunes the §4.6 hybrid retriever's defaults.
type RetrieveConfig struct {
	TopKDense       int `toml:"topk_dense"`
	TopKBm25        int `toml:"topk_bm25"`
	TopK            int `toml:"topk"`
	MaxChunksPerDoc int `toml:"max_chunks_per_doc"`
	MaxChars        int `toml:"max_chars"`
	RRFK            int `toml:"rrf_k"`
}

// ConfluenceConfig configures the Confluence Cloud source adapter.
type ConfluenceConfig struct {
	BaseURL  string   `toml:"base_url"`
	Email    string   `toml:"email"`
	APIToken string   `toml:"api_token"`
	Spaces   []string `toml:"spaces"`
}

// DitaConfig configures the DITA XML source adapter.
type DitaConfig struct {
	RootDir string `toml:"root_dir"`
}

// NewDefaultConfig returns the baseline configuration before any file
// or environment overrides are applied.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		WorkRoot:    "./var/runs",
		LogsRoot:    "./var/logs",
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05.000",
		},
		Postgres: PostgresConfig{
			DSN:             "postgres://localhost:5432/trailblazer",
			MaxConns:        16,
			MinConns:        0,
			MaxConnLifetime: "1h",
			MaxConnIdleTime: "5m",
		},
		Provider: ProviderConfig{
			Name:      "dummy",
			Model:     "dummy-v1",
			Dimension: 8,
			BatchSize: 64,
		},
		Coordination: CoordinationConfig{
			ClaimTTL:         "15m",
			Workers:          4,
			RecoverySchedule: "*/5 * * * *",
		},
		Retrieve: RetrieveConfig{
			TopKDense:       40,
			TopKBm25:        40,
			TopK:            10,
			MaxChunksPerDoc: 3,
			MaxChars:        8000,
			RRFK:            60,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files in order, later
// files overriding earlier ones, then applies environment overrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)
	return config, nil
}

// applyEnvOverrides applies TRAILBLAZER_-prefixed environment variable
// overrides to config, taking priority over file-loaded values.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("TRAILBLAZER_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if v := os.Getenv("TRAILBLAZER_WORK_ROOT"); v != "" {
		config.WorkRoot = v
	}
	if v := os.Getenv("TRAILBLAZER_LOGS_ROOT"); v != "" {
		config.LogsRoot = v
	}
	if v := os.Getenv("TRAILBLAZER_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("TRAILBLAZER_POSTGRES_DSN"); v != "" {
		config.Postgres.DSN = v
	}
	if v := os.Getenv("TRAILBLAZER_POSTGRES_MAX_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Postgres.MaxConns = int32(n)
		}
	}

	if v := os.Getenv("TRAILBLAZER_PROVIDER_NAME"); v != "" {
		config.Provider.Name = v
	}
	if v := os.Getenv("TRAILBLAZER_PROVIDER_MODEL"); v != "" {
		config.Provider.Model = v
	}
	if v := os.Getenv("TRAILBLAZER_PROVIDER_DIMENSION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Provider.Dimension = n
		}
	}
	if v := os.Getenv("TRAILBLAZER_PROVIDER_API_KEY"); v != "" {
		config.Provider.APIKey = v
	}
	if v := os.Getenv("TRAILBLAZER_PROVIDER_ENDPOINT"); v != "" {
		config.Provider.Endpoint = v
	}

	if v := os.Getenv("TRAILBLAZER_CLAIM_TTL"); v != "" {
		config.Coordination.ClaimTTL = v
	}
	if v := os.Getenv("TRAILBLAZER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Coordination.Workers = n
		}
	}

	if v := os.Getenv("TRAILBLAZER_CONFLUENCE_BASE_URL"); v != "" {
		config.Confluence.BaseURL = v
	}
	if v := os.Getenv("TRAILBLAZER_CONFLUENCE_EMAIL"); v != "" {
		config.Confluence.Email = v
	}
	if v := os.Getenv("TRAILBLAZER_CONFLUENCE_API_TOKEN"); v != "" {
		config.Confluence.APIToken = v
	}
	if v := os.Getenv("TRAILBLAZER_DITA_ROOT_DIR"); v != "" {
		config.Dita.RootDir = v
	}
}

// ValidateCronSchedule parses schedule with the standard 5-field cron
// grammar robfig/cron uses elsewhere in this module (internal/coordination).
func ValidateCronSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

// IsProduction returns true if the environment is set to production.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
