package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/scribe/internal/pipeline"
	"github.com/JaimeStill/scribe/pkg/cache"
	"github.com/JaimeStill/scribe/pkg/database"
	"github.com/JaimeStill/scribe/pkg/events"
	"github.com/JaimeStill/scribe/pkg/llm"
	"github.com/JaimeStill/scribe/pkg/storage"
	"github.com/JaimeStill/scribe/pkg/vector"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvScribeEnv             = "SCRIBE_ENV"
	EnvScribeShutdownTimeout = "SCRIBE_SHUTDOWN_TIMEOUT"
	EnvScribeVersion         = "SCRIBE_VERSION"
	EnvScribeLogLevel        = "SCRIBE_LOG_LEVEL"
)

var databaseEnv = &database.Env{
	Host:            "SCRIBE_DB_HOST",
	Port:            "SCRIBE_DB_PORT",
	Name:            "SCRIBE_DB_NAME",
	User:            "SCRIBE_DB_USER",
	Password:        "SCRIBE_DB_PASSWORD",
	SSLMode:         "SCRIBE_DB_SSL_MODE",
	ApplicationName: "SCRIBE_DB_APPLICATION_NAME",
	MaxOpenConns:    "SCRIBE_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "SCRIBE_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "SCRIBE_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "SCRIBE_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "SCRIBE_STORAGE_CONTAINER_NAME",
	ConnectionString: "SCRIBE_STORAGE_CONNECTION_STRING",
	AccountURL:       "SCRIBE_STORAGE_ACCOUNT_URL",
}

var llmEnv = &llm.Env{
	BaseURL:        "SCRIBE_LLM_BASE_URL",
	APIKey:         "SCRIBE_LLM_API_KEY",
	EmbeddingModel: "SCRIBE_LLM_EMBEDDING_MODEL",
	Timeout:        "SCRIBE_LLM_TIMEOUT",
	MaxRetries:     "SCRIBE_LLM_MAX_RETRIES",
	SchemaAttempts: "SCRIBE_LLM_SCHEMA_ATTEMPTS",
}

var vectorEnv = &vector.Env{
	Address:    "SCRIBE_VECTOR_ADDRESS",
	Collection: "SCRIBE_VECTOR_COLLECTION",
	Metric:     "SCRIBE_VECTOR_METRIC",
	NProbe:     "SCRIBE_VECTOR_NPROBE",
}

var cacheEnv = &cache.Env{
	Address:  "SCRIBE_REDIS_ADDRESS",
	Password: "SCRIBE_REDIS_PASSWORD",
	DB:       "SCRIBE_REDIS_DB",
	Prefix:   "SCRIBE_REDIS_PREFIX",
	TTL:      "SCRIBE_REDIS_TTL",
}

var eventsEnv = &events.Env{
	URL:           "SCRIBE_NATS_URL",
	SubjectPrefix: "SCRIBE_NATS_SUBJECT_PREFIX",
}

var pipelineEnv = &pipeline.Env{
	WindowHours:  "SCRIBE_PIPELINE_WINDOW_HOURS",
	MaxBatchSize: "SCRIBE_PIPELINE_MAX_BATCH_SIZE",
	Concurrency:  "SCRIBE_PIPELINE_CONCURRENCY",
	Schedule:     "SCRIBE_PIPELINE_SCHEDULE",
}

// Config is the root configuration for the scribe service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Agent           AgentConfig     `toml:"agent"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	LLM             llm.Config      `toml:"llm"`
	Vector          vector.Config   `toml:"vector"`
	Cache           cache.Config    `toml:"cache"`
	Events          events.Config   `toml:"events"`
	Pipeline        pipeline.Config `toml:"pipeline"`
	Tenant          TenantConfig    `toml:"tenant"`
	API             APIConfig       `toml:"api"`
	LogLevel        string          `toml:"log_level"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the SCRIBE_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvScribeEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	return LoadFile(BaseConfigFile)
}

// LoadFile is Load with an explicit base file. The overlay is resolved in the
// same directory as path.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		loaded, err := load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if overlay := overlayPath(path); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Agent.Merge(&overlay.Agent)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.LLM.Merge(&overlay.LLM)
	c.Vector.Merge(&overlay.Vector)
	c.Cache.Merge(&overlay.Cache)
	c.Events.Merge(&overlay.Events)
	c.Pipeline.Merge(&overlay.Pipeline)
	c.Tenant.Merge(&overlay.Tenant)
	c.API.Merge(&overlay.API)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Agent.Finalize(); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.LLM.Finalize(llmEnv); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if err := c.Vector.Finalize(vectorEnv); err != nil {
		return fmt.Errorf("vector: %w", err)
	}
	if err := c.Cache.Finalize(cacheEnv); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Events.Finalize(eventsEnv); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	if err := c.Pipeline.Finalize(pipelineEnv); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	c.Pipeline.SchemaAttempts = c.LLM.SchemaAttempts
	if err := c.Tenant.Finalize(); err != nil {
		return fmt.Errorf("tenant: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvScribeLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvScribeShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvScribeVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath(base string) string {
	env := os.Getenv(EnvScribeEnv)
	if env == "" {
		return ""
	}
	path := filepath.Join(filepath.Dir(base), fmt.Sprintf(OverlayConfigPattern, env))
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// LoadDatabase resolves only the database section from path, its overlay and
// the environment. Tools that touch nothing but Postgres use it so they do not
// require LLM or vector settings.
func LoadDatabase(path string) (*database.Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		loaded, err := load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if overlay := overlayPath(path); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Database.Merge(&o.Database)
	}

	if err := cfg.Database.Finalize(databaseEnv); err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	return &cfg.Database, nil
}
