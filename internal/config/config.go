package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. EVENTSTUDY_SERVER_PORT.
const EnvPrefix = "EVENTSTUDY"

// Config holds all application configuration.
type Config struct {
	Server struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	DataSource struct {
		Provider    string        `yaml:"provider"` // "yahoo", "eodhd" or "static"
		BaseURL     string        `yaml:"base_url"`
		APIKey      string        `yaml:"api_key"`
		RateLimit   int           `yaml:"rate_limit"`
		Timeout     time.Duration `yaml:"timeout"`
		PaddingDays int           `yaml:"padding_days"`
	} `yaml:"data_source"`
	Cache struct {
		TTL time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Schedule struct {
		PurgeCron string `yaml:"purge_cron"`
		PruneCron string `yaml:"prune_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath    string `yaml:"sqlite_path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"database"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Metrics struct {
		Namespace string `yaml:"namespace"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// envOverrides lists the settings that may come from the environment.
// Unset variables leave the zero value, which means "keep the file value".
type envOverrides struct {
	ServerHost       string        `envconfig:"SERVER_HOST"`
	ServerPort       int           `envconfig:"SERVER_PORT"`
	Provider         string        `envconfig:"DATA_PROVIDER"`
	DataBaseURL      string        `envconfig:"DATA_BASE_URL"`
	DataAPIKey       string        `envconfig:"DATA_API_KEY"`
	DataRateLimit    int           `envconfig:"DATA_RATE_LIMIT"`
	PaddingDays      int           `envconfig:"DATA_PADDING_DAYS"`
	CacheTTL         time.Duration `envconfig:"CACHE_TTL"`
	PurgeCron        string        `envconfig:"CRON_PURGE"`
	PruneCron        string        `envconfig:"CRON_PRUNE"`
	SQLitePath       string        `envconfig:"SQLITE_PATH"`
	RetentionDays    int           `envconfig:"RETENTION_DAYS"`
	LogLevel         string        `envconfig:"LOG_LEVEL"`
	LogFormat        string        `envconfig:"LOG_FORMAT"`
	MetricsNamespace string        `envconfig:"METRICS_NAMESPACE"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	cfg.applyEnv(env)

	// HTTPS_PROXY is honoured without prefix, as other tools do.
	if v := os.Getenv("HTTPS_PROXY"); v != "" && cfg.Proxy == "" {
		cfg.Proxy = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv(env envOverrides) {
	if env.ServerHost != "" {
		c.Server.Host = env.ServerHost
	}
	if env.ServerPort != 0 {
		c.Server.Port = env.ServerPort
	}
	if env.Provider != "" {
		c.DataSource.Provider = env.Provider
	}
	if env.DataBaseURL != "" {
		c.DataSource.BaseURL = env.DataBaseURL
	}
	if env.DataAPIKey != "" {
		c.DataSource.APIKey = env.DataAPIKey
	}
	if env.DataRateLimit != 0 {
		c.DataSource.RateLimit = env.DataRateLimit
	}
	if env.PaddingDays != 0 {
		c.DataSource.PaddingDays = env.PaddingDays
	}
	if env.CacheTTL != 0 {
		c.Cache.TTL = env.CacheTTL
	}
	if env.PurgeCron != "" {
		c.Schedule.PurgeCron = env.PurgeCron
	}
	if env.PruneCron != "" {
		c.Schedule.PruneCron = env.PruneCron
	}
	if env.SQLitePath != "" {
		c.Database.SQLitePath = env.SQLitePath
	}
	if env.RetentionDays != 0 {
		c.Database.RetentionDays = env.RetentionDays
	}
	if env.LogLevel != "" {
		c.Logging.Level = env.LogLevel
	}
	if env.LogFormat != "" {
		c.Logging.Format = env.LogFormat
	}
	if env.MetricsNamespace != "" {
		c.Metrics.Namespace = env.MetricsNamespace
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.DataSource.RateLimit == 0 {
		c.DataSource.RateLimit = 10
	}
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 30 * time.Second
	}
	if c.DataSource.PaddingDays == 0 {
		c.DataSource.PaddingDays = 7
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 15 * time.Minute
	}
	if c.Schedule.PurgeCron == "" {
		c.Schedule.PurgeCron = "0 */5 * * * *"
	}
	if c.Schedule.PruneCron == "" {
		c.Schedule.PruneCron = "0 30 3 * * *"
	}
	if c.Database.RetentionDays == 0 {
		c.Database.RetentionDays = 90
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "event_study"
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "yahoo", "static":
	case "eodhd":
		if c.DataSource.APIKey == "" {
			return fmt.Errorf("data_source.api_key is required for provider eodhd")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.DataSource.PaddingDays < 0 {
		return fmt.Errorf("data_source.padding_days must not be negative")
	}
	if c.Database.RetentionDays < 0 {
		return fmt.Errorf("database.retention_days must not be negative")
	}
	return nil
}
