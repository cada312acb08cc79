package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	StoreBackendPostgres = "postgres"
	StoreBackendSqlite   = "sqlite"
	StoreBackendMemory   = "memory"
)

type Config struct {
	Environment string `toml:"-"`
	Host        string
	Port        int
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// storage
	StoreBackend   string `toml:"store_backend"`
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	SqlitePath     string `toml:"sqlite_path"`
	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`
	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
	// physique analysis
	AnalysisBaseURL        string `toml:"analysis_base_url"`
	AnalysisModel          string `toml:"analysis_model"`
	AnalysisTimeoutSeconds int    `toml:"analysis_timeout_seconds"`
	AnalysisCacheSizeMB    int    `toml:"analysis_cache_size_mb"`
	// limits, caching
	AnalysisRateLimitPerMin int `toml:"analysis_rate_limit_per_min"`
	ScoreboardCacheTTLSec   int `toml:"scoreboard_cache_ttl_sec"`
	// auth
	JWTIssuer string `toml:"jwt_issuer"`

	// extra allowed CORS origins
	CorsOrigins []string `toml:"cors_origins"`
}

func (c *Config) AnalysisTimeout() time.Duration {
	if c.AnalysisTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.AnalysisTimeoutSeconds) * time.Second
}

func (c *Config) ScoreboardCacheTTL() time.Duration {
	if c.ScoreboardCacheTTLSec <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.ScoreboardCacheTTLSec) * time.Second
}

func (c *Config) AnalysisRateLimit() int {
	if c.AnalysisRateLimitPerMin <= 0 {
		return 10
	}
	return c.AnalysisRateLimitPerMin
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreBackendPostgres, StoreBackendSqlite, StoreBackendMemory:
	default:
		return fmt.Errorf("unknown store backend: %q", c.StoreBackend)
	}
	if c.StoreBackend == StoreBackendSqlite && c.SqlitePath == "" {
		return fmt.Errorf("sqlite backend needs sqlite_path")
	}
	if c.Port <= 0 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}

	if cfg == nil {
		return nil, fmt.Errorf("no config for env: %s", env)
	}
	cfg.Environment = strings.ToLower(env)

	return cfg, nil
}

func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}
