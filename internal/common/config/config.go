// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Advisory AdvisoryConfig `mapstructure:"advisory"`
	Scrape   ScrapeConfig   `mapstructure:"scrape"`
	Ranking  RankingConfig  `mapstructure:"ranking"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// ShutdownTimeout bounds graceful shutdown, milliseconds.
	ShutdownTimeout int `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	// Enabled toggles the best-effort interaction log entirely.
	Enabled bool `mapstructure:"enabled"`
	// Index is the interaction-log index name.
	Index string `mapstructure:"index"`
}

// --- Collaborator Config ---

// AdvisoryConfig points at the optional text-generation service used for
// classification, intent clustering, and rerank hints. The pipeline must
// work with this service entirely absent.
type AdvisoryConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// GetTimeout returns the advisory call timeout as a duration.
func (a AdvisoryConfig) GetTimeout() time.Duration {
	return GetDuration(a.Timeout)
}

// ScrapeConfig points at the page-fetching engine's two transports.
type ScrapeConfig struct {
	StreamURL string `mapstructure:"stream_url"`
	BulkURL   string `mapstructure:"bulk_url"`
	Timeout   int    `mapstructure:"timeout"`   // milliseconds, per wave
	CacheTTL  int64  `mapstructure:"cache_ttl"` // seconds, default for options.cache_ttl
}

// GetTimeout returns the per-wave transport deadline as a duration.
func (s ScrapeConfig) GetTimeout() time.Duration {
	return GetDuration(s.Timeout)
}

// RankingConfig carries the tunables of the bandit ranker and staged
// dispatch. Defaults match the reference behavior.
type RankingConfig struct {
	RerankCap        int     `mapstructure:"rerank_cap"`
	ExploreRate      float64 `mapstructure:"explore_rate"`
	ColdRunThreshold int64   `mapstructure:"cold_run_threshold"`
	HighConfidence   float64 `mapstructure:"high_confidence"`
}

// TracingConfig points at the Jaeger collector. An empty endpoint
// disables tracing.
type TracingConfig struct {
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
