// Package config loads and validates application configuration from YAML
// files with environment-variable overrides. It provides typed structs for
// every subsystem (Server, Redis, Elastic, Kafka, Catalog, Logging, Metrics).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Redis   RedisConfig   `yaml:"redis"`
	Elastic ElasticConfig `yaml:"elastic"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Catalog CatalogConfig `yaml:"catalog"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// RedisConfig holds Redis connection and result-cache parameters.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// ElasticConfig holds Elasticsearch connection parameters. RequestTimeout
// bounds every individual backend call.
type ElasticConfig struct {
	Addresses      []string      `yaml:"addresses"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	MaxRetries     int           `yaml:"maxRetries"`
}

// KafkaConfig holds the broker list and the query-events topic for the
// analytics collector. An empty broker list disables analytics.
type KafkaConfig struct {
	Brokers          []string `yaml:"brokers"`
	QueryEventsTopic string   `yaml:"queryEventsTopic"`
}

// CatalogConfig controls pagination bounds and the enrichment name cache.
type CatalogConfig struct {
	DefaultPageSize    int           `yaml:"defaultPageSize"`
	MaxPageSize        int           `yaml:"maxPageSize"`
	GenreCacheCapacity int           `yaml:"genreCacheCapacity"`
	GenreCacheTTL      time.Duration `yaml:"genreCacheTTL"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			DB:       0,
			PoolSize: 20,
			CacheTTL: 5 * time.Minute,
		},
		Elastic: ElasticConfig{
			Addresses:      []string{"http://localhost:9200"},
			RequestTimeout: 5 * time.Second,
			MaxRetries:     3,
		},
		Kafka: KafkaConfig{
			QueryEventsTopic: "catalog.query-events",
		},
		Catalog: CatalogConfig{
			DefaultPageSize:    10,
			MaxPageSize:        100,
			GenreCacheCapacity: 1000,
			GenreCacheTTL:      time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if len(c.Elastic.Addresses) == 0 {
		return fmt.Errorf("elastic.addresses must not be empty")
	}
	if c.Redis.CacheTTL <= 0 {
		return fmt.Errorf("redis.cacheTTL must be positive")
	}
	if c.Catalog.DefaultPageSize < 1 || c.Catalog.MaxPageSize < c.Catalog.DefaultPageSize {
		return fmt.Errorf("invalid catalog page size bounds (default=%d, max=%d)",
			c.Catalog.DefaultPageSize, c.Catalog.MaxPageSize)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("REDIS_CACHE_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil {
			cfg.Redis.CacheTTL = ttl
		}
	}
	if v := os.Getenv("ELASTIC_ADDRESSES"); v != "" {
		cfg.Elastic.Addresses = strings.Split(v, ",")
	}
	if v := os.Getenv("ELASTIC_USERNAME"); v != "" {
		cfg.Elastic.Username = v
	}
	if v := os.Getenv("ELASTIC_PASSWORD"); v != "" {
		cfg.Elastic.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_QUERY_EVENTS_TOPIC"); v != "" {
		cfg.Kafka.QueryEventsTopic = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
