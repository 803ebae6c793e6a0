package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Taxonomy TaxonomyConfig `mapstructure:"taxonomy"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Password      string `mapstructure:"password"`
	Database      int    `mapstructure:"database"`
	StreamPrefix  string `mapstructure:"stream_prefix"`
	ConsumerGroup string `mapstructure:"consumer_group"`
	MinIdleTime   int    `mapstructure:"min_idle_time"`
}

// CatalogConfig describes where product snapshots come from.
type CatalogConfig struct {
	// Source is "postgres" (read the shared products table) or "http" (product catalog service).
	Source               string `mapstructure:"source"`
	BaseURL              string `mapstructure:"base_url"`
	Timeout              int    `mapstructure:"timeout"`
	MaxRetries           int    `mapstructure:"max_retries"`
	MaxRequestsPerSecond int    `mapstructure:"max_requests_per_second"`
	APIKey               string `mapstructure:"api_key"`
	// ResyncInterval is the full reload period in seconds, independent of change events.
	ResyncInterval int `mapstructure:"resync_interval"`
	// BreakerCooldown is how long, in seconds, calls fail fast after the service reports a quota error.
	BreakerCooldown int `mapstructure:"breaker_cooldown"`
}

func (c CatalogConfig) ResyncEvery() time.Duration {
	return time.Duration(c.ResyncInterval) * time.Second
}

// AuthConfig holds the settings for verifying tokens issued by the identity service.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

type TaxonomyConfig struct {
	// CacheTTL is in seconds. Zero disables the Redis snapshot cache.
	CacheTTL int `mapstructure:"cache_ttl"`
}

func (t TaxonomyConfig) TTL() time.Duration {
	return time.Duration(t.CacheTTL) * time.Second
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

const (
	SourcePostgres = "postgres"
	SourceHTTP     = "http"
)

// Load loads configuration from YAML file with environment variable overrides
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("config.yaml file not found in current directory")
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return decode(v)
}

// LoadFromReader loads configuration from r instead of the filesystem.
func LoadFromReader(r io.Reader, configType string) (*Config, error) {
	v := viper.New()
	v.SetConfigType(configType)
	setDefaults(v)

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects configurations the container cannot start with.
func (c *Config) Validate() error {
	switch c.Catalog.Source {
	case SourcePostgres:
	case SourceHTTP:
		if c.Catalog.BaseURL == "" {
			return fmt.Errorf("catalog.base_url is required when catalog.source is %q", SourceHTTP)
		}
	default:
		return fmt.Errorf("unknown catalog.source %q", c.Catalog.Source)
	}

	if c.Catalog.MaxRequestsPerSecond <= 0 {
		return fmt.Errorf("catalog.max_requests_per_second must be positive")
	}

	if c.Catalog.ResyncInterval <= 0 {
		return fmt.Errorf("catalog.resync_interval must be positive")
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "localhost")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "storefront")
	v.SetDefault("database.user", "storefront_user")
	v.SetDefault("database.password", "storefront_pass")
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.stream_prefix", "storefront:stream:")
	v.SetDefault("redis.consumer_group", "storefront_filter")
	v.SetDefault("redis.min_idle_time", 120)

	v.SetDefault("catalog.source", SourcePostgres)
	v.SetDefault("catalog.base_url", "")
	v.SetDefault("catalog.timeout", 30)
	v.SetDefault("catalog.max_retries", 3)
	v.SetDefault("catalog.max_requests_per_second", 5)
	v.SetDefault("catalog.api_key", "")
	v.SetDefault("catalog.resync_interval", 300)
	v.SetDefault("catalog.breaker_cooldown", 600)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")

	v.SetDefault("taxonomy.cache_ttl", 300)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}
