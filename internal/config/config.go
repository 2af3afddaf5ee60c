package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/user/embed-images/internal/cache"
	"github.com/user/embed-images/internal/resolver"
)

// Cache backends.
const (
	BackendDir      = "dir"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendNone     = "none"
)

// Config stores all configuration for the application.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	CacheBackend  string `mapstructure:"CACHE_BACKEND"`
	CacheDir      string `mapstructure:"CACHE_DIR"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	PostgresURL   string `mapstructure:"POSTGRES_URL"`

	FoldersRoot    string `mapstructure:"FOLDERS_ROOT"`    // comma separated, tried in order
	HTTPTimeout    int    `mapstructure:"HTTP_TIMEOUT"`    // in seconds
	ConnectTimeout int    `mapstructure:"CONNECT_TIMEOUT"` // in seconds
	ReadTimeout    int    `mapstructure:"READ_TIMEOUT"`    // in seconds
	Strict         bool   `mapstructure:"STRICT"`
	Concurrency    int    `mapstructure:"CONCURRENCY"`
	Proxies        string `mapstructure:"PROXIES"`     // comma separated
	UserAgents     string `mapstructure:"USER_AGENTS"` // comma separated
}

// Load reads configuration from file or environment variables.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit env file path.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present
	// This allows configuration purely through environment variables in production
	_ = v.ReadInConfig()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CACHE_BACKEND", BackendDir)
	v.SetDefault("CACHE_DIR", cache.DefaultTempPath())
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("FOLDERS_ROOT", ".")
	v.SetDefault("HTTP_TIMEOUT", 0)
	v.SetDefault("CONNECT_TIMEOUT", 0)
	v.SetDefault("READ_TIMEOUT", 0)
	v.SetDefault("STRICT", false)
	v.SetDefault("CONCURRENCY", 1)
	v.SetDefault("PROXIES", "")
	v.SetDefault("USER_AGENTS", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that viper cannot.
func (c *Config) Validate() error {
	switch c.CacheBackend {
	case BackendDir, BackendRedis, BackendPostgres, BackendNone:
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend)
	}
	if c.CacheBackend == BackendPostgres && c.PostgresURL == "" {
		return fmt.Errorf("CACHE_BACKEND=postgres requires POSTGRES_URL")
	}
	if c.HTTPTimeout < 0 || c.ConnectTimeout < 0 || c.ReadTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

// Roots returns the filesystem roots in search order.
func (c *Config) Roots() []string {
	roots := splitList(c.FoldersRoot)
	if len(roots) == 0 {
		return []string{"."}
	}
	return roots
}

// Timeout returns the pair form when either half is set, else the single form.
func (c *Config) Timeout() resolver.Timeout {
	if c.ConnectTimeout > 0 || c.ReadTimeout > 0 {
		return resolver.PairTimeout(
			time.Duration(c.ConnectTimeout)*time.Second,
			time.Duration(c.ReadTimeout)*time.Second,
		)
	}
	return resolver.TotalTimeout(time.Duration(c.HTTPTimeout) * time.Second)
}

func (c *Config) ProxyList() []string {
	return splitList(c.Proxies)
}

func (c *Config) UserAgentList() []string {
	return splitList(c.UserAgents)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
