package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all server configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	JWT    JWTConfig    `yaml:"jwt"`
	Redis  RedisConfig  `yaml:"redis"`
	Mazes  MazesConfig  `yaml:"mazes"`
	Search SearchConfig `yaml:"search"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig holds server-specific settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// JWTConfig holds JWT authentication settings
type JWTConfig struct {
	Issuer              string `yaml:"issuer"`
	PublicKeyURL        string `yaml:"public_key_url"`
	PublicKeyRefreshHrs int    `yaml:"public_key_refresh_hours"`
	// Disabled admits every request as an anonymous user. Local use only.
	Disabled bool `yaml:"disabled"`
}

// RedisConfig holds Redis connection settings. An empty Address disables
// Redis: paths are cached in memory and the token blacklist is skipped.
type RedisConfig struct {
	Address         string `yaml:"address"`
	Password        string `yaml:"password"`
	DB              int    `yaml:"db"`
	BlacklistPrefix string `yaml:"blacklist_prefix"`
	PathPrefix      string `yaml:"path_prefix"`
	PathTTLSeconds  int    `yaml:"path_ttl_seconds"`
}

// MazesConfig points at the maze definition files
type MazesConfig struct {
	Dir string `yaml:"dir"`
}

// SearchConfig bounds the work a single request may trigger
type SearchConfig struct {
	TimeoutMs       int `yaml:"timeout_ms"`
	MaxTraceSteps   int `yaml:"max_trace_steps"`
	MemoryCacheSize int `yaml:"memory_cache_size"`
}

// LogConfig selects logger verbosity and output format
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text, json or logfmt
}

// Timeout returns the per-search deadline.
func (s SearchConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// PathTTL returns how long cached paths live in Redis.
func (r RedisConfig) PathTTL() time.Duration {
	return time.Duration(r.PathTTLSeconds) * time.Second
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration and fills defaults
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults if not provided
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
	if cfg.JWT.PublicKeyRefreshHrs == 0 {
		cfg.JWT.PublicKeyRefreshHrs = 24
	}
	if cfg.Redis.BlacklistPrefix == "" {
		cfg.Redis.BlacklistPrefix = "blacklist:"
	}
	if cfg.Redis.PathPrefix == "" {
		cfg.Redis.PathPrefix = "mazenav:path:"
	}
	if cfg.Redis.PathTTLSeconds == 0 {
		cfg.Redis.PathTTLSeconds = 3600
	}
	if cfg.Mazes.Dir == "" {
		cfg.Mazes.Dir = "./mazes"
	}
	if cfg.Search.TimeoutMs == 0 {
		cfg.Search.TimeoutMs = 2000
	}
	if cfg.Search.MaxTraceSteps == 0 {
		cfg.Search.MaxTraceSteps = 500
	}
	if cfg.Search.MemoryCacheSize == 0 {
		cfg.Search.MemoryCacheSize = 1024
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if !c.JWT.Disabled && c.JWT.PublicKeyURL == "" {
		return fmt.Errorf("jwt.public_key_url is required unless jwt.disabled is set")
	}
	if c.Search.TimeoutMs < 0 || c.Search.MaxTraceSteps < 0 || c.Search.MemoryCacheSize < 0 {
		return fmt.Errorf("search limits must not be negative")
	}
	switch c.Log.Format {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}
	return nil
}
