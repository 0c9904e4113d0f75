// Package config loads canopy.yaml and applies CANOPY_* environment overrides.
package config

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/canopy/pkg/analysis"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "canopy.yaml"

// Store backends.
const (
	BackendFile   = "file"
	BackendLoam   = "loam"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config is the full process configuration.
type Config struct {
	Server ServerConfig `yaml:"server" json:"server"`
	Store  StoreConfig  `yaml:"store" json:"store"`
	Engine EngineConfig `yaml:"engine" json:"engine"`
	Log    LogConfig    `yaml:"log" json:"log"`
}

type ServerConfig struct {
	Port int `yaml:"port" json:"port"`
}

type StoreConfig struct {
	Backend    string           `yaml:"backend" json:"backend"`
	Dir        string           `yaml:"dir" json:"dir"`
	Redis      RedisConfig      `yaml:"redis" json:"redis"`
	Encryption EncryptionConfig `yaml:"encryption" json:"encryption"`
	// Redact lists regular expressions; matching node metadata keys are masked on save.
	Redact []string `yaml:"redact" json:"redact"`
}

// EncryptionConfig holds base64 encoded AES-256 keys. An empty Key disables encryption.
type EncryptionConfig struct {
	Key          string   `yaml:"key" json:"key"`
	FallbackKeys []string `yaml:"fallback_keys" json:"fallback_keys"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" json:"addr"`
	Password string        `yaml:"password" json:"password"`
	DB       int           `yaml:"db" json:"db"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
}

type EngineConfig struct {
	RootPolicy string `yaml:"root_policy" json:"root_policy"`
	MaxDepth   int    `yaml:"max_depth" json:"max_depth"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{Port: 8080},
		Store: StoreConfig{
			Backend: BackendFile,
			Dir:     ".canopy/trees",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "canopy:tree:",
			},
		},
		Engine: EngineConfig{
			RootPolicy: string(analysis.RootPolicyStrict),
			MaxDepth:   analysis.DefaultMaxDepth,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults, then applies the environment and validates.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	applyEnv(&cfg, os.Getenv)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return json.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv("CANOPY_PORT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = i
		}
	}
	if v := getenv("CANOPY_STORE"); v != "" {
		cfg.Store.Backend = strings.ToLower(v)
	}
	if v := getenv("CANOPY_DIR"); v != "" {
		cfg.Store.Dir = v
	}
	if v := getenv("CANOPY_REDIS_ADDR"); v != "" {
		cfg.Store.Redis.Addr = v
	}
	if v := getenv("CANOPY_REDIS_PASSWORD"); v != "" {
		cfg.Store.Redis.Password = v
	}
	if v := getenv("CANOPY_REDIS_DB"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Store.Redis.DB = i
		}
	}
	if v := getenv("CANOPY_REDIS_PREFIX"); v != "" {
		cfg.Store.Redis.Prefix = v
	}
	if v := getenv("CANOPY_REDIS_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Store.Redis.TTL = d
		}
	}
	if v := getenv("CANOPY_ENCRYPTION_KEY"); v != "" {
		cfg.Store.Encryption.Key = v
	}
	if v := getenv("CANOPY_ENCRYPTION_FALLBACK_KEYS"); v != "" {
		cfg.Store.Encryption.FallbackKeys = splitList(v)
	}
	if v := getenv("CANOPY_REDACT"); v != "" {
		cfg.Store.Redact = splitList(v)
	}
	if v := getenv("CANOPY_ROOT_POLICY"); v != "" {
		cfg.Engine.RootPolicy = v
	}
	if v := getenv("CANOPY_MAX_DEPTH"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Engine.MaxDepth = i
		}
	}
	if v := getenv("CANOPY_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := getenv("CANOPY_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	switch c.Store.Backend {
	case BackendFile, BackendLoam:
		if c.Store.Dir == "" {
			return fmt.Errorf("store.dir is required for the %s backend", c.Store.Backend)
		}
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr is required for the redis backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}
	if c.Store.Backend == BackendLoam && (c.Store.Encryption.Key != "" || len(c.Store.Redact) > 0) {
		return fmt.Errorf("store.encryption and store.redact need a writable backend, not loam")
	}
	if _, _, err := c.Store.Encryption.Keys(); err != nil {
		return err
	}
	if _, ok := analysis.ParseRootPolicy(c.Engine.RootPolicy); !ok {
		return fmt.Errorf("unknown engine.root_policy %q", c.Engine.RootPolicy)
	}
	if c.Engine.MaxDepth < 1 {
		return fmt.Errorf("engine.max_depth must be >= 1")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json")
	}
	return nil
}

// RootPolicy returns the parsed engine root policy. Validate must have passed.
func (c Config) RootPolicy() analysis.RootPolicy {
	p, _ := analysis.ParseRootPolicy(c.Engine.RootPolicy)
	return p
}

// Enabled reports whether an active key is configured.
func (e EncryptionConfig) Enabled() bool {
	return e.Key != ""
}

// Keys decodes the active and fallback keys.
func (e EncryptionConfig) Keys() ([]byte, [][]byte, error) {
	if !e.Enabled() {
		return nil, nil, nil
	}
	active, err := decodeKey(e.Key)
	if err != nil {
		return nil, nil, fmt.Errorf("store.encryption.key: %w", err)
	}
	fallback := make([][]byte, 0, len(e.FallbackKeys))
	for i, k := range e.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("store.encryption.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
