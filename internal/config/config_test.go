package config

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canopy/pkg/analysis"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, analysis.RootPolicyStrict, cfg.RootPolicy())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canopy.yaml")
	content := `
server:
  port: 9090
store:
  backend: redis
  redis:
    addr: redis:6379
    ttl: 1h
engine:
  root_policy: first
  max_depth: 64
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, time.Hour, cfg.Store.Redis.TTL)
	assert.Equal(t, "canopy:tree:", cfg.Store.Redis.Prefix, "unset keys keep their defaults")
	assert.Equal(t, analysis.RootPolicyFirst, cfg.RootPolicy())
	assert.Equal(t, 64, cfg.Engine.MaxDepth)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canopy.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"store": {"backend": "memory"}}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("CANOPY_PORT", "7070")
	t.Setenv("CANOPY_STORE", "LOAM")
	t.Setenv("CANOPY_DIR", "docs/trees")
	t.Setenv("CANOPY_MAX_DEPTH", "not-a-number")
	t.Setenv("CANOPY_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, BackendLoam, cfg.Store.Backend)
	assert.Equal(t, "docs/trees", cfg.Store.Dir)
	assert.Equal(t, analysis.DefaultMaxDepth, cfg.Engine.MaxDepth)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"unknown backend", func(c *Config) { c.Store.Backend = "s3" }, "unknown store.backend"},
		{"file without dir", func(c *Config) { c.Store.Dir = "" }, "store.dir is required"},
		{"redis without addr", func(c *Config) { c.Store.Backend = BackendRedis; c.Store.Redis.Addr = "" }, "store.redis.addr"},
		{"root policy", func(c *Config) { c.Engine.RootPolicy = "last" }, "root_policy"},
		{"depth", func(c *Config) { c.Engine.MaxDepth = 0 }, "max_depth"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}

	cfg := Default()
	cfg.Store.Backend = BackendMemory
	cfg.Store.Dir = ""
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canopy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "load config file")
}

func TestEncryptionKeys(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	old := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{3}, 32))

	cfg := Default()
	assert.False(t, cfg.Store.Encryption.Enabled())

	applyEnv(&cfg, func(k string) string {
		return map[string]string{
			"CANOPY_ENCRYPTION_KEY":           key,
			"CANOPY_ENCRYPTION_FALLBACK_KEYS": old + ", ",
			"CANOPY_REDACT":                   "email,ssn",
		}[k]
	})
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"email", "ssn"}, cfg.Store.Redact)

	active, fallback, err := cfg.Store.Encryption.Keys()
	require.NoError(t, err)
	assert.Len(t, active, 32)
	require.Len(t, fallback, 1)
	assert.Equal(t, byte(3), fallback[0][0])

	cfg.Store.Encryption.Key = base64.StdEncoding.EncodeToString([]byte("short"))
	assert.Error(t, cfg.Validate())

	cfg.Store.Encryption.Key = key
	cfg.Store.Backend = BackendLoam
	assert.Error(t, cfg.Validate())
}
