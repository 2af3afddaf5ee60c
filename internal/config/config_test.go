package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/embed-images/internal/cache"
	"github.com/user/embed-images/internal/resolver"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, BackendDir, cfg.CacheBackend)
	assert.Equal(t, cache.DefaultTempPath(), cfg.CacheDir)
	assert.Equal(t, []string{"."}, cfg.Roots())
	assert.Equal(t, resolver.Timeout{}, cfg.Timeout())
	assert.Equal(t, 1, cfg.Concurrency)
	assert.False(t, cfg.Strict)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(
		"FOLDERS_ROOT=static, media\n"+
			"CACHE_BACKEND=none\n"+
			"HTTP_TIMEOUT=5\n"+
			"STRICT=true\n"+
			"PROXIES=http://p1:8000,http://p2:8000\n"), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"static", "media"}, cfg.Roots())
	assert.Equal(t, BackendNone, cfg.CacheBackend)
	assert.Equal(t, resolver.TotalTimeout(5*time.Second), cfg.Timeout())
	assert.True(t, cfg.Strict)
	assert.Equal(t, []string{"http://p1:8000", "http://p2:8000"}, cfg.ProxyList())
	assert.Empty(t, cfg.UserAgentList())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONNECT_TIMEOUT", "3")
	t.Setenv("READ_TIMEOUT", "7")
	t.Setenv("CONCURRENCY", "4")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, resolver.PairTimeout(3*time.Second, 7*time.Second), cfg.Timeout())
	assert.Equal(t, 4, cfg.Concurrency)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"dir", Config{CacheBackend: BackendDir}, false},
		{"unknown backend", Config{CacheBackend: "memcached"}, true},
		{"postgres without url", Config{CacheBackend: BackendPostgres}, true},
		{"postgres with url", Config{CacheBackend: BackendPostgres, PostgresURL: "postgres://x"}, false},
		{"negative timeout", Config{CacheBackend: BackendNone, HTTPTimeout: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
