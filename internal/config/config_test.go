package config

import (
	"bytes"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(zap.NewNop(), nil)
	require.NoError(t, err)

	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "./orderdesk.db", cfg.DBPath)
	assert.False(t, cfg.CSRFEnabled)
	assert.Equal(t, 20, cfg.RateLimitMax)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Len(t, cfg.SessionKey, 32)
	assert.Len(t, cfg.CSRFKey, 32)
}

func TestLoad_Env(t *testing.T) {
	key := bytes.Repeat([]byte{7}, 64)
	t.Setenv("PORT", "9000")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/orderdesk")
	t.Setenv("SESSION_KEY", base64.StdEncoding.EncodeToString(key))
	t.Setenv("CSRF_KEY", base64.StdEncoding.EncodeToString(key))
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("COOKIE_SECURE", "true")

	cfg, err := Load(zap.NewNop(), nil)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "postgres://localhost/orderdesk", cfg.DatabaseURL)
	assert.Equal(t, key, cfg.SessionKey)
	assert.Equal(t, key[:32], cfg.CSRFKey)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
	assert.True(t, cfg.CookieSecure)
}

func TestLoad_Flags(t *testing.T) {
	cfg, err := Load(zap.NewNop(), []string{"-port", "8123", "-db-path", "/tmp/x.db"})
	require.NoError(t, err)
	assert.Equal(t, "8123", cfg.Port)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("port", func(t *testing.T) {
		t.Setenv("PORT", "http")
		_, err := Load(zap.NewNop(), nil)
		assert.Error(t, err)
	})
	t.Run("driver", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "oracle")
		_, err := Load(zap.NewNop(), nil)
		assert.Error(t, err)
	})
	t.Run("postgres without url", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "postgres")
		t.Setenv("DATABASE_URL", "")
		_, err := Load(zap.NewNop(), nil)
		assert.Error(t, err)
	})
}

func TestDecodeKey_ShortKey(t *testing.T) {
	short := base64.StdEncoding.EncodeToString([]byte("short"))
	got := decodeKey(zap.NewNop(), "SESSION_KEY", short)
	assert.Len(t, got, 32)
	assert.NotEqual(t, []byte("short"), got)
}
