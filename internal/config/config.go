package config

import (
	"crypto/rand"
	"encoding/base64"
	"strconv"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

const minKeyLen = 32

// fileConfig is the raw shape read from env, flags and orderdesk.yaml.
type fileConfig struct {
	Port            string        `env:"PORT" flag:"port" yaml:"port" default:"8090" usage:"HTTP listen port"`
	DBDriver        string        `env:"DB_DRIVER" flag:"db-driver" yaml:"db_driver" default:"sqlite" usage:"Database driver: sqlite or postgres"`
	DBPath          string        `env:"DB_PATH" flag:"db-path" yaml:"db_path" default:"./orderdesk.db" usage:"SQLite database file"`
	DatabaseURL     string        `env:"DATABASE_URL" flag:"database-url" yaml:"database_url" usage:"PostgreSQL connection URL"`
	SessionKey      string        `env:"SESSION_KEY" flag:"session-key" yaml:"session_key" usage:"Base64 session signing key (32+ bytes)"`
	CSRFKey         string        `env:"CSRF_KEY" flag:"csrf-key" yaml:"csrf_key" usage:"Base64 CSRF key (32 bytes)"`
	CSRFEnabled     bool          `env:"CSRF_ENABLED" flag:"csrf-enabled" yaml:"csrf_enabled" default:"false" usage:"Require CSRF tokens on POST forms"`
	CookieSecure    bool          `env:"COOKIE_SECURE" flag:"cookie-secure" yaml:"cookie_secure" default:"false" usage:"Mark cookies Secure"`
	CookieDomain    string        `env:"COOKIE_DOMAIN" flag:"cookie-domain" yaml:"cookie_domain" usage:"Cookie domain"`
	RateLimitMax    int           `env:"RATE_LIMIT_MAX" flag:"rate-limit-max" yaml:"rate_limit_max" default:"20" usage:"Max POST requests per client per window"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" flag:"rate-limit-window" yaml:"rate_limit_window" default:"1m" usage:"Rate limit window"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" flag:"shutdown-timeout" yaml:"shutdown_timeout" default:"10s" usage:"Graceful shutdown deadline"`
	LogMode         string        `env:"LOG_MODE" flag:"log-mode" yaml:"log_mode" default:"development" usage:"development or production"`
	LogFile         string        `env:"LOG_FILE" flag:"log-file" yaml:"log_file" usage:"Optional rotated log file"`
}

type Config struct {
	Port            string
	DBDriver        string
	DBPath          string
	DatabaseURL     string
	SessionKey      []byte
	CSRFKey         []byte
	CSRFEnabled     bool
	CookieSecure    bool
	CookieDomain    string
	RateLimitMax    int
	RateLimitWindow time.Duration
	ShutdownTimeout time.Duration
	LogMode         string
	LogFile         string
}

// Load reads configuration from the environment, orderdesk.yaml and, when
// args is not nil, command line flags. Missing keys are replaced with random
// ones and reported through lg.
func Load(lg *zap.Logger, args []string) (*Config, error) {
	var raw fileConfig
	loader := aconfig.LoaderFor(&raw, aconfig.Config{
		SkipFlags: args == nil,
		Args:      args,
		Files:     []string{"orderdesk.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}

	if _, err := strconv.Atoi(raw.Port); err != nil {
		return nil, errors.Errorf("invalid PORT %q", raw.Port)
	}
	switch raw.DBDriver {
	case "sqlite", "postgres":
	default:
		return nil, errors.Errorf("invalid DB_DRIVER %q", raw.DBDriver)
	}
	if raw.DBDriver == "postgres" && raw.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
	}
	if raw.RateLimitMax <= 0 || raw.RateLimitWindow <= 0 {
		return nil, errors.New("rate limit max and window must be positive")
	}

	// gorilla/csrf requires exactly 32 bytes.
	csrfKey := decodeKey(lg, "CSRF_KEY", raw.CSRFKey)[:minKeyLen]

	return &Config{
		Port:            raw.Port,
		DBDriver:        raw.DBDriver,
		DBPath:          raw.DBPath,
		DatabaseURL:     raw.DatabaseURL,
		SessionKey:      decodeKey(lg, "SESSION_KEY", raw.SessionKey),
		CSRFKey:         csrfKey,
		CSRFEnabled:     raw.CSRFEnabled,
		CookieSecure:    raw.CookieSecure,
		CookieDomain:    raw.CookieDomain,
		RateLimitMax:    raw.RateLimitMax,
		RateLimitWindow: raw.RateLimitWindow,
		ShutdownTimeout: raw.ShutdownTimeout,
		LogMode:         raw.LogMode,
		LogFile:         raw.LogFile,
	}, nil
}

// decodeKey falls back to a random key that changes on every restart.
func decodeKey(lg *zap.Logger, name, value string) []byte {
	if value == "" {
		lg.Warn("Key not set, generating a random one. Set it in production.", zap.String("key", name))
		return generateRandomBytes(minKeyLen)
	}
	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil || len(decoded) < minKeyLen {
		lg.Warn("Key is invalid or shorter than 32 bytes, generating a random one.", zap.String("key", name))
		return generateRandomBytes(minKeyLen)
	}
	return decoded
}

func generateRandomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(errors.Wrap(err, "read random bytes"))
	}
	return b
}
