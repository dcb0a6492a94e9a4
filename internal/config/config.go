// SPDX-License-Identifier: AGPL-3.0-only
package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var AppVersion = "dev"

type CacheBackend string

const (
	CacheMemory CacheBackend = "memory"
	CacheRedis  CacheBackend = "redis"
)

type AppConfig struct {
	Env  string `mapstructure:"APP_ENV"`
	Port string `mapstructure:"PORT"`

	APIBaseURL        string `mapstructure:"API_BASE_URL"`
	APITimeoutSeconds int    `mapstructure:"API_TIMEOUT_SECONDS"`

	SessionAuthKeyB64 string `mapstructure:"SESSION_AUTH_KEY"`
	SessionEncKeyB64  string `mapstructure:"SESSION_ENC_KEY"`
	CookieSecure      bool   `mapstructure:"COOKIE_SECURE"`

	CommentCache           CacheBackend `mapstructure:"COMMENT_CACHE"`
	CommentCacheSize       int          `mapstructure:"COMMENT_CACHE_SIZE"`
	CommentCacheTTLMinutes int          `mapstructure:"COMMENT_CACHE_TTL_MINUTES"`
	RedisURL               string       `mapstructure:"REDIS_URL"`

	LogLevel string `mapstructure:"LOG_LEVEL"`

	SessionAuthKey []byte `mapstructure:"-"`
	SessionEncKey  []byte `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "3000")
	v.SetDefault("API_BASE_URL", "http://localhost:8080")
	v.SetDefault("API_TIMEOUT_SECONDS", 15)
	v.SetDefault("SESSION_AUTH_KEY", "")
	v.SetDefault("SESSION_ENC_KEY", "")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("COMMENT_CACHE", string(CacheMemory))
	v.SetDefault("COMMENT_CACHE_SIZE", 1024)
	v.SetDefault("COMMENT_CACHE_TTL_MINUTES", 720)
	v.SetDefault("REDIS_URL", "localhost:6379")
	v.SetDefault("LOG_LEVEL", "info")
}

// LoadConfig reads config.yml (if any) from the working directory and lets
// environment variables override every key.
func LoadConfig() (*AppConfig, error) {
	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.loadSessionKeys(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AppConfig) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	c.CommentCache = CacheBackend(strings.ToLower(strings.TrimSpace(string(c.CommentCache))))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
}

func (c *AppConfig) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

func (c *AppConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API_BASE_URL %q is not an absolute URL", c.APIBaseURL)
	}
	if pointsAtSelf(u, c.Port) {
		return fmt.Errorf("API_BASE_URL %q points at this server's own PORT %s", c.APIBaseURL, c.Port)
	}

	if c.APITimeoutSeconds <= 0 {
		return fmt.Errorf("API_TIMEOUT_SECONDS must be positive, got %d", c.APITimeoutSeconds)
	}

	switch c.CommentCache {
	case CacheMemory:
		if c.CommentCacheSize <= 0 {
			return fmt.Errorf("COMMENT_CACHE_SIZE must be positive, got %d", c.CommentCacheSize)
		}
	case CacheRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when COMMENT_CACHE=redis")
		}
		if c.CommentCacheTTLMinutes <= 0 {
			return fmt.Errorf("COMMENT_CACHE_TTL_MINUTES must be positive, got %d", c.CommentCacheTTLMinutes)
		}
	default:
		return fmt.Errorf("unknown COMMENT_CACHE %q", c.CommentCache)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown LOG_LEVEL %q", c.LogLevel)
	}

	if c.IsProduction() && c.SessionAuthKeyB64 == "" {
		return fmt.Errorf("SESSION_AUTH_KEY is required in production")
	}

	return nil
}

// pointsAtSelf reports whether u is a loopback address on the port this
// process listens on.
func pointsAtSelf(u *url.URL, port string) bool {
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
	default:
		return false
	}
	apiPort := u.Port()
	if apiPort == "" {
		apiPort = "80"
		if u.Scheme == "https" {
			apiPort = "443"
		}
	}
	return apiPort == port
}

func (c *AppConfig) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutSeconds) * time.Second
}

func (c *AppConfig) CommentCacheTTL() time.Duration {
	return time.Duration(c.CommentCacheTTLMinutes) * time.Minute
}

// loadSessionKeys decodes the cookie keys. Outside production a missing auth
// key is replaced by a random one, so sessions do not survive a restart.
func (c *AppConfig) loadSessionKeys() error {
	var err error

	if c.SessionAuthKeyB64 == "" {
		c.SessionAuthKey, err = randomKey(32)
		if err != nil {
			return fmt.Errorf("failed to generate session key: %w", err)
		}
	} else {
		c.SessionAuthKey, err = decodeKey("SESSION_AUTH_KEY", c.SessionAuthKeyB64, 32, 64)
		if err != nil {
			return err
		}
	}

	if c.SessionEncKeyB64 != "" {
		c.SessionEncKey, err = decodeKey("SESSION_ENC_KEY", c.SessionEncKeyB64, 16, 24, 32)
		if err != nil {
			return err
		}
	}

	return nil
}

func decodeKey(name, b64 string, allowed ...int) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("%s is not valid base64: %w", name, err)
	}
	for _, n := range allowed {
		if len(key) == n {
			return key, nil
		}
	}
	return nil, fmt.Errorf("%s must decode to one of %v bytes, got %d", name, allowed, len(key))
}

func randomKey(n int) ([]byte, error) {
	key := make([]byte, n)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}
