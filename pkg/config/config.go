// Package config resolves run settings from defaults, a TOML file, the
// environment (optionally seeded from a .env file) and command-line flags.
//
// Precedence, lowest to highest:
//
//  1. [Default]
//  2. the TOML file: an explicit path, or [FileName] in the analyzed directory
//  3. environment variables, falling back to a .env file in the analyzed directory
//  4. flags, applied by the caller after [Load]
//
// Example .nginx-analyze.toml:
//
//	server_url = "https://nginly.example.internal"
//	environment = "staging"
//	strict = true
//	exclude = ["legacy/**"]
//	timeout = "90s"
//
//	[cache]
//	enabled = true
//	ttl = "1h"
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/nginly/nginx-analyze-ci/pkg/batch"
	"github.com/nginly/nginx-analyze-ci/pkg/errors"
)

// FileName is the config file looked up in the analyzed directory.
const FileName = ".nginx-analyze.toml"

// Environment variables.
const (
	EnvToken       = "NGINX_ANALYZE_TOKEN"
	EnvEnvironment = "NGINX_ANALYZE_ENVIRONMENT"
	EnvServerURL   = "NGINX_ANALYZE_SERVER_URL"
	EnvURL         = "NGINX_ANALYZE_URL"
	EnvRedisURL    = "NGINX_ANALYZE_REDIS_URL"
)

// DefaultServerURL is the hosted analyzer.
const DefaultServerURL = "https://nginly.com"

// AnalyzePath is appended to the server URL.
const AnalyzePath = "/analyze"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds every setting of a run.
type Config struct {
	ServerURL          string        `toml:"server_url"`
	Key                string        `toml:"key"`
	Environment        string        `toml:"environment"`
	Strict             bool          `toml:"strict"`
	Format             string        `toml:"format"`
	Pattern            string        `toml:"pattern"`
	Exclude            []string      `toml:"exclude"`
	MaxBatchBytes      int           `toml:"max_batch_bytes"`
	AllowQuotaExceeded bool          `toml:"allow_quota_exceeded"`
	Timeout            time.Duration `toml:"timeout"`
	Compress           bool          `toml:"compress"`
	Workers            int           `toml:"workers"`
	Cache              CacheConfig   `toml:"cache"`
}

// CacheConfig selects the analyzer response cache.
type CacheConfig struct {
	Enabled bool `toml:"enabled"`
	// Dir is the file cache directory; empty means the user cache dir.
	Dir string        `toml:"dir"`
	TTL time.Duration `toml:"ttl"`
	// RedisURL selects the Redis backend instead of files.
	RedisURL string `toml:"redis_url"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		ServerURL:     DefaultServerURL,
		Format:        FormatText,
		MaxBatchBytes: batch.DefaultMaxBytes,
		Timeout:       120 * time.Second,
		Compress:      true,
		Cache: CacheConfig{
			TTL: 24 * time.Hour,
		},
	}
}

// Options tells Load where to look.
type Options struct {
	// Dir is the analyzed directory, searched for FileName and .env.
	Dir string
	// File is an explicit config file; it must exist.
	File string
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// Load resolves the configuration up to, but not including, flags.
func Load(opts Options) (Config, error) {
	cfg := Default()

	path := opts.File
	if path == "" && opts.Dir != "" {
		candidate := filepath.Join(opts.Dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	dotenv := map[string]string{}
	if opts.Dir != "" {
		if m, err := godotenv.Read(filepath.Join(opts.Dir, ".env")); err == nil {
			dotenv = m
		}
	}
	cfg.ApplyEnv(func(k string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return dotenv[k]
	})
	return cfg, nil
}

// LoadFile decodes a TOML file over cfg. Unknown keys are rejected.
func LoadFile(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "config file not found: %s", path)
		}
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// ApplyEnv overrides cfg with environment values. A server URL is only taken
// from the environment if it starts with "http".
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvToken); v != "" {
		c.Key = v
	}
	if v := getenv(EnvEnvironment); v != "" {
		c.Environment = v
	}
	raw := strings.TrimSpace(getenv(EnvServerURL))
	if raw == "" {
		raw = strings.TrimSpace(getenv(EnvURL))
	}
	if strings.HasPrefix(raw, "http") {
		c.ServerURL = raw
	}
	if v := strings.TrimSpace(getenv(EnvRedisURL)); v != "" {
		c.Cache.RedisURL = v
	}
}

// AnalyzeURL returns the analyze endpoint.
func (c Config) AnalyzeURL() string {
	base := strings.TrimSuffix(c.ServerURL, "/")
	if base == "" {
		base = DefaultServerURL
	}
	return base + AnalyzePath
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	switch c.Format {
	case FormatText, FormatJSON:
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (want %s or %s)", c.Format, FormatText, FormatJSON)
	}
	if c.MaxBatchBytes < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max batch bytes cannot be negative")
	}
	if c.Timeout < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "timeout cannot be negative")
	}
	if c.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "workers cannot be negative")
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache ttl cannot be negative")
	}
	return errors.ValidateServerURL(c.ServerURL)
}
