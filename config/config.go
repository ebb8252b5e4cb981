// Package config loads the service configuration from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v2"

	"loanscore/ml"
)

const (
	DefaultPath = "config.yaml"
	// PathEnvVar overrides the config file location.
	PathEnvVar = "LOANSCORE_CONFIG"

	CacheNone  = "none"
	CacheLRU   = "lru"
	CacheRedis = "redis"
)

type Config struct {
	Http     HTTP     `yaml:"http"`
	Log      Log      `yaml:"log"`
	Model    Model    `yaml:"model"`
	Features Features `yaml:"features"`
	Cache    Cache    `yaml:"cache"`
}

type HTTP struct {
	Port           int           `yaml:"port"`
	Timeout        time.Duration `yaml:"timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
}

type Log struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // console or json
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type Model struct {
	Type      string  `yaml:"type"`
	Path      string  `yaml:"path"`
	Threshold float64 `yaml:"threshold"`
	Watch     bool    `yaml:"watch"`
}

type Features struct {
	// InterestValue is raw, fraction or none and must match the artifact.
	InterestValue string `yaml:"interest_value"`
}

type Cache struct {
	Backend   string        `yaml:"backend"`
	Size      int           `yaml:"size"`
	TTL       time.Duration `yaml:"ttl"`
	RedisAddr string        `yaml:"redis_addr"`
}

func Default() *Config {
	return &Config{
		Http: HTTP{
			Port:           8080,
			Timeout:        30 * time.Second,
			AllowedOrigins: []string{"*"},
			MaxBodyBytes:   64 << 10,
		},
		Log: Log{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Model: Model{
			Type:      ml.ModelTypeCatBoostJSON,
			Path:      "models/loan_default.json",
			Threshold: ml.DefaultThreshold,
		},
		Features: Features{InterestValue: "raw"},
		Cache: Cache{
			Backend:   CacheNone,
			Size:      1024,
			TTL:       10 * time.Minute,
			RedisAddr: "localhost:6379",
		},
	}
}

// Load is Read followed by Validate.
func Load(path string) (*Config, error) {
	config, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Read reads path on top of the defaults without validating, so callers can
// apply their own overrides first. A missing file is not an error when path
// is the default location. Environment overrides, optionally from a .env
// file, are applied last.
func Read(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	if path == "" {
		path = os.Getenv(PathEnvVar)
	}
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	config := Default()
	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(config); err != nil {
			return nil, fmt.Errorf("decoding config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("opening config: %w", err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("LOANSCORE_MODEL_PATH"); v != "" {
		c.Model.Path = v
	}
	if v := os.Getenv("LOANSCORE_MODEL_TYPE"); v != "" {
		c.Model.Type = v
	}
	if v := os.Getenv("LOANSCORE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOANSCORE_REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("LOANSCORE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LOANSCORE_PORT: %w", err)
		}
		c.Http.Port = port
	}
	return nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var err error
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		err = multierr.Append(err, fmt.Errorf("http.port %d out of range", c.Http.Port))
	}
	if c.Http.Timeout <= 0 {
		err = multierr.Append(err, errors.New("http.timeout must be positive"))
	}
	if c.Http.MaxBodyBytes <= 0 {
		err = multierr.Append(err, errors.New("http.max_body_bytes must be positive"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		err = multierr.Append(err, fmt.Errorf("log.format %q is not console or json", c.Log.Format))
	}
	switch c.Model.Type {
	case ml.ModelTypeCatBoostJSON, ml.ModelTypeTreeEnsemble:
	default:
		err = multierr.Append(err, fmt.Errorf("model.type %q: %w", c.Model.Type, ml.ErrUnsupportedModel))
	}
	if c.Model.Path == "" {
		err = multierr.Append(err, errors.New("model.path is required"))
	}
	if c.Model.Threshold <= 0 || c.Model.Threshold >= 1 {
		err = multierr.Append(err, fmt.Errorf("model.threshold %g not in (0, 1)", c.Model.Threshold))
	}
	if _, e := ml.ParseInterestConvention(c.Features.InterestValue); e != nil {
		err = multierr.Append(err, fmt.Errorf("features.interest_value: %w", e))
	}
	switch c.Cache.Backend {
	case "", CacheNone:
	case CacheLRU:
		if c.Cache.Size <= 0 {
			err = multierr.Append(err, errors.New("cache.size must be positive"))
		}
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			err = multierr.Append(err, errors.New("cache.redis_addr is required"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("cache.backend %q is not none, lru or redis", c.Cache.Backend))
	}
	return err
}

// Schema returns the encoder layout selected by features.interest_value.
func (c *Config) Schema() (ml.Schema, error) {
	conv, err := ml.ParseInterestConvention(c.Features.InterestValue)
	if err != nil {
		return ml.Schema{}, err
	}
	return ml.NewSchema(conv), nil
}
