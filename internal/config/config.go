// Package config loads the FileHaven server configuration: an optional YAML
// file, then FILEHAVEN_* environment overrides, then validation.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the variable holding the YAML config file path.
const EnvConfigPath = "FILEHAVEN_CONFIG"

// Config holds every tunable of the server.
type Config struct {
	HTTPAddr string `yaml:"http_addr" validate:"required"`
	GRPCAddr string `yaml:"grpc_addr" validate:"required"`

	// Workers is the size of the preview worker pool.
	Workers  int    `yaml:"workers" validate:"min=1,max=256"`
	SpoolDir string `yaml:"spool_dir" validate:"required"`

	// MaxUploadBytes caps one upload request body.
	MaxUploadBytes int64   `yaml:"max_upload_bytes" validate:"min=1"`
	UploadRate     float64 `yaml:"upload_rate" validate:"gt=0"`
	UploadBurst    int     `yaml:"upload_burst" validate:"min=1"`

	Prefs   PrefsConfig   `yaml:"prefs"`
	Preview PreviewConfig `yaml:"preview"`

	NotificationLimit int `yaml:"notification_limit" validate:"min=1"`

	LogLevel        string        `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat       string        `yaml:"log_format" validate:"oneof=json text"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
}

// PrefsConfig selects where preferences are persisted.
type PrefsConfig struct {
	Driver string `yaml:"driver" validate:"oneof=sqlite mysql memory"`
	DSN    string `yaml:"dsn" validate:"required_unless=Driver memory"`
}

type PreviewConfig struct {
	// ThumbnailWidth bounds image previews; 0 keeps the original image.
	ThumbnailWidth int           `yaml:"thumbnail_width" validate:"min=0"`
	CacheSize      int           `yaml:"cache_size" validate:"min=0"`
	CacheTTL       time.Duration `yaml:"cache_ttl" validate:"min=0"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		HTTPAddr:       ":8080",
		GRPCAddr:       ":50051",
		Workers:        5,
		SpoolDir:       "./data/spool",
		MaxUploadBytes: 64 << 20,
		UploadRate:     5,
		UploadBurst:    10,
		Prefs: PrefsConfig{
			Driver: "sqlite",
			DSN:    "./data/prefs.db",
		},
		Preview: PreviewConfig{
			ThumbnailWidth: 320,
			CacheSize:      256,
			CacheTTL:       10 * time.Minute,
		},
		NotificationLimit: 50,
		LogLevel:          "info",
		LogFormat:         "json",
		ShutdownTimeout:   10 * time.Second,
	}
}

// Load reads path (skipped when empty), applies environment overrides and
// validates the result. ${VAR} references inside the file are expanded.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("config: invalid: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: validate: %w", err)
	}
	return nil
}

// SlogLevel converts LogLevel for slog.HandlerOptions.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func applyEnv(c *Config) error {
	envString("FILEHAVEN_HTTP_ADDR", &c.HTTPAddr)
	envString("FILEHAVEN_GRPC_ADDR", &c.GRPCAddr)
	envString("FILEHAVEN_SPOOL_DIR", &c.SpoolDir)
	envString("FILEHAVEN_PREFS_DRIVER", &c.Prefs.Driver)
	envString("FILEHAVEN_PREFS_DSN", &c.Prefs.DSN)
	envString("FILEHAVEN_LOG_LEVEL", &c.LogLevel)
	envString("FILEHAVEN_LOG_FORMAT", &c.LogFormat)

	return errors.Join(
		envInt("FILEHAVEN_WORKERS", &c.Workers),
		envInt64("FILEHAVEN_MAX_UPLOAD_BYTES", &c.MaxUploadBytes),
		envFloat("FILEHAVEN_UPLOAD_RATE", &c.UploadRate),
		envInt("FILEHAVEN_UPLOAD_BURST", &c.UploadBurst),
		envInt("FILEHAVEN_THUMBNAIL_WIDTH", &c.Preview.ThumbnailWidth),
		envInt("FILEHAVEN_PREVIEW_CACHE_SIZE", &c.Preview.CacheSize),
		envDuration("FILEHAVEN_PREVIEW_CACHE_TTL", &c.Preview.CacheTTL),
		envInt("FILEHAVEN_NOTIFICATION_LIMIT", &c.NotificationLimit),
		envDuration("FILEHAVEN_SHUTDOWN_TIMEOUT", &c.ShutdownTimeout),
	)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = n
	return nil
}

func envInt64(key string, dst *int64) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = n
	return nil
}

func envFloat(key string, dst *float64) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = f
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = d
	return nil
}
